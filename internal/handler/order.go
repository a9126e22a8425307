package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/simple-orders/internal/domain/order"
)

type orderResponse struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	DiscountFactor decimal.Decimal `json:"discount_factor"`
	Status         string          `json:"status"`
}

func toOrderResponse(o *order.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		Code:           o.Code,
		DiscountFactor: o.DiscountFactor,
		Status:         string(o.Status),
	}
}

func (h *Handler) listOrders(c *gin.Context) {
	filter, err := order.ParseFilter(queryParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	page, pageNum, size := pageFromQuery(c)

	orders, total, err := h.orders.List(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	c.JSON(http.StatusOK, listResponse[orderResponse]{Items: out, Total: total, Page: pageNum, Size: size})
}

func (h *Handler) getOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid order id")
		return
	}

	o, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

type orderCreateRequest struct {
	Code           string          `json:"code" binding:"required"`
	DiscountFactor decimal.Decimal `json:"discount_factor"`
}

func (h *Handler) createOrder(c *gin.Context) {
	var req orderCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	o, err := h.orders.Create(c.Request.Context(), req.Code, req.DiscountFactor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(o))
}

type orderUpdateRequest struct {
	Code           string          `json:"code" binding:"required"`
	DiscountFactor decimal.Decimal `json:"discount_factor"`
	Status         string          `json:"status" binding:"required"`
}

func (h *Handler) updateOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid order id")
		return
	}
	var req orderUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	o, err := h.orders.Update(c.Request.Context(), id, order.UpdateParams{
		Code:           req.Code,
		DiscountFactor: req.DiscountFactor,
		Status:         status,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

type discountRequest struct {
	// Pointer so an omitted field is distinguishable from an explicit 0.00.
	DiscountFactor *decimal.Decimal `json:"discount_factor"`
}

func (h *Handler) applyDiscount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid order id")
		return
	}
	var req discountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.DiscountFactor == nil {
		respondBadRequest(c, "discount_factor is required")
		return
	}

	o, err := h.orders.ApplyDiscount(c.Request.Context(), id, *req.DiscountFactor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *Handler) closeOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid order id")
		return
	}

	o, err := h.orders.Close(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *Handler) deleteOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid order id")
		return
	}
	if err := h.orders.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
