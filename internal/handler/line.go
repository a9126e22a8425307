package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/simple-orders/internal/domain/order"
)

type lineResponse struct {
	ID         uuid.UUID       `json:"id"`
	OrderID    uuid.UUID       `json:"order_id"`
	SaleItemID uuid.UUID       `json:"sale_item_id"`
	Value      decimal.Decimal `json:"value"`
}

func toLineResponse(l *order.Line) lineResponse {
	return lineResponse{
		ID:         l.ID,
		OrderID:    l.OrderID,
		SaleItemID: l.SaleItemID,
		Value:      l.Value,
	}
}

func (h *Handler) listLines(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid order id")
		return
	}
	filter, err := order.ParseLineFilter(queryParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	page, pageNum, size := pageFromQuery(c)

	lines, total, err := h.lines.ListByOrder(c.Request.Context(), orderID, filter, page)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]lineResponse, len(lines))
	for i := range lines {
		out[i] = toLineResponse(&lines[i])
	}
	c.JSON(http.StatusOK, listResponse[lineResponse]{Items: out, Total: total, Page: pageNum, Size: size})
}

func (h *Handler) getLine(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid order line id")
		return
	}

	l, err := h.lines.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLineResponse(l))
}

type addLineRequest struct {
	SaleItemID uuid.UUID `json:"sale_item_id" binding:"required"`
}

func (h *Handler) addLine(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid order id")
		return
	}
	var req addLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	l, err := h.lines.Add(c.Request.Context(), orderID, req.SaleItemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toLineResponse(l))
}

func (h *Handler) removeLine(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid order line id")
		return
	}
	if err := h.lines.Remove(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
