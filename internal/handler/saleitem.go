package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/simple-orders/internal/domain/catalog"
)

type saleItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	BasePrice decimal.Decimal `json:"base_price"`
	Active    bool            `json:"active"`
}

func toSaleItemResponse(item *catalog.SaleItem) saleItemResponse {
	return saleItemResponse{
		ID:        item.ID,
		Name:      item.Name,
		Type:      string(item.Type),
		BasePrice: item.BasePrice,
		Active:    item.Active,
	}
}

func (h *Handler) listSaleItems(c *gin.Context) {
	filter, err := catalog.ParseFilter(queryParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	page, pageNum, size := pageFromQuery(c)

	items, total, err := h.items.List(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]saleItemResponse, len(items))
	for i := range items {
		out[i] = toSaleItemResponse(&items[i])
	}
	c.JSON(http.StatusOK, listResponse[saleItemResponse]{Items: out, Total: total, Page: pageNum, Size: size})
}

func (h *Handler) getSaleItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid sale item id")
		return
	}

	item, err := h.items.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSaleItemResponse(item))
}

type saleItemCreateRequest struct {
	Name      string          `json:"name" binding:"required"`
	Type      string          `json:"type" binding:"required"`
	BasePrice decimal.Decimal `json:"base_price"`
	Active    *bool           `json:"active"`
}

func (h *Handler) createSaleItem(c *gin.Context) {
	var req saleItemCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	typ, err := catalog.ParseItemType(req.Type)
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := h.items.Create(c.Request.Context(), catalog.CreateParams{
		Name:      req.Name,
		Type:      typ,
		BasePrice: req.BasePrice,
		Active:    req.Active,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSaleItemResponse(item))
}

type saleItemUpdateRequest struct {
	Name      string          `json:"name" binding:"required"`
	Type      string          `json:"type" binding:"required"`
	BasePrice decimal.Decimal `json:"base_price"`
	Active    bool            `json:"active"`
}

func (h *Handler) updateSaleItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid sale item id")
		return
	}
	var req saleItemUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	typ, err := catalog.ParseItemType(req.Type)
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := h.items.Update(c.Request.Context(), id, catalog.UpdateParams{
		Name:      req.Name,
		Type:      typ,
		BasePrice: req.BasePrice,
		Active:    req.Active,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSaleItemResponse(item))
}

func (h *Handler) deleteSaleItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid sale item id")
		return
	}
	if err := h.items.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
