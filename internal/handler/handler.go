// Package handler exposes the domain services over HTTP. Routing and JSON
// binding use gin; business decisions stay in the services.
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xenking/simple-orders/internal/domain"
	"github.com/xenking/simple-orders/internal/domain/catalog"
	"github.com/xenking/simple-orders/internal/domain/order"
)

// Handler wires the domain services to the HTTP routes.
type Handler struct {
	items  *catalog.Service
	orders *order.Service
	lines  *order.LineService
}

// New constructs a Handler with the required services.
func New(items *catalog.Service, orders *order.Service, lines *order.LineService) *Handler {
	return &Handler{
		items:  items,
		orders: orders,
		lines:  lines,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/sale-items", h.listSaleItems)
	r.POST("/sale-items", h.createSaleItem)
	r.GET("/sale-items/:id", h.getSaleItem)
	r.PUT("/sale-items/:id", h.updateSaleItem)
	r.DELETE("/sale-items/:id", h.deleteSaleItem)

	r.GET("/orders", h.listOrders)
	r.POST("/orders", h.createOrder)
	r.GET("/orders/:id", h.getOrder)
	r.PUT("/orders/:id", h.updateOrder)
	r.DELETE("/orders/:id", h.deleteOrder)
	r.PUT("/orders/:id/discount", h.applyDiscount)
	r.POST("/orders/:id/close", h.closeOrder)

	r.GET("/orders/:id/lines", h.listLines)
	r.POST("/orders/:id/lines", h.addLine)
	r.GET("/lines/:id", h.getLine)
	r.DELETE("/lines/:id", h.removeLine)
}

// listResponse is the envelope of every paginated listing.
type listResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

// pageFromQuery reads the 1-based page and size query parameters.
func pageFromQuery(c *gin.Context) (domain.Page, int, int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.Query("size"))
	if err != nil || size < 1 {
		size = domain.DefaultPageSize
	}
	if size > domain.MaxPageSize {
		size = domain.MaxPageSize
	}
	return domain.Page{Offset: (page - 1) * size, Limit: size}, page, size
}

// queryParams flattens the query string into the single-valued map the
// filter parsers accept.
func queryParams(c *gin.Context) map[string]string {
	values := c.Request.URL.Query()
	params := make(map[string]string, len(values))
	for key, vs := range values {
		if len(vs) > 0 {
			params[key] = vs[0]
		}
	}
	return params
}
