package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/simple-orders/internal/domain"
	"github.com/xenking/simple-orders/internal/domain/catalog"
	"github.com/xenking/simple-orders/internal/domain/money"
	"github.com/xenking/simple-orders/internal/domain/order"
	"github.com/xenking/simple-orders/internal/domain/pricing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- In-memory storage ---

type noopAtomic struct{}

func (noopAtomic) InTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type memItemRepo struct {
	byID map[uuid.UUID]catalog.SaleItem
}

func (m *memItemRepo) GetByID(_ context.Context, id uuid.UUID) (*catalog.SaleItem, error) {
	it, ok := m.byID[id]
	if !ok {
		return nil, domain.NotFound(catalog.EntityName, id)
	}
	return &it, nil
}

func (m *memItemRepo) List(_ context.Context, _ catalog.Filter, _ domain.Page) ([]catalog.SaleItem, error) {
	out := make([]catalog.SaleItem, 0, len(m.byID))
	for _, it := range m.byID {
		out = append(out, it)
	}
	return out, nil
}

func (m *memItemRepo) Count(_ context.Context, _ catalog.Filter) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *memItemRepo) Create(_ context.Context, item *catalog.SaleItem) error {
	m.byID[item.ID] = *item
	return nil
}

func (m *memItemRepo) Update(_ context.Context, item *catalog.SaleItem) error {
	if _, ok := m.byID[item.ID]; !ok {
		return domain.NotFound(catalog.EntityName, item.ID)
	}
	m.byID[item.ID] = *item
	return nil
}

func (m *memItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return domain.NotFound(catalog.EntityName, id)
	}
	delete(m.byID, id)
	return nil
}

type memOrderRepo struct {
	byID map[uuid.UUID]order.Order
}

func (m *memOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, domain.NotFound(order.EntityName, id)
	}
	return &o, nil
}

func (m *memOrderRepo) List(_ context.Context, _ order.Filter, _ domain.Page) ([]order.Order, error) {
	out := make([]order.Order, 0, len(m.byID))
	for _, o := range m.byID {
		out = append(out, o)
	}
	return out, nil
}

func (m *memOrderRepo) Count(_ context.Context, _ order.Filter) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *memOrderRepo) Create(_ context.Context, o *order.Order) error {
	m.byID[o.ID] = *o
	return nil
}

func (m *memOrderRepo) Update(_ context.Context, o *order.Order) error {
	if _, ok := m.byID[o.ID]; !ok {
		return domain.NotFound(order.EntityName, o.ID)
	}
	m.byID[o.ID] = *o
	return nil
}

func (m *memOrderRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return domain.NotFound(order.EntityName, id)
	}
	delete(m.byID, id)
	return nil
}

type memLineRepo struct {
	byID   map[uuid.UUID]order.Line
	orders *memOrderRepo
	items  *memItemRepo
}

func (m *memLineRepo) GetByID(_ context.Context, id uuid.UUID) (*order.Line, error) {
	l, ok := m.byID[id]
	if !ok {
		return nil, domain.NotFound(order.LineEntityName, id)
	}
	return &l, nil
}

func (m *memLineRepo) ListByOrder(ctx context.Context, orderID uuid.UUID, _ order.LineFilter, _ domain.Page) ([]order.Line, error) {
	return m.ListAllByOrder(ctx, orderID)
}

func (m *memLineRepo) CountByOrder(ctx context.Context, orderID uuid.UUID, _ order.LineFilter) (int64, error) {
	lines, err := m.ListAllByOrder(ctx, orderID)
	return int64(len(lines)), err
}

func (m *memLineRepo) ListAllByOrder(_ context.Context, orderID uuid.UUID) ([]order.Line, error) {
	var out []order.Line
	for _, l := range m.byID {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memLineRepo) ListOpenBySaleItem(_ context.Context, saleItemID uuid.UUID) ([]order.Line, error) {
	var out []order.Line
	for _, l := range m.byID {
		if l.SaleItemID == saleItemID && m.orders.byID[l.OrderID].Status == order.StatusOpen {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memLineRepo) CountBySaleItem(_ context.Context, saleItemID uuid.UUID) (int64, error) {
	var n int64
	for _, l := range m.byID {
		if l.SaleItemID == saleItemID {
			n++
		}
	}
	return n, nil
}

func (m *memLineRepo) CountOpenBySaleItem(ctx context.Context, saleItemID uuid.UUID) (int64, error) {
	lines, err := m.ListOpenBySaleItem(ctx, saleItemID)
	return int64(len(lines)), err
}

func (m *memLineRepo) CountInactiveItemsByOrder(_ context.Context, orderID uuid.UUID) (int64, error) {
	var n int64
	for _, l := range m.byID {
		if l.OrderID == orderID && !m.items.byID[l.SaleItemID].Active {
			n++
		}
	}
	return n, nil
}

func (m *memLineRepo) Create(_ context.Context, l *order.Line) error {
	m.byID[l.ID] = *l
	return nil
}

func (m *memLineRepo) UpdateValue(_ context.Context, id uuid.UUID, value decimal.Decimal) error {
	l, ok := m.byID[id]
	if !ok {
		return domain.NotFound(order.LineEntityName, id)
	}
	l.Value = value
	m.byID[id] = l
	return nil
}

func (m *memLineRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return domain.NotFound(order.LineEntityName, id)
	}
	delete(m.byID, id)
	return nil
}

func (m *memLineRepo) DeleteByOrder(_ context.Context, orderID uuid.UUID) (int64, error) {
	var n int64
	for id, l := range m.byID {
		if l.OrderID == orderID {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}

// --- Helpers ---

func newTestRouter() *gin.Engine {
	itemRepo := &memItemRepo{byID: make(map[uuid.UUID]catalog.SaleItem)}
	orderRepo := &memOrderRepo{byID: make(map[uuid.UUID]order.Order)}
	lineRepo := &memLineRepo{byID: make(map[uuid.UUID]order.Line), orders: orderRepo, items: itemRepo}

	pricer := pricing.NewEngine(money.Default)
	lineSvc := order.NewLineService(lineRepo, orderRepo, itemRepo, pricer, noopAtomic{})
	orderSvc := order.NewService(orderRepo, lineSvc, noopAtomic{})
	itemSvc := catalog.NewService(itemRepo, lineSvc, lineSvc, noopAtomic{})

	r := gin.New()
	New(itemSvc, orderSvc, lineSvc).Register(r.Group("/api"))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func createItem(t *testing.T, r *gin.Engine, name, typ, price string) saleItemResponse {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/sale-items", gin.H{
		"name": name, "type": typ, "base_price": price,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[saleItemResponse](t, w)
}

func createOrder(t *testing.T, r *gin.Engine, code, factor string) orderResponse {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/orders", gin.H{
		"code": code, "discount_factor": factor,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[orderResponse](t, w)
}

func addLine(t *testing.T, r *gin.Engine, orderID, itemID uuid.UUID) lineResponse {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/orders/%s/lines", orderID), gin.H{
		"sale_item_id": itemID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[lineResponse](t, w)
}

// --- Tests ---

func TestCreateSaleItem(t *testing.T) {
	r := newTestRouter()

	item := createItem(t, r, "Widget", "PRODUCT", "19.90")
	assert.Equal(t, "Widget", item.Name)
	assert.Equal(t, "PRODUCT", item.Type)
	assert.True(t, decimal.RequireFromString("19.90").Equal(item.BasePrice))
	assert.True(t, item.Active)
}

func TestCreateSaleItem_BadType(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodPost, "/api/sale-items", gin.H{
		"name": "Widget", "type": "GADGET", "base_price": "19.90",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSaleItem_NotFound(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodGet, "/api/sale-items/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	resp := decodeBody[errorResponse](t, w)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Message, "not found")
}

func TestGetSaleItem_BadID(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodGet, "/api/sale-items/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSaleItems_BadFilter(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodGet, "/api/sale-items?active=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSaleItems(t *testing.T) {
	r := newTestRouter()
	createItem(t, r, "Widget", "PRODUCT", "19.90")
	createItem(t, r, "Support", "SERVICE", "99.00")

	w := doJSON(t, r, http.MethodGet, "/api/sale-items", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[listResponse[saleItemResponse]](t, w)
	assert.Len(t, resp.Items, 2)
	assert.EqualValues(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Page)
}

func TestCreateOrder_InvalidDiscount(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodPost, "/api/orders", gin.H{
		"code": "ORD-0001", "discount_factor": "1.50",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// Walks an order through its whole life over HTTP: catalog entry, order,
// line priced at creation, discount cascade, close, and the frozen state
// afterwards.
func TestOrderLifecycle(t *testing.T) {
	r := newTestRouter()

	item := createItem(t, r, "Widget", "PRODUCT", "100.00")
	o := createOrder(t, r, "ORD-0001", "0.00")
	assert.Equal(t, "OPEN", o.Status)

	l := addLine(t, r, o.ID, item.ID)
	assert.True(t, decimal.RequireFromString("100.00").Equal(l.Value), "got %s", l.Value)

	// Apply a 50% discount: the existing line must be repriced.
	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/orders/%s/discount", o.ID), gin.H{
		"discount_factor": "0.50",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/lines/"+l.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[lineResponse](t, w)
	assert.True(t, decimal.RequireFromString("50.00").Equal(got.Value), "got %s", got.Value)

	// Close the order.
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/orders/%s/close", o.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	closed := decodeBody[orderResponse](t, w)
	assert.Equal(t, "CLOSED", closed.Status)

	// Closed orders reject discount changes, new lines, and line removal.
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/orders/%s/discount", o.ID), gin.H{
		"discount_factor": "0.10",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/orders/%s/lines", o.ID), gin.H{
		"sale_item_id": item.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/lines/"+l.ID.String(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// A discount request without a discount_factor must be rejected, not read
// as an explicit 0.00 that wipes the current discount.
func TestApplyDiscount_MissingFactor(t *testing.T) {
	r := newTestRouter()

	item := createItem(t, r, "Widget", "PRODUCT", "100.00")
	o := createOrder(t, r, "ORD-0001", "0.50")
	l := addLine(t, r, o.ID, item.ID)
	assert.True(t, decimal.RequireFromString("50.00").Equal(l.Value), "got %s", l.Value)

	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/orders/%s/discount", o.ID), gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	// Order and line are untouched.
	w = doJSON(t, r, http.MethodGet, "/api/orders/"+o.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[orderResponse](t, w)
	assert.True(t, decimal.RequireFromString("0.50").Equal(got.DiscountFactor), "got %s", got.DiscountFactor)

	w = doJSON(t, r, http.MethodGet, "/api/lines/"+l.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	line := decodeBody[lineResponse](t, w)
	assert.True(t, decimal.RequireFromString("50.00").Equal(line.Value), "got %s", line.Value)

	// An explicit 0.00 is still a legitimate value.
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/orders/%s/discount", o.ID), gin.H{
		"discount_factor": "0.00",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cleared := decodeBody[orderResponse](t, w)
	assert.True(t, decimal.Zero.Equal(cleared.DiscountFactor), "got %s", cleared.DiscountFactor)
}

func TestServiceLineIgnoresDiscount(t *testing.T) {
	r := newTestRouter()

	item := createItem(t, r, "Installation", "SERVICE", "150.00")
	o := createOrder(t, r, "ORD-0001", "0.50")

	l := addLine(t, r, o.ID, item.ID)
	assert.True(t, decimal.RequireFromString("150.00").Equal(l.Value), "got %s", l.Value)
}

func TestDeactivateReferencedItem(t *testing.T) {
	r := newTestRouter()

	item := createItem(t, r, "Widget", "PRODUCT", "100.00")
	o := createOrder(t, r, "ORD-0001", "0.00")
	addLine(t, r, o.ID, item.ID)

	w := doJSON(t, r, http.MethodPut, "/api/sale-items/"+item.ID.String(), gin.H{
		"name": item.Name, "type": item.Type, "base_price": "100.00", "active": false,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeBody[errorResponse](t, w)
	assert.Contains(t, resp.Message, "cannot deactivate")
}

func TestPriceChangeRepricesOpenLines(t *testing.T) {
	r := newTestRouter()

	item := createItem(t, r, "Widget", "PRODUCT", "100.00")
	o := createOrder(t, r, "ORD-0001", "0.10")
	l := addLine(t, r, o.ID, item.ID)
	require.True(t, decimal.RequireFromString("90.00").Equal(l.Value))

	w := doJSON(t, r, http.MethodPut, "/api/sale-items/"+item.ID.String(), gin.H{
		"name": item.Name, "type": item.Type, "base_price": "200.00", "active": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/lines/"+l.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[lineResponse](t, w)
	assert.True(t, decimal.RequireFromString("180.00").Equal(got.Value), "got %s", got.Value)
}

func TestDeleteReferencedItem(t *testing.T) {
	r := newTestRouter()

	item := createItem(t, r, "Widget", "PRODUCT", "100.00")
	o := createOrder(t, r, "ORD-0001", "0.00")
	addLine(t, r, o.ID, item.ID)

	w := doJSON(t, r, http.MethodDelete, "/api/sale-items/"+item.ID.String(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteOrder_RemovesLines(t *testing.T) {
	r := newTestRouter()

	item := createItem(t, r, "Widget", "PRODUCT", "100.00")
	o := createOrder(t, r, "ORD-0001", "0.00")
	l := addLine(t, r, o.ID, item.ID)

	w := doJSON(t, r, http.MethodDelete, "/api/orders/"+o.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/lines/"+l.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The item is unreferenced again and can be deleted.
	w = doJSON(t, r, http.MethodDelete, "/api/sale-items/"+item.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestUpdateOrder_GuardedFields(t *testing.T) {
	r := newTestRouter()
	o := createOrder(t, r, "ORD-0001", "0.10")

	// Changing the code is allowed.
	w := doJSON(t, r, http.MethodPut, "/api/orders/"+o.ID.String(), gin.H{
		"code": "ORD-0002", "discount_factor": "0.10", "status": "OPEN",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeBody[orderResponse](t, w)
	assert.Equal(t, "ORD-0002", updated.Code)

	// Changing the discount factor through update is not.
	w = doJSON(t, r, http.MethodPut, "/api/orders/"+o.ID.String(), gin.H{
		"code": "ORD-0002", "discount_factor": "0.20", "status": "OPEN",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Neither is closing through update.
	w = doJSON(t, r, http.MethodPut, "/api/orders/"+o.ID.String(), gin.H{
		"code": "ORD-0002", "discount_factor": "0.10", "status": "CLOSED",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
