package order

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/simple-orders/internal/domain"
)

// --- Mock implementations ---

// noopAtomic runs the function directly; service tests do not exercise
// transaction semantics.
type noopAtomic struct{}

func (noopAtomic) InTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type memOrderRepo struct {
	byID      map[uuid.UUID]Order
	createErr error
	updateErr error
	updates   int
}

func newOrderRepo(orders ...Order) *memOrderRepo {
	byID := make(map[uuid.UUID]Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}
	return &memOrderRepo{byID: byID}
}

func (m *memOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, domain.NotFound(EntityName, id)
	}
	return &o, nil
}

func (m *memOrderRepo) List(_ context.Context, _ Filter, _ domain.Page) ([]Order, error) {
	out := make([]Order, 0, len(m.byID))
	for _, o := range m.byID {
		out = append(out, o)
	}
	return out, nil
}

func (m *memOrderRepo) Count(_ context.Context, _ Filter) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *memOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.byID[o.ID] = *o
	return nil
}

func (m *memOrderRepo) Update(_ context.Context, o *Order) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.byID[o.ID]; !ok {
		return domain.NotFound(EntityName, o.ID)
	}
	m.byID[o.ID] = *o
	m.updates++
	return nil
}

func (m *memOrderRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return domain.NotFound(EntityName, id)
	}
	delete(m.byID, id)
	return nil
}

// mockLines records cascade calls so tests can assert what the order
// service triggered and with which order state.
type mockLines struct {
	recalcOrders   []Order
	recalcErr      error
	inactiveCount  int64
	deletedByOrder int64
}

func (m *mockLines) RecalculateForOrder(_ context.Context, o *Order) error {
	m.recalcOrders = append(m.recalcOrders, *o)
	return m.recalcErr
}

func (m *mockLines) CountInactiveItemLines(_ context.Context, _ uuid.UUID) (int64, error) {
	return m.inactiveCount, nil
}

func (m *mockLines) DeleteByOrder(_ context.Context, _ uuid.UUID) (int64, error) {
	return m.deletedByOrder, nil
}

// --- Helpers ---

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestOrder(code, factor string, status Status) Order {
	return Order{
		ID:             uuid.New(),
		Code:           code,
		DiscountFactor: dec(factor),
		Status:         status,
	}
}

// --- Tests ---

func TestCreate_ForcesOpenStatus(t *testing.T) {
	repo := newOrderRepo()
	svc := NewService(repo, &mockLines{}, noopAtomic{})

	o, err := svc.Create(context.Background(), "ORD-0001", dec("0.10"))
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, o.Status)
	assert.Equal(t, "ORD-0001", o.Code)

	stored, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, stored.Status)
}

func TestCreate_CodeLength(t *testing.T) {
	svc := NewService(newOrderRepo(), &mockLines{}, noopAtomic{})

	for _, code := range []string{"", "SHORT", "TOO-LONG-CODE"} {
		_, err := svc.Create(context.Background(), code, decimal.Zero)

		var iiErr *domain.InvalidInputError
		require.ErrorAs(t, err, &iiErr, "code %q", code)
		assert.Equal(t, "code", iiErr.Param)
	}
}

func TestCreate_DiscountFactorBounds(t *testing.T) {
	svc := NewService(newOrderRepo(), &mockLines{}, noopAtomic{})

	for _, factor := range []string{"-0.01", "1.01", "0.125"} {
		_, err := svc.Create(context.Background(), "ORD-0001", dec(factor))

		var iiErr *domain.InvalidInputError
		require.ErrorAs(t, err, &iiErr, "factor %s", factor)
		assert.Equal(t, "discountFactor", iiErr.Param)
	}
}

func TestCreate_BoundaryFactorsAccepted(t *testing.T) {
	svc := NewService(newOrderRepo(), &mockLines{}, noopAtomic{})

	for _, factor := range []string{"0", "1", "0.99"} {
		_, err := svc.Create(context.Background(), "ORD-0001", dec(factor))
		require.NoError(t, err, "factor %s", factor)
	}
}

func TestUpdate_ChangesCode(t *testing.T) {
	o := newTestOrder("ORD-0001", "0.10", StatusOpen)
	repo := newOrderRepo(o)
	svc := NewService(repo, &mockLines{}, noopAtomic{})

	updated, err := svc.Update(context.Background(), o.ID, UpdateParams{
		Code:           "ORD-0002",
		DiscountFactor: o.DiscountFactor,
		Status:         o.Status,
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-0002", updated.Code)
}

func TestUpdate_RejectsDiscountChange(t *testing.T) {
	o := newTestOrder("ORD-0001", "0.10", StatusOpen)
	svc := NewService(newOrderRepo(o), &mockLines{}, noopAtomic{})

	_, err := svc.Update(context.Background(), o.ID, UpdateParams{
		Code:           o.Code,
		DiscountFactor: dec("0.20"),
		Status:         o.Status,
	})

	var ioErr *domain.InvalidOperationError
	require.ErrorAs(t, err, &ioErr)
	assert.Contains(t, ioErr.Reason, "apply-discount")
}

func TestUpdate_RejectsStatusChange(t *testing.T) {
	o := newTestOrder("ORD-0001", "0.10", StatusOpen)
	svc := NewService(newOrderRepo(o), &mockLines{}, noopAtomic{})

	_, err := svc.Update(context.Background(), o.ID, UpdateParams{
		Code:           o.Code,
		DiscountFactor: o.DiscountFactor,
		Status:         StatusClosed,
	})

	var ioErr *domain.InvalidOperationError
	require.ErrorAs(t, err, &ioErr)
	assert.Contains(t, ioErr.Reason, "close operation")
}

func TestApplyDiscount_PersistsAndRecalculates(t *testing.T) {
	o := newTestOrder("ORD-0001", "0.10", StatusOpen)
	repo := newOrderRepo(o)
	lines := &mockLines{}
	svc := NewService(repo, lines, noopAtomic{})

	updated, err := svc.ApplyDiscount(context.Background(), o.ID, dec("0.50"))
	require.NoError(t, err)
	assert.True(t, dec("0.50").Equal(updated.DiscountFactor))

	require.Len(t, lines.recalcOrders, 1)
	assert.True(t, dec("0.50").Equal(lines.recalcOrders[0].DiscountFactor))

	stored, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, dec("0.50").Equal(stored.DiscountFactor))
}

func TestApplyDiscount_ClosedOrder(t *testing.T) {
	o := newTestOrder("ORD-0001", "0.10", StatusClosed)
	lines := &mockLines{}
	svc := NewService(newOrderRepo(o), lines, noopAtomic{})

	_, err := svc.ApplyDiscount(context.Background(), o.ID, dec("0.50"))

	var ioErr *domain.InvalidOperationError
	require.ErrorAs(t, err, &ioErr)
	assert.Empty(t, lines.recalcOrders)
}

func TestApplyDiscount_InvalidFactor(t *testing.T) {
	o := newTestOrder("ORD-0001", "0.10", StatusOpen)
	repo := newOrderRepo(o)
	svc := NewService(repo, &mockLines{}, noopAtomic{})

	_, err := svc.ApplyDiscount(context.Background(), o.ID, dec("1.50"))

	var iiErr *domain.InvalidInputError
	require.ErrorAs(t, err, &iiErr)
	assert.Zero(t, repo.updates)
}

func TestClose_TransitionsAndRecalculates(t *testing.T) {
	o := newTestOrder("ORD-0001", "0.10", StatusOpen)
	repo := newOrderRepo(o)
	lines := &mockLines{}
	svc := NewService(repo, lines, noopAtomic{})

	closed, err := svc.Close(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, closed.Status)

	// The final recomputation runs while the order is still open.
	require.Len(t, lines.recalcOrders, 1)
	assert.Equal(t, StatusOpen, lines.recalcOrders[0].Status)

	stored, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, stored.Status)
}

func TestClose_AlreadyClosed(t *testing.T) {
	o := newTestOrder("ORD-0001", "0.10", StatusClosed)
	svc := NewService(newOrderRepo(o), &mockLines{}, noopAtomic{})

	_, err := svc.Close(context.Background(), o.ID)

	var ioErr *domain.InvalidOperationError
	require.ErrorAs(t, err, &ioErr)
	assert.Contains(t, ioErr.Reason, "already closed")
}

func TestClose_BlockedByInactiveItems(t *testing.T) {
	o := newTestOrder("ORD-0001", "0.10", StatusOpen)
	repo := newOrderRepo(o)
	lines := &mockLines{inactiveCount: 2}
	svc := NewService(repo, lines, noopAtomic{})

	_, err := svc.Close(context.Background(), o.ID)

	var ioErr *domain.InvalidOperationError
	require.ErrorAs(t, err, &ioErr)
	assert.Contains(t, ioErr.Reason, "2 line(s)")

	stored, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, stored.Status)
}

func TestDelete_RemovesOrderAndLines(t *testing.T) {
	o := newTestOrder("ORD-0001", "0.10", StatusOpen)
	repo := newOrderRepo(o)
	svc := NewService(repo, &mockLines{deletedByOrder: 3}, noopAtomic{})

	require.NoError(t, svc.Delete(context.Background(), o.ID))

	_, err := repo.GetByID(context.Background(), o.ID)
	var nfErr *domain.NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestGet_NotFound(t *testing.T) {
	svc := NewService(newOrderRepo(), &mockLines{}, noopAtomic{})

	_, err := svc.Get(context.Background(), uuid.New())

	var nfErr *domain.NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, EntityName, nfErr.Entity)
}
