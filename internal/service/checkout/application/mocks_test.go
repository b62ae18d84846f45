package application

import (
	"context"
	"sync"

	"bazaar/internal/service/checkout/domain"
	"bazaar/internal/service/checkout/domain/port"
)

// memOrderRepo is an in-memory domain.OrderRepository.
type memOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *memOrderRepo) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *order
	r.orders[order.ID] = &clone
	return nil
}

func (r *memOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	clone := *order
	return &clone, nil
}

func (r *memOrderRepo) Update(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return domain.ErrOrderNotFound
	}
	clone := *order
	r.orders[order.ID] = &clone
	return nil
}

func (r *memOrderRepo) single() *domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		return order
	}
	return nil
}

// memAttemptRepo is an in-memory domain.PaymentAttemptRepository with the
// same finalize-once semantics as the SQL implementation.
type memAttemptRepo struct {
	mu       sync.Mutex
	attempts map[string]*domain.PaymentAttempt // keyed by gatewayOrderID
}

func newMemAttemptRepo() *memAttemptRepo {
	return &memAttemptRepo{attempts: make(map[string]*domain.PaymentAttempt)}
}

func (r *memAttemptRepo) Create(_ context.Context, attempt *domain.PaymentAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *attempt
	r.attempts[attempt.GatewayOrderID] = &clone
	return nil
}

func (r *memAttemptRepo) FindByGatewayOrderID(_ context.Context, gatewayOrderID string) (*domain.PaymentAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempt, ok := r.attempts[gatewayOrderID]
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	clone := *attempt
	return &clone, nil
}

func (r *memAttemptRepo) FindOpenByOrderID(_ context.Context, orderID string) (*domain.PaymentAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, attempt := range r.attempts {
		if attempt.OrderID == orderID && !attempt.Verified {
			clone := *attempt
			return &clone, nil
		}
	}
	return nil, domain.ErrAttemptNotFound
}

func (r *memAttemptRepo) FinalizeOnce(_ context.Context, gatewayOrderID string, result domain.AttemptResult, gatewayPaymentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempt, ok := r.attempts[gatewayOrderID]
	if !ok || attempt.Verified {
		return false, nil
	}
	attempt.Verified = true
	attempt.Result = result
	attempt.GatewayPaymentID = gatewayPaymentID
	return true, nil
}

// memInventory is an in-memory port.InventoryLedger with all-or-nothing
// reservation and per-order idempotent release.
type memInventory struct {
	mu       sync.Mutex
	stock    map[string]int
	reserved map[string][]port.ReserveLine // orderID -> reserved lines
	released map[string]bool
}

func newMemInventory(stock map[string]int) *memInventory {
	return &memInventory{
		stock:    stock,
		reserved: make(map[string][]port.ReserveLine),
		released: make(map[string]bool),
	}
}

func (l *memInventory) Reserve(_ context.Context, orderID string, lines []port.ReserveLine) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range lines {
		if l.stock[line.SKU] < line.Quantity {
			return &port.InsufficientStockError{SKU: line.SKU}
		}
	}
	for _, line := range lines {
		l.stock[line.SKU] -= line.Quantity
	}
	l.reserved[orderID] = lines
	return nil
}

func (l *memInventory) Release(_ context.Context, orderID string, lines []port.ReserveLine) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released[orderID] {
		return nil
	}
	if _, ok := l.reserved[orderID]; !ok {
		return nil
	}
	for _, line := range lines {
		l.stock[line.SKU] += line.Quantity
	}
	l.released[orderID] = true
	return nil
}

func (l *memInventory) stockOf(sku string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stock[sku]
}

// mockCoupons implements port.CouponService.
type mockCoupons struct {
	mu          sync.Mutex
	quote       *port.CouponQuote
	validateErr error

	redeemErr    error
	redeemCalls  int
	releaseCalls int
}

func (m *mockCoupons) Validate(_ context.Context, _ port.CouponValidateRequest) (*port.CouponQuote, error) {
	if m.validateErr != nil {
		return nil, m.validateErr
	}
	return m.quote, nil
}

func (m *mockCoupons) RedeemForOrder(_ context.Context, _, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redeemCalls++
	return m.redeemErr
}

func (m *mockCoupons) ReleaseForOrder(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseCalls++
	return nil
}

// mockGateway implements port.PaymentGateway. A confirmation is considered
// signed when its signature equals "valid".
type mockGateway struct {
	intentID   string
	createErr  error
	createWant int
}

func (m *mockGateway) CreateIntent(_ context.Context, _ string, _ int64, _ string) (string, error) {
	m.createWant++
	if m.createErr != nil {
		return "", m.createErr
	}
	return m.intentID, nil
}

func (m *mockGateway) VerifySignature(conf port.Confirmation) bool {
	return conf.Signature == "valid"
}

// mockNotifier records emitted notification events.
type mockNotifier struct {
	mu     sync.Mutex
	events []*domain.NotificationEvent
}

func (m *mockNotifier) Notify(_ context.Context, event *domain.NotificationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockNotifier) Close() error { return nil }

func (m *mockNotifier) kinds() []domain.NotificationKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]domain.NotificationKind, 0, len(m.events))
	for _, e := range m.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// mockScheduler records scheduled timeout checks.
type mockScheduler struct {
	mu     sync.Mutex
	events []*domain.PaymentTimeoutCheckEvent
}

func (m *mockScheduler) SchedulePaymentTimeout(_ context.Context, event *domain.PaymentTimeoutCheckEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockScheduler) Close() error { return nil }

func (m *mockScheduler) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}
