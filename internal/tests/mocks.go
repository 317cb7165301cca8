package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"paycore/internal/domain"
	"paycore/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	// Counters for verification
	CreateCallCount    int32
	UpdateCallCount    int32
	ForUpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
	GetError    error
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

// AddPayment adds a payment to the mock repository.
func (m *MockPaymentRepository) AddPayment(payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *payment
	m.payments[payment.ID] = &copy
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.payments {
		if existing.DeletedAt.IsZero() && existing.OrderNumber == payment.OrderNumber {
			return repository.ErrDuplicate
		}
	}
	copy := *payment
	m.payments[payment.ID] = &copy
	return nil
}

func (m *MockPaymentRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Payment, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findByOrderNumber(orderNumber)
}

func (m *MockPaymentRepository) GetByOrderNumberForUpdate(ctx context.Context, orderNumber string) (*domain.Payment, error) {
	atomic.AddInt32(&m.ForUpdateCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findByOrderNumber(orderNumber)
}

func (m *MockPaymentRepository) findByOrderNumber(orderNumber string) (*domain.Payment, error) {
	for _, p := range m.payments {
		if p.DeletedAt.IsZero() && p.OrderNumber == orderNumber {
			copy := *p
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.payments[payment.ID]
	if !ok || !existing.DeletedAt.IsZero() {
		return repository.ErrNotFound
	}
	copy := *payment
	m.payments[payment.ID] = &copy
	return nil
}

func (m *MockPaymentRepository) SoftDelete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.payments[id]
	if !ok || !existing.DeletedAt.IsZero() {
		return repository.ErrNotFound
	}
	existing.DeletedAt = time.Now()
	return nil
}

// GetPayment returns a payment for test assertions.
func (m *MockPaymentRepository) GetPayment(id string) *domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.payments[id]
}

// CountPayments returns the number of stored payments.
func (m *MockPaymentRepository) CountPayments() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.payments)
}

func (m *MockPaymentRepository) snapshot() map[string]*domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]*domain.Payment, len(m.payments))
	for id, p := range m.payments {
		copy := *p
		snap[id] = &copy
	}
	return snap
}

func (m *MockPaymentRepository) restore(snap map[string]*domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = snap
}

// ──────────────────────────────────────────────
// MOCK HISTORY REPOSITORY
// ──────────────────────────────────────────────

// MockHistoryRepository is a mock implementation of HistoryRepository.
type MockHistoryRepository struct {
	mu   sync.RWMutex
	rows []*domain.PaymentHistory

	// Types of stored payments, for filter evaluation.
	paymentTypes map[string]domain.PaymentType

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockHistoryRepository creates a new mock history repository.
func NewMockHistoryRepository() *MockHistoryRepository {
	return &MockHistoryRepository{
		paymentTypes: make(map[string]domain.PaymentType),
	}
}

// SetPaymentType records the payment type backing a payment ID so type
// filters can be evaluated.
func (m *MockHistoryRepository) SetPaymentType(paymentID string, t domain.PaymentType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paymentTypes[paymentID] = t
}

func (m *MockHistoryRepository) Create(ctx context.Context, history *domain.PaymentHistory) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *history
	m.rows = append(m.rows, &copy)
	return nil
}

func (m *MockHistoryRepository) ListByPaymentID(ctx context.Context, paymentID string) ([]*domain.PaymentHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.PaymentHistory
	for _, row := range m.rows {
		if row.PaymentID == paymentID {
			copy := *row
			result = append(result, &copy)
		}
	}
	sortByOccurredAtDesc(result)
	return result, nil
}

func (m *MockHistoryRepository) Search(ctx context.Context, filter repository.HistoryFilter, limit, offset int) ([]*domain.PaymentHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := m.match(filter)
	sortByOccurredAtDesc(matched)
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MockHistoryRepository) Count(ctx context.Context, filter repository.HistoryFilter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.match(filter))), nil
}

func (m *MockHistoryRepository) match(filter repository.HistoryFilter) []*domain.PaymentHistory {
	var matched []*domain.PaymentHistory
	for _, row := range m.rows {
		if filter.Type != "" && m.paymentTypes[row.PaymentID] != filter.Type {
			continue
		}
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && row.OccurredAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && row.OccurredAt.After(filter.To) {
			continue
		}
		copy := *row
		matched = append(matched, &copy)
	}
	return matched
}

// CountRows returns the total number of stored ledger rows.
func (m *MockHistoryRepository) CountRows() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

// Rows returns all stored rows for test assertions, oldest first.
func (m *MockHistoryRepository) Rows() []*domain.PaymentHistory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.PaymentHistory, 0, len(m.rows))
	for _, row := range m.rows {
		copy := *row
		result = append(result, &copy)
	}
	return result
}

func (m *MockHistoryRepository) snapshot() []*domain.PaymentHistory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make([]*domain.PaymentHistory, 0, len(m.rows))
	for _, row := range m.rows {
		copy := *row
		snap = append(snap, &copy)
	}
	return snap
}

func (m *MockHistoryRepository) restore(snap []*domain.PaymentHistory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = snap
}

func sortByOccurredAtDesc(rows []*domain.PaymentHistory) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].OccurredAt.After(rows[j].OccurredAt)
	})
}

// ──────────────────────────────────────────────
// MOCK OUTBOX REPOSITORY
// ──────────────────────────────────────────────

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu   sync.RWMutex
	msgs []*domain.OutboxMessage

	// Counters for verification
	EnqueueCallCount int32

	// Error injection
	EnqueueError error
	FetchError   error
}

// NewMockOutboxRepository creates a new mock outbox repository.
func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Enqueue(ctx context.Context, msg *domain.OutboxMessage) error {
	atomic.AddInt32(&m.EnqueueCallCount, 1)
	if m.EnqueueError != nil {
		return m.EnqueueError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *msg
	m.msgs = append(m.msgs, &copy)
	return nil
}

func (m *MockOutboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]*domain.OutboxMessage, error) {
	if m.FetchError != nil {
		return nil, m.FetchError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.OutboxMessage
	for _, msg := range m.msgs {
		if !msg.PublishedAt.IsZero() {
			continue
		}
		copy := *msg
		result = append(result, &copy)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.msgs {
		if msg.ID == id && msg.PublishedAt.IsZero() {
			msg.PublishedAt = time.Now()
			return nil
		}
	}
	return repository.ErrNotFound
}

// CountUnpublished returns the number of unpublished messages.
func (m *MockOutboxRepository) CountUnpublished() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, msg := range m.msgs {
		if msg.PublishedAt.IsZero() {
			count++
		}
	}
	return count
}

// CountMessages returns the total number of stored messages.
func (m *MockOutboxRepository) CountMessages() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.msgs)
}

// Messages returns all stored messages for test assertions.
func (m *MockOutboxRepository) Messages() []*domain.OutboxMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.OutboxMessage, 0, len(m.msgs))
	for _, msg := range m.msgs {
		copy := *msg
		result = append(result, &copy)
	}
	return result
}

func (m *MockOutboxRepository) snapshot() []*domain.OutboxMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make([]*domain.OutboxMessage, 0, len(m.msgs))
	for _, msg := range m.msgs {
		copy := *msg
		snap = append(snap, &copy)
	}
	return snap
}

func (m *MockOutboxRepository) restore(snap []*domain.OutboxMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = snap
}

// ──────────────────────────────────────────────
// MOCK TRANSACTION RUNNER
// ──────────────────────────────────────────────

// MockTxRunner is a mock implementation of TxRunner backed by the mock
// repositories. A failing unit of work restores the repositories to their
// pre-transaction state, mirroring a database rollback.
type MockTxRunner struct {
	Payments  *MockPaymentRepository
	Histories *MockHistoryRepository
	Outbox    *MockOutboxRepository

	// Counters for verification
	CommitCount   int32
	RollbackCount int32

	// Error injection
	BeginError error
}

// NewMockTxRunner creates a transaction runner over fresh mock repositories.
func NewMockTxRunner() *MockTxRunner {
	return &MockTxRunner{
		Payments:  NewMockPaymentRepository(),
		Histories: NewMockHistoryRepository(),
		Outbox:    NewMockOutboxRepository(),
	}
}

func (m *MockTxRunner) InTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepos) error) error {
	if m.BeginError != nil {
		return m.BeginError
	}

	paymentSnap := m.Payments.snapshot()
	historySnap := m.Histories.snapshot()
	outboxSnap := m.Outbox.snapshot()

	err := fn(ctx, repository.TxRepos{
		Payments:  m.Payments,
		Histories: m.Histories,
		Outbox:    m.Outbox,
	})
	if err != nil {
		m.Payments.restore(paymentSnap)
		m.Histories.restore(historySnap)
		m.Outbox.restore(outboxSnap)
		atomic.AddInt32(&m.RollbackCount, 1)
		return err
	}

	atomic.AddInt32(&m.CommitCount, 1)
	return nil
}

// Ensure mocks implement their interfaces.
var (
	_ repository.PaymentRepository = (*MockPaymentRepository)(nil)
	_ repository.HistoryRepository = (*MockHistoryRepository)(nil)
	_ repository.OutboxRepository  = (*MockOutboxRepository)(nil)
	_ repository.TxRunner          = (*MockTxRunner)(nil)
)

// ──────────────────────────────────────────────
// MOCK DELIVERY GUARD
// ──────────────────────────────────────────────

// MockDeliveryGuard is an in-memory delivery guard.
type MockDeliveryGuard struct {
	mu   sync.Mutex
	seen map[string]bool

	// Error injection
	Error error
}

// NewMockDeliveryGuard creates a new MockDeliveryGuard.
func NewMockDeliveryGuard() *MockDeliveryGuard {
	return &MockDeliveryGuard{seen: make(map[string]bool)}
}

func (m *MockDeliveryGuard) FirstDelivery(ctx context.Context, eventName, key string) (bool, error) {
	if m.Error != nil {
		return false, m.Error
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	full := eventName + ":" + key
	if m.seen[full] {
		return false, nil
	}
	m.seen[full] = true
	return true, nil
}

// ──────────────────────────────────────────────
// MOCK WAKER
// ──────────────────────────────────────────────

// MockWaker counts dispatcher wake-ups.
type MockWaker struct {
	WakeCount int32
}

func (m *MockWaker) Wake() {
	atomic.AddInt32(&m.WakeCount, 1)
}
