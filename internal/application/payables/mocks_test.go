package payables

import (
	"context"
	"sync"
	"time"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of payables.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payables.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAll(ctx context.Context, filter payables.AccountFilter) ([]payables.Account, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]payables.Account), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountRepository) FindForStatusScan(ctx context.Context) ([]payables.Account, error) {
	args := m.Called(ctx)
	return args.Get(0).([]payables.Account), args.Error(1)
}

func (m *MockAccountRepository) Save(ctx context.Context, account *payables.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status payables.AccountStatus, updatedAt time.Time) error {
	args := m.Called(ctx, id, status, updatedAt)
	return args.Error(0)
}

func (m *MockAccountRepository) SavePayment(ctx context.Context, account *payables.Account, history *payables.PaymentHistory) error {
	args := m.Called(ctx, account, history)
	return args.Error(0)
}

func (m *MockAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccountRepository) CountByGroup(ctx context.Context, groupID uuid.UUID) (int64, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) Totals(ctx context.Context, today time.Time) (*payables.AccountTotals, error) {
	args := m.Called(ctx, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payables.AccountTotals), args.Error(1)
}

// MockGroupRepository is a mock implementation of payables.GroupRepository
type MockGroupRepository struct {
	mock.Mock
}

func (m *MockGroupRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payables.Group), args.Error(1)
}

func (m *MockGroupRepository) FindByName(ctx context.Context, name string) (*payables.Group, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payables.Group), args.Error(1)
}

func (m *MockGroupRepository) FindAll(ctx context.Context, filter payables.GroupFilter) ([]payables.Group, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]payables.Group), args.Get(1).(int64), args.Error(2)
}

func (m *MockGroupRepository) Save(ctx context.Context, group *payables.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockGroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockBillingRepository is a mock implementation of payables.BillingRepository
type MockBillingRepository struct {
	mock.Mock
}

func (m *MockBillingRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.Billing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payables.Billing), args.Error(1)
}

func (m *MockBillingRepository) FindByMonth(ctx context.Context, month time.Time) (*payables.Billing, error) {
	args := m.Called(ctx, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payables.Billing), args.Error(1)
}

func (m *MockBillingRepository) FindAll(ctx context.Context, filter payables.BillingFilter) ([]payables.Billing, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]payables.Billing), args.Get(1).(int64), args.Error(2)
}

func (m *MockBillingRepository) FindLatest(ctx context.Context) (*payables.Billing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payables.Billing), args.Error(1)
}

func (m *MockBillingRepository) Save(ctx context.Context, billing *payables.Billing) error {
	args := m.Called(ctx, billing)
	return args.Error(0)
}

func (m *MockBillingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockHistoryRepository is a mock implementation of payables.PaymentHistoryRepository
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.PaymentHistory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payables.PaymentHistory), args.Error(1)
}

func (m *MockHistoryRepository) FindAll(ctx context.Context, filter payables.PaymentHistoryFilter) ([]payables.PaymentHistory, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]payables.PaymentHistory), args.Get(1).(int64), args.Error(2)
}

func (m *MockHistoryRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

// MockQueue is a mock implementation of payables.NotificationQueue
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) EnqueueNotification(ctx context.Context, n payables.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// recordingPublisher collects published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

func (p *recordingPublisher) Events() []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]shared.DomainEvent(nil), p.events...)
}

// recordingMetrics collects business measurements
type recordingMetrics struct {
	mu            sync.Mutex
	scans         []payables.ScanResult
	payments      []decimal.Decimal
	notifications map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{notifications: make(map[string]int)}
}

func (m *recordingMetrics) RecordScan(_ context.Context, result payables.ScanResult, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans = append(m.scans, result)
}

func (m *recordingMetrics) RecordPayment(_ context.Context, amount decimal.Decimal, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, amount)
}

func (m *recordingMetrics) RecordNotification(_ context.Context, kind payables.NotificationKind, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[string(kind)+"/"+outcome]++
}
