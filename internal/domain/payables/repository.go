package payables

import (
	"context"
	"time"

	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountFilter narrows account listings
type AccountFilter struct {
	shared.Filter
	// Name matches accounts whose name contains it, ignoring case and accents
	Name       string
	GroupID    *uuid.UUID
	Status     AccountStatus
	Recurrence Recurrence
	Kind       AccountKind
	Paid       *bool
	Active     *bool
	// Today resolves overdue, due_today and on_time from the due date.
	// When zero, Status matches the cached column.
	Today time.Time
}

// AccountTotals aggregates unpaid amounts by due-date bucket.
// Buckets are computed from the due date, not the cached status.
type AccountTotals struct {
	TotalAmount    decimal.Decimal
	TotalCount     int64
	OnTimeAmount   decimal.Decimal
	OnTimeCount    int64
	DueTodayAmount decimal.Decimal
	DueTodayCount  int64
	OverdueAmount  decimal.Decimal
	OverdueCount   int64
}

// AccountRepository persists accounts
type AccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindAll(ctx context.Context, filter AccountFilter) ([]Account, int64, error)
	// FindForStatusScan returns active unpaid accounts
	FindForStatusScan(ctx context.Context) ([]Account, error)
	Save(ctx context.Context, account *Account) error
	// UpdateStatus writes only the status and update timestamp
	UpdateStatus(ctx context.Context, id uuid.UUID, status AccountStatus, updatedAt time.Time) error
	// SavePayment writes the history entry and then the rolled-forward account in one transaction
	SavePayment(ctx context.Context, account *Account, history *PaymentHistory) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByGroup(ctx context.Context, groupID uuid.UUID) (int64, error)
	Totals(ctx context.Context, today time.Time) (*AccountTotals, error)
}

// GroupFilter narrows group listings
type GroupFilter struct {
	shared.Filter
	Name   string
	Active *bool
}

// GroupRepository persists account groups
type GroupRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Group, error)
	FindByName(ctx context.Context, name string) (*Group, error)
	FindAll(ctx context.Context, filter GroupFilter) ([]Group, int64, error)
	Save(ctx context.Context, group *Group) error
	// Delete fails with ErrGroupHasAccounts while accounts reference the group
	Delete(ctx context.Context, id uuid.UUID) error
}

// BillingFilter narrows billing listings
type BillingFilter struct {
	shared.Filter
	From *time.Time
	To   *time.Time
}

// BillingRepository persists billing records
type BillingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Billing, error)
	FindByMonth(ctx context.Context, month time.Time) (*Billing, error)
	FindAll(ctx context.Context, filter BillingFilter) ([]Billing, int64, error)
	// FindLatest returns the record with the most recent reference month
	FindLatest(ctx context.Context) (*Billing, error)
	Save(ctx context.Context, billing *Billing) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PaymentHistoryFilter narrows payment history listings
type PaymentHistoryFilter struct {
	shared.Filter
	AccountID *uuid.UUID
	From      *time.Time
	To        *time.Time
}

// PaymentHistoryRepository reads the payment ledger; entries are written through AccountRepository.SavePayment
type PaymentHistoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentHistory, error)
	FindAll(ctx context.Context, filter PaymentHistoryFilter) ([]PaymentHistory, int64, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
}
