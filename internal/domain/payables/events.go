package payables

import (
	"time"

	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventTypeAccountPaid          = "payables.account.paid"
	EventTypeAccountStatusChanged = "payables.account.status_changed"
)

// AccountPaidEvent is raised when a payment is recorded against an account
type AccountPaidEvent struct {
	shared.BaseDomainEvent
	AccountID            uuid.UUID       `json:"account_id"`
	AccountName          string          `json:"account_name"`
	HistoryID            uuid.UUID       `json:"history_id"`
	Amount               decimal.Decimal `json:"amount"`
	PaymentDate          time.Time       `json:"payment_date"`
	PreviousDueDate      time.Time       `json:"previous_due_date"`
	NextDueDate          time.Time       `json:"next_due_date"`
	DaysLate             int             `json:"days_late"`
	Closed               bool            `json:"closed"`
	ConfirmationPhone    string          `json:"confirmation_phone,omitempty"`
	ConfirmationTemplate string          `json:"confirmation_template,omitempty"`
}

// NewAccountPaidEvent builds the event from the account after it was rolled forward
func NewAccountPaidEvent(a *Account, h *PaymentHistory, previousDue time.Time) *AccountPaidEvent {
	return &AccountPaidEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypeAccountPaid, AggregateTypeAccount, a.ID),
		AccountID:            a.ID,
		AccountName:          a.Name,
		HistoryID:            h.ID,
		Amount:               h.Amount,
		PaymentDate:          h.PaymentDate,
		PreviousDueDate:      previousDue,
		NextDueDate:          a.DueDate,
		DaysLate:             h.DaysLate,
		Closed:               a.Closed(),
		ConfirmationPhone:    a.ConfirmationPhone,
		ConfirmationTemplate: a.ConfirmationTemplate,
	}
}

// AccountStatusChangedEvent is raised when a scan moves an account to a new status
type AccountStatusChangedEvent struct {
	shared.BaseDomainEvent
	AccountID   uuid.UUID     `json:"account_id"`
	AccountName string        `json:"account_name"`
	From        AccountStatus `json:"from"`
	To          AccountStatus `json:"to"`
	DueDate     time.Time     `json:"due_date"`
	AlertPhone  string        `json:"alert_phone,omitempty"`
	EvaluatedOn time.Time     `json:"evaluated_on"`
}

// NewAccountStatusChangedEvent builds the event from the account after its status changed
func NewAccountStatusChangedEvent(a *Account, from AccountStatus, today time.Time) *AccountStatusChangedEvent {
	return &AccountStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountStatusChanged, AggregateTypeAccount, a.ID),
		AccountID:       a.ID,
		AccountName:     a.Name,
		From:            from,
		To:              a.Status,
		DueDate:         a.DueDate,
		AlertPhone:      a.AlertPhone,
		EvaluatedOn:     NormalizeDate(today),
	}
}
