package payables

import (
	"context"
	"time"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notification outcomes reported by MarkPaid
const (
	NotificationQueued        = "queued"
	NotificationNotConfigured = "not_configured"
	NotificationDisabled      = "disabled"
	NotificationEnqueueFailed = "enqueue_failed"
)

// PaymentService records payments and reads the payment ledger
type PaymentService struct {
	accounts  payables.AccountRepository
	history   payables.PaymentHistoryRepository
	publisher shared.EventPublisher
	queue     payables.NotificationQueue
	clock     payables.Clock
	metrics   Metrics
	logger    *zap.Logger
}

// PaymentServiceOption configures a PaymentService
type PaymentServiceOption func(*PaymentService)

// WithPaymentMetrics sets the metrics sink
func WithPaymentMetrics(m Metrics) PaymentServiceOption {
	return func(s *PaymentService) {
		s.metrics = m
	}
}

// WithNotificationQueue enables payment confirmations
func WithNotificationQueue(q payables.NotificationQueue) PaymentServiceOption {
	return func(s *PaymentService) {
		s.queue = q
	}
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	accounts payables.AccountRepository,
	history payables.PaymentHistoryRepository,
	publisher shared.EventPublisher,
	clock payables.Clock,
	logger *zap.Logger,
	opts ...PaymentServiceOption,
) *PaymentService {
	s := &PaymentService{
		accounts:  accounts,
		history:   history,
		publisher: publisher,
		clock:     clock,
		metrics:   NopMetrics{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MarkPaidInput describes a payment. A nil PaymentDate means today.
type MarkPaidInput struct {
	PaymentDate *time.Time
	Note        string
}

// MarkPaidResult is the outcome of recording a payment
type MarkPaidResult struct {
	Account      AccountDTO        `json:"account"`
	History      PaymentHistoryDTO `json:"history"`
	Notification string            `json:"notification"`
}

// MarkPaid snapshots the current occurrence into the ledger, rolls the account
// forward and enqueues the confirmation message when one is configured.
// Notification problems never fail the payment.
func (s *PaymentService) MarkPaid(ctx context.Context, id uuid.UUID, in MarkPaidInput) (*MarkPaidResult, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	paymentDate := s.clock.Today()
	if in.PaymentDate != nil {
		paymentDate = payables.NormalizeDate(*in.PaymentDate)
	}

	entry, err := account.MarkPaid(paymentDate, in.Note)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.SavePayment(ctx, account, entry); err != nil {
		s.logger.Error("Failed to record payment",
			zap.String("account_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Payment recorded",
		zap.String("account_id", account.ID.String()),
		zap.String("history_id", entry.ID.String()),
		zap.String("payment_date", entry.PaymentDate.Format(payables.DateLayout)),
		zap.String("next_due_date", account.DueDate.Format(payables.DateLayout)),
		zap.Int("days_late", entry.DaysLate),
	)

	events := account.GetDomainEvents()
	account.ClearDomainEvents()
	if s.publisher != nil && len(events) > 0 {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish payment events",
				zap.String("account_id", account.ID.String()),
				zap.Error(err),
			)
		}
	}

	outcome := s.enqueueConfirmation(ctx, account, entry)
	s.metrics.RecordNotification(ctx, payables.NotificationPaymentConfirmation, outcome)

	return &MarkPaidResult{
		Account:      ToAccountDTO(account),
		History:      ToPaymentHistoryDTO(entry),
		Notification: outcome,
	}, nil
}

func (s *PaymentService) enqueueConfirmation(ctx context.Context, account *payables.Account, entry *payables.PaymentHistory) string {
	if !account.WantsConfirmation() {
		return NotificationNotConfigured
	}
	if s.queue == nil {
		return NotificationDisabled
	}

	n := payables.Notification{
		Kind:      payables.NotificationPaymentConfirmation,
		AccountID: account.ID,
		Phone:     payables.WhatsAppNumber(account.ConfirmationPhone),
		Message:   payables.RenderConfirmation(account.ConfirmationTemplate, entry.AccountName, entry.Amount, entry.PaymentDate),
		Reference: entry.PaymentDate.Format(payables.DateLayout),
	}
	if err := s.queue.EnqueueNotification(ctx, n); err != nil {
		s.logger.Warn("Failed to enqueue payment confirmation",
			zap.String("account_id", account.ID.String()),
			zap.Error(err),
		)
		return NotificationEnqueueFailed + ": " + err.Error()
	}
	return NotificationQueued
}

// GetHistory returns one ledger entry
func (s *PaymentService) GetHistory(ctx context.Context, id uuid.UUID) (*PaymentHistoryDTO, error) {
	entry, err := s.history.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToPaymentHistoryDTO(entry)
	return &dto, nil
}

// ListHistory returns a page of ledger entries, newest payment first by default
func (s *PaymentService) ListHistory(ctx context.Context, filter payables.PaymentHistoryFilter) (*shared.Paginated[PaymentHistoryDTO], error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "payment_date"
	}
	filter.Filter = filter.Filter.Normalize()
	entries, total, err := s.history.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]PaymentHistoryDTO, 0, len(entries))
	for i := range entries {
		items = append(items, ToPaymentHistoryDTO(&entries[i]))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}
