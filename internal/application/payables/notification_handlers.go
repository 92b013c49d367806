package payables

import (
	"context"
	"fmt"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DueAlertHandler queues a WhatsApp alert when an account becomes due soon or due today
type DueAlertHandler struct {
	queue   payables.NotificationQueue
	metrics Metrics
	logger  *zap.Logger
}

// NewDueAlertHandler creates a new due alert handler
func NewDueAlertHandler(queue payables.NotificationQueue, metrics Metrics, logger *zap.Logger) *DueAlertHandler {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &DueAlertHandler{
		queue:   queue,
		metrics: metrics,
		logger:  logger,
	}
}

// EventTypes implements shared.EventHandler
func (h *DueAlertHandler) EventTypes() []string {
	return []string{payables.EventTypeAccountStatusChanged}
}

// Handle implements shared.EventHandler
func (h *DueAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*payables.AccountStatusChangedEvent)
	if !ok {
		return fmt.Errorf("due alert handler: unexpected event %T", event)
	}
	msg, kind, ok := payables.RenderDueAlert(e.To, e.AccountName, e.DueDate)
	if !ok || e.AlertPhone == "" {
		return nil
	}

	n := payables.Notification{
		Kind:      kind,
		AccountID: e.AccountID,
		Phone:     payables.WhatsAppNumber(e.AlertPhone),
		Message:   msg,
		Reference: e.DueDate.Format(payables.DateLayout),
	}
	if err := h.queue.EnqueueNotification(ctx, n); err != nil {
		h.metrics.RecordNotification(ctx, kind, NotificationEnqueueFailed)
		h.logger.Warn("Failed to enqueue due alert",
			zap.String("account_id", e.AccountID.String()),
			zap.String("status", string(e.To)),
			zap.Error(err),
		)
		return err
	}
	h.metrics.RecordNotification(ctx, kind, NotificationQueued)
	h.logger.Info("Due alert queued",
		zap.String("account_id", e.AccountID.String()),
		zap.String("status", string(e.To)),
	)
	return nil
}

// DueAlertKey identifies one alert per account, status and day so repeated
// scans on the same day do not message the same phone twice.
func DueAlertKey(event shared.DomainEvent) string {
	e, ok := event.(*payables.AccountStatusChangedEvent)
	if !ok {
		return event.EventID().String()
	}
	return fmt.Sprintf("due-alert:%s:%s:%s", e.AccountID, e.To, e.EvaluatedOn.Format(payables.DateLayout))
}

// PaymentMetricsHandler feeds recorded payments into the metrics sink
type PaymentMetricsHandler struct {
	metrics Metrics
}

// NewPaymentMetricsHandler creates a new payment metrics handler
func NewPaymentMetricsHandler(metrics Metrics) *PaymentMetricsHandler {
	return &PaymentMetricsHandler{metrics: metrics}
}

// EventTypes implements shared.EventHandler
func (h *PaymentMetricsHandler) EventTypes() []string {
	return []string{payables.EventTypeAccountPaid}
}

// Handle implements shared.EventHandler
func (h *PaymentMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*payables.AccountPaidEvent)
	if !ok {
		return nil
	}
	h.metrics.RecordPayment(ctx, e.Amount, e.DaysLate)
	return nil
}
