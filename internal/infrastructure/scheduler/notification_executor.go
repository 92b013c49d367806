package scheduler

import (
	"context"
	"errors"

	apppayables "github.com/contaspagar/backend/internal/application/payables"
	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// NotificationExecutor delivers queued notifications through a Notifier
type NotificationExecutor struct {
	notifier payables.Notifier
	metrics  apppayables.Metrics
	logger   *zap.Logger
}

// NewNotificationExecutor creates a new executor. A nil metrics sink is replaced by NopMetrics.
func NewNotificationExecutor(notifier payables.Notifier, metrics apppayables.Metrics, logger *zap.Logger) *NotificationExecutor {
	if metrics == nil {
		metrics = apppayables.NopMetrics{}
	}
	return &NotificationExecutor{
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// Execute sends the job's message once
func (e *NotificationExecutor) Execute(ctx context.Context, job *Job) error {
	n := job.Notification
	if n.Phone == "" {
		e.metrics.RecordNotification(ctx, n.Kind, apppayables.NotificationFailed)
		return errors.New("notification has no recipient")
	}

	var (
		result *payables.SendResult
		err    error
	)
	labels := telemetry.OperationLabels(telemetry.OperationNotification, map[string]string{telemetry.ProfilingLabelKind: string(n.Kind)})
	telemetry.WithProfilingLabels(ctx, labels, func(ctx context.Context) {
		result, err = e.notifier.SendText(ctx, n.Phone, n.Message)
	})
	if err != nil {
		outcome := apppayables.NotificationFailed
		if willRetry(job, err) {
			outcome = apppayables.NotificationRetried
		}
		e.metrics.RecordNotification(ctx, n.Kind, outcome)
		return err
	}

	e.metrics.RecordNotification(ctx, n.Kind, apppayables.NotificationSent)
	e.logger.Info("Notification delivered",
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(n.Kind)),
		zap.String("account_id", n.AccountID.String()),
		zap.String("reference", n.Reference),
		zap.Int("status_code", result.StatusCode),
		zap.ByteString("response", result.Response),
	)
	return nil
}

var _ JobExecutor = (*NotificationExecutor)(nil)
