package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const defaultCollectInterval = 5 * time.Minute

// OutstandingProvider reports what is currently owed, bucketed by due date.
// The dashboard's account repository satisfies it.
type OutstandingProvider interface {
	Totals(ctx context.Context, today time.Time) (*payables.AccountTotals, error)
}

// BusinessMetrics records payables measurements as OpenTelemetry instruments.
type BusinessMetrics struct {
	logger *zap.Logger

	scansTotal         *Counter
	scanDuration       *Histogram
	transitionsTotal   *Counter
	scanFailuresTotal  *Counter
	paymentsTotal      *Counter
	paidAmountTotal    *FloatCounter
	daysLate           *Histogram
	notificationsTotal *Counter

	outstandingAmount *FloatGauge
	outstandingCount  *Gauge

	provider OutstandingProvider
	clock    payables.Clock

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter    metric.Meter
	Logger   *zap.Logger
	Provider OutstandingProvider
	Clock    payables.Clock
}

// NewBusinessMetrics creates the payables instrument set.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		logger:   logger,
		provider: cfg.Provider,
		clock:    cfg.Clock,
		stopChan: make(chan struct{}),
	}

	var err error
	m := cfg.Meter
	if bm.scansTotal, err = NewCounter(m, "contaspagar_status_scans_total", "Status scans executed", "{scans}"); err != nil {
		return nil, err
	}
	if bm.scanDuration, err = NewHistogram(m, HistogramOpts{
		Name:        "contaspagar_status_scan_duration_seconds",
		Description: "Duration of a status scan",
		Unit:        "s",
		Boundaries:  ScanDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if bm.transitionsTotal, err = NewCounter(m, "contaspagar_status_transitions_total", "Account status transitions persisted by scans", "{accounts}"); err != nil {
		return nil, err
	}
	if bm.scanFailuresTotal, err = NewCounter(m, "contaspagar_status_scan_account_failures_total", "Accounts a scan could not evaluate or persist", "{accounts}"); err != nil {
		return nil, err
	}
	if bm.paymentsTotal, err = NewCounter(m, "contaspagar_payments_total", "Payments recorded", "{payments}"); err != nil {
		return nil, err
	}
	if bm.paidAmountTotal, err = NewFloatCounter(m, "contaspagar_paid_amount_total", "Sum of recorded payments", "BRL"); err != nil {
		return nil, err
	}
	if bm.daysLate, err = NewHistogram(m, HistogramOpts{
		Name:        "contaspagar_payment_days_late",
		Description: "Days between due date and payment",
		Unit:        "d",
		Boundaries:  []float64{0, 1, 3, 7, 15, 30, 60},
	}); err != nil {
		return nil, err
	}
	if bm.notificationsTotal, err = NewCounter(m, "contaspagar_notifications_total", "WhatsApp notifications by outcome", "{messages}"); err != nil {
		return nil, err
	}
	if bm.outstandingCount, err = NewGauge(m, "contaspagar_outstanding_accounts", "Unpaid active accounts by due-date bucket", "{accounts}"); err != nil {
		return nil, err
	}
	if bm.outstandingAmount, err = NewFloatGauge(m, "contaspagar_outstanding_amount", "Unpaid amount by due-date bucket", "BRL"); err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordScan records a finished scan and its transitions per target status.
func (bm *BusinessMetrics) RecordScan(ctx context.Context, result payables.ScanResult, duration time.Duration) {
	bm.scansTotal.Inc(ctx)
	bm.scanDuration.RecordDuration(ctx, duration)

	for status, n := range map[payables.AccountStatus]int{
		payables.StatusOnTime:   result.ToOnTime,
		payables.StatusDueSoon:  result.ToDueSoon,
		payables.StatusDueToday: result.ToDueToday,
		payables.StatusOverdue:  result.ToOverdue,
	} {
		if n > 0 {
			bm.transitionsTotal.Add(ctx, int64(n), AttrTransition.String(string(status)))
		}
	}
	if result.Failed > 0 {
		bm.scanFailuresTotal.Add(ctx, int64(result.Failed))
	}
}

// RecordPayment records one mark-paid with its amount and lateness.
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, amount decimal.Decimal, daysLate int) {
	lateness := AttrLateness.String(latenessBucket(daysLate))
	bm.paymentsTotal.Inc(ctx, lateness)
	bm.paidAmountTotal.Add(ctx, amount.InexactFloat64(), lateness)
	bm.daysLate.Record(ctx, float64(daysLate))
}

// RecordNotification records the outcome of a notification attempt.
func (bm *BusinessMetrics) RecordNotification(ctx context.Context, kind payables.NotificationKind, outcome string) {
	bm.notificationsTotal.Inc(ctx,
		AttrNotificationKind.String(string(kind)),
		AttrNotificationState.String(outcome),
	)
}

func latenessBucket(daysLate int) string {
	if daysLate > 0 {
		return "late"
	}
	return "on_time"
}

// StartPeriodicCollection samples outstanding totals every interval until Stop.
// It is a no-op without a provider and runs at most once.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if bm.provider == nil || bm.clock == nil {
		return
	}
	if interval <= 0 {
		interval = defaultCollectInterval
	}
	bm.collectOnce.Do(func() {
		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectOutstanding(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-bm.stopChan:
			return
		case <-ticker.C:
			bm.collectOutstanding(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectOutstanding(ctx context.Context) {
	totals, err := bm.provider.Totals(ctx, bm.clock.Today())
	if err != nil {
		bm.logger.Warn("Failed to collect outstanding totals", zap.Error(err))
		return
	}

	buckets := []struct {
		name   string
		amount decimal.Decimal
		count  int64
	}{
		{"total", totals.TotalAmount, totals.TotalCount},
		{string(payables.StatusOnTime), totals.OnTimeAmount, totals.OnTimeCount},
		{string(payables.StatusDueToday), totals.DueTodayAmount, totals.DueTodayCount},
		{string(payables.StatusOverdue), totals.OverdueAmount, totals.OverdueCount},
	}
	for _, b := range buckets {
		attr := attribute.String("bucket", b.name)
		bm.outstandingAmount.Record(ctx, b.amount.InexactFloat64(), attr)
		bm.outstandingCount.Record(ctx, b.count, attr)
	}
}

// Stop ends periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}
