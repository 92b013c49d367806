package telemetry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	apppayables "github.com/contaspagar/backend/internal/application/payables"
	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

var _ apppayables.Metrics = (*telemetry.BusinessMetrics)(nil)

func newTestBusinessMetrics(t *testing.T, provider telemetry.OutstandingProvider) (*telemetry.BusinessMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:    mp.Meter("test"),
		Logger:   zap.NewNop(),
		Provider: provider,
		Clock:    fixedClock{payables.NewDate(2026, time.October, 18)},
	})
	require.NoError(t, err)
	t.Cleanup(bm.Stop)
	return bm, reader
}

type fixedClock struct{ today time.Time }

func (c fixedClock) Today() time.Time { return c.today }

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func intSum(t *testing.T, data metricdata.Aggregation, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "not an int64 sum: %T", data)
	want := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{})
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
	assert.Nil(t, bm)
}

func TestBusinessMetrics_RecordScan(t *testing.T) {
	bm, reader := newTestBusinessMetrics(t, nil)

	bm.RecordScan(t.Context(), payables.ScanResult{Scanned: 10, ToDueSoon: 2, ToOverdue: 1, Failed: 1}, 40*time.Millisecond)
	bm.RecordScan(t.Context(), payables.ScanResult{Scanned: 10, ToDueToday: 2}, 10*time.Millisecond)

	data := collect(t, reader)
	assert.Equal(t, int64(2), intSum(t, data["contaspagar_status_scans_total"]))
	transitions := data["contaspagar_status_transitions_total"]
	assert.Equal(t, int64(2), intSum(t, transitions, telemetry.AttrTransition.String("due_soon")))
	assert.Equal(t, int64(2), intSum(t, transitions, telemetry.AttrTransition.String("due_today")))
	assert.Equal(t, int64(1), intSum(t, transitions, telemetry.AttrTransition.String("overdue")))
	assert.Equal(t, int64(0), intSum(t, transitions, telemetry.AttrTransition.String("on_time")))
	assert.Equal(t, int64(1), intSum(t, data["contaspagar_status_scan_account_failures_total"]))

	hist, ok := data["contaspagar_status_scan_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
}

func TestBusinessMetrics_RecordPayment(t *testing.T) {
	bm, reader := newTestBusinessMetrics(t, nil)

	bm.RecordPayment(t.Context(), decimal.RequireFromString("150.00"), 0)
	bm.RecordPayment(t.Context(), decimal.RequireFromString("49.90"), 5)

	data := collect(t, reader)
	payments := data["contaspagar_payments_total"]
	assert.Equal(t, int64(1), intSum(t, payments, telemetry.AttrLateness.String("on_time")))
	assert.Equal(t, int64(1), intSum(t, payments, telemetry.AttrLateness.String("late")))

	amounts, ok := data["contaspagar_paid_amount_total"].(metricdata.Sum[float64])
	require.True(t, ok)
	var total float64
	for _, dp := range amounts.DataPoints {
		total += dp.Value
	}
	assert.InDelta(t, 199.90, total, 0.001)
}

func TestBusinessMetrics_RecordNotification(t *testing.T) {
	bm, reader := newTestBusinessMetrics(t, nil)

	bm.RecordNotification(t.Context(), payables.NotificationDueTodayAlert, apppayables.NotificationSent)
	bm.RecordNotification(t.Context(), payables.NotificationDueTodayAlert, apppayables.NotificationSent)
	bm.RecordNotification(t.Context(), payables.NotificationPaymentConfirmation, apppayables.NotificationFailed)

	data := collect(t, reader)["contaspagar_notifications_total"]
	assert.Equal(t, int64(2), intSum(t, data,
		telemetry.AttrNotificationKind.String("due_today_alert"),
		telemetry.AttrNotificationState.String("sent"),
	))
	assert.Equal(t, int64(1), intSum(t, data,
		telemetry.AttrNotificationKind.String("payment_confirmation"),
		telemetry.AttrNotificationState.String("failed"),
	))
}

type stubOutstanding struct {
	totals *payables.AccountTotals
	err    error
	calls  atomic.Int32
}

func (s *stubOutstanding) Totals(context.Context, time.Time) (*payables.AccountTotals, error) {
	s.calls.Add(1)
	return s.totals, s.err
}

func TestBusinessMetrics_PeriodicCollection(t *testing.T) {
	provider := &stubOutstanding{totals: &payables.AccountTotals{
		TotalAmount:   decimal.RequireFromString("300.00"),
		TotalCount:    3,
		OverdueAmount: decimal.RequireFromString("100.00"),
		OverdueCount:  1,
	}}
	bm, reader := newTestBusinessMetrics(t, provider)

	bm.StartPeriodicCollection(t.Context(), time.Hour)
	bm.StartPeriodicCollection(t.Context(), time.Hour)
	require.Eventually(t, func() bool { return provider.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	gauge, ok := collect(t, reader)["contaspagar_outstanding_accounts"].(metricdata.Gauge[int64])
	require.True(t, ok)
	counts := map[string]int64{}
	for _, dp := range gauge.DataPoints {
		bucket, _ := dp.Attributes.Value("bucket")
		counts[bucket.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"total": 3, "on_time": 0, "due_today": 0, "overdue": 1}, counts)
}

func TestBusinessMetrics_PeriodicCollectionToleratesErrors(t *testing.T) {
	provider := &stubOutstanding{err: errors.New("db down")}
	bm, reader := newTestBusinessMetrics(t, provider)

	bm.StartPeriodicCollection(t.Context(), time.Hour)
	require.Eventually(t, func() bool { return provider.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	_, recorded := collect(t, reader)["contaspagar_outstanding_accounts"]
	assert.False(t, recorded)
}
