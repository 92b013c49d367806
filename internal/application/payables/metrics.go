package payables

import (
	"context"
	"time"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/shopspring/decimal"
)

// Metrics receives business measurements from the payables services
type Metrics interface {
	RecordScan(ctx context.Context, result payables.ScanResult, duration time.Duration)
	RecordPayment(ctx context.Context, amount decimal.Decimal, daysLate int)
	RecordNotification(ctx context.Context, kind payables.NotificationKind, outcome string)
}

// Delivery outcomes recorded by the notification workers
const (
	NotificationSent    = "sent"
	NotificationRetried = "retried"
	NotificationFailed  = "failed"
)

// NopMetrics discards all measurements
type NopMetrics struct{}

func (NopMetrics) RecordScan(context.Context, payables.ScanResult, time.Duration) {}

func (NopMetrics) RecordPayment(context.Context, decimal.Decimal, int) {}

func (NopMetrics) RecordNotification(context.Context, payables.NotificationKind, string) {}
