package payables

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrScanInProgress is returned when a status scan is requested while another one runs
var ErrScanInProgress = shared.NewDomainError("SCAN_IN_PROGRESS", "A status scan is already running")

// StatusService keeps the cached status of unpaid accounts current
type StatusService struct {
	accounts  payables.AccountRepository
	publisher shared.EventPublisher
	clock     payables.Clock
	metrics   Metrics
	logger    *zap.Logger

	mu sync.Mutex
}

// NewStatusService creates a new status service. A nil metrics sink is replaced by NopMetrics.
func NewStatusService(
	accounts payables.AccountRepository,
	publisher shared.EventPublisher,
	clock payables.Clock,
	metrics Metrics,
	logger *zap.Logger,
) *StatusService {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &StatusService{
		accounts:  accounts,
		publisher: publisher,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
	}
}

// ScanStatuses reclassifies every unpaid account against today's date
func (s *StatusService) ScanStatuses(ctx context.Context) (payables.ScanResult, error) {
	return s.ScanStatusesOn(ctx, s.clock.Today())
}

// ScanStatusesOn reclassifies every unpaid account against the given date.
// Only accounts whose status changed are written, and only their status and
// update timestamp. Accounts that cannot be classified are counted as failed
// and reported in the returned error while the rest of the batch proceeds.
func (s *StatusService) ScanStatusesOn(ctx context.Context, today time.Time) (payables.ScanResult, error) {
	if !s.mu.TryLock() {
		return payables.ScanResult{}, ErrScanInProgress
	}
	defer s.mu.Unlock()

	start := time.Now()
	today = payables.NormalizeDate(today)

	accounts, err := s.accounts.FindForStatusScan(ctx)
	if err != nil {
		return payables.ScanResult{}, err
	}

	var (
		result payables.ScanResult
		errs   []error
		events []shared.DomainEvent
	)
	for i := range accounts {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		a := &accounts[i]
		result.Scanned++

		tr, changed, err := a.RefreshStatus(today)
		if err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("account %s: %w", a.ID, err))
			continue
		}
		if !changed {
			continue
		}
		if err := s.accounts.UpdateStatus(ctx, a.ID, tr.To, a.UpdatedAt); err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("account %s: %w", a.ID, err))
			s.logger.Error("Failed to update account status",
				zap.String("account_id", a.ID.String()),
				zap.Error(err),
			)
			continue
		}
		result.Record(tr.To)
		events = append(events, a.GetDomainEvents()...)
		a.ClearDomainEvents()
	}

	if s.publisher != nil && len(events) > 0 {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish status events", zap.Error(err))
		}
	}

	elapsed := time.Since(start)
	s.metrics.RecordScan(ctx, result, elapsed)
	s.logger.Info("Status scan finished",
		zap.String("date", today.Format(payables.DateLayout)),
		zap.Int("scanned", result.Scanned),
		zap.Int("to_on_time", result.ToOnTime),
		zap.Int("to_due_soon", result.ToDueSoon),
		zap.Int("to_due_today", result.ToDueToday),
		zap.Int("to_overdue", result.ToOverdue),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", elapsed),
	)

	return result, errors.Join(errs...)
}
