package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	apppayables "github.com/contaspagar/backend/internal/application/payables"
	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// StatusScanner reclassifies unpaid accounts
type StatusScanner interface {
	ScanStatuses(ctx context.Context) (payables.ScanResult, error)
}

// StatusScanTriggerConfig holds configuration for the daily status scan
type StatusScanTriggerConfig struct {
	Enabled    bool
	CronHour   int
	CronMinute int
	Location   *time.Location
	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
	ScanTimeout   time.Duration
}

// DefaultStatusScanTriggerConfig returns the default daily 06:00 schedule
func DefaultStatusScanTriggerConfig() StatusScanTriggerConfig {
	return StatusScanTriggerConfig{
		Enabled:       true,
		CronHour:      6,
		CronMinute:    0,
		Location:      time.UTC,
		CheckInterval: time.Minute,
		ScanTimeout:   10 * time.Minute,
	}
}

// ParseCronSchedule parses a daily cron expression "m h * * *" into hour and minute.
// An empty expression yields the 06:00 default. Only daily schedules are supported.
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	hour, minute = 6, 0

	parts := strings.Fields(cronExpr)
	if len(parts) == 0 {
		return hour, minute, nil
	}
	if len(parts) != 5 {
		return 0, 0, fmt.Errorf("%w: %q must have 5 fields", ErrInvalidSchedule, cronExpr)
	}
	for _, p := range parts[2:] {
		if p != "*" {
			return 0, 0, fmt.Errorf("%w: %q is not a daily schedule", ErrInvalidSchedule, cronExpr)
		}
	}

	if minute, err = parseField(parts[0], 0, 59); err != nil {
		return 0, 0, fmt.Errorf("%w: minute %v", ErrInvalidSchedule, err)
	}
	if hour, err = parseField(parts[1], 0, 23); err != nil {
		return 0, 0, fmt.Errorf("%w: hour %v", ErrInvalidSchedule, err)
	}
	return hour, minute, nil
}

func parseField(s string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("must be %d-%d, got %d", lo, hi, v)
	}
	return v, nil
}

// StatusScanTrigger runs the status scan once a day at the configured local time
type StatusScanTrigger struct {
	config  StatusScanTriggerConfig
	scanner StatusScanner
	metrics *Metrics
	logger  *zap.Logger
	now     func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
	lastRunAt   *time.Time
	nextRunAt   *time.Time
	lastResult  *payables.ScanResult
	lastError   string
}

// NewStatusScanTrigger creates a new trigger. metrics may be nil.
func NewStatusScanTrigger(
	config StatusScanTriggerConfig,
	scanner StatusScanner,
	metrics *Metrics,
	logger *zap.Logger,
) *StatusScanTrigger {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	if config.ScanTimeout <= 0 {
		config.ScanTimeout = 10 * time.Minute
	}
	return &StatusScanTrigger{
		config:  config,
		scanner: scanner,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Start starts the trigger loop
func (c *StatusScanTrigger) Start(ctx context.Context) error {
	if !c.config.Enabled {
		c.logger.Info("Status scan trigger is disabled")
		return nil
	}

	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.calculateNextRunTime()

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Status scan trigger started",
		zap.Int("cron_hour", c.config.CronHour),
		zap.Int("cron_minute", c.config.CronMinute),
		zap.String("location", c.config.Location.String()),
		zap.Duration("check_interval", c.config.CheckInterval),
	)
	return nil
}

// Stop stops the trigger and waits for a running scan to finish
func (c *StatusScanTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Status scan trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *StatusScanTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the scan at most once per local calendar day
func (c *StatusScanTrigger) checkAndTrigger(ctx context.Context) bool {
	now := c.now().In(c.config.Location)
	if !c.shouldRun(now) {
		return false
	}

	currentDate := now.Format(time.DateOnly)
	c.mu.Lock()
	if c.lastRunDate == currentDate {
		c.mu.Unlock()
		return false
	}
	c.lastRunDate = currentDate
	c.mu.Unlock()

	c.logger.Info("Triggering scheduled status scan", zap.String("date", currentDate))
	c.runScan(ctx)
	c.calculateNextRunTime()
	return true
}

func (c *StatusScanTrigger) shouldRun(now time.Time) bool {
	return now.Hour() == c.config.CronHour && now.Minute() == c.config.CronMinute
}

func (c *StatusScanTrigger) calculateNextRunTime() {
	now := c.now().In(c.config.Location)
	next := time.Date(now.Year(), now.Month(), now.Day(), c.config.CronHour, c.config.CronMinute, 0, 0, c.config.Location)

	c.mu.Lock()
	defer c.mu.Unlock()
	// today's slot has passed or already ran
	if now.After(next) || c.lastRunDate == now.Format(time.DateOnly) {
		next = next.AddDate(0, 0, 1)
	}
	c.nextRunAt = &next
}

// runScan executes one scan and records its outcome
func (c *StatusScanTrigger) runScan(ctx context.Context) (payables.ScanResult, error) {
	scanCtx, cancel := context.WithTimeout(ctx, c.config.ScanTimeout)
	defer cancel()

	var (
		result payables.ScanResult
		err    error
	)
	start := time.Now()
	telemetry.WithProfilingLabels(scanCtx, telemetry.OperationLabels(telemetry.OperationStatusScan, nil), func(ctx context.Context) {
		result, err = c.scanner.ScanStatuses(ctx)
	})
	elapsed := time.Since(start)

	outcome := scanResultSuccess
	switch {
	case errors.Is(err, apppayables.ErrScanInProgress):
		outcome = scanResultSkipped
		c.logger.Info("Status scan already running, skipping scheduled run")
	case err != nil && result.Scanned > 0:
		outcome = scanResultPartial
		c.logger.Warn("Status scan finished with failures",
			zap.Int("scanned", result.Scanned),
			zap.Int("failed", result.Failed),
			zap.Error(err),
		)
	case err != nil:
		outcome = scanResultFailed
		c.logger.Error("Status scan failed", zap.Error(err))
	default:
		c.logger.Info("Status scan completed",
			zap.Int("scanned", result.Scanned),
			zap.Int("to_due_soon", result.ToDueSoon),
			zap.Int("to_due_today", result.ToDueToday),
			zap.Int("to_overdue", result.ToOverdue),
			zap.Duration("duration", elapsed),
		)
	}
	c.metrics.scanFinished(outcome, elapsed, c.now())

	if outcome != scanResultSkipped {
		at := c.now()
		c.mu.Lock()
		c.lastRunAt = &at
		c.lastResult = &result
		c.lastError = ""
		if err != nil {
			c.lastError = err.Error()
		}
		c.mu.Unlock()
	}
	return result, err
}

// TriggerManualRun runs a scan immediately, outside the daily schedule
func (c *StatusScanTrigger) TriggerManualRun(ctx context.Context) (payables.ScanResult, error) {
	c.mu.Lock()
	running := c.isRunning
	c.mu.Unlock()
	if !running {
		return payables.ScanResult{}, ErrSchedulerNotRunning
	}
	return c.runScan(ctx)
}

// GetStatus returns a snapshot for health and admin endpoints
func (c *StatusScanTrigger) GetStatus() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	return map[string]any{
		"enabled":       c.config.Enabled,
		"is_running":    c.isRunning,
		"cron_hour":     c.config.CronHour,
		"cron_minute":   c.config.CronMinute,
		"cron_schedule": "Daily",
		"location":      c.config.Location.String(),
		"last_run_at":   c.lastRunAt,
		"next_run_at":   c.nextRunAt,
		"last_result":   c.lastResult,
		"last_error":    c.lastError,
	}
}

// GetNextRunAt returns the next scheduled run time
func (c *StatusScanTrigger) GetNextRunAt() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextRunAt
}

// GetLastRunAt returns the last run time
func (c *StatusScanTrigger) GetLastRunAt() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRunAt
}
