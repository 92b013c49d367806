package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the status of a delivery job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is one notification waiting for delivery
type Job struct {
	ID           uuid.UUID
	Notification payables.Notification
	Status       JobStatus
	Error        string
	EnqueuedAt   time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	RetryCount   int
	MaxRetries   int
	NextRetryAt  *time.Time
}

// NewJob creates a new job instance
func NewJob(n payables.Notification, maxRetries int) *Job {
	return &Job{
		ID:           uuid.New(),
		Notification: n,
		Status:       JobStatusPending,
		EnqueuedAt:   time.Now(),
		MaxRetries:   maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job failed and has attempts left
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// JobExecutor delivers a job's notification
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Workers       int
	QueueSize     int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Workers:       2,
		QueueSize:     256,
		JobTimeout:    30 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    10 * time.Second,
	}
}

// SchedulerConfigFrom maps the application configuration onto the worker pool settings
func SchedulerConfigFrom(cfg config.SchedulerConfig) SchedulerConfig {
	return SchedulerConfig{
		Workers:       cfg.Workers,
		QueueSize:     cfg.QueueSize,
		JobTimeout:    cfg.JobTimeout,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
	}
}

// Validate checks the pool settings
func (c SchedulerConfig) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue size must be at least 1", ErrInvalidConfig)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	if c.RetryAttempts < 0 || c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry settings cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Scheduler delivers notifications on a bounded worker pool.
// Stop drains jobs already queued; retries still waiting on their delay are dropped.
type Scheduler struct {
	config   SchedulerConfig
	executor JobExecutor
	metrics  *Metrics
	logger   *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool
	stopped   bool
}

// NewScheduler creates a new scheduler instance. metrics may be nil.
func NewScheduler(config SchedulerConfig, executor JobExecutor, metrics *Metrics, logger *zap.Logger) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		config:   config,
		executor: executor,
		metrics:  metrics,
		logger:   logger,
		jobs:     make(chan *Job, config.QueueSize),
	}, nil
}

// Start starts the worker pool. Workers outlive ctx's cancellation until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if s.stopped {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Notification scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Int("queue_size", s.config.QueueSize),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)

	return nil
}

// Stop closes the queue and waits for workers to drain it.
// When ctx expires first, in-flight deliveries are canceled.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.stopped = true
	close(s.jobs)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		s.logger.Info("Notification scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.cancel()
		s.logger.Warn("Notification scheduler stop timed out",
			zap.Int("abandoned_jobs", len(s.jobs)),
		)
		return ctx.Err()
	}
}

// IsRunning reports whether the scheduler accepts jobs
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// QueueDepth returns the number of jobs waiting for a worker
func (s *Scheduler) QueueDepth() int {
	return len(s.jobs)
}

// SubmitJob submits a job for execution without blocking
func (s *Scheduler) SubmitJob(job *Job) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}

	select {
	case s.jobs <- job:
		s.metrics.setQueueDepth(len(s.jobs))
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("kind", string(job.Notification.Kind)),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// EnqueueNotification queues a notification for delivery
func (s *Scheduler) EnqueueNotification(_ context.Context, n payables.Notification) error {
	if err := s.SubmitJob(NewJob(n, s.config.RetryAttempts)); err != nil {
		return err
	}
	s.metrics.jobEnqueued(n.Kind)
	return nil
}

// worker processes jobs until the queue is closed and empty
func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Worker started", zap.Int("worker_id", workerID))
	for job := range s.jobs {
		s.metrics.setQueueDepth(len(s.jobs))
		s.processJob(ctx, job, workerID)
	}
	s.logger.Debug("Job channel closed", zap.Int("worker_id", workerID))
}

// processJob executes a single job
func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	job.Start()
	s.logger.Info("Processing job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(job.Notification.Kind)),
		zap.Int("attempt", job.RetryCount+1),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	start := time.Now()
	err := s.executor.Execute(jobCtx, job)
	s.metrics.observeDuration(job.Notification.Kind, time.Since(start))
	if err == nil {
		job.Complete()
		s.metrics.jobProcessed(job.Notification.Kind, resultSent)
		s.logger.Info("Job completed successfully",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("kind", string(job.Notification.Kind)),
		)
		return
	}

	job.Fail(err.Error())
	s.logger.Error("Job failed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(job.Notification.Kind)),
		zap.Bool("temporary", isTemporary(err)),
		zap.Error(err),
	)

	if !willRetry(job, err) {
		s.metrics.jobProcessed(job.Notification.Kind, resultFailed)
		return
	}

	job.ScheduleRetry(s.config.RetryDelay)
	s.metrics.jobProcessed(job.Notification.Kind, resultRetried)
	s.logger.Info("Job scheduled for retry",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
		zap.Duration("delay", s.config.RetryDelay),
	)
	time.AfterFunc(s.config.RetryDelay, func() {
		if err := s.SubmitJob(job); err != nil {
			s.metrics.jobProcessed(job.Notification.Kind, resultDropped)
			s.logger.Warn("Failed to re-queue job for retry",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
		}
	})
}

// willRetry reports whether a failed attempt of job will be queued again
func willRetry(job *Job, err error) bool {
	return isTemporary(err) && job.RetryCount < job.MaxRetries
}

// isTemporary reports whether err says a later attempt may succeed
func isTemporary(err error) bool {
	var t interface{ Temporary() bool }
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return false
}

var _ payables.NotificationQueue = (*Scheduler)(nil)
