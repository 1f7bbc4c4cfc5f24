// Package scheduler runs the server's periodic background jobs on gocron.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/wikichallenge/wikichallenge-server/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job defines the interface that all scheduled jobs must implement.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job.
	// The context is cancelled when the scheduler is stopping.
	Run(ctx context.Context) error

	// Description returns a human-readable description of the job.
	Description() string
}

// JobResult contains the result of a job execution.
type JobResult struct {
	JobName     string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	Error       error
}

var (
	// ErrNilJob is returned when trying to register a nil job.
	ErrNilJob = errors.New("scheduler: job cannot be nil")

	// ErrJobAlreadyExists is returned when a job with the same name already exists.
	ErrJobAlreadyExists = errors.New("scheduler: job already exists")

	// ErrJobNotFound is returned when a job name is unknown.
	ErrJobNotFound = errors.New("scheduler: job not found")
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// Scheduler registers jobs on a gocron scheduler and keeps the last result
// of each job.
type Scheduler struct {
	cron    gocron.Scheduler
	log     *logger.Logger
	timeout time.Duration

	mu       sync.RWMutex
	jobs     map[string]Job
	lastRuns map[string]JobResult
}

// Config contains configuration for the Scheduler.
type Config struct {
	// Location for cron expressions; day boundaries follow the app's UTC offset.
	Location *time.Location

	// JobTimeout bounds a single run. Zero means no bound.
	JobTimeout time.Duration
}

// New creates a stopped scheduler.
func New(cfg Config, log *logger.Logger) (*Scheduler, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if log == nil {
		log = logger.Nop()
	}

	cron, err := gocron.NewScheduler(gocron.WithLocation(cfg.Location))
	if err != nil {
		return nil, fmt.Errorf("scheduler: failed to create: %w", err)
	}

	return &Scheduler{
		cron:     cron,
		log:      log.Named("scheduler"),
		timeout:  cfg.JobTimeout,
		jobs:     make(map[string]Job),
		lastRuns: make(map[string]JobResult),
	}, nil
}

// Every runs job at a fixed interval, first right after Start.
func (s *Scheduler) Every(job Job, interval time.Duration) error {
	return s.register(job, gocron.DurationJob(interval), gocron.WithStartAt(gocron.WithStartImmediately()))
}

// Daily runs job once a day at hour:minute in the scheduler's location.
func (s *Scheduler) Daily(job Job, hour, minute uint) error {
	return s.register(job, gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hour, minute, 0))))
}

func (s *Scheduler) register(job Job, def gocron.JobDefinition, opts ...gocron.JobOption) error {
	if job == nil {
		return ErrNilJob
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}

	opts = append(opts,
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	_, err := s.cron.NewJob(def, gocron.NewTask(func(ctx context.Context) {
		s.execute(ctx, job)
	}), opts...)
	if err != nil {
		return fmt.Errorf("scheduler: failed to register %s: %w", name, err)
	}

	s.jobs[name] = job
	s.log.Info("job registered",
		logger.String("job", name),
		logger.String("description", job.Description()),
	)
	return nil
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", logger.Int("jobs", len(s.jobs)))
}

// Stop waits for running jobs and stops the scheduler.
func (s *Scheduler) Stop() error {
	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("scheduler: failed to stop: %w", err)
	}
	s.log.Info("scheduler stopped")
	return nil
}

// RunNow executes the named job synchronously, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) (JobResult, error) {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return JobResult{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.execute(ctx, job), nil
}

// LastResult returns the most recent result of the named job.
func (s *Scheduler) LastResult(name string) (JobResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.lastRuns[name]
	return r, ok
}

func (s *Scheduler) execute(ctx context.Context, job Job) JobResult {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result := JobResult{JobName: job.Name(), StartedAt: time.Now()}
	err := job.Run(ctx)
	result.CompletedAt = time.Now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)
	result.Success = err == nil
	result.Error = err

	s.mu.Lock()
	s.lastRuns[result.JobName] = result
	s.mu.Unlock()

	if err != nil {
		s.log.Error("job failed",
			logger.String("job", result.JobName),
			logger.Duration("duration", result.Duration),
			logger.Err(err),
		)
	} else {
		s.log.Debug("job completed",
			logger.String("job", result.JobName),
			logger.Duration("duration", result.Duration),
		)
	}
	return result
}
