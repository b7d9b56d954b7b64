package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidInterval is returned by Start when the interval is not positive.
	ErrInvalidInterval = errors.New("scheduler interval must be positive")
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("scheduler already started")
	// ErrStopped is returned by Start after Stop; a Scheduler cannot be restarted.
	ErrStopped = errors.New("scheduler stopped")
)

// Task is one run of the scheduled work. ctx is cancelled when the
// scheduler stops or the per-run timeout elapses.
type Task func(ctx context.Context)

// Scheduler runs a task once immediately and then on a fixed interval.
type Scheduler struct {
	scheduler *gocron.Scheduler
	interval  time.Duration
	timeout   time.Duration
	task      Task
	logger    zerolog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a Scheduler. A timeout <= 0 means runs are bounded only by Stop.
func New(interval, timeout time.Duration, task Task, logger zerolog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		interval:  interval,
		timeout:   timeout,
		task:      task,
		logger:    logger.With().Str("component", "scheduler").Logger(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Handle is returned by Start; stopping it cancels all future runs.
type Handle struct {
	s *Scheduler
}

// Stop cancels the schedule. Safe to call more than once.
func (h *Handle) Stop() {
	if h == nil || h.s == nil {
		return
	}
	h.s.Stop()
}

// Start schedules the repeating task and runs it once right away.
// Overlapping runs are skipped rather than queued.
func (s *Scheduler) Start() (*Handle, error) {
	if s.interval <= 0 {
		return nil, ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.stopped:
		return nil, ErrStopped
	case s.started:
		return nil, ErrAlreadyStarted
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().StartImmediately().Do(s.run)
	if err != nil {
		return nil, err
	}

	s.scheduler.StartAsync()
	s.started = true
	s.logger.Info().Dur("interval", s.interval).Msg("scheduler started")
	return &Handle{s: s}, nil
}

func (s *Scheduler) run() {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if ctx.Err() != nil {
		return
	}
	s.task(ctx)
}

// Stop cancels in-flight runs and future jobs. It is safe to call even if
// Start was never called.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	s.cancel()

	if s.started {
		s.scheduler.Stop()
		s.logger.Info().Msg("scheduler stopped")
	}
}
