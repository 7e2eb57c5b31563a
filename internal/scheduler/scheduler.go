// Package scheduler runs periodic background jobs such as health probes.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var ErrAlreadyRunning = errors.New("scheduler already running")

type Job func(ctx context.Context)

type Option func(*Scheduler)

// WithRunTimeout bounds a single job run. Zero means the run only ends
// when the scheduler stops.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.runTimeout = d }
}

type Scheduler struct {
	name       string
	every      time.Duration
	runTimeout time.Duration
	job        Job

	runs    atomic.Int64
	lastRun atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(name string, every time.Duration, job Job, opts ...Option) (*Scheduler, error) {
	if every <= 0 {
		return nil, errors.New("interval must be > 0")
	}
	if job == nil {
		return nil, errors.New("job must not be nil")
	}
	if name == "" {
		name = "job"
	}
	s := &Scheduler{name: name, every: every, job: job}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run executes the job immediately and then once per interval, blocking
// until ctx is done. Runs never overlap.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	slog.Info("scheduler started", "job", s.name, "interval", s.every.String())
	defer slog.Info("scheduler stopped", "job", s.name)

	for {
		s.runOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Start runs the scheduler in the background until Stop or until parent
// is canceled.
func (s *Scheduler) Start(parent context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done

	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	return nil
}

// Stop cancels a started scheduler and waits for the current run to
// finish. Calling Stop on an idle scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel, s.done = nil, nil
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Runs reports how many job runs have completed, including panicked ones.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// LastRun reports when the most recent run finished, or the zero time.
func (s *Scheduler) LastRun() time.Time {
	n := s.lastRun.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduler job panic recovered", "job", s.name, "panic", r)
		}
		s.lastRun.Store(time.Now().UnixNano())
		s.runs.Add(1)
		slog.Debug("scheduler job finished", "job", s.name, "duration_ms", time.Since(start).Milliseconds())
	}()
	s.job(ctx)
}
