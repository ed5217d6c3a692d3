// Package scheduler triggers full pipeline runs on a cron schedule.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler manages a single cron job with timezone support.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	mu       sync.Mutex
	entryID  cron.EntryID
	started  bool
	logger   *zap.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for job skips and panics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScheduler creates a new scheduler for the given timezone. A job that is still running
// when its next activation arrives is skipped, not queued.
func NewScheduler(timezone string, opts ...Option) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	s := &Scheduler{location: loc, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	cl := cronLogger{s.logger.Sugar()}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return s, nil
}

// Schedule replaces the scheduled job. spec is a standard five-field cron expression or a
// descriptor such as "@hourly" or "@every 30m".
func (s *Scheduler) Schedule(spec string, fn func()) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Remove existing job if any
	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}

	entryID, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	s.entryID = entryID
	return nil
}

// Next returns the next activation time in the scheduler's timezone, or the zero time if
// nothing is scheduled or the scheduler has not been started.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID == 0 {
		return time.Time{}
	}
	next := s.cron.Entry(s.entryID).Next
	if next.IsZero() {
		return next
	}
	return next.In(s.location)
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.cron.Start()
		s.started = true
	}
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	ctx := s.cron.Stop()
	s.started = false
	s.mu.Unlock()
	<-ctx.Done()
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
