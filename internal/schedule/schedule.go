// Package schedule triggers a job once a week at a fixed local time.
package schedule

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sensorfor/downloader/internal/config"
)

// Clock abstracts the wall clock and timer so tests can drive the loop.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// RealClock is the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Weekly is a weekday and wall-clock time, interpreted in the location of
// the time passed to Next.
type Weekly struct {
	Day    time.Weekday
	Hour   int
	Minute int
}

// FromConfig builds a Weekly from a validated schedule block.
func FromConfig(s config.Schedule) Weekly {
	hour, minute := s.Clock()
	return Weekly{Day: s.Weekday(), Hour: hour, Minute: minute}
}

// Next returns the first occurrence strictly after now.
func (w Weekly) Next(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), w.Hour, w.Minute, 0, 0, now.Location())
	days := (int(w.Day) - int(now.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, days)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

func (w Weekly) String() string {
	return fmt.Sprintf("every %s at %02d:%02d", w.Day, w.Hour, w.Minute)
}

// Job is one scheduled unit of work.
type Job func(ctx context.Context)

// Scheduler runs a Job on a Weekly schedule.
type Scheduler struct {
	weekly Weekly
	job    Job
	logger *zap.Logger
	clock  Clock
}

// New creates a Scheduler. A nil clock uses the system clock.
func New(weekly Weekly, job Job, logger *zap.Logger, clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	return &Scheduler{
		weekly: weekly,
		job:    job,
		logger: logger,
		clock:  clock,
	}
}

// Next returns the next trigger time after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	return s.weekly.Next(now)
}

// Run waits for each trigger time and runs the job, until ctx is done.
// It returns ctx.Err(). A panicking job is logged and the loop continues.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", zap.Stringer("schedule", s.weekly))

	for {
		now := s.clock.Now()
		next := s.Next(now)
		s.logger.Info("next download scheduled", zap.Time("at", next))

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", zap.Error(ctx.Err()))
			return ctx.Err()
		case <-s.clock.After(next.Sub(now)):
		}

		s.runJob(ctx)
	}
}

func (s *Scheduler) runJob(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled job panicked", zap.Any("panic", r))
		}
	}()
	s.job(ctx)
}
