// Package scheduler fires the nightly queue reset at a fixed local
// wall-clock time. There are no catch-up semantics: if the process is down
// at the scheduled instant the fire is skipped, not queued.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"darkroom/internal/logging"
)

// Scheduler invokes a reset callback once per day at a configured time.
type Scheduler struct {
	hour   int
	minute int
	fire   func()
	logger *slog.Logger

	now func() time.Time
}

// New parses an HH:MM local time and builds a scheduler around the given
// callback. The callback runs on the scheduler goroutine; it is expected
// to be a bounded synchronous call.
func New(resetTime string, fire func(), logger *slog.Logger) (*Scheduler, error) {
	parsed, err := time.Parse("15:04", resetTime)
	if err != nil {
		return nil, fmt.Errorf("parse reset time %q: %w", resetTime, err)
	}
	if fire == nil {
		return nil, fmt.Errorf("scheduler requires a reset callback")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		hour:   parsed.Hour(),
		minute: parsed.Minute(),
		fire:   fire,
		logger: logger.With(logging.String("component", "scheduler")),
		now:    time.Now,
	}, nil
}

// Run blocks until ctx is cancelled, firing the callback at each scheduled
// instant.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := s.NextFire(s.now())
		s.logger.Info("next scheduled reset", logging.String("at", next.Format(time.RFC3339)))

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.logger.Info("scheduled reset firing")
			s.fire()
		}
	}
}

// NextFire returns the first scheduled instant strictly after now.
func (s *Scheduler) NextFire(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
