// Package scheduler re-triggers the rate refresh on a weekday calendar: once
// per day at a fixed local time, Monday through Friday, in the timezone of the
// primary market the rates track.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	portssvc "github.com/fintrack-app/fintrack_backend/internal/core/ports/services"
	"github.com/fintrack-app/fintrack_backend/internal/middleware"
	"github.com/google/uuid"
)

// Scheduler arms a timer for the next weekday fire instant and runs the
// refresh when it goes off. A failed run is logged; the trigger re-arms for
// the next occurrence regardless of the outcome.
type Scheduler struct {
	refresh  portssvc.RateRefreshSvc
	fireHour int
	location *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Scheduler firing at fireHour local time in location.
func New(refresh portssvc.RateRefreshSvc, fireHour int, location *time.Location, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		refresh:  refresh,
		fireHour: fireHour,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

// Run loops until ctx is cancelled. Callers launch it in its own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := s.nextFireTime(s.now())
		s.logger.Info("Rate refresh scheduled", slog.Time("next_run", next))

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Rate refresh scheduler stopped")
			return
		case <-timer.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce executes one scheduled refresh with a job-scoped logger.
func (s *Scheduler) runOnce(ctx context.Context) {
	jobLogger := s.logger.With(
		slog.String("job_id", uuid.NewString()),
		slog.String("job", "rate-refresh"),
	)
	jobCtx := middleware.NewContextWithLogger(ctx, jobLogger)

	summary, err := s.refresh.RefreshAllRates(jobCtx)
	if err != nil {
		jobLogger.Error("Scheduled rate refresh failed", slog.String("error", err.Error()))
		return
	}
	jobLogger.Info("Scheduled rate refresh completed",
		slog.Int("total_pairs", summary.TotalPairs),
		slog.Int("updated", summary.Updated),
		slog.Int("failed", summary.Failed),
	)
}

// nextFireTime returns the next weekday instant at fireHour local time
// strictly after from.
func (s *Scheduler) nextFireTime(from time.Time) time.Time {
	local := from.In(s.location)
	fire := time.Date(local.Year(), local.Month(), local.Day(), s.fireHour, 0, 0, 0, s.location)
	if !fire.After(local) {
		fire = fire.AddDate(0, 0, 1)
	}
	for fire.Weekday() == time.Saturday || fire.Weekday() == time.Sunday {
		fire = fire.AddDate(0, 0, 1)
	}
	return fire
}
