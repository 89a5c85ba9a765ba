package services

import (
	"context"
	"log/slog"

	portsrepo "github.com/fintrack-app/fintrack_backend/internal/core/ports/repositories"
	portssvc "github.com/fintrack-app/fintrack_backend/internal/core/ports/services"
	"github.com/fintrack-app/fintrack_backend/internal/utils/worker"
)

// recentRateWindowDays is how far back a stored rate still counts as fresh at
// boot. Three calendar days tolerate the weekend gap: Friday's rate is still
// recent on Monday.
const recentRateWindowDays = 3

// StartupCoordinator decides at boot whether rates need a refresh and which
// users need a historical backfill, then triggers both without blocking
// startup. Every failure here is logged and swallowed; startup must complete
// no matter what state the rate table is in.
type StartupCoordinator struct {
	BaseService
	rateRepo  portsrepo.ExchangeRateReader
	usageRepo portsrepo.CurrencyUsageReader
	refresh   portssvc.RateRefreshSvc
	backfill  portssvc.RateBackfillSvc
	workers   int
	clock     Clock
}

// CoordinatorOption customizes a StartupCoordinator.
type CoordinatorOption func(*StartupCoordinator)

// WithCoordinatorClock overrides the wall clock, mainly for tests.
func WithCoordinatorClock(clock Clock) CoordinatorOption {
	return func(c *StartupCoordinator) { c.clock = clock }
}

// NewStartupCoordinator creates a new StartupCoordinator. workers bounds how
// many per-user backfills run at once.
func NewStartupCoordinator(
	rateRepo portsrepo.ExchangeRateReader,
	usageRepo portsrepo.CurrencyUsageReader,
	refresh portssvc.RateRefreshSvc,
	backfill portssvc.RateBackfillSvc,
	workers int,
	opts ...CoordinatorOption,
) *StartupCoordinator {
	c := &StartupCoordinator{
		rateRepo:  rateRepo,
		usageRepo: usageRepo,
		refresh:   refresh,
		backfill:  backfill,
		workers:   workers,
		clock:     SystemClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run performs the startup catch-up. Callers launch it in its own goroutine;
// it returns only when the refresh check and all queued backfills are done.
func (c *StartupCoordinator) Run(ctx context.Context) {
	c.refreshIfStale(ctx)
	c.backfillUsers(ctx)
}

// refreshIfStale triggers a synchronous refresh when no rate row exists within
// the recent window.
func (c *StartupCoordinator) refreshIfStale(ctx context.Context) {
	cutoff := CivilDate(c.clock.Now()).AddDate(0, 0, -recentRateWindowDays)
	recent, err := c.rateRepo.HasRateSince(ctx, cutoff)
	if err != nil {
		c.LogError(ctx, err, "Startup rate freshness check failed")
		return
	}
	if recent {
		c.LogInfo(ctx, "Recent exchange rates found, skipping startup refresh", slog.Time("cutoff", cutoff))
		return
	}

	summary, err := c.refresh.RefreshAllRates(ctx)
	if err != nil {
		c.LogError(ctx, err, "Startup rate refresh failed")
		return
	}
	c.LogInfo(ctx, "Startup rate refresh completed",
		slog.Int("total_pairs", summary.TotalPairs),
		slog.Int("updated", summary.Updated),
		slog.Int("failed", summary.Failed),
	)
}

// backfillUsers queues a historical backfill for every user holding foreign
// currencies, bounded by a small worker pool so one slow user cannot pile up
// unbounded goroutines. A failure for one user never affects the others.
func (c *StartupCoordinator) backfillUsers(ctx context.Context) {
	userIDs, err := c.usageRepo.UsersNeedingBackfill(ctx)
	if err != nil {
		c.LogError(ctx, err, "Startup backfill user discovery failed")
		return
	}
	if len(userIDs) == 0 {
		return
	}
	c.LogInfo(ctx, "Queueing startup backfills", slog.Int("users", len(userIDs)))

	pool := worker.NewPool(c.workers)
	for _, userID := range userIDs {
		userID := userID
		pool.Submit(func() {
			summary, err := c.backfill.BackfillHistoricalRates(ctx, userID, nil)
			if err != nil {
				c.LogError(ctx, err, "Startup backfill failed", slog.String("user_id", userID))
				return
			}
			c.LogInfo(ctx, "Startup backfill completed",
				slog.String("user_id", userID),
				slog.Int("total_pairs", summary.TotalPairs),
				slog.Int("successful", summary.Successful),
				slog.Int("failed", summary.Failed),
				slog.Int("rates_loaded", summary.TotalRatesLoaded),
			)
		})
	}
	pool.Wait()
}
