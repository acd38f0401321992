package workers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"questlog/internal/types/calendar"
	"questlog/services"
)

// Refresher is the slice of AppService the refresh worker drives.
type Refresher interface {
	RefreshDaily(ctx context.Context) services.RefreshResult
	Now() time.Time
}

// StartRefreshWorker checks every interval whether the local day has moved
// past since and runs the daily refresh when it has. It blocks until ctx is
// done.
func StartRefreshWorker(ctx context.Context, r Refresher, since calendar.DayKey, interval time.Duration, loc *time.Location, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := since
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			last = refreshIfNewDay(ctx, r, last, loc, logger)
		}
	}
}

// CatchUp runs the refresh once for whatever days passed while the process
// was down and returns the day the refresh worker should start from.
func CatchUp(ctx context.Context, r Refresher, loc *time.Location, logger *zap.Logger) calendar.DayKey {
	res := r.RefreshDaily(ctx)
	logger.Info("Startup refresh done",
		zap.Int("recycled", res.Recycled),
		zap.Int("challenges_changed", len(res.Challenges)))
	return calendar.KeyOf(r.Now(), loc)
}

func refreshIfNewDay(ctx context.Context, r Refresher, last calendar.DayKey, loc *time.Location, logger *zap.Logger) calendar.DayKey {
	today := calendar.KeyOf(r.Now(), loc)
	if today == last {
		return last
	}

	refreshCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	logger.Info("Starting daily refresh")
	res := r.RefreshDaily(refreshCtx)
	logger.Info("Daily refresh done",
		zap.Int("recycled", res.Recycled),
		zap.Int("challenges_changed", len(res.Challenges)))
	return today
}
