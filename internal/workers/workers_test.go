package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"questlog/internal/types/calendar"
	"questlog/services"
)

type fakeRefresher struct {
	mu    sync.Mutex
	now   time.Time
	calls int
}

func (f *fakeRefresher) RefreshDaily(context.Context) services.RefreshResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return services.RefreshResult{Recycled: 2}
}

func (f *fakeRefresher) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeRefresher) set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

func (f *fakeRefresher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRefreshIfNewDay(t *testing.T) {
	logger := zaptest.NewLogger(t)
	start := time.Date(2024, 3, 13, 23, 0, 0, 0, time.UTC)
	r := &fakeRefresher{now: start}
	last := calendar.KeyOf(start, time.UTC)

	last = refreshIfNewDay(context.Background(), r, last, time.UTC, logger)
	assert.Equal(t, 0, r.Calls())

	r.set(start.Add(2 * time.Hour))
	last = refreshIfNewDay(context.Background(), r, last, time.UTC, logger)
	assert.Equal(t, 1, r.Calls())
	assert.Equal(t, calendar.KeyOf(start.Add(2*time.Hour), time.UTC), last)

	// same day again
	refreshIfNewDay(context.Background(), r, last, time.UTC, logger)
	assert.Equal(t, 1, r.Calls())
}

func TestStartRefreshWorker(t *testing.T) {
	defer goleak.VerifyNone(t)

	start := time.Date(2024, 3, 13, 23, 0, 0, 0, time.UTC)
	r := &fakeRefresher{now: start}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StartRefreshWorker(ctx, r, calendar.KeyOf(start, time.UTC), 5*time.Millisecond, time.UTC, zaptest.NewLogger(t))
		close(done)
	}()

	// still the starting day
	assert.Never(t, func() bool { return r.Calls() > 0 }, 30*time.Millisecond, 5*time.Millisecond)

	r.set(start.Add(3 * time.Hour))
	assert.Eventually(t, func() bool { return r.Calls() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 1, r.Calls())
}

func TestCatchUpRefreshesOnce(t *testing.T) {
	now := time.Date(2024, 3, 14, 7, 0, 0, 0, time.UTC)
	r := &fakeRefresher{now: now}

	since := CatchUp(context.Background(), r, time.UTC, zaptest.NewLogger(t))
	assert.Equal(t, 1, r.Calls())
	assert.Equal(t, calendar.KeyOf(now, time.UTC), since)
}
