package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"questlog/internal/types/challenge"
	"questlog/internal/types/progress"
	"questlog/internal/types/quest"
	"questlog/internal/types/user"
)

// failingKV wraps a KV and refuses writes to one key.
type failingKV struct {
	KV
	failKey string
}

func (f failingKV) Put(ctx context.Context, key string, value []byte) error {
	if key == f.failKey {
		return errors.New("disk full")
	}
	return f.KV.Put(ctx, key, value)
}

func backends(t *testing.T) map[string]KV {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := NewByEngine(EngineSQLite, filepath.Join(dir, "questlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	files, err := NewByEngine(EngineJSON, filepath.Join(dir, "blobs"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = files.Close() })

	return map[string]KV{EngineSQLite: sqlite, EngineJSON: files}
}

func sampleSnapshot() Snapshot {
	now := time.Date(2024, 5, 6, 9, 30, 0, 0, time.UTC)
	u := user.New("Ada", "ada@example.com", now)

	active := quest.New("Deep Work Session", "focus", quest.CategoryProductivity, quest.DifficultyHard, 5400, "brain", now)
	active.Start(now)
	done := quest.New("Morning Hydration", "water", quest.CategoryLifestyle, quest.DifficultyEasy, 300, "drop", now)
	done.Start(now)
	done.Complete(now.Add(time.Minute))
	idle := quest.New("Nature Walk", "walk", quest.CategoryLifestyle, quest.DifficultyEasy, 1200, "leaf", now)

	ch := challenge.New("Kindness", "be kind", challenge.TypeCommunity, quest.CategorySocial,
		now.AddDate(0, 0, -1), now.AddDate(0, 0, 6), 3, "heart", challenge.Reward{Points: 150, BadgeTitle: "Kindness Champion"}, now)

	stats := progress.NewStats()
	stats.TotalQuestsCompleted = 1
	stats.TotalPointsEarned = 10
	stats.UpdateLevel()

	return Snapshot{
		User:       &u,
		Quests:     []quest.Quest{active, done, idle},
		Challenges: []challenge.Challenge{ch},
		Stats:      stats,
		History:    []progress.Completion{progress.CompletionOf(done, *done.CompletedDate)},
	}
}

func TestGatewayRoundTrip(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			g := NewGateway(kv, zaptest.NewLogger(t))
			ctx := context.Background()
			want := sampleSnapshot()

			require.NoError(t, g.Save(ctx, want))

			got, report := g.Load(ctx)
			assert.True(t, report.Clean())
			for _, key := range Keys {
				assert.Equal(t, StatusLoaded, report[key], key)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGatewayLoadEmpty(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			g := NewGateway(kv, zaptest.NewLogger(t))

			snap, report := g.Load(context.Background())
			assert.Nil(t, snap.User)
			assert.Empty(t, snap.Quests)
			assert.Empty(t, snap.Challenges)
			assert.Equal(t, progress.NewStats(), snap.Stats)
			for _, key := range Keys {
				assert.Equal(t, StatusMissing, report[key], key)
			}
			assert.True(t, report.Clean())
		})
	}
}

func TestGatewayLoadCorruptKeyFallsBack(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			g := NewGateway(kv, zaptest.NewLogger(t))
			ctx := context.Background()
			want := sampleSnapshot()
			require.NoError(t, g.Save(ctx, want))

			require.NoError(t, kv.Put(ctx, KeyProgress, []byte(`{"total_points_earned": "lots"`)))
			require.NoError(t, kv.Put(ctx, KeyQuests, []byte(`not json`)))

			got, report := g.Load(ctx)
			assert.False(t, report.Clean())
			assert.Equal(t, StatusCorrupt, report[KeyProgress])
			assert.Equal(t, StatusCorrupt, report[KeyQuests])
			assert.Equal(t, StatusLoaded, report[KeyUser])

			assert.Equal(t, progress.NewStats(), got.Stats)
			assert.Empty(t, got.Quests)
			require.NotNil(t, got.User)
			assert.Equal(t, want.User.ID, got.User.ID)
			assert.Len(t, got.Challenges, 1)
		})
	}
}

func TestGatewaySaveContinuesPastFailure(t *testing.T) {
	dir := t.TempDir()
	base, err := NewFileKV(dir)
	require.NoError(t, err)

	g := NewGateway(failingKV{KV: base, failKey: KeyQuests}, zaptest.NewLogger(t))
	ctx := context.Background()
	want := sampleSnapshot()

	err = g.Save(ctx, want)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	got, report := NewGateway(base, zaptest.NewLogger(t)).Load(ctx)
	assert.Equal(t, StatusMissing, report[KeyQuests])
	assert.Equal(t, StatusLoaded, report[KeyUser])
	assert.Equal(t, StatusLoaded, report[KeyChallenges])
	assert.Equal(t, StatusLoaded, report[KeyProgress])
	assert.Equal(t, want.Stats, got.Stats)
}

func TestGatewayResetAll(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			g := NewGateway(kv, zaptest.NewLogger(t))
			ctx := context.Background()
			require.NoError(t, g.Save(ctx, sampleSnapshot()))

			require.NoError(t, g.ResetAll(ctx))
			// deleting twice is fine
			require.NoError(t, g.ResetAll(ctx))

			_, report := g.Load(ctx)
			for _, key := range Keys {
				assert.Equal(t, StatusMissing, report[key], key)
			}
		})
	}
}

func TestNewByEngineRejectsUnknown(t *testing.T) {
	_, err := NewByEngine("postgres", t.TempDir())
	assert.Error(t, err)
}
