package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"questlog/internal/types/challenge"
	"questlog/internal/types/progress"
	"questlog/internal/types/quest"
	"questlog/internal/types/user"
)

// Snapshot is everything the engine persists. Quests are flattened across
// partitions; the partition is recovered from each quest's status.
type Snapshot struct {
	User       *user.User
	Quests     []quest.Quest
	Challenges []challenge.Challenge
	Stats      progress.Stats
	History    []progress.Completion
}

type KeyStatus string

const (
	StatusLoaded  KeyStatus = "loaded"
	StatusMissing KeyStatus = "missing"
	StatusCorrupt KeyStatus = "corrupt"
	StatusFailed  KeyStatus = "failed"
)

// LoadReport records how each key was resolved.
type LoadReport map[string]KeyStatus

// Clean reports whether every key either loaded or was absent.
func (r LoadReport) Clean() bool {
	for _, st := range r {
		if st == StatusCorrupt || st == StatusFailed {
			return false
		}
	}
	return true
}

type Gateway struct {
	kv     KV
	logger *zap.Logger
}

func NewGateway(kv KV, logger *zap.Logger) *Gateway {
	return &Gateway{kv: kv, logger: logger}
}

// Load never fails. Every key decodes on its own and falls back to its
// default when missing, corrupt or unreadable.
func (g *Gateway) Load(ctx context.Context) (Snapshot, LoadReport) {
	snap := Snapshot{Stats: progress.NewStats()}
	report := make(LoadReport, len(Keys))

	var u user.User
	if report[KeyUser] = g.decode(ctx, KeyUser, &u); report[KeyUser] == StatusLoaded {
		snap.User = &u
	}

	var quests []quest.Quest
	if report[KeyQuests] = g.decode(ctx, KeyQuests, &quests); report[KeyQuests] == StatusLoaded {
		snap.Quests = quests
	}

	var challenges []challenge.Challenge
	if report[KeyChallenges] = g.decode(ctx, KeyChallenges, &challenges); report[KeyChallenges] == StatusLoaded {
		snap.Challenges = challenges
	}

	var stats progress.Stats
	if report[KeyProgress] = g.decode(ctx, KeyProgress, &stats); report[KeyProgress] == StatusLoaded {
		snap.Stats = stats
	}

	var history []progress.Completion
	if report[KeyHistory] = g.decode(ctx, KeyHistory, &history); report[KeyHistory] == StatusLoaded {
		snap.History = history
	}

	return snap, report
}

func (g *Gateway) decode(ctx context.Context, key string, dst any) KeyStatus {
	raw, err := g.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return StatusMissing
	}
	if err != nil {
		g.logger.Warn("failed to read key, using default", zap.String("key", key), zap.Error(err))
		return StatusFailed
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		g.logger.Warn("corrupt key, using default", zap.String("key", key), zap.Error(err))
		return StatusCorrupt
	}
	return StatusLoaded
}

// Save writes every entity with its own put. A failure on one key does not
// stop the rest; all failures are joined.
func (g *Gateway) Save(ctx context.Context, snap Snapshot) error {
	var errs []error
	if snap.User != nil {
		errs = append(errs, g.SaveUser(ctx, *snap.User))
	}
	errs = append(errs,
		g.SaveQuests(ctx, snap.Quests),
		g.SaveChallenges(ctx, snap.Challenges),
		g.SaveProgress(ctx, snap.Stats, snap.History),
	)
	return errors.Join(errs...)
}

func (g *Gateway) SaveUser(ctx context.Context, u user.User) error {
	return g.put(ctx, KeyUser, u)
}

func (g *Gateway) SaveQuests(ctx context.Context, quests []quest.Quest) error {
	if quests == nil {
		quests = []quest.Quest{}
	}
	return g.put(ctx, KeyQuests, quests)
}

func (g *Gateway) SaveChallenges(ctx context.Context, challenges []challenge.Challenge) error {
	if challenges == nil {
		challenges = []challenge.Challenge{}
	}
	return g.put(ctx, KeyChallenges, challenges)
}

// SaveProgress writes the stats and the completion history as two keys.
func (g *Gateway) SaveProgress(ctx context.Context, stats progress.Stats, history []progress.Completion) error {
	if history == nil {
		history = []progress.Completion{}
	}
	return errors.Join(
		g.put(ctx, KeyProgress, stats),
		g.put(ctx, KeyHistory, history),
	)
}

// ResetAll deletes every persisted key.
func (g *Gateway) ResetAll(ctx context.Context) error {
	var errs []error
	for _, key := range Keys {
		errs = append(errs, g.kv.Delete(ctx, key))
	}
	return errors.Join(errs...)
}

func (g *Gateway) put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := g.kv.Put(ctx, key, raw); err != nil {
		g.logger.Error("failed to persist key", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}
