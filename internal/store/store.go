package store

import (
	"context"
	"errors"
)

// Persisted keys. Each one is an independent JSON document.
const (
	KeyUser       = "saved_user"
	KeyQuests     = "saved_quests"
	KeyChallenges = "saved_challenges"
	KeyProgress   = "saved_progress"
	KeyHistory    = "saved_history"
)

// Keys lists every persisted key in load order.
var Keys = []string{KeyUser, KeyQuests, KeyChallenges, KeyProgress, KeyHistory}

var ErrNotFound = errors.New("key not found")

// KV is a flat key to blob store. Put must be atomic per key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
