package notification

import (
	"time"

	"github.com/google/uuid"
)

// EventType names something the engine did. Subscribers react to events; they
// never write back into engine state.
type EventType string

const (
	EventQuestCompleted     EventType = "quest_completed"
	EventStreakUpdated      EventType = "streak_updated"
	EventChallengeProgress  EventType = "challenge_progress"
	EventChallengeCompleted EventType = "challenge_completed"
	EventChallengeFailed    EventType = "challenge_failed"
	EventChallengeEnding    EventType = "challenge_ending"
	EventPreferencesChanged EventType = "preferences_changed"
	EventDataReset          EventType = "data_reset"
)

type Event struct {
	Type       EventType      `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

type ReminderKind string

const (
	ReminderDailyQuest   ReminderKind = "DAILY_QUEST"
	ReminderStreak       ReminderKind = "STREAK_REMINDER"
	ReminderQuestDone    ReminderKind = "QUEST_COMPLETED"
	ReminderChallenge    ReminderKind = "CHALLENGE_REMINDER"
	ReminderMindfulBreak ReminderKind = "MINDFUL_BREAK"
	ReminderBreathing    ReminderKind = "BREATHING_EXERCISE"
)

// Reminder is one local notification. Reminders sharing an Identifier replace
// each other.
type Reminder struct {
	ID         uuid.UUID      `json:"id"`
	Identifier string         `json:"identifier"`
	Kind       ReminderKind   `json:"kind"`
	Title      string         `json:"title"`
	Body       string         `json:"body"`
	FireAt     time.Time      `json:"fire_at"`
	Repeat     time.Duration  `json:"repeat,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

type DeviceToken struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}
