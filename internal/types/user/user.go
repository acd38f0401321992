package user

import (
	"time"

	"github.com/google/uuid"

	"questlog/internal/types/progress"
	"questlog/internal/types/quest"
)

type User struct {
	ID                   uuid.UUID     `json:"id"`
	Name                 string        `json:"name"`
	Email                string        `json:"email"`
	ProfileImageURL      *string       `json:"profile_image_url,omitempty"`
	JoinedDate           time.Time     `json:"joined_date"`
	CurrentStreak        int           `json:"current_streak"`
	LongestStreak        int           `json:"longest_streak"`
	TotalQuestsCompleted int           `json:"total_quests_completed"`
	TotalPoints          int           `json:"total_points"`
	Level                int           `json:"level"`
	Preferences          Preferences   `json:"preferences"`
	Achievements         []Achievement `json:"achievements"`
}

type Preferences struct {
	NotificationsEnabled     bool             `json:"notifications_enabled"`
	MindfulBreaksEnabled     bool             `json:"mindful_breaks_enabled"`
	BreakIntervalSeconds     int              `json:"break_interval_seconds"`
	PreferredQuestCategories []quest.Category `json:"preferred_quest_categories"`
	DarkModeEnabled          bool             `json:"dark_mode_enabled"`
}

type Achievement struct {
	ID           uuid.UUID  `json:"id"`
	ChallengeID  *uuid.UUID `json:"challenge_id,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	IconName     string     `json:"icon_name"`
	UnlockedDate *time.Time `json:"unlocked_date,omitempty"`
	PointsReward int        `json:"points_reward"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		NotificationsEnabled:     true,
		MindfulBreaksEnabled:     true,
		BreakIntervalSeconds:     3600,
		PreferredQuestCategories: []quest.Category{quest.CategoryLifestyle, quest.CategoryProductivity},
	}
}

func New(name, email string, now time.Time) User {
	return User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		JoinedDate:   now,
		Level:        1,
		Preferences:  DefaultPreferences(),
		Achievements: []Achievement{},
	}
}

// SyncFrom copies the progress-derived fields. User never owns these values.
func (u *User) SyncFrom(stats progress.Stats) {
	u.CurrentStreak = stats.CurrentStreak
	u.LongestStreak = stats.LongestStreak
	u.TotalQuestsCompleted = stats.TotalQuestsCompleted
	u.TotalPoints = stats.TotalPointsEarned
	u.Level = stats.Level
}

func (u User) HasAchievementFor(challengeID uuid.UUID) bool {
	for _, a := range u.Achievements {
		if a.ChallengeID != nil && *a.ChallengeID == challengeID {
			return true
		}
	}
	return false
}

type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type UpdatePreferencesRequest struct {
	NotificationsEnabled     *bool            `json:"notifications_enabled,omitempty"`
	MindfulBreaksEnabled     *bool            `json:"mindful_breaks_enabled,omitempty"`
	BreakIntervalSeconds     *int             `json:"break_interval_seconds,omitempty"`
	PreferredQuestCategories []quest.Category `json:"preferred_quest_categories,omitempty"`
	DarkModeEnabled          *bool            `json:"dark_mode_enabled,omitempty"`
}

// Apply merges the non-nil fields of req into p.
func (req UpdatePreferencesRequest) Apply(p *Preferences) {
	if req.NotificationsEnabled != nil {
		p.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.MindfulBreaksEnabled != nil {
		p.MindfulBreaksEnabled = *req.MindfulBreaksEnabled
	}
	if req.BreakIntervalSeconds != nil {
		p.BreakIntervalSeconds = *req.BreakIntervalSeconds
	}
	if req.PreferredQuestCategories != nil {
		p.PreferredQuestCategories = req.PreferredQuestCategories
	}
	if req.DarkModeEnabled != nil {
		p.DarkModeEnabled = *req.DarkModeEnabled
	}
}
