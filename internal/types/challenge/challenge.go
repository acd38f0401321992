package challenge

import (
	"time"

	"github.com/google/uuid"

	"questlog/internal/types/quest"
)

type Type string

const (
	TypeDaily     Type = "daily"
	TypeWeekly    Type = "weekly"
	TypeMonthly   Type = "monthly"
	TypeCommunity Type = "community"
)

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type Reward struct {
	Points        int    `json:"points" yaml:"points"`
	BadgeTitle    string `json:"badge_title" yaml:"badge_title"`
	BadgeIconName string `json:"badge_icon_name" yaml:"badge_icon_name"`
}

type Challenge struct {
	ID               uuid.UUID      `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Type             Type           `json:"type"`
	Category         quest.Category `json:"category"`
	StartDate        time.Time      `json:"start_date"`
	EndDate          time.Time      `json:"end_date"`
	TargetValue      int            `json:"target_value"`
	IconName         string         `json:"icon_name"`
	Status           Status         `json:"status"`
	CurrentProgress  int            `json:"current_progress"`
	ParticipantCount int            `json:"participant_count"`
	Reward           Reward         `json:"reward"`
}

// New builds a challenge whose status depends on whether it has started yet.
func New(title, description string, typ Type, category quest.Category, start, end time.Time, target int, iconName string, reward Reward, now time.Time) Challenge {
	status := StatusActive
	if start.After(now) {
		status = StatusUpcoming
	}
	return Challenge{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Type:        typ,
		Category:    category,
		StartDate:   start,
		EndDate:     end,
		TargetValue: target,
		IconName:    iconName,
		Status:      status,
		Reward:      reward,
	}
}

// IsActive reports whether now lies in [StartDate, EndDate] and the challenge
// is still in the active status.
func (c Challenge) IsActive(now time.Time) bool {
	return !now.Before(c.StartDate) && !now.After(c.EndDate) && c.Status == StatusActive
}

func (c Challenge) ProgressPercentage() float64 {
	if c.TargetValue <= 0 {
		return 0
	}
	return float64(c.CurrentProgress) / float64(c.TargetValue)
}

// DaysRemaining counts whole days from now until EndDate, never negative.
func (c Challenge) DaysRemaining(now time.Time) int {
	if !c.EndDate.After(now) {
		return 0
	}
	return int(c.EndDate.Sub(now) / (24 * time.Hour))
}

func (c *Challenge) UpdateProgress(progress int) {
	c.CurrentProgress = progress
	if c.CurrentProgress >= c.TargetValue {
		c.Status = StatusCompleted
	}
}

// Advance applies the time-driven transitions: upcoming becomes active once
// the window opens, and an active challenge past its end with the target unmet
// becomes failed. It reports whether the status changed.
func (c *Challenge) Advance(now time.Time) bool {
	switch c.Status {
	case StatusUpcoming:
		if now.Before(c.StartDate) {
			return false
		}
		if now.After(c.EndDate) {
			c.Status = StatusFailed
			return true
		}
		c.Status = StatusActive
		return true
	case StatusActive:
		if now.After(c.EndDate) && c.CurrentProgress < c.TargetValue {
			c.Status = StatusFailed
			return true
		}
	}
	return false
}
