package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questlog/internal/types/challenge"
	"questlog/internal/types/quest"
)

func sampleChallenge(cat quest.Category, start, end time.Time, target int) challenge.Challenge {
	return challenge.New("Challenge "+string(cat), "desc", challenge.TypeWeekly, cat, start, end, target, "flag",
		challenge.Reward{Points: 100, BadgeTitle: "Badge", BadgeIconName: "medal"}, day)
}

func TestChallengeJoin(t *testing.T) {
	c := sampleChallenge(quest.CategorySocial, day.AddDate(0, 0, -1), day.AddDate(0, 0, 6), 3)
	s := NewChallengeService()
	s.Restore([]challenge.Challenge{c})

	got, err := s.Join(c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ParticipantCount)
	assert.Equal(t, 0, got.CurrentProgress)

	_, err = s.Join(uuid.New())
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestChallengeOnQuestCompleted(t *testing.T) {
	mindful := sampleChallenge(quest.CategoryMindfulness, day.AddDate(0, 0, -2), day.AddDate(0, 0, 5), 7)
	mindful.CurrentProgress = 6
	other := sampleChallenge(quest.CategoryFitness, day.AddDate(0, 0, -2), day.AddDate(0, 0, 5), 7)
	future := sampleChallenge(quest.CategoryMindfulness, day.AddDate(0, 0, 1), day.AddDate(0, 0, 8), 7)
	require.Equal(t, challenge.StatusUpcoming, future.Status)

	s := NewChallengeService()
	s.Restore([]challenge.Challenge{mindful, other, future})

	q := sampleQuest(quest.CategoryMindfulness, quest.DifficultyEasy)
	changed := s.OnQuestCompleted(q, day)

	require.Len(t, changed, 1)
	assert.Equal(t, mindful.ID, changed[0].ID)
	assert.Equal(t, 7, changed[0].CurrentProgress)
	assert.Equal(t, challenge.StatusCompleted, changed[0].Status)

	got, _ := s.Find(other.ID)
	assert.Zero(t, got.CurrentProgress)
	got, _ = s.Find(future.ID)
	assert.Zero(t, got.CurrentProgress)

	// a completed challenge is no longer active and stops counting
	assert.Empty(t, s.OnQuestCompleted(q, day))
}

func TestChallengeSweep(t *testing.T) {
	expired := sampleChallenge(quest.CategoryLifestyle, day.AddDate(0, 0, -10), day.AddDate(0, 0, -1), 5)
	expired.CurrentProgress = 2
	opening := sampleChallenge(quest.CategorySocial, day.Add(time.Hour), day.AddDate(0, 0, 7), 3)
	running := sampleChallenge(quest.CategoryFitness, day.AddDate(0, 0, -1), day.AddDate(0, 0, 3), 3)

	s := NewChallengeService()
	s.Restore([]challenge.Challenge{expired, opening, running})

	changed := s.Sweep(day.Add(2 * time.Hour))
	require.Len(t, changed, 2)

	got, _ := s.Find(expired.ID)
	assert.Equal(t, challenge.StatusFailed, got.Status)
	got, _ = s.Find(opening.ID)
	assert.Equal(t, challenge.StatusActive, got.Status)
	got, _ = s.Find(running.ID)
	assert.Equal(t, challenge.StatusActive, got.Status)

	// sweeping again changes nothing
	assert.Empty(t, s.Sweep(day.Add(2*time.Hour)))
}

func TestChallengeEnding(t *testing.T) {
	soon := sampleChallenge(quest.CategoryLifestyle, day.AddDate(0, 0, -3), day.Add(20*time.Hour), 5)
	later := sampleChallenge(quest.CategorySocial, day.AddDate(0, 0, -3), day.AddDate(0, 0, 10), 5)

	s := NewChallengeService()
	s.Restore([]challenge.Challenge{soon, later})

	ending := s.Ending(day, 24*time.Hour)
	require.Len(t, ending, 1)
	assert.Equal(t, soon.ID, ending[0].ID)
}

func TestChallengeDaysRemaining(t *testing.T) {
	c := sampleChallenge(quest.CategoryLifestyle, day.AddDate(0, 0, -3), day.AddDate(0, 0, 5), 5)
	assert.Equal(t, 5, c.DaysRemaining(day))
	assert.Equal(t, 0, c.DaysRemaining(day.AddDate(0, 0, 6)))
	assert.InDelta(t, 0.0, c.ProgressPercentage(), 1e-9)
}
