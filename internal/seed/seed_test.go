package seed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questlog/internal/types/challenge"
	"questlog/internal/types/quest"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	assert.Len(t, c.Quests, 17)
	assert.Len(t, c.Challenges, 4)

	perCategory := map[quest.Category]int{}
	for _, q := range c.Quests {
		perCategory[q.Category]++
	}
	for _, cat := range quest.Categories {
		assert.NotZero(t, perCategory[cat], "no quest for %s", cat)
	}
}

func TestNewQuestsAreFresh(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	qs := Default().NewQuests(now)

	seen := map[string]bool{}
	for _, q := range qs {
		assert.Equal(t, quest.StatusAvailable, q.Status)
		assert.Equal(t, now, q.CreatedDate)
		assert.Zero(t, q.Progress)
		assert.False(t, seen[q.ID.String()], "duplicate id")
		seen[q.ID.String()] = true
	}
	assert.Equal(t, "Morning Hydration", qs[0].Title)
	assert.Equal(t, 300, qs[0].EstimatedDuration)
}

func TestNewChallengesResolveOffsets(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	chs := Default().NewChallenges(now)
	require.Len(t, chs, 4)

	mindful := chs[0]
	assert.Equal(t, "7-Day Mindfulness Journey", mindful.Title)
	assert.Equal(t, now.AddDate(0, 0, -2), mindful.StartDate)
	assert.Equal(t, now.AddDate(0, 0, 5), mindful.EndDate)
	assert.Equal(t, challenge.StatusActive, mindful.Status)
	assert.Equal(t, 100, mindful.Reward.Points)
	assert.Equal(t, "Mindful Master", mindful.Reward.BadgeTitle)
}

func TestParseRejectsUnknownCategory(t *testing.T) {
	_, err := Parse([]byte(`
quests:
  - title: Juggling
    category: circus
    difficulty: easy
`))
	assert.Error(t, err)
}

func TestParseRejectsInvertedWindow(t *testing.T) {
	_, err := Parse([]byte(`
challenges:
  - title: Backwards
    category: social
    start_offset_days: 3
    end_offset_days: 1
    target_value: 2
`))
	assert.Error(t, err)
}
