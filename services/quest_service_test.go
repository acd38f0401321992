package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questlog/internal/types/quest"
)

var day = time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

func newCatalog(t *testing.T, qs ...quest.Quest) *QuestService {
	t.Helper()
	s := NewQuestService(time.UTC)
	s.Restore(qs)
	return s
}

func sampleQuest(cat quest.Category, diff quest.Difficulty) quest.Quest {
	return quest.New("Quest "+string(cat), "desc", cat, diff, 600, "star", day.AddDate(0, 0, -30))
}

func TestQuestLifecycle(t *testing.T) {
	q := sampleQuest(quest.CategoryMindfulness, quest.DifficultyEasy)
	s := newCatalog(t, q)

	// 1. Start
	require.NoError(t, s.Start(q.ID, day))
	assert.Equal(t, map[Partition]int{PartitionAvailable: 0, PartitionActive: 1, PartitionCompleted: 0}, s.Counts())

	got, part, err := s.Find(q.ID)
	require.NoError(t, err)
	assert.Equal(t, PartitionActive, part)
	assert.Equal(t, quest.StatusInProgress, got.Status)
	require.NotNil(t, got.StartDate)

	// 2. Complete
	done, err := s.Complete(q.ID, day.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, quest.StatusCompleted, done.Status)
	assert.Equal(t, 1.0, done.Progress)
	assert.Equal(t, day.Add(time.Hour), *done.CompletedDate)
	assert.Len(t, s.List(PartitionCompleted), 1)
	assert.Empty(t, s.List(PartitionActive))
}

func TestQuestStartUnknownLeavesStateUntouched(t *testing.T) {
	q := sampleQuest(quest.CategoryFitness, quest.DifficultyMedium)
	s := newCatalog(t, q)
	before := s.All()

	err := s.Start(uuid.New(), day)
	assert.ErrorIs(t, err, ErrQuestNotFound)
	assert.Equal(t, before, s.All())
}

func TestQuestStartTwiceFails(t *testing.T) {
	q := sampleQuest(quest.CategoryFitness, quest.DifficultyMedium)
	s := newCatalog(t, q)

	require.NoError(t, s.Start(q.ID, day))
	assert.ErrorIs(t, s.Start(q.ID, day), ErrQuestNotFound)
	assert.Equal(t, 1, s.Counts()[PartitionActive])
}

func TestQuestCompleteRequiresActive(t *testing.T) {
	q := sampleQuest(quest.CategorySocial, quest.DifficultyEasy)
	s := newCatalog(t, q)

	_, err := s.Complete(q.ID, day)
	assert.ErrorIs(t, err, ErrQuestNotFound)
	assert.Equal(t, 1, s.Counts()[PartitionAvailable])
}

func TestQuestUpdateProgressClamps(t *testing.T) {
	q := sampleQuest(quest.CategoryLearning, quest.DifficultyHard)
	s := newCatalog(t, q)
	require.NoError(t, s.Start(q.ID, day))

	completed, err := s.UpdateProgress(q.ID, -0.5, day)
	require.NoError(t, err)
	assert.False(t, completed)
	got, _, _ := s.Find(q.ID)
	assert.Equal(t, 0.0, got.Progress)

	completed, err = s.UpdateProgress(q.ID, 0.4, day)
	require.NoError(t, err)
	assert.False(t, completed)
	got, _, _ = s.Find(q.ID)
	assert.InDelta(t, 0.4, got.Progress, 1e-9)

	completed, err = s.UpdateProgress(q.ID, 1.7, day)
	require.NoError(t, err)
	assert.True(t, completed)
	got, part, _ := s.Find(q.ID)
	assert.Equal(t, PartitionCompleted, part)
	assert.Equal(t, 1.0, got.Progress)
}

func TestQuestUpdateProgressRequiresActive(t *testing.T) {
	q := sampleQuest(quest.CategoryLearning, quest.DifficultyHard)
	s := newCatalog(t, q)

	_, err := s.UpdateProgress(q.ID, 0.5, day)
	assert.ErrorIs(t, err, ErrQuestNotFound)
}

func TestQuestSkipReturnsToAvailable(t *testing.T) {
	q := sampleQuest(quest.CategoryCreativity, quest.DifficultyMedium)
	s := newCatalog(t, q)
	require.NoError(t, s.Start(q.ID, day))
	_, err := s.UpdateProgress(q.ID, 0.3, day)
	require.NoError(t, err)

	require.NoError(t, s.Skip(q.ID))

	got, part, err := s.Find(q.ID)
	require.NoError(t, err)
	assert.Equal(t, PartitionAvailable, part)
	assert.Equal(t, quest.StatusAvailable, got.Status)
	// stale values survive a skip
	assert.InDelta(t, 0.3, got.Progress, 1e-9)
	assert.NotNil(t, got.StartDate)

	// and the quest stays available after a save/load cycle
	restored := newCatalog(t, s.All()...)
	_, part, err = restored.Find(q.ID)
	require.NoError(t, err)
	assert.Equal(t, PartitionAvailable, part)
}

func TestQuestRefreshDaily(t *testing.T) {
	yesterday := sampleQuest(quest.CategoryLifestyle, quest.DifficultyEasy)
	today := sampleQuest(quest.CategoryProductivity, quest.DifficultyEasy)
	s := newCatalog(t, yesterday, today)

	require.NoError(t, s.Start(yesterday.ID, day.AddDate(0, 0, -1)))
	_, err := s.Complete(yesterday.ID, day.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.NoError(t, s.Start(today.ID, day))
	_, err = s.Complete(today.ID, day)
	require.NoError(t, err)

	moved := s.RefreshDaily(day.Add(2 * time.Hour))
	assert.Equal(t, 1, moved)

	got, part, err := s.Find(yesterday.ID)
	require.NoError(t, err)
	assert.Equal(t, PartitionAvailable, part)
	assert.Equal(t, quest.StatusAvailable, got.Status)
	assert.Zero(t, got.Progress)
	assert.Nil(t, got.StartDate)
	assert.Nil(t, got.CompletedDate)

	_, part, _ = s.Find(today.ID)
	assert.Equal(t, PartitionCompleted, part)
}

func TestQuestRestorePartitionsByStatus(t *testing.T) {
	a := sampleQuest(quest.CategoryLifestyle, quest.DifficultyEasy)
	b := sampleQuest(quest.CategoryFitness, quest.DifficultyEasy)
	b.Status = quest.StatusInProgress
	c := sampleQuest(quest.CategorySocial, quest.DifficultyEasy)
	c.Complete(day)
	d := sampleQuest(quest.CategoryLearning, quest.DifficultyEasy)
	d.Status = quest.StatusSkipped

	s := newCatalog(t, a, b, c, d)
	assert.Equal(t, map[Partition]int{PartitionAvailable: 2, PartitionActive: 1, PartitionCompleted: 1}, s.Counts())

	got, _, err := s.Find(d.ID)
	require.NoError(t, err)
	assert.Equal(t, quest.StatusAvailable, got.Status)
	assert.Len(t, s.All(), 4)
}

func TestParsePartition(t *testing.T) {
	p, err := ParsePartition("active")
	require.NoError(t, err)
	assert.Equal(t, PartitionActive, p)

	_, err = ParsePartition("archived")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
