package services

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"questlog/internal/types/calendar"
	"questlog/internal/types/quest"
)

type Partition string

const (
	PartitionAvailable Partition = "available"
	PartitionActive    Partition = "active"
	PartitionCompleted Partition = "completed"
)

func ParsePartition(s string) (Partition, error) {
	switch p := Partition(s); p {
	case PartitionAvailable, PartitionActive, PartitionCompleted:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown partition %q", ErrInvalidInput, s)
	}
}

// QuestService is the quest catalog. A quest lives in exactly one partition at
// a time. It is not safe for concurrent use; AppService serializes access.
type QuestService struct {
	loc       *time.Location
	available []quest.Quest
	active    []quest.Quest
	completed []quest.Quest
}

func NewQuestService(loc *time.Location) *QuestService {
	return &QuestService{loc: loc}
}

func (s *QuestService) partition(p Partition) *[]quest.Quest {
	switch p {
	case PartitionActive:
		return &s.active
	case PartitionCompleted:
		return &s.completed
	default:
		return &s.available
	}
}

func indexOf(qs []quest.Quest, id uuid.UUID) int {
	return slices.IndexFunc(qs, func(q quest.Quest) bool { return q.ID == id })
}

// take removes the quest from the partition and returns it.
func (s *QuestService) take(p Partition, id uuid.UUID) (quest.Quest, bool) {
	part := s.partition(p)
	i := indexOf(*part, id)
	if i < 0 {
		return quest.Quest{}, false
	}
	q := (*part)[i]
	*part = slices.Delete(*part, i, i+1)
	return q, true
}

// Start moves an available quest to the active partition.
func (s *QuestService) Start(id uuid.UUID, now time.Time) error {
	q, ok := s.take(PartitionAvailable, id)
	if !ok {
		return ErrQuestNotFound
	}
	q.Start(now)
	s.active = append(s.active, q)
	return nil
}

// UpdateProgress sets the progress of an active quest. Reaching 1.0 moves it
// to completed, in which case completed is true.
func (s *QuestService) UpdateProgress(id uuid.UUID, fraction float64, now time.Time) (bool, error) {
	i := indexOf(s.active, id)
	if i < 0 {
		return false, ErrQuestNotFound
	}
	if fraction >= 1.0 {
		if _, err := s.Complete(id, now); err != nil {
			return false, err
		}
		return true, nil
	}
	s.active[i].UpdateProgress(fraction, now)
	return false, nil
}

func (s *QuestService) Complete(id uuid.UUID, now time.Time) (quest.Quest, error) {
	q, ok := s.take(PartitionActive, id)
	if !ok {
		return quest.Quest{}, ErrQuestNotFound
	}
	q.Complete(now)
	s.completed = append(s.completed, q)
	return q, nil
}

// Skip returns an active quest to the available partition. Progress and start
// date are left stale.
func (s *QuestService) Skip(id uuid.UUID) error {
	q, ok := s.take(PartitionActive, id)
	if !ok {
		return ErrQuestNotFound
	}
	q.Skip()
	s.available = append(s.available, q)
	return nil
}

// RefreshDaily recycles every quest completed before today back into the
// available partition and returns how many moved.
func (s *QuestService) RefreshDaily(now time.Time) int {
	kept := s.completed[:0]
	moved := 0
	for _, q := range s.completed {
		if q.CompletedDate != nil && !calendar.SameDay(*q.CompletedDate, now, s.loc) {
			q.Reset()
			s.available = append(s.available, q)
			moved++
			continue
		}
		kept = append(kept, q)
	}
	s.completed = kept
	return moved
}

func (s *QuestService) List(p Partition) []quest.Quest {
	return append([]quest.Quest{}, *s.partition(p)...)
}

func (s *QuestService) Find(id uuid.UUID) (quest.Quest, Partition, error) {
	for _, p := range []Partition{PartitionAvailable, PartitionActive, PartitionCompleted} {
		part := *s.partition(p)
		if i := indexOf(part, id); i >= 0 {
			return part[i], p, nil
		}
	}
	return quest.Quest{}, "", ErrQuestNotFound
}

func (s *QuestService) Counts() map[Partition]int {
	return map[Partition]int{
		PartitionAvailable: len(s.available),
		PartitionActive:    len(s.active),
		PartitionCompleted: len(s.completed),
	}
}

// All flattens the partitions for persistence.
func (s *QuestService) All() []quest.Quest {
	all := make([]quest.Quest, 0, len(s.available)+len(s.active)+len(s.completed))
	all = append(all, s.available...)
	all = append(all, s.active...)
	return append(all, s.completed...)
}

func (s *QuestService) Len() int {
	return len(s.available) + len(s.active) + len(s.completed)
}

// Restore re-partitions quests by their stored status. Anything that is not
// in progress or completed lands in available with status available.
func (s *QuestService) Restore(quests []quest.Quest) {
	s.available, s.active, s.completed = nil, nil, nil
	for _, q := range quests {
		switch q.Status {
		case quest.StatusInProgress:
			s.active = append(s.active, q)
		case quest.StatusCompleted:
			s.completed = append(s.completed, q)
		default:
			q.Status = quest.StatusAvailable
			s.available = append(s.available, q)
		}
	}
}
