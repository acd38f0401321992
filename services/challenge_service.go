package services

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"questlog/internal/types/challenge"
	"questlog/internal/types/quest"
)

// ChallengeService tracks time-boxed, category-scoped challenges.
type ChallengeService struct {
	challenges []challenge.Challenge
}

func NewChallengeService() *ChallengeService {
	return &ChallengeService{}
}

func (s *ChallengeService) index(id uuid.UUID) int {
	return slices.IndexFunc(s.challenges, func(c challenge.Challenge) bool { return c.ID == id })
}

// Join bumps the participant count. It has no other effect.
func (s *ChallengeService) Join(id uuid.UUID) (challenge.Challenge, error) {
	i := s.index(id)
	if i < 0 {
		return challenge.Challenge{}, ErrChallengeNotFound
	}
	s.challenges[i].ParticipantCount++
	return s.challenges[i], nil
}

// OnQuestCompleted advances every active challenge of the quest's category by
// one and returns the challenges that changed.
func (s *ChallengeService) OnQuestCompleted(q quest.Quest, now time.Time) []challenge.Challenge {
	var changed []challenge.Challenge
	for i := range s.challenges {
		c := &s.challenges[i]
		if c.Category != q.Category || !c.IsActive(now) {
			continue
		}
		c.UpdateProgress(c.CurrentProgress + 1)
		if c.Status == challenge.StatusCompleted {
			challengeOutcomesTotal.WithLabelValues(string(challenge.StatusCompleted)).Inc()
		}
		changed = append(changed, *c)
	}
	return changed
}

// Sweep applies the time-driven transitions and returns what changed.
func (s *ChallengeService) Sweep(now time.Time) []challenge.Challenge {
	var changed []challenge.Challenge
	for i := range s.challenges {
		c := &s.challenges[i]
		if !c.Advance(now) {
			continue
		}
		if c.Status == challenge.StatusFailed {
			challengeOutcomesTotal.WithLabelValues(string(challenge.StatusFailed)).Inc()
		}
		changed = append(changed, *c)
	}
	return changed
}

// Ending returns active challenges whose window closes within the given
// duration from now.
func (s *ChallengeService) Ending(now time.Time, within time.Duration) []challenge.Challenge {
	var out []challenge.Challenge
	for _, c := range s.challenges {
		if c.IsActive(now) && c.EndDate.Sub(now) <= within {
			out = append(out, c)
		}
	}
	return out
}

func (s *ChallengeService) List() []challenge.Challenge {
	return append([]challenge.Challenge{}, s.challenges...)
}

func (s *ChallengeService) Find(id uuid.UUID) (challenge.Challenge, error) {
	i := s.index(id)
	if i < 0 {
		return challenge.Challenge{}, ErrChallengeNotFound
	}
	return s.challenges[i], nil
}

func (s *ChallengeService) Len() int {
	return len(s.challenges)
}

func (s *ChallengeService) Restore(list []challenge.Challenge) {
	s.challenges = slices.Clone(list)
}
