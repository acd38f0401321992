// Package seed holds the built-in quest and challenge catalog.
package seed

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"questlog/internal/types/challenge"
	"questlog/internal/types/quest"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

type Catalog struct {
	Quests     []quest.Quest   `yaml:"quests"`
	Challenges []ChallengeSpec `yaml:"challenges"`
}

// ChallengeSpec describes a challenge whose window is relative to the moment
// the catalog is seeded.
type ChallengeSpec struct {
	Title           string           `yaml:"title"`
	Description     string           `yaml:"description"`
	Type            challenge.Type   `yaml:"type"`
	Category        quest.Category   `yaml:"category"`
	StartOffsetDays int              `yaml:"start_offset_days"`
	EndOffsetDays   int              `yaml:"end_offset_days"`
	TargetValue     int              `yaml:"target_value"`
	IconName        string           `yaml:"icon_name"`
	Reward          challenge.Reward `yaml:"reward"`
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	for i, q := range c.Quests {
		if q.Title == "" {
			return nil, fmt.Errorf("quest %d: missing title", i)
		}
		if !q.Category.Valid() {
			return nil, fmt.Errorf("quest %q: unknown category %q", q.Title, q.Category)
		}
		if q.Difficulty.Points() == 0 {
			return nil, fmt.Errorf("quest %q: unknown difficulty %q", q.Title, q.Difficulty)
		}
	}
	for _, ch := range c.Challenges {
		if !ch.Category.Valid() {
			return nil, fmt.Errorf("challenge %q: unknown category %q", ch.Title, ch.Category)
		}
		if ch.EndOffsetDays < ch.StartOffsetDays {
			return nil, fmt.Errorf("challenge %q: ends before it starts", ch.Title)
		}
		if ch.TargetValue <= 0 {
			return nil, fmt.Errorf("challenge %q: target must be positive", ch.Title)
		}
	}

	return &c, nil
}

// Default returns the embedded catalog. The document is compiled in, so a
// parse failure is a programming error.
func Default() *Catalog {
	c, err := Parse(embeddedCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// NewQuests returns fresh available instances with new ids.
func (c *Catalog) NewQuests(now time.Time) []quest.Quest {
	out := make([]quest.Quest, 0, len(c.Quests))
	for _, q := range c.Quests {
		out = append(out, quest.New(q.Title, q.Description, q.Category, q.Difficulty, q.EstimatedDuration, q.IconName, now))
	}
	return out
}

// NewChallenges resolves the day offsets against now.
func (c *Catalog) NewChallenges(now time.Time) []challenge.Challenge {
	out := make([]challenge.Challenge, 0, len(c.Challenges))
	for _, ch := range c.Challenges {
		start := now.AddDate(0, 0, ch.StartOffsetDays)
		end := now.AddDate(0, 0, ch.EndOffsetDays)
		out = append(out, challenge.New(ch.Title, ch.Description, ch.Type, ch.Category, start, end, ch.TargetValue, ch.IconName, ch.Reward, now))
	}
	return out
}
