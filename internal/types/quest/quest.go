package quest

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryLifestyle    Category = "lifestyle"
	CategoryProductivity Category = "productivity"
	CategoryMindfulness  Category = "mindfulness"
	CategoryFitness      Category = "fitness"
	CategoryLearning     Category = "learning"
	CategoryCreativity   Category = "creativity"
	CategorySocial       Category = "social"
)

// Categories lists every category in its fixed enumeration order. Ties
// between categories are always broken by position in this slice.
var Categories = []Category{
	CategoryLifestyle,
	CategoryProductivity,
	CategoryMindfulness,
	CategoryFitness,
	CategoryLearning,
	CategoryCreativity,
	CategorySocial,
}

func (c Category) Valid() bool {
	return c.Rank() >= 0
}

// Rank returns the position of c in Categories, or -1.
func (c Category) Rank() int {
	for i, known := range Categories {
		if known == c {
			return i
		}
	}
	return -1
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Points is the fixed reward for completing a quest of this difficulty.
func (d Difficulty) Points() int {
	switch d {
	case DifficultyEasy:
		return 10
	case DifficultyMedium:
		return 25
	case DifficultyHard:
		return 50
	default:
		return 0
	}
}

type Status string

const (
	StatusAvailable  Status = "available"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusSkipped    Status = "skipped"
)

type Quest struct {
	ID                uuid.UUID  `json:"id" yaml:"-"`
	Title             string     `json:"title" yaml:"title"`
	Description       string     `json:"description" yaml:"description"`
	Category          Category   `json:"category" yaml:"category"`
	Difficulty        Difficulty `json:"difficulty" yaml:"difficulty"`
	EstimatedDuration int        `json:"estimated_duration_seconds" yaml:"estimated_duration_seconds"`
	IconName          string     `json:"icon_name" yaml:"icon_name"`
	Status            Status     `json:"status" yaml:"-"`
	StartDate         *time.Time `json:"start_date,omitempty" yaml:"-"`
	CompletedDate     *time.Time `json:"completed_date,omitempty" yaml:"-"`
	CreatedDate       time.Time  `json:"created_date" yaml:"-"`
	Progress          float64    `json:"progress" yaml:"-"`
}

func New(title, description string, category Category, difficulty Difficulty, estimatedSeconds int, iconName string, now time.Time) Quest {
	return Quest{
		ID:                uuid.New(),
		Title:             title,
		Description:       description,
		Category:          category,
		Difficulty:        difficulty,
		EstimatedDuration: estimatedSeconds,
		IconName:          iconName,
		Status:            StatusAvailable,
		CreatedDate:       now,
	}
}

func (q Quest) Points() int {
	return q.Difficulty.Points()
}

// DurationMinutes is the estimated duration in whole minutes.
func (q Quest) DurationMinutes() int {
	return q.EstimatedDuration / 60
}

func (q *Quest) Start(now time.Time) {
	q.Status = StatusInProgress
	q.StartDate = &now
}

func (q *Quest) Complete(now time.Time) {
	q.Status = StatusCompleted
	q.CompletedDate = &now
	q.Progress = 1.0
}

// Skip puts the quest back in the queue. Progress and StartDate are left as
// they were.
func (q *Quest) Skip() {
	q.Status = StatusAvailable
}

// UpdateProgress clamps p to [0,1]; reaching 1 completes the quest.
func (q *Quest) UpdateProgress(p float64, now time.Time) {
	q.Progress = min(max(p, 0.0), 1.0)
	if q.Progress >= 1.0 {
		q.Complete(now)
	}
}

// Reset returns the quest to a fresh available instance.
func (q *Quest) Reset() {
	q.Status = StatusAvailable
	q.StartDate = nil
	q.CompletedDate = nil
	q.Progress = 0
}
