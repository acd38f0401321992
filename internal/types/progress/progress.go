package progress

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"questlog/internal/types/quest"
)

const PointsPerLevel = 100

// Completion is one entry of the completion history. Streaks and rollups are
// derived from this log only.
type Completion struct {
	QuestID         uuid.UUID        `json:"quest_id"`
	Title           string           `json:"title"`
	Category        quest.Category   `json:"category"`
	Difficulty      quest.Difficulty `json:"difficulty"`
	Points          int              `json:"points"`
	DurationMinutes int              `json:"duration_minutes"`
	CompletedAt     time.Time        `json:"completed_at"`
}

func CompletionOf(q quest.Quest, at time.Time) Completion {
	return Completion{
		QuestID:         q.ID,
		Title:           q.Title,
		Category:        q.Category,
		Difficulty:      q.Difficulty,
		Points:          q.Points(),
		DurationMinutes: q.DurationMinutes(),
		CompletedAt:     at,
	}
}

type Daily struct {
	Date              time.Time        `json:"date"`
	QuestsCompleted   int              `json:"quests_completed"`
	PointsEarned      int              `json:"points_earned"`
	TimeSpentMinutes  int              `json:"time_spent_minutes"`
	CategoriesEngaged []quest.Category `json:"categories_engaged"`
	Streak            int              `json:"streak"`
}

// Engaged reports whether c is in the day's category set.
func (d Daily) Engaged(c quest.Category) bool {
	for _, got := range d.CategoriesEngaged {
		if got == c {
			return true
		}
	}
	return false
}

// Engage adds c to the category set, keeping enumeration order.
func (d *Daily) Engage(c quest.Category) {
	if d.Engaged(c) {
		return
	}
	d.CategoriesEngaged = append(d.CategoriesEngaged, c)
	sortCategories(d.CategoriesEngaged)
}

type Weekly struct {
	WeekStartDate         time.Time       `json:"week_start_date"`
	DailyProgress         []Daily         `json:"daily_progress"`
	TotalQuestsCompleted  int             `json:"total_quests_completed"`
	TotalPointsEarned     int             `json:"total_points_earned"`
	TotalTimeSpentMinutes int             `json:"total_time_spent_minutes"`
	AverageQuestsPerDay   float64         `json:"average_quests_per_day"`
	MostActiveCategory    *quest.Category `json:"most_active_category,omitempty"`
}

// Update recomputes the weekly totals from DailyProgress.
func (w *Weekly) Update() {
	w.TotalQuestsCompleted = 0
	w.TotalPointsEarned = 0
	w.TotalTimeSpentMinutes = 0
	counts := make(map[quest.Category]int)
	for _, day := range w.DailyProgress {
		w.TotalQuestsCompleted += day.QuestsCompleted
		w.TotalPointsEarned += day.PointsEarned
		w.TotalTimeSpentMinutes += day.TimeSpentMinutes
		for _, c := range day.CategoriesEngaged {
			counts[c]++
		}
	}
	w.AverageQuestsPerDay = float64(w.TotalQuestsCompleted) / 7.0
	w.MostActiveCategory = MostFrequent(counts)
}

type Monthly struct {
	Month                int                    `json:"month"`
	Year                 int                    `json:"year"`
	WeeklyProgress       []Weekly               `json:"weekly_progress"`
	TotalQuestsCompleted int                    `json:"total_quests_completed"`
	TotalPointsEarned    int                    `json:"total_points_earned"`
	TotalTimeSpentHours  float64                `json:"total_time_spent_hours"`
	LongestStreak        int                    `json:"longest_streak"`
	CategoriesEngaged    map[quest.Category]int `json:"categories_engaged"`
}

// Update sums the weekly rollups and scans every day in order for the longest
// run of days with at least one completion.
func (m *Monthly) Update() {
	m.TotalQuestsCompleted = 0
	m.TotalPointsEarned = 0
	minutes := 0
	m.CategoriesEngaged = make(map[quest.Category]int)
	for _, week := range m.WeeklyProgress {
		m.TotalQuestsCompleted += week.TotalQuestsCompleted
		m.TotalPointsEarned += week.TotalPointsEarned
		minutes += week.TotalTimeSpentMinutes
		for _, day := range week.DailyProgress {
			for _, c := range day.CategoriesEngaged {
				m.CategoriesEngaged[c]++
			}
		}
	}
	m.TotalTimeSpentHours = float64(minutes) / 60.0

	current, longest := 0, 0
	for _, week := range m.WeeklyProgress {
		for _, day := range week.DailyProgress {
			if day.QuestsCompleted > 0 {
				current++
				longest = max(longest, current)
			} else {
				current = 0
			}
		}
	}
	m.LongestStreak = longest
}

// Stats is the lifetime aggregate. Level only ever grows.
type Stats struct {
	TotalQuestsCompleted  int             `json:"total_quests_completed"`
	TotalQuestsStarted    int             `json:"total_quests_started"`
	TotalPointsEarned     int             `json:"total_points_earned"`
	CurrentStreak         int             `json:"current_streak"`
	LongestStreak         int             `json:"longest_streak"`
	TotalTimeSpentHours   float64         `json:"total_time_spent_hours"`
	Level                 int             `json:"level"`
	ExperiencePoints      int             `json:"experience_points"`
	ExperienceToNextLevel int             `json:"experience_to_next_level"`
	FavoriteCategory      *quest.Category `json:"favorite_category,omitempty"`
	AverageQuestsPerWeek  float64         `json:"average_quests_per_week"`
	CompletionRate        float64         `json:"completion_rate"`
}

func NewStats() Stats {
	return Stats{
		Level:                 1,
		ExperienceToNextLevel: PointsPerLevel,
	}
}

// LevelFor is floor(points/100)+1.
func LevelFor(points int) int {
	return points/PointsPerLevel + 1
}

func (s *Stats) UpdateLevel() {
	if level := LevelFor(s.TotalPointsEarned); level > s.Level {
		s.Level = level
	}
	s.ExperiencePoints = s.TotalPointsEarned % PointsPerLevel
	s.ExperienceToNextLevel = PointsPerLevel - s.ExperiencePoints
}

// MostFrequent returns the category with the highest count, breaking ties by
// enumeration order. It returns nil when counts has no positive entry.
func MostFrequent(counts map[quest.Category]int) *quest.Category {
	var best *quest.Category
	bestCount := 0
	for _, c := range quest.Categories {
		if n := counts[c]; n > bestCount {
			picked := c
			best = &picked
			bestCount = n
		}
	}
	return best
}

func sortCategories(cs []quest.Category) {
	slices.SortFunc(cs, func(a, b quest.Category) int {
		return a.Rank() - b.Rank()
	})
}
