package services

import (
	"slices"
	"time"

	"questlog/internal/types/calendar"
	"questlog/internal/types/progress"
	"questlog/internal/types/quest"
)

// ProgressService owns the lifetime stats and the completion history. Every
// streak and rollup is computed from the history.
type ProgressService struct {
	loc       *time.Location
	weekStart time.Weekday
	stats     progress.Stats
	history   []progress.Completion
}

func NewProgressService(loc *time.Location, weekStart time.Weekday) *ProgressService {
	return &ProgressService{
		loc:       loc,
		weekStart: weekStart,
		stats:     progress.NewStats(),
	}
}

func (s *ProgressService) RecordStart() {
	s.stats.TotalQuestsStarted++
	s.updateRate()
}

// RecordCompletion appends q to the history and updates counters, points,
// level and the derived stats.
func (s *ProgressService) RecordCompletion(q quest.Quest, now time.Time) {
	at := now
	if q.CompletedDate != nil {
		at = *q.CompletedDate
	}
	s.history = append(s.history, progress.CompletionOf(q, at))

	s.stats.TotalQuestsCompleted++
	s.stats.TotalPointsEarned += q.Points()
	s.stats.UpdateLevel()
	s.Refresh(now)
}

// Refresh recomputes the values that depend on the clock or the history.
func (s *ProgressService) Refresh(now time.Time) {
	s.stats.CurrentStreak = s.CurrentStreak(now)
	s.stats.LongestStreak = max(s.stats.LongestStreak, s.LongestStreak(), s.stats.CurrentStreak)

	minutes := 0
	counts := make(map[quest.Category]int)
	for _, c := range s.history {
		minutes += c.DurationMinutes
		counts[c.Category]++
	}
	s.stats.TotalTimeSpentHours = float64(minutes) / 60.0
	s.stats.FavoriteCategory = progress.MostFrequent(counts)
	s.stats.AverageQuestsPerWeek = s.averagePerWeek(now)
	s.updateRate()
}

func (s *ProgressService) updateRate() {
	if s.stats.TotalQuestsStarted == 0 {
		s.stats.CompletionRate = 0
		return
	}
	s.stats.CompletionRate = min(float64(s.stats.TotalQuestsCompleted)/float64(s.stats.TotalQuestsStarted), 1.0)
}

// averagePerWeek spreads the history over the weeks since the first
// completion, counting at least one week.
func (s *ProgressService) averagePerWeek(now time.Time) float64 {
	if len(s.history) == 0 {
		return 0
	}
	first := s.history[0].CompletedAt
	for _, c := range s.history[1:] {
		if c.CompletedAt.Before(first) {
			first = c.CompletedAt
		}
	}
	days := now.Sub(calendar.StartOfDay(first, s.loc)).Hours() / 24
	weeks := max(days/7, 1)
	return float64(len(s.history)) / weeks
}

// byDay buckets the history per local calendar day.
func (s *ProgressService) byDay() map[calendar.DayKey][]progress.Completion {
	days := make(map[calendar.DayKey][]progress.Completion)
	for _, c := range s.history {
		k := calendar.KeyOf(c.CompletedAt, s.loc)
		days[k] = append(days[k], c)
	}
	return days
}

func (s *ProgressService) hasCompletion(days map[calendar.DayKey][]progress.Completion, t time.Time) bool {
	return len(days[calendar.KeyOf(t, s.loc)]) > 0
}

// CurrentStreak is zero unless today has a completion; otherwise it counts
// today plus every directly preceding day with one.
func (s *ProgressService) CurrentStreak(now time.Time) int {
	days := s.byDay()
	cursor := calendar.StartOfDay(now, s.loc)
	if !s.hasCompletion(days, cursor) {
		return 0
	}
	streak := 1
	cursor = cursor.AddDate(0, 0, -1)
	for s.hasCompletion(days, cursor) {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

// LongestStreak scans the full history for the longest run of consecutive
// days with at least one completion.
func (s *ProgressService) LongestStreak() int {
	days := s.byDay()
	keys := make([]time.Time, 0, len(days))
	for k := range days {
		keys = append(keys, time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, s.loc))
	}
	slices.SortFunc(keys, func(a, b time.Time) int { return a.Compare(b) })

	longest, run := 0, 0
	var prev time.Time
	for i, day := range keys {
		if i > 0 && calendar.SameDay(prev.AddDate(0, 0, 1), day, s.loc) {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
		prev = day
	}
	return longest
}

func (s *ProgressService) CompletedToday(now time.Time) int {
	return len(s.byDay()[calendar.KeyOf(now, s.loc)])
}

// CompletedThisWeek counts completions since the start of the current week.
func (s *ProgressService) CompletedThisWeek(now time.Time) int {
	start := calendar.StartOfWeek(now, s.weekStart, s.loc)
	n := 0
	for _, c := range s.history {
		if !c.CompletedAt.Before(start) && !c.CompletedAt.After(now) {
			n++
		}
	}
	return n
}

func (s *ProgressService) daily(day time.Time, days map[calendar.DayKey][]progress.Completion) progress.Daily {
	d := progress.Daily{Date: day, CategoriesEngaged: []quest.Category{}}
	for _, c := range days[calendar.KeyOf(day, s.loc)] {
		d.QuestsCompleted++
		d.PointsEarned += c.Points
		d.TimeSpentMinutes += c.DurationMinutes
		d.Engage(c.Category)
	}
	return d
}

// WeeklyRollup aggregates the seven days starting on the local day of
// weekStart.
func (s *ProgressService) WeeklyRollup(weekStart time.Time) progress.Weekly {
	return s.weekly(calendar.StartOfDay(weekStart, s.loc), s.byDay(), nil)
}

// weekly builds seven daily aggregates from start. When keep is set, days it
// rejects are left empty.
func (s *ProgressService) weekly(start time.Time, days map[calendar.DayKey][]progress.Completion, keep func(time.Time) bool) progress.Weekly {
	w := progress.Weekly{WeekStartDate: start, DailyProgress: make([]progress.Daily, 0, 7)}
	streak := 0
	for i := range 7 {
		day := start.AddDate(0, 0, i)
		var d progress.Daily
		if keep == nil || keep(day) {
			d = s.daily(day, days)
		} else {
			d = progress.Daily{Date: day, CategoriesEngaged: []quest.Category{}}
		}
		if d.QuestsCompleted > 0 {
			streak++
		} else {
			streak = 0
		}
		d.Streak = streak
		w.DailyProgress = append(w.DailyProgress, d)
	}
	w.Update()
	return w
}

// MonthlyRollup covers the month with week-aligned rollups. Days outside the
// month are present but empty.
func (s *ProgressService) MonthlyRollup(year int, month time.Month) progress.Monthly {
	first := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
	last := time.Date(year, month, calendar.DaysIn(year, month, s.loc), 0, 0, 0, 0, s.loc)
	inMonth := func(t time.Time) bool {
		return t.Year() == year && t.Month() == month
	}

	days := s.byDay()
	m := progress.Monthly{Month: int(month), Year: year}
	for start := calendar.StartOfWeek(first, s.weekStart, s.loc); !start.After(last); start = start.AddDate(0, 0, 7) {
		m.WeeklyProgress = append(m.WeeklyProgress, s.weekly(start, days, inMonth))
	}
	m.Update()
	return m
}

// Calendar lists the days of the month, flagging those with a completion.
func (s *ProgressService) Calendar(year int, month time.Month, now time.Time) calendar.CalendarResponse {
	days := s.byDay()
	resp := calendar.CalendarResponse{Year: year, Month: int(month)}
	for d := 1; d <= calendar.DaysIn(year, month, s.loc); d++ {
		day := time.Date(year, month, d, 0, 0, 0, 0, s.loc)
		resp.Days = append(resp.Days, &calendar.CalendarDay{
			Date:      day,
			Completed: s.hasCompletion(days, day),
			IsToday:   calendar.SameDay(day, now, s.loc),
		})
	}
	return resp
}

func (s *ProgressService) Stats() progress.Stats {
	return s.stats
}

func (s *ProgressService) History() []progress.Completion {
	return slices.Clone(s.history)
}

// RebuildTotals recomputes the completion counters, points and level from
// the history, for when the stored stats were lost.
func (s *ProgressService) RebuildTotals() {
	points := 0
	for _, c := range s.history {
		points += c.Points
	}
	s.stats.TotalQuestsCompleted = len(s.history)
	s.stats.TotalQuestsStarted = max(s.stats.TotalQuestsStarted, len(s.history))
	s.stats.TotalPointsEarned = points
	s.stats.UpdateLevel()
	s.updateRate()
}

func (s *ProgressService) Restore(stats progress.Stats, history []progress.Completion) {
	s.stats = stats
	s.history = slices.Clone(history)
}
