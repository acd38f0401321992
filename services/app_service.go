package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"questlog/internal/notification"
	"questlog/internal/seed"
	"questlog/internal/store"
	"questlog/internal/types/calendar"
	"questlog/internal/types/challenge"
	"questlog/internal/types/progress"
	"questlog/internal/types/quest"
	"questlog/internal/types/user"
)

// EventPublisher receives engine events after they are persisted.
type EventPublisher interface {
	Publish(ctx context.Context, ev notification.Event)
}

type AppOptions struct {
	Location  *time.Location
	WeekStart time.Weekday
	Now       func() time.Time
}

type entity int

const (
	entityUser entity = 1 << iota
	entityQuests
	entityChallenges
	entityProgress

	entityAll = entityUser | entityQuests | entityChallenges | entityProgress
)

// endingWindow is how close to its end a challenge gets a deadline reminder.
const endingWindow = 24 * time.Hour

// AppService owns the engine state. Every action holds the lock for its whole
// sequence: catalog, aggregator, tracker, user sync, then persistence. Events
// are published after the lock is released.
type AppService struct {
	mu      sync.Mutex
	now     func() time.Time
	loc     *time.Location
	gateway *store.Gateway
	catalog *seed.Catalog
	logger  *zap.Logger

	quests     *QuestService
	challenges *ChallengeService
	progress   *ProgressService
	user       *user.User

	// dirty holds entities whose last save failed; they ride along with the
	// next persist.
	dirty     entity
	publisher EventPublisher
}

func NewAppService(gateway *store.Gateway, catalog *seed.Catalog, opts AppOptions, logger *zap.Logger) *AppService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AppService{
		now:        opts.Now,
		loc:        opts.Location,
		gateway:    gateway,
		catalog:    catalog,
		logger:     logger,
		quests:     NewQuestService(opts.Location),
		challenges: NewChallengeService(),
		progress:   NewProgressService(opts.Location, opts.WeekStart),
	}
}

// SetPublisher injects the event subscriber, usually the notification
// dispatcher.
func (a *AppService) SetPublisher(p EventPublisher) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.publisher = p
}

// Load restores persisted state, seeds the built-in catalog when the quest or
// challenge list is empty, and returns the per-key load report.
func (a *AppService) Load(ctx context.Context) store.LoadReport {
	a.mu.Lock()
	now := a.now()
	snap, report := a.gateway.Load(ctx)
	a.user = snap.User
	a.quests.Restore(snap.Quests)
	a.challenges.Restore(snap.Challenges)
	a.progress.Restore(snap.Stats, snap.History)
	if report[store.KeyProgress] != store.StatusLoaded && len(snap.History) > 0 {
		a.progress.RebuildTotals()
		a.dirty |= entityProgress
	}

	var seeded entity
	if a.quests.Len() == 0 {
		a.quests.Restore(a.catalog.NewQuests(now))
		seeded |= entityQuests
	}
	if a.challenges.Len() == 0 {
		a.challenges.Restore(a.catalog.NewChallenges(now))
		seeded |= entityChallenges
	}
	a.progress.Refresh(now)
	a.syncUser(now)
	if seeded != 0 || a.dirty != 0 {
		a.persist(ctx, seeded)
	}
	events := a.stateEvents(now)
	a.mu.Unlock()

	for key, st := range report {
		if st != store.StatusLoaded {
			a.logger.Info("state key not loaded", zap.String("key", key), zap.String("status", string(st)))
		}
	}
	a.publish(ctx, events)
	return report
}

// StartQuest moves an available quest to active.
func (a *AppService) StartQuest(ctx context.Context, id uuid.UUID) (quest.Quest, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.quests.Start(id, a.now()); err != nil {
		return quest.Quest{}, err
	}
	a.progress.RecordStart()
	a.persist(ctx, entityQuests|entityProgress)

	q, _, err := a.quests.Find(id)
	return q, err
}

// UpdateQuestProgress sets progress on an active quest; reaching 1.0 runs the
// full completion pipeline.
func (a *AppService) UpdateQuestProgress(ctx context.Context, id uuid.UUID, fraction float64) (quest.Quest, error) {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return quest.Quest{}, fmt.Errorf("%w: progress must be a number", ErrInvalidInput)
	}

	a.mu.Lock()
	now := a.now()
	completed, err := a.quests.UpdateProgress(id, fraction, now)
	if err != nil {
		a.mu.Unlock()
		return quest.Quest{}, err
	}
	q, _, _ := a.quests.Find(id)
	if !completed {
		a.persist(ctx, entityQuests)
		a.mu.Unlock()
		return q, nil
	}
	events := a.afterCompletion(ctx, q, now)
	a.mu.Unlock()

	a.publish(ctx, events)
	return q, nil
}

// CompleteQuest completes an active quest and drives the aggregator, the
// challenge tracker and persistence.
func (a *AppService) CompleteQuest(ctx context.Context, id uuid.UUID) (quest.Quest, error) {
	a.mu.Lock()
	now := a.now()
	q, err := a.quests.Complete(id, now)
	if err != nil {
		a.mu.Unlock()
		return quest.Quest{}, err
	}
	events := a.afterCompletion(ctx, q, now)
	a.mu.Unlock()

	a.publish(ctx, events)
	return q, nil
}

// afterCompletion runs with the lock held.
func (a *AppService) afterCompletion(ctx context.Context, q quest.Quest, now time.Time) []notification.Event {
	prevStreak := a.progress.Stats().CurrentStreak
	a.progress.RecordCompletion(q, now)
	changed := a.challenges.OnQuestCompleted(q, now)
	a.syncUser(now)
	a.persist(ctx, entityAll)

	questsCompletedTotal.WithLabelValues(string(q.Category)).Inc()
	stats := a.progress.Stats()
	currentStreakGauge.Set(float64(stats.CurrentStreak))

	events := []notification.Event{{
		Type:       notification.EventQuestCompleted,
		OccurredAt: now,
		Data: map[string]any{
			"quest_id": q.ID.String(),
			"title":    q.Title,
			"points":   q.Points(),
			"level":    stats.Level,
		},
	}}
	if stats.CurrentStreak != prevStreak {
		events = append(events, a.streakEvent(now))
	}
	return append(events, challengeEvents(changed, now)...)
}

// SkipQuest returns an active quest to available.
func (a *AppService) SkipQuest(ctx context.Context, id uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.quests.Skip(id); err != nil {
		return err
	}
	a.persist(ctx, entityQuests)
	return nil
}

type RefreshResult struct {
	Recycled   int                   `json:"recycled"`
	Challenges []challenge.Challenge `json:"challenges_changed"`
}

// RefreshDaily recycles quests completed on earlier days and sweeps the
// challenge windows.
func (a *AppService) RefreshDaily(ctx context.Context) RefreshResult {
	a.mu.Lock()
	now := a.now()
	res := RefreshResult{
		Recycled:   a.quests.RefreshDaily(now),
		Challenges: a.challenges.Sweep(now),
	}
	prevStreak := a.progress.Stats().CurrentStreak
	a.progress.Refresh(now)
	a.syncUser(now)
	a.persist(ctx, entityAll)

	events := challengeEvents(res.Challenges, now)
	if a.progress.Stats().CurrentStreak != prevStreak {
		events = append(events, a.streakEvent(now))
	}
	events = append(events, endingEvents(a.challenges.Ending(now, endingWindow), now)...)
	a.mu.Unlock()

	a.logger.Info("daily refresh", zap.Int("recycled", res.Recycled), zap.Int("challenges_changed", len(res.Challenges)))
	a.publish(ctx, events)
	return res
}

func (a *AppService) JoinChallenge(ctx context.Context, id uuid.UUID) (challenge.Challenge, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	c, err := a.challenges.Join(id)
	if err != nil {
		return challenge.Challenge{}, err
	}
	a.persist(ctx, entityChallenges)
	return c, nil
}

func (a *AppService) CreateUser(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return user.User{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	email := strings.TrimSpace(req.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return user.User{}, fmt.Errorf("%w: invalid email", ErrInvalidInput)
		}
	}

	a.mu.Lock()
	if a.user != nil {
		a.mu.Unlock()
		return user.User{}, fmt.Errorf("%w: user already exists", ErrInvalidInput)
	}
	now := a.now()
	u := user.New(name, email, now)
	a.user = &u
	a.syncUser(now)
	a.persist(ctx, entityUser)
	created := *a.user
	events := a.stateEvents(now)
	a.mu.Unlock()

	a.publish(ctx, events)
	return created, nil
}

func (a *AppService) UpdatePreferences(ctx context.Context, req user.UpdatePreferencesRequest) (user.User, error) {
	if req.BreakIntervalSeconds != nil && *req.BreakIntervalSeconds <= 0 {
		return user.User{}, fmt.Errorf("%w: break interval must be positive", ErrInvalidInput)
	}
	for _, c := range req.PreferredQuestCategories {
		if !c.Valid() {
			return user.User{}, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, c)
		}
	}

	a.mu.Lock()
	if a.user == nil {
		a.mu.Unlock()
		return user.User{}, ErrUserNotFound
	}
	req.Apply(&a.user.Preferences)
	a.persist(ctx, entityUser)
	updated := *a.user
	events := []notification.Event{preferencesEvent(updated.Preferences, a.now())}
	a.mu.Unlock()

	a.publish(ctx, events)
	return updated, nil
}

// Reset deletes all persisted data and starts over from the built-in catalog.
func (a *AppService) Reset(ctx context.Context) error {
	a.mu.Lock()
	now := a.now()
	if err := a.gateway.ResetAll(ctx); err != nil {
		a.mu.Unlock()
		return fmt.Errorf("failed to reset data: %w", err)
	}
	a.user = nil
	a.quests.Restore(a.catalog.NewQuests(now))
	a.challenges.Restore(a.catalog.NewChallenges(now))
	a.progress.Restore(progress.NewStats(), nil)
	a.dirty = 0
	a.persist(ctx, entityQuests|entityChallenges)
	a.mu.Unlock()

	currentStreakGauge.Set(0)
	a.publish(ctx, []notification.Event{{Type: notification.EventDataReset, OccurredAt: now}})
	return nil
}

func (a *AppService) Quests(p Partition) []quest.Quest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quests.List(p)
}

func (a *AppService) Quest(id uuid.UUID) (quest.Quest, Partition, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quests.Find(id)
}

func (a *AppService) QuestCounts() map[Partition]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quests.Counts()
}

func (a *AppService) Challenges() []challenge.Challenge {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.challenges.List()
}

func (a *AppService) Stats() progress.Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.progress.Stats()
}

type StreakSummary struct {
	CurrentStreak     int `json:"current_streak"`
	LongestStreak     int `json:"longest_streak"`
	CompletedToday    int `json:"completed_today"`
	CompletedThisWeek int `json:"completed_this_week"`
}

func (a *AppService) Streak() StreakSummary {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	current := a.progress.CurrentStreak(now)
	return StreakSummary{
		CurrentStreak:     current,
		LongestStreak:     max(a.progress.Stats().LongestStreak, current),
		CompletedToday:    a.progress.CompletedToday(now),
		CompletedThisWeek: a.progress.CompletedThisWeek(now),
	}
}

// Weekly returns the rollup for the week containing day, aligned to the
// configured week start. A zero day means the current week.
func (a *AppService) Weekly(day time.Time) progress.Weekly {
	a.mu.Lock()
	defer a.mu.Unlock()
	if day.IsZero() {
		day = a.now()
	}
	return a.progress.WeeklyRollup(calendar.StartOfWeek(day, a.progress.weekStart, a.loc))
}

// Calendar marks every day of the month that has at least one completion.
func (a *AppService) Calendar(year int, month time.Month) (calendar.CalendarResponse, error) {
	if month < time.January || month > time.December || year < 1 {
		return calendar.CalendarResponse{}, fmt.Errorf("%w: invalid month %d-%d", ErrInvalidInput, year, month)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.progress.Calendar(year, month, a.now()), nil
}

func (a *AppService) Monthly(year int, month time.Month) (progress.Monthly, error) {
	if month < time.January || month > time.December || year < 1 {
		return progress.Monthly{}, fmt.Errorf("%w: invalid month %d-%d", ErrInvalidInput, year, month)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.progress.MonthlyRollup(year, month), nil
}

func (a *AppService) History() []progress.Completion {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.progress.History()
}

func (a *AppService) User() (user.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return user.User{}, ErrUserNotFound
	}
	return *a.user, nil
}

func (a *AppService) Now() time.Time {
	return a.now()
}

func (a *AppService) Location() *time.Location {
	return a.loc
}

// syncUser copies the derived fields from stats and grants a badge for every
// completed challenge the user does not hold yet.
func (a *AppService) syncUser(now time.Time) {
	if a.user == nil {
		return
	}
	a.user.SyncFrom(a.progress.Stats())
	for _, c := range a.challenges.List() {
		if c.Status != challenge.StatusCompleted || a.user.HasAchievementFor(c.ID) {
			continue
		}
		id := c.ID
		unlocked := now
		a.user.Achievements = append(a.user.Achievements, user.Achievement{
			ID:           uuid.New(),
			ChallengeID:  &id,
			Title:        c.Reward.BadgeTitle,
			Description:  c.Title,
			IconName:     c.Reward.BadgeIconName,
			UnlockedDate: &unlocked,
			PointsReward: c.Reward.Points,
		})
	}
}

// persist saves the given entities plus any left dirty by an earlier failure.
// Failures are logged; in-memory state stays authoritative.
func (a *AppService) persist(ctx context.Context, which entity) {
	which |= a.dirty
	a.dirty = 0

	save := func(e entity, fn func() error) {
		if which&e == 0 {
			return
		}
		if err := fn(); err != nil {
			a.dirty |= e
			a.logger.Error("failed to persist state", zap.Error(err))
		}
	}

	save(entityUser, func() error {
		if a.user == nil {
			return nil
		}
		return a.gateway.SaveUser(ctx, *a.user)
	})
	save(entityQuests, func() error { return a.gateway.SaveQuests(ctx, a.quests.All()) })
	save(entityChallenges, func() error { return a.gateway.SaveChallenges(ctx, a.challenges.List()) })
	save(entityProgress, func() error { return a.gateway.SaveProgress(ctx, a.progress.Stats(), a.progress.History()) })
}

// PersistErr reports whether any entity is waiting for a successful save.
func (a *AppService) PersistErr() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dirty != 0 {
		return errors.New("unsaved changes pending")
	}
	return nil
}

func (a *AppService) publish(ctx context.Context, events []notification.Event) {
	a.mu.Lock()
	p := a.publisher
	a.mu.Unlock()
	if p == nil {
		return
	}
	for _, ev := range events {
		p.Publish(ctx, ev)
	}
}

func (a *AppService) streakEvent(now time.Time) notification.Event {
	stats := a.progress.Stats()
	return notification.Event{
		Type:       notification.EventStreakUpdated,
		OccurredAt: now,
		Data: map[string]any{
			"current_streak": stats.CurrentStreak,
			"longest_streak": stats.LongestStreak,
		},
	}
}

// stateEvents describes the current preferences and streak so a fresh
// subscriber can plan its reminders.
func (a *AppService) stateEvents(now time.Time) []notification.Event {
	if a.user == nil {
		return nil
	}
	return []notification.Event{preferencesEvent(a.user.Preferences, now), a.streakEvent(now)}
}

func preferencesEvent(p user.Preferences, now time.Time) notification.Event {
	return notification.Event{
		Type:       notification.EventPreferencesChanged,
		OccurredAt: now,
		Data: map[string]any{
			"notifications_enabled":  p.NotificationsEnabled,
			"mindful_breaks_enabled": p.MindfulBreaksEnabled,
			"break_interval_seconds": p.BreakIntervalSeconds,
		},
	}
}

func challengeEvents(changed []challenge.Challenge, now time.Time) []notification.Event {
	events := make([]notification.Event, 0, len(changed))
	for _, c := range changed {
		typ := notification.EventChallengeProgress
		switch c.Status {
		case challenge.StatusCompleted:
			typ = notification.EventChallengeCompleted
		case challenge.StatusFailed:
			typ = notification.EventChallengeFailed
		}
		events = append(events, notification.Event{
			Type:       typ,
			OccurredAt: now,
			Data: map[string]any{
				"challenge_id":     c.ID.String(),
				"title":            c.Title,
				"status":           string(c.Status),
				"current_progress": c.CurrentProgress,
				"target_value":     c.TargetValue,
				"days_remaining":   c.DaysRemaining(now),
				"badge_title":      c.Reward.BadgeTitle,
			},
		})
	}
	return events
}

// endingEvents announces active challenges that are about to close.
func endingEvents(ending []challenge.Challenge, now time.Time) []notification.Event {
	events := make([]notification.Event, 0, len(ending))
	for _, c := range ending {
		events = append(events, notification.Event{
			Type:       notification.EventChallengeEnding,
			OccurredAt: now,
			Data: map[string]any{
				"challenge_id":     c.ID.String(),
				"title":            c.Title,
				"current_progress": c.CurrentProgress,
				"target_value":     c.TargetValue,
				"end_date":         c.EndDate,
			},
		})
	}
	return events
}
