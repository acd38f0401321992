package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"questlog/internal/notification"
)

// PushProvider delivers a reminder to the user's devices.
type PushProvider interface {
	Deliver(ctx context.Context, r notification.Reminder) error
}

const (
	identDailyQuest   = "daily_quest_reminder"
	identStreak       = "streak_reminder"
	identMindfulBreak = "mindful_break"
	identBreathing    = "breathing_exercise"

	// per challenge id
	identChallengeEnding = "challenge_ending_"

	dailyQuestHour      = 9
	challengeEndingHour = 12
	streakHour          = 20

	breathingInterval = 2 * time.Hour
)

// NotificationDispatcher turns engine events into local reminders. Immediate
// reminders go straight to the worker pool; calendar reminders wait in the
// schedule until the ticker finds them due. It never writes engine state.
type NotificationDispatcher struct {
	provider PushProvider
	workers  int
	jobQueue chan *DispatchJob
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	tick     time.Duration
	now      func() time.Time
	loc      *time.Location
	logger   *zap.Logger

	mu        sync.Mutex
	enabled   bool
	scheduled map[string]notification.Reminder
}

type DispatchJob struct {
	Reminder notification.Reminder
}

type DispatcherOptions struct {
	Workers  int
	Tick     time.Duration
	Location *time.Location
	Now      func() time.Time
}

func NewNotificationDispatcher(provider PushProvider, opts DispatcherOptions, logger *zap.Logger) *NotificationDispatcher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	d := &NotificationDispatcher{
		provider:  provider,
		workers:   opts.Workers,
		jobQueue:  make(chan *DispatchJob, 100),
		stopChan:  make(chan struct{}),
		tick:      opts.Tick,
		now:       opts.Now,
		loc:       opts.Location,
		logger:    logger,
		scheduled: make(map[string]notification.Reminder),
	}

	d.startWorkers()

	d.wg.Add(1)
	go d.processScheduledReminders()

	return d
}

// SetPushProvider swaps the delivery backend.
func (d *NotificationDispatcher) SetPushProvider(provider PushProvider) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.provider = provider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

func (d *NotificationDispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			d.processJob(job)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(job *DispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	d.mu.Lock()
	provider := d.provider
	d.mu.Unlock()

	r := job.Reminder
	if provider == nil {
		d.logger.Debug("no push provider, dropping reminder", zap.String("identifier", r.Identifier))
		return
	}
	if err := provider.Deliver(ctx, r); err != nil {
		remindersTotal.WithLabelValues(string(r.Kind), "failed").Inc()
		d.logger.Warn("reminder delivery failed", zap.String("identifier", r.Identifier), zap.Error(err))
		return
	}
	remindersTotal.WithLabelValues(string(r.Kind), "sent").Inc()
}

// Publish plans the reminders an event calls for.
func (d *NotificationDispatcher) Publish(ctx context.Context, ev notification.Event) {
	now := d.now()

	d.mu.Lock()
	var immediate []notification.Reminder
	switch ev.Type {
	case notification.EventPreferencesChanged:
		d.applyPreferences(ev, now)
	case notification.EventStreakUpdated:
		if streak := intField(ev.Data, "current_streak"); streak > 0 && d.enabled {
			d.schedule(notification.Reminder{
				Identifier: identStreak,
				Kind:       notification.ReminderStreak,
				Title:      "Don't Break Your Streak!",
				Body:       fmt.Sprintf("You're on a %d-day streak! Complete a quest to keep it going", streak),
				FireAt:     d.nextAt(now, streakHour),
			})
		} else {
			delete(d.scheduled, identStreak)
		}
	case notification.EventQuestCompleted:
		immediate = append(immediate, notification.Reminder{
			Identifier: "quest_completed_" + uuid.NewString(),
			Kind:       notification.ReminderQuestDone,
			Title:      "Quest Completed! 🎉",
			Body:       fmt.Sprintf("Great job completing '%s'! Keep up the momentum!", stringField(ev.Data, "title")),
			FireAt:     now,
			Data:       ev.Data,
		})
	case notification.EventChallengeProgress:
		immediate = append(immediate, notification.Reminder{
			Identifier: "challenge_reminder_" + uuid.NewString(),
			Kind:       notification.ReminderChallenge,
			Title:      "Challenge Update",
			Body: fmt.Sprintf("%s ends in %d days! Keep pushing forward!",
				stringField(ev.Data, "title"), intField(ev.Data, "days_remaining")),
			FireAt: now,
			Data:   ev.Data,
		})
	case notification.EventChallengeEnding:
		if d.enabled {
			d.schedule(d.endingReminder(ev, now))
		}
	case notification.EventChallengeCompleted:
		delete(d.scheduled, identChallengeEnding+stringField(ev.Data, "challenge_id"))
		immediate = append(immediate, notification.Reminder{
			Identifier: "challenge_reminder_" + uuid.NewString(),
			Kind:       notification.ReminderChallenge,
			Title:      "Challenge Complete!",
			Body: fmt.Sprintf("You finished %s and earned the %s badge",
				stringField(ev.Data, "title"), stringField(ev.Data, "badge_title")),
			FireAt: now,
			Data:   ev.Data,
		})
	case notification.EventChallengeFailed:
		delete(d.scheduled, identChallengeEnding+stringField(ev.Data, "challenge_id"))
		d.logger.Info("challenge expired", zap.String("title", stringField(ev.Data, "title")))
	case notification.EventDataReset:
		d.enabled = false
		clear(d.scheduled)
	}
	enabled := d.enabled
	d.mu.Unlock()

	if !enabled {
		return
	}
	for _, r := range immediate {
		d.dispatch(ctx, r)
	}
}

// applyPreferences runs with d.mu held.
func (d *NotificationDispatcher) applyPreferences(ev notification.Event, now time.Time) {
	d.enabled = boolField(ev.Data, "notifications_enabled")
	if !d.enabled {
		clear(d.scheduled)
		return
	}

	d.schedule(notification.Reminder{
		Identifier: identDailyQuest,
		Kind:       notification.ReminderDailyQuest,
		Title:      "Your Daily Quest Awaits!",
		Body:       "Start your day with purpose - check out today's quests",
		FireAt:     d.nextAt(now, dailyQuestHour),
		Repeat:     24 * time.Hour,
	})

	interval := time.Duration(intField(ev.Data, "break_interval_seconds")) * time.Second
	if boolField(ev.Data, "mindful_breaks_enabled") && interval > 0 {
		d.schedule(notification.Reminder{
			Identifier: identMindfulBreak,
			Kind:       notification.ReminderMindfulBreak,
			Title:      "Time for a Mindful Break",
			Body:       "Take a moment to breathe and reset your mind",
			FireAt:     now.Add(interval),
			Repeat:     interval,
		})
		d.schedule(notification.Reminder{
			Identifier: identBreathing,
			Kind:       notification.ReminderBreathing,
			Title:      "Breathe & Reset",
			Body:       "Take 2 minutes for a breathing exercise to center yourself",
			FireAt:     now.Add(breathingInterval),
			Repeat:     breathingInterval,
		})
	} else {
		delete(d.scheduled, identMindfulBreak)
		delete(d.scheduled, identBreathing)
	}
}

// endingReminder fires at the next local noon, or right away when the
// challenge closes before then.
func (d *NotificationDispatcher) endingReminder(ev notification.Event, now time.Time) notification.Reminder {
	fireAt := d.nextAt(now, challengeEndingHour)
	if end := timeField(ev.Data, "end_date"); !end.IsZero() && !fireAt.Before(end) {
		fireAt = now
	}
	return notification.Reminder{
		Identifier: identChallengeEnding + stringField(ev.Data, "challenge_id"),
		Kind:       notification.ReminderChallenge,
		Title:      "Challenge Ending Soon",
		Body: fmt.Sprintf("%s ends soon! %d of %d done, keep pushing forward!",
			stringField(ev.Data, "title"), intField(ev.Data, "current_progress"), intField(ev.Data, "target_value")),
		FireAt: fireAt,
		Data:   ev.Data,
	}
}

// schedule replaces any pending reminder with the same identifier.
func (d *NotificationDispatcher) schedule(r notification.Reminder) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	d.scheduled[r.Identifier] = r
}

// nextAt returns the next local wall clock time at hour:00 after now.
func (d *NotificationDispatcher) nextAt(now time.Time, hour int) time.Time {
	local := now.In(d.loc)
	at := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, d.loc)
	if !at.After(local) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

func (d *NotificationDispatcher) dispatch(ctx context.Context, r notification.Reminder) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	job := &DispatchJob{Reminder: r}

	select {
	case d.jobQueue <- job:
		d.logger.Debug("reminder queued", zap.String("identifier", r.Identifier))
	case <-d.stopChan:
	case <-ctx.Done():
		d.logger.Warn("reminder dropped", zap.String("identifier", r.Identifier), zap.Error(ctx.Err()))
	case <-time.After(5 * time.Second):
		d.logger.Warn("failed to queue reminder: queue full", zap.String("identifier", r.Identifier))
	}
}

func (d *NotificationDispatcher) processScheduledReminders() {
	defer d.wg.Done()
	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.processDue(d.now())
		case <-d.stopChan:
			return
		}
	}
}

// processDue queues every reminder whose time has come. Repeating reminders
// move forward by their interval; the rest are dropped.
func (d *NotificationDispatcher) processDue(now time.Time) int {
	d.mu.Lock()
	var due []notification.Reminder
	for ident, r := range d.scheduled {
		if r.FireAt.After(now) {
			continue
		}
		due = append(due, r)
		if r.Repeat <= 0 {
			delete(d.scheduled, ident)
			continue
		}
		for !r.FireAt.After(now) {
			r.FireAt = r.FireAt.Add(r.Repeat)
		}
		d.scheduled[ident] = r
	}
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range due {
		d.dispatch(ctx, r)
	}
	if len(due) > 0 {
		d.logger.Debug("processed scheduled reminders", zap.Int("count", len(due)))
	}
	return len(due)
}

// Pending lists the scheduled reminders ordered by fire time.
func (d *NotificationDispatcher) Pending() []notification.Reminder {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]notification.Reminder, 0, len(d.scheduled))
	for _, r := range d.scheduled {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b notification.Reminder) int { return a.FireAt.Compare(b.FireAt) })
	return out
}

// Stop the dispatcher gracefully. Queued jobs that no worker picked up are
// dropped.
func (d *NotificationDispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.logger.Info("Stopping notification dispatcher...")
		close(d.stopChan)
		d.wg.Wait()
		d.logger.Info("Notification dispatcher stopped")
	})
}

func intField(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func boolField(data map[string]any, key string) bool {
	v, _ := data[key].(bool)
	return v
}

func stringField(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return v
}

func timeField(data map[string]any, key string) time.Time {
	v, _ := data[key].(time.Time)
	return v
}
