package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/studybot/internal/clock"
	"github.com/example/studybot/internal/planner"
	"github.com/example/studybot/internal/revision"
	"github.com/example/studybot/internal/streak"
	"github.com/example/studybot/pkg/models"
)

// Default notification window, inclusive
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Notifier sends revision reminders to a profile
type Notifier interface {
	SendRevisionReminder(userID string, r Reminder) error
}

// Reminder is what a profile is told: the due revisions plus the state of
// the current plan's streak
type Reminder struct {
	Due    []revision.DueItem
	Streak int
	Status streak.Status
}

func reminderFor(p *planner.Planner) Reminder {
	days, status := p.StreakStatus()
	return Reminder{Due: p.AllDueRevisions(), Streak: days, Status: status}
}

// ProfileSource lists every known profile
type ProfileSource interface {
	GetAll(ctx context.Context) ([]models.UserProfile, error)
}

// PlannerSource returns the loaded planner of a profile
type PlannerSource interface {
	Get(ctx context.Context, profile models.UserProfile) *planner.Planner
}

// Config tunes the reminder job
type Config struct {
	StartHour int
	EndHour   int
	Interval  time.Duration
	Clock     clock.Clock
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	profiles  ProfileSource
	planners  PlannerSource
	cfg       Config

	mu       sync.Mutex
	reminded map[string]reminder
}

// reminder remembers the last reminder of a profile so the same due list
// is sent at most once a day
type reminder struct {
	day   string
	count int
}

// New creates a new scheduler instance
func New(notifier Notifier, profiles ProfileSource, planners PlannerSource, cfg Config) *Scheduler {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.StartHour < 0 || cfg.StartHour > 23 {
		cfg.StartHour = DefaultNotificationStartHour
	}
	if cfg.EndHour < 0 || cfg.EndHour > 23 {
		cfg.EndHour = DefaultNotificationEndHour
	}

	return &Scheduler{
		scheduler: gocron.NewScheduler(time.Local),
		notifier:  notifier,
		profiles:  profiles,
		planners:  planners,
		cfg:       cfg,
		reminded:  make(map[string]reminder),
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(s.cfg.Interval).Do(func() {
		s.checkAndSendReminders(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminders: %v", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// InWindow reports whether reminders may be sent at t
func (s *Scheduler) InWindow(t time.Time) bool {
	h := t.Hour()
	return h >= s.cfg.StartHour && h <= s.cfg.EndHour
}

// checkAndSendReminders notifies every profile with due revisions
func (s *Scheduler) checkAndSendReminders(ctx context.Context) {
	now := s.cfg.Clock.Now()
	if !s.InWindow(now) {
		log.Printf("Current hour %d is outside notification hours (%d-%d), skipping reminders",
			now.Hour(), s.cfg.StartHour, s.cfg.EndHour)
		return
	}

	users, err := s.profiles.GetAll(ctx)
	if err != nil {
		log.Printf("Error getting users for notification: %v", err)
		return
	}

	sent := 0
	for _, user := range users {
		if ctx.Err() != nil {
			return
		}
		r := reminderFor(s.planners.Get(ctx, user))
		if len(r.Due) == 0 || !s.shouldRemind(user.ID, now, len(r.Due)) {
			continue
		}
		if err := s.notifier.SendRevisionReminder(user.ID, r); err != nil {
			log.Printf("Error sending reminder to user %s: %v", user.ID, err)
			continue
		}
		s.markReminded(user.ID, now, len(r.Due))
		sent++
	}
	log.Printf("Revision check done: %d reminders sent to %d users", sent, len(users))
}

// RunManualCheck forces a check for a specific user, ignoring the hour
// window. It returns the number of due revisions found.
func (s *Scheduler) RunManualCheck(ctx context.Context, profile models.UserProfile) (int, error) {
	r := reminderFor(s.planners.Get(ctx, profile))
	if len(r.Due) == 0 {
		return 0, nil
	}
	if err := s.notifier.SendRevisionReminder(profile.ID, r); err != nil {
		return len(r.Due), err
	}
	s.markReminded(profile.ID, s.cfg.Clock.Now(), len(r.Due))
	return len(r.Due), nil
}

func (s *Scheduler) shouldRemind(userID string, now time.Time, count int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.reminded[userID]
	return !ok || last.day != now.Format("2006-01-02") || count > last.count
}

func (s *Scheduler) markReminded(userID string, now time.Time, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminded[userID] = reminder{day: now.Format("2006-01-02"), count: count}
}
