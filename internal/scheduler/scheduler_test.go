package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studybot/internal/clock"
	"github.com/example/studybot/internal/planner"
	"github.com/example/studybot/internal/revision"
	"github.com/example/studybot/internal/streak"
	"github.com/example/studybot/pkg/models"
)

type fakeNotifier struct {
	mu        sync.Mutex
	calls     map[string][]revision.DueItem
	reminders map[string]Reminder
}

func (f *fakeNotifier) SendRevisionReminder(userID string, r Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string][]revision.DueItem)
		f.reminders = make(map[string]Reminder)
	}
	f.calls[userID] = r.Due
	f.reminders[userID] = r
	return nil
}

type fakeProfiles []models.UserProfile

func (f fakeProfiles) GetAll(context.Context) ([]models.UserProfile, error) {
	return f, nil
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memStore) LoadPlanState(_ context.Context, userID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[userID], nil
}

func (m *memStore) SavePlanState(_ context.Context, userID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[userID] = data
	return nil
}

func setup(t *testing.T, start time.Time) (*Scheduler, *fakeNotifier, *planner.Registry, *clock.Manual) {
	t.Helper()
	c := clock.NewManual(start)
	registry := planner.NewRegistry(&memStore{data: map[string][]byte{}}, planner.Options{Clock: c, RefreshInterval: time.Hour})
	t.Cleanup(registry.Close)

	notifier := &fakeNotifier{}
	profiles := fakeProfiles{{ID: "busy"}, {ID: "idle"}}
	s := New(notifier, profiles, registry, Config{StartHour: 8, EndHour: 22, Clock: c})
	return s, notifier, registry, c
}

func completeLesson(t *testing.T, p *planner.Planner, offsets ...int) {
	t.Helper()
	ctx := context.Background()
	subject, err := p.AddSubject(ctx, "História")
	require.NoError(t, err)
	lesson, err := p.AddLesson(ctx, subject.ID, "Brasil Colônia", "")
	require.NoError(t, err)
	require.NoError(t, p.CompleteLesson(ctx, subject.ID, lesson.ID, revision.Request{Offsets: offsets}))
}

func TestCheckAndSendReminders(t *testing.T) {
	s, notifier, registry, c := setup(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local))
	ctx := context.Background()
	completeLesson(t, registry.Get(ctx, models.UserProfile{ID: "busy"}), 1)

	s.checkAndSendReminders(ctx)
	assert.Empty(t, notifier.calls, "nothing is due yet")

	c.Advance(24 * time.Hour)
	s.checkAndSendReminders(ctx)
	require.Len(t, notifier.calls, 1)
	assert.Len(t, notifier.calls["busy"], 1)
	assert.Equal(t, "Brasil Colônia", notifier.calls["busy"][0].Title)
	assert.Equal(t, 1, notifier.reminders["busy"].Streak)
	assert.Equal(t, streak.AtRisk, notifier.reminders["busy"].Status)

	delete(notifier.calls, "busy")
	c.Advance(time.Hour)
	s.checkAndSendReminders(ctx)
	assert.Empty(t, notifier.calls, "same due list is sent once a day")
}

func TestCheckAndSendReminders_OutsideWindow(t *testing.T) {
	s, notifier, registry, c := setup(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local))
	ctx := context.Background()
	completeLesson(t, registry.Get(ctx, models.UserProfile{ID: "busy"}), 1)

	c.Set(time.Date(2024, 5, 2, 23, 30, 0, 0, time.Local))
	s.checkAndSendReminders(ctx)
	assert.Empty(t, notifier.calls)
}

func TestRunManualCheck(t *testing.T) {
	s, notifier, registry, c := setup(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local))
	ctx := context.Background()
	busy := models.UserProfile{ID: "busy"}
	completeLesson(t, registry.Get(ctx, busy), 1)

	n, err := s.RunManualCheck(ctx, busy)
	require.NoError(t, err)
	assert.Zero(t, n)

	c.Set(time.Date(2024, 5, 2, 23, 30, 0, 0, time.Local))
	n, err = s.RunManualCheck(ctx, busy)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, notifier.calls["busy"], 1)
}

func TestInWindow(t *testing.T) {
	s := New(&fakeNotifier{}, fakeProfiles{}, nil, Config{StartHour: 8, EndHour: 22})
	assert.True(t, s.InWindow(time.Date(2024, 1, 1, 8, 0, 0, 0, time.Local)))
	assert.True(t, s.InWindow(time.Date(2024, 1, 1, 22, 59, 0, 0, time.Local)))
	assert.False(t, s.InWindow(time.Date(2024, 1, 1, 7, 59, 0, 0, time.Local)))
	assert.False(t, s.InWindow(time.Date(2024, 1, 1, 23, 0, 0, 0, time.Local)))
}

func TestRunManualCheck_ReportsLostStreak(t *testing.T) {
	s, notifier, registry, c := setup(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local))
	ctx := context.Background()
	busy := models.UserProfile{ID: "busy"}
	completeLesson(t, registry.Get(ctx, busy), 3)

	c.Advance(3 * 24 * time.Hour)
	n, err := s.RunManualCheck(ctx, busy)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, notifier.reminders["busy"].Streak)
	assert.Equal(t, streak.Lost, notifier.reminders["busy"].Status)
}
