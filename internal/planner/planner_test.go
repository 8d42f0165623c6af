package planner

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studybot/internal/clock"
	"github.com/example/studybot/internal/revision"
	"github.com/example/studybot/internal/session"
	"github.com/example/studybot/pkg/models"
)

type memStore struct {
	mu    sync.Mutex
	data  map[string][]byte
	saves int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) LoadPlanState(_ context.Context, userID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[userID], nil
}

func (m *memStore) SavePlanState(_ context.Context, userID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[userID] = append([]byte{}, data...)
	m.saves++
	return nil
}

func (m *memStore) saved(t *testing.T, userID string) models.PlanState {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	var st models.PlanState
	require.NoError(t, json.Unmarshal(m.data[userID], &st))
	return st
}

var testStart = time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local)

func newTestPlanner(t *testing.T) (*Planner, *memStore, *clock.Manual) {
	t.Helper()
	store := newMemStore()
	c := clock.NewManual(testStart)
	p := New("u1", store, Options{Clock: c, RefreshInterval: time.Hour})
	t.Cleanup(p.Close)
	assert.False(t, p.Load(context.Background(), ""))
	return p, store, c
}

func addLesson(t *testing.T, p *Planner, title string) (string, string) {
	t.Helper()
	ctx := context.Background()
	s, err := p.AddSubject(ctx, "Matemática")
	require.NoError(t, err)
	l, err := p.AddLesson(ctx, s.ID, title, "")
	require.NoError(t, err)
	return s.ID, l.ID
}

func currentLesson(t *testing.T, p *Planner, subjectID, lessonID string) *models.Lesson {
	t.Helper()
	plan := p.CurrentPlan()
	l, ok := plan.Lesson(subjectID, lessonID)
	require.True(t, ok)
	return l
}

func TestLoad_FreshProfileGetsDefaultPlan(t *testing.T) {
	p, store, _ := newTestPlanner(t)

	st := p.State()
	require.Len(t, st.Plans, 1)
	assert.Equal(t, models.DefaultPlanName, st.Plans[0].Name)
	assert.Equal(t, st.Plans[0].ID, st.CurrentPlanID)
	assert.Equal(t, 1, st.Plans[0].Inventory.Ice)
	assert.Equal(t, "fiscal", st.Plans[0].CareerID)
	assert.Equal(t, st, store.saved(t, "u1"))
}

func TestLoad_CorruptStateStartsOver(t *testing.T) {
	store := newMemStore()
	store.data["u1"] = []byte("{not json")
	p := New("u1", store, Options{Clock: clock.NewManual(testStart)})
	defer p.Close()

	assert.False(t, p.Load(context.Background(), "ti"))
	plan := p.CurrentPlan()
	assert.Equal(t, models.DefaultPlanName, plan.Name)
	assert.Equal(t, "ti", plan.CareerID)
}

func TestLoad_RestoresStoredState(t *testing.T) {
	first, store, _ := newTestPlanner(t)
	_, err := first.CreatePlan(context.Background(), "Concurso")
	require.NoError(t, err)

	second := New("u1", store, Options{Clock: clock.NewManual(testStart)})
	defer second.Close()
	assert.True(t, second.Load(context.Background(), ""))
	assert.Equal(t, first.State(), second.State())
}

func TestDeletePlan_LastPlanGuard(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	ctx := context.Background()
	only := p.CurrentPlan()

	err := p.DeletePlan(ctx, only.ID, AlwaysConfirm)
	assert.ErrorIs(t, err, ErrLastPlan)
	assert.Len(t, p.State().Plans, 1)
}

func TestDeletePlan_ConfirmationAndFallback(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	ctx := context.Background()
	first := p.CurrentPlan()
	second, err := p.CreatePlan(ctx, "Segundo")
	require.NoError(t, err)
	assert.Equal(t, second.ID, p.CurrentPlan().ID)

	prompt := &Prompt{}
	err = p.DeletePlan(ctx, second.ID, prompt)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Contains(t, prompt.Message, "Segundo")
	assert.Len(t, p.State().Plans, 2)

	require.NoError(t, p.DeletePlan(ctx, second.ID, AlwaysConfirm))
	st := p.State()
	require.Len(t, st.Plans, 1)
	assert.Equal(t, first.ID, st.CurrentPlanID)
}

func TestSwitchPlan_Unknown(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	assert.ErrorIs(t, p.SwitchPlan(context.Background(), "missing"), ErrPlanNotFound)
}

func TestAddSubject_PrependsOpenSubject(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	ctx := context.Background()

	_, err := p.AddSubject(ctx, "Primeira")
	require.NoError(t, err)
	_, err = p.AddSubject(ctx, "Segunda")
	require.NoError(t, err)

	subjects := p.CurrentPlan().Subjects
	require.Len(t, subjects, 2)
	assert.Equal(t, "Segunda", subjects[0].Name)
	assert.True(t, subjects[0].IsOpen)

	_, err = p.AddSubject(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestDeleteLesson_BlockedWhileTimed(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	ctx := context.Background()
	sID, lID := addLesson(t, p, "Derivadas")

	_, err := p.StartSession(sID, lID)
	require.NoError(t, err)

	err = p.DeleteLesson(ctx, sID, lID, AlwaysConfirm)
	assert.ErrorIs(t, err, ErrLessonInSession)
	err = p.DeleteSubject(ctx, sID, AlwaysConfirm)
	assert.ErrorIs(t, err, ErrLessonInSession)

	_, err = p.StopSession(ctx)
	require.NoError(t, err)
	require.NoError(t, p.DeleteLesson(ctx, sID, lID, AlwaysConfirm))
	assert.Empty(t, p.CurrentPlan().Subjects[0].Lessons)
}

func TestDeleteLesson_NotConfirmed(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	sID, lID := addLesson(t, p, "Integrais")

	err := p.DeleteLesson(context.Background(), sID, lID, NeverConfirm)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Len(t, p.CurrentPlan().Subjects[0].Lessons, 1)
}

func TestCompleteLesson_SchedulesAndCountsStreak(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	ctx := context.Background()
	sID, lID := addLesson(t, p, "Limites")

	outcome, err := p.ToggleLesson(ctx, sID, lID, AlwaysConfirm)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNeedsSchedule, outcome)

	require.NoError(t, p.CompleteLesson(ctx, sID, lID, revision.Request{Offsets: revision.Cycle}))

	plan := p.CurrentPlan()
	l, ok := plan.Lesson(sID, lID)
	require.True(t, ok)
	assert.True(t, l.Completed)
	require.NotNil(t, l.RevisionDate)
	assert.Len(t, l.RevisionQueue, 2)
	assert.Equal(t, 1, plan.Streak)
	assert.Equal(t, testStart.UnixMilli(), plan.LastStudyDate)

	err = p.CompleteLesson(ctx, sID, lID, revision.Request{})
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestToggleLesson_ConsumesDueRevision(t *testing.T) {
	p, _, c := newTestPlanner(t)
	ctx := context.Background()
	sID, lID := addLesson(t, p, "Funções")
	require.NoError(t, p.CompleteLesson(ctx, sID, lID, revision.Request{Offsets: []int{1, 7}}))

	c.Advance(24 * time.Hour)
	due := p.DueRevisions()
	require.Len(t, due, 1)
	assert.Equal(t, lID, due[0].LessonID)

	outcome, err := p.ToggleLesson(ctx, sID, lID, NeverConfirm)
	require.NoError(t, err)
	assert.Equal(t, OutcomeReviewed, outcome)

	plan := p.CurrentPlan()
	l, _ := plan.Lesson(sID, lID)
	assert.True(t, l.Completed)
	assert.Empty(t, l.RevisionQueue)
	assert.Equal(t, 2, plan.Streak)
	assert.Empty(t, p.DueRevisions())
}

func TestToggleLesson_UncompleteNeedsConfirmation(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	ctx := context.Background()
	sID, lID := addLesson(t, p, "Matrizes")
	require.NoError(t, p.CompleteLesson(ctx, sID, lID, revision.Request{Offsets: []int{5}}))

	outcome, err := p.ToggleLesson(ctx, sID, lID, NeverConfirm)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, OutcomeNone, outcome)
	l := currentLesson(t, p, sID, lID)
	assert.True(t, l.Completed)

	outcome, err = p.ToggleLesson(ctx, sID, lID, AlwaysConfirm)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUncompleted, outcome)
	l = currentLesson(t, p, sID, lID)
	assert.False(t, l.Completed)
	assert.Nil(t, l.RevisionDate)
	assert.Empty(t, l.RevisionQueue)
}

func TestStopSession_AddsMinutesToOwningPlan(t *testing.T) {
	p, _, c := newTestPlanner(t)
	ctx := context.Background()
	sID, lID := addLesson(t, p, "Probabilidade")
	owner := p.CurrentPlan().ID

	_, err := p.StartSession(sID, lID)
	require.NoError(t, err)
	c.Advance(10 * time.Minute)

	_, err = p.CreatePlan(ctx, "Outro")
	require.NoError(t, err)

	res, err := p.StopSession(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, res.Minutes, 1e-9)

	st := p.State()
	plan, ok := st.Plan(owner)
	require.True(t, ok)
	l, _ := plan.Lesson(sID, lID)
	require.NotNil(t, l.Metrics)
	assert.InDelta(t, 10.0, l.Metrics.StudyTime, 1e-9)
}

func TestStartSession_OtherLessonDiscards(t *testing.T) {
	p, _, c := newTestPlanner(t)
	ctx := context.Background()
	sID, first := addLesson(t, p, "Primeira")
	second, err := p.AddLesson(ctx, sID, "Segunda", "")
	require.NoError(t, err)

	_, err = p.StartSession(sID, first)
	require.NoError(t, err)
	c.Advance(3 * time.Minute)

	tr, err := p.StartSession(sID, second.ID)
	require.NoError(t, err)
	require.NotNil(t, tr.Discarded)
	assert.Equal(t, first, tr.Discarded.LessonID)
	assert.Equal(t, 3*time.Minute, tr.DiscardedElapsed)

	active, state, _ := p.Session()
	assert.Equal(t, second.ID, active.LessonID)
	assert.Equal(t, session.Running, state)

	l := currentLesson(t, p, sID, first)
	assert.Nil(t, l.Metrics)
}

func TestStartSession_UnknownLesson(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	sID, _ := addLesson(t, p, "Aula")
	_, err := p.StartSession(sID, "missing")
	assert.ErrorIs(t, err, ErrLessonNotFound)
}

func TestStartSession_ConcurrentDeleteNeverOrphansSession(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		p, _, _ := newTestPlanner(t)
		sID, lID := addLesson(t, p, "Corrida")

		var wg sync.WaitGroup
		var startErr, deleteErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, startErr = p.StartSession(sID, lID)
		}()
		go func() {
			defer wg.Done()
			deleteErr = p.DeleteLesson(ctx, sID, lID, AlwaysConfirm)
		}()
		wg.Wait()

		_, state, _ := p.Session()
		if deleteErr == nil {
			assert.ErrorIs(t, startErr, ErrLessonNotFound)
			assert.Equal(t, session.Idle, state)
		} else {
			assert.ErrorIs(t, deleteErr, ErrLessonInSession)
			require.NoError(t, startErr)
			assert.Equal(t, session.Running, state)
			currentLesson(t, p, sID, lID)
		}
	}
}

func TestUpdateMetrics_Validation(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	ctx := context.Background()
	sID, lID := addLesson(t, p, "Geometria")

	err := p.UpdateMetrics(ctx, sID, lID, models.LessonMetrics{QuestionsTotal: 5, QuestionsCorrect: 6})
	assert.ErrorIs(t, err, ErrInvalidMetrics)
	err = p.UpdateMetrics(ctx, sID, lID, models.LessonMetrics{StudyTime: -1})
	assert.ErrorIs(t, err, ErrInvalidMetrics)

	require.NoError(t, p.UpdateMetrics(ctx, sID, lID, models.LessonMetrics{StudyTime: 30, QuestionsTotal: 10, QuestionsCorrect: 8}))
	progress := p.Progress()
	assert.Equal(t, 30+200+240, progress.XP)
	assert.Equal(t, 5, progress.Level)
}

func TestFlashcards(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	ctx := context.Background()
	sID, lID := addLesson(t, p, "Vocabulário")

	card, err := p.AddFlashcard(ctx, sID, lID, "hello", "olá")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stats().Flashcards)

	require.NoError(t, p.DeleteFlashcard(ctx, sID, lID, card.ID))
	assert.ErrorIs(t, p.DeleteFlashcard(ctx, sID, lID, card.ID), ErrFlashcardMissing)
	assert.Equal(t, 0, p.Stats().Flashcards)
}

func TestExportImport_RoundTrip(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	ctx := context.Background()
	sID, lID := addLesson(t, p, "Logaritmos")
	require.NoError(t, p.SaveNotes(ctx, sID, lID, "log(ab) = log a + log b"))
	require.NoError(t, p.CompleteLesson(ctx, sID, lID, revision.Request{Offsets: []int{1, 7, 30}}))
	_, err := p.AddFlashcard(ctx, sID, lID, "log 1", "0")
	require.NoError(t, err)

	data, err := p.Export()
	require.NoError(t, err)

	other, _, _ := newTestPlanner(t)
	require.NoError(t, other.Import(ctx, data))
	assert.Equal(t, p.State(), other.State())
}

func TestImport_RejectsInvalidBackup(t *testing.T) {
	p, store, _ := newTestPlanner(t)
	ctx := context.Background()
	before := p.State()
	saves := store.saves

	for _, data := range []string{
		`not json`,
		`{"currentPlanId": "x"}`,
		`{"plans": []}`,
		`{"plans": "nope"}`,
	} {
		err := p.Import(ctx, []byte(data))
		assert.ErrorIs(t, err, ErrInvalidBackup, data)
	}
	assert.Equal(t, before, p.State())
	assert.Equal(t, saves, store.saves)
}

func TestImport_FixesCurrentPlanID(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	plan := models.NewStudyPlan("Importado", "fiscal", testStart)
	data, err := json.Marshal(models.PlanState{Plans: []models.StudyPlan{plan}, CurrentPlanID: "gone"})
	require.NoError(t, err)

	require.NoError(t, p.Import(context.Background(), data))
	assert.Equal(t, plan.ID, p.State().CurrentPlanID)
}

func TestApplyOverrides(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	ctx := context.Background()
	bonus, streak := 500, 100
	forced := []string{"sniper"}

	require.NoError(t, p.ApplyOverrides(ctx, Overrides{BonusXP: &bonus, Streak: &streak, ForcedMedals: &forced}))

	plan := p.CurrentPlan()
	assert.Equal(t, 500, plan.BonusXP)
	assert.Equal(t, 1, plan.Inventory.Ice)

	unlocked := map[string]bool{}
	for _, r := range p.Medals() {
		unlocked[r.Definition.ID] = r.Unlocked
	}
	assert.True(t, unlocked["sniper"])
	assert.True(t, unlocked["imortal"])
	assert.True(t, unlocked["dedica"])
	assert.False(t, unlocked["maratonista"])
}

func TestClearRevisions(t *testing.T) {
	p, _, c := newTestPlanner(t)
	ctx := context.Background()
	sID, lID := addLesson(t, p, "Trigonometria")
	require.NoError(t, p.CompleteLesson(ctx, sID, lID, revision.Request{Offsets: []int{1, 5}}))

	require.NoError(t, p.ClearRevisions(ctx))
	c.Advance(48 * time.Hour)
	assert.Empty(t, p.DueRevisions())
	l := currentLesson(t, p, sID, lID)
	assert.True(t, l.Completed)
}

func TestSetCareer(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	ctx := context.Background()
	assert.ErrorIs(t, p.SetCareer(ctx, "astronauta"), ErrUnknownCareer)
	require.NoError(t, p.SetCareer(ctx, "policial"))
	assert.Equal(t, "policial", p.Progress().Career.ID)
}

func TestRegistry_LoadsOncePerProfile(t *testing.T) {
	store := newMemStore()
	r := NewRegistry(store, Options{Clock: clock.NewManual(testStart)})
	defer r.Close()
	ctx := context.Background()

	a := r.Get(ctx, models.UserProfile{ID: "a", CareerID: "saude"})
	assert.Same(t, a, r.Get(ctx, models.UserProfile{ID: "a"}))
	assert.Equal(t, "saude", a.CurrentPlan().CareerID)

	r.Get(ctx, models.UserProfile{ID: "b"})
	var seen []string
	r.Each(func(p *Planner) { seen = append(seen, p.UserID()) })
	assert.Equal(t, []string{"a", "b"}, seen)

	r.Forget("a")
	assert.NotSame(t, a, r.Get(ctx, models.UserProfile{ID: "a"}))
}

// slowStore blocks loads of one profile until release is closed
type slowStore struct {
	*memStore
	slowID  string
	started chan struct{}
	release chan struct{}

	mu    sync.Mutex
	loads map[string]int
}

func (s *slowStore) LoadPlanState(ctx context.Context, userID string) ([]byte, error) {
	s.mu.Lock()
	s.loads[userID]++
	first := s.loads[userID] == 1
	s.mu.Unlock()

	if userID == s.slowID && first {
		close(s.started)
		<-s.release
	}
	return s.memStore.LoadPlanState(ctx, userID)
}

func TestRegistry_SlowLoadDoesNotBlockOtherProfiles(t *testing.T) {
	store := &slowStore{
		memStore: newMemStore(),
		slowID:   "slow",
		started:  make(chan struct{}),
		release:  make(chan struct{}),
		loads:    make(map[string]int),
	}
	r := NewRegistry(store, Options{Clock: clock.NewManual(testStart)})
	defer r.Close()
	ctx := context.Background()

	results := make(chan *Planner, 2)
	go func() { results <- r.Get(ctx, models.UserProfile{ID: "slow"}) }()
	<-store.started
	go func() { results <- r.Get(ctx, models.UserProfile{ID: "slow"}) }()

	fast := make(chan *Planner, 1)
	go func() { fast <- r.Get(ctx, models.UserProfile{ID: "fast"}) }()
	select {
	case p := <-fast:
		assert.Equal(t, "fast", p.UserID())
	case <-time.After(2 * time.Second):
		t.Fatal("loading one profile blocked another")
	}

	close(store.release)
	first, second := <-results, <-results
	assert.Same(t, first, second)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 1, store.loads["slow"])
}
