package session

import (
	"log"
	"sync"
	"time"

	"github.com/example/studybot/internal/clock"
	"github.com/example/studybot/pkg/models"
)

// DefaultRefreshInterval is how often watchers see the elapsed time while running
const DefaultRefreshInterval = time.Second

// State is the stopwatch state of the controller
type State int

const (
	Idle State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

// Transition describes what a Start call did
type Transition struct {
	// Toggled is true when Start hit the lesson already being timed and
	// was turned into a pause/resume.
	Toggled bool
	// Discarded holds the session of another lesson that was dropped
	// without saving, with the time it had accumulated.
	Discarded        *models.ActiveSession
	DiscardedElapsed time.Duration
	State            State
}

// Result is the outcome of stopping a session
type Result struct {
	SubjectID string
	LessonID  string
	Title     string
	Elapsed   time.Duration
	Minutes   float64
}

// Controller owns the single active study session.
type Controller struct {
	mu      sync.Mutex
	clock   clock.Clock
	refresh time.Duration
	active  *models.ActiveSession

	watchers []func(models.ActiveSession, State, time.Duration)
	stopTick chan struct{}
}

// NewController creates an idle controller.
// A zero refresh interval falls back to DefaultRefreshInterval.
func NewController(c clock.Clock, refresh time.Duration) *Controller {
	if c == nil {
		c = clock.Real{}
	}
	if refresh <= 0 {
		refresh = DefaultRefreshInterval
	}
	return &Controller{clock: c, refresh: refresh}
}

// Start begins timing a lesson. Starting the lesson that is already being
// timed toggles pause/resume instead. A session on any other lesson is
// dropped without saving its time.
func (c *Controller) Start(subjectID, lessonID, title string) (Transition, error) {
	if subjectID == "" || lessonID == "" {
		return Transition{}, ErrInvalidTarget
	}

	c.mu.Lock()
	if c.active != nil && c.active.SubjectID == subjectID && c.active.LessonID == lessonID {
		state := c.toggleLocked()
		c.mu.Unlock()
		c.notify()
		return Transition{Toggled: true, State: state}, nil
	}

	now := c.clock.Now()
	var tr Transition
	if c.active != nil {
		dropped := *c.active
		tr.Discarded = &dropped
		tr.DiscardedElapsed = elapsedAt(dropped, now)
		log.Printf("Discarding unsaved session on lesson %s (%s elapsed)", dropped.LessonID, tr.DiscardedElapsed)
	}

	c.active = &models.ActiveSession{
		SubjectID: subjectID,
		LessonID:  lessonID,
		Title:     title,
		StartTime: now.UnixMilli(),
	}
	c.restartTickerLocked()
	tr.State = Running
	c.mu.Unlock()

	c.notify()
	return tr, nil
}

// Toggle pauses a running session or resumes a paused one
func (c *Controller) Toggle() (State, error) {
	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return Idle, ErrNoActiveSession
	}
	state := c.toggleLocked()
	c.mu.Unlock()

	c.notify()
	return state, nil
}

func (c *Controller) toggleLocked() State {
	now := c.clock.Now().UnixMilli()
	if c.active.IsPaused {
		c.active.IsPaused = false
		c.active.StartTime = now
		c.restartTickerLocked()
		return Running
	}

	segment := now - c.active.StartTime
	if segment < 0 {
		segment = 0
	}
	c.active.AccumulatedTime += segment
	c.active.StartTime = 0
	c.active.IsPaused = true
	c.stopTickerLocked()
	return Paused
}

// Stop ends the session and returns the total time spent unpaused
func (c *Controller) Stop() (Result, error) {
	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return Result{}, ErrNoActiveSession
	}

	s := *c.active
	elapsed := elapsedAt(s, c.clock.Now())
	c.active = nil
	c.stopTickerLocked()
	c.mu.Unlock()

	c.notify()
	return Result{
		SubjectID: s.SubjectID,
		LessonID:  s.LessonID,
		Title:     s.Title,
		Elapsed:   elapsed,
		Minutes:   Minutes(elapsed),
	}, nil
}

// Active returns a copy of the current session
func (c *Controller) Active() (models.ActiveSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return models.ActiveSession{}, false
	}
	return *c.active, true
}

// State returns the current stopwatch state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	switch {
	case c.active == nil:
		return Idle
	case c.active.IsPaused:
		return Paused
	default:
		return Running
	}
}

// IsTarget reports whether lessonID is the lesson being timed
func (c *Controller) IsTarget(lessonID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil && c.active.LessonID == lessonID
}

// Elapsed is the displayed duration of the session at this instant
func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return 0
	}
	return elapsedAt(*c.active, c.clock.Now())
}

// Watch registers fn to receive the displayed elapsed time. fn is called
// right away, after every transition, and on each refresh tick while the
// session runs. After Stop it receives an Idle state with zero elapsed.
func (c *Controller) Watch(fn func(s models.ActiveSession, state State, elapsed time.Duration)) {
	c.mu.Lock()
	c.watchers = append(c.watchers, fn)
	c.mu.Unlock()
	c.notify()
}

// Close stops the refresh ticker. The session itself is left untouched.
func (c *Controller) Close() {
	c.mu.Lock()
	c.stopTickerLocked()
	c.watchers = nil
	c.mu.Unlock()
}

func (c *Controller) notify() {
	c.mu.Lock()
	var s models.ActiveSession
	var elapsed time.Duration
	if c.active != nil {
		s = *c.active
		elapsed = elapsedAt(s, c.clock.Now())
	}
	state := c.stateLocked()
	watchers := append([]func(models.ActiveSession, State, time.Duration){}, c.watchers...)
	c.mu.Unlock()

	for _, fn := range watchers {
		fn(s, state, elapsed)
	}
}

func (c *Controller) restartTickerLocked() {
	c.stopTickerLocked()
	stop := make(chan struct{})
	c.stopTick = stop

	go func() {
		ticker := time.NewTicker(c.refresh)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.notify()
			case <-stop:
				return
			}
		}
	}()
}

func (c *Controller) stopTickerLocked() {
	if c.stopTick != nil {
		close(c.stopTick)
		c.stopTick = nil
	}
}

// Minutes converts a duration to fractional minutes
func Minutes(d time.Duration) float64 {
	return float64(d.Milliseconds()) / 1000 / 60
}

func elapsedAt(s models.ActiveSession, now time.Time) time.Duration {
	total := s.AccumulatedTime
	if !s.IsPaused {
		if seg := now.UnixMilli() - s.StartTime; seg > 0 {
			total += seg
		}
	}
	if total < 0 {
		total = 0
	}
	return time.Duration(total) * time.Millisecond
}

// ApplyToMetrics adds minutes of study to m, creating it when absent.
// Non-positive minutes leave m as it was.
func ApplyToMetrics(m *models.LessonMetrics, minutes float64) *models.LessonMetrics {
	if !(minutes > 0) {
		return m
	}
	out := models.LessonMetrics{}
	if m != nil {
		out = *m
	}
	out.StudyTime += minutes
	return &out
}
