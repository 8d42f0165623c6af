// Package planner holds the study plans of one profile and applies every
// user action to them: plan, subject and lesson edits, completions with
// their revision schedule and streak, timed sessions and backups.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/example/studybot/internal/clock"
	"github.com/example/studybot/internal/gamification"
	"github.com/example/studybot/internal/session"
	"github.com/example/studybot/pkg/models"
)

// Store reads and writes the plan state of a profile as an opaque blob.
// LoadPlanState returns nil data and a nil error when nothing is stored.
type Store interface {
	LoadPlanState(ctx context.Context, userID string) ([]byte, error)
	SavePlanState(ctx context.Context, userID string, data []byte) error
}

// Options configure a Planner. Zero values fall back to defaults.
type Options struct {
	Clock           clock.Clock
	Careers         *gamification.Careers
	RefreshInterval time.Duration
}

// Planner is the study state of a single profile
type Planner struct {
	mu       sync.Mutex
	userID   string
	careerID string
	store    Store
	clock    clock.Clock
	careers  *gamification.Careers
	session  *session.Controller
	state    models.PlanState
}

// New creates a planner for userID. Call Load before using it.
func New(userID string, store Store, opts Options) *Planner {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Careers == nil {
		opts.Careers = gamification.DefaultCareers()
	}
	return &Planner{
		userID:  userID,
		store:   store,
		clock:   opts.Clock,
		careers: opts.Careers,
		session: session.NewController(opts.Clock, opts.RefreshInterval),
	}
}

// Load reads the stored state. Missing, unreadable or empty state is
// replaced by a single default plan on careerID; restored reports whether
// stored plans were used.
func (p *Planner) Load(ctx context.Context, careerID string) (restored bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if careerID == "" || !p.careers.Has(careerID) {
		careerID = p.careers.DefaultID()
	}
	p.careerID = careerID

	var data []byte
	var err error
	if p.store != nil {
		data, err = p.store.LoadPlanState(ctx, p.userID)
	}
	switch {
	case err != nil:
		log.Printf("Error loading plan state of user %s: %v", p.userID, err)
	case len(data) > 0:
		var st models.PlanState
		if err := json.Unmarshal(data, &st); err != nil {
			log.Printf("Plan state of user %s is corrupt, starting over: %v", p.userID, err)
			break
		}
		if len(st.Plans) == 0 {
			break
		}
		if _, ok := st.Plan(st.CurrentPlanID); !ok {
			st.CurrentPlanID = st.Plans[0].ID
		}
		p.state = st
		return true
	}

	plan := models.NewStudyPlan(models.DefaultPlanName, careerID, p.clock.Now())
	p.state = models.PlanState{Plans: []models.StudyPlan{plan}, CurrentPlanID: plan.ID}
	p.persistLocked(ctx)
	return false
}

// UserID returns the owner of the planner
func (p *Planner) UserID() string {
	return p.userID
}

// Careers returns the career table used for ranks
func (p *Planner) Careers() *gamification.Careers {
	return p.careers
}

// Now reads the planner clock
func (p *Planner) Now() time.Time {
	return p.clock.Now()
}

// State returns a deep copy of every plan
func (p *Planner) State() models.PlanState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Clone()
}

// CurrentPlan returns a deep copy of the selected plan
func (p *Planner) CurrentPlan() models.StudyPlan {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur, ok := p.state.Current()
	if !ok {
		return models.StudyPlan{}
	}
	return cur.Clone()
}

// CreatePlan adds a plan on the profile's career and selects it
func (p *Planner) CreatePlan(ctx context.Context, name string) (models.StudyPlan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.StudyPlan{}, ErrEmptyName
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	plan := models.NewStudyPlan(name, p.careerID, p.clock.Now())
	next := p.state.Clone()
	next.Plans = append(next.Plans, plan)
	next.CurrentPlanID = plan.ID
	p.commitLocked(ctx, next)
	return plan.Clone(), nil
}

// SwitchPlan selects another plan
func (p *Planner) SwitchPlan(ctx context.Context, planID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.state.Plan(planID); !ok {
		return ErrPlanNotFound
	}
	next := p.state.Clone()
	next.CurrentPlanID = planID
	p.commitLocked(ctx, next)
	return nil
}

// RenamePlan changes the name of a plan
func (p *Planner) RenamePlan(ctx context.Context, planID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	return p.mutatePlan(ctx, planID, func(plan *models.StudyPlan) error {
		plan.Name = name
		return nil
	})
}

// DeletePlan removes a plan. The last remaining plan can never be deleted.
func (p *Planner) DeletePlan(ctx context.Context, planID string, confirm Confirmer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	plan, ok := p.state.Plan(planID)
	if !ok {
		return ErrPlanNotFound
	}
	if len(p.state.Plans) <= 1 {
		return ErrLastPlan
	}
	if !confirmed(confirm, fmt.Sprintf("Delete plan %q permanently?", plan.Name)) {
		return ErrNotConfirmed
	}

	next := models.PlanState{CurrentPlanID: p.state.CurrentPlanID}
	for _, pl := range p.state.Plans {
		if pl.ID != planID {
			next.Plans = append(next.Plans, pl.Clone())
		}
	}
	if next.CurrentPlanID == planID {
		next.CurrentPlanID = next.Plans[0].ID
	}
	p.commitLocked(ctx, next)
	return nil
}

// UpdateTimerSettings stores the pomodoro lengths of the current plan
func (p *Planner) UpdateTimerSettings(ctx context.Context, ts models.TimerSettings) error {
	if ts.Focus <= 0 || ts.Short <= 0 || ts.Long <= 0 {
		return fmt.Errorf("planner: timer lengths must be positive")
	}
	return p.mutateCurrent(ctx, func(plan *models.StudyPlan) error {
		plan.TimerSettings = ts
		return nil
	})
}

// SetCareer changes the rank table of the current plan
func (p *Planner) SetCareer(ctx context.Context, careerID string) error {
	if !p.careers.Has(careerID) {
		return fmt.Errorf("%w: %s", ErrUnknownCareer, careerID)
	}
	return p.mutateCurrent(ctx, func(plan *models.StudyPlan) error {
		plan.CareerID = careerID
		return nil
	})
}

// Overrides are manual adjustments of the current plan. Nil fields are
// left unchanged.
type Overrides struct {
	BonusXP      *int
	Streak       *int
	Ice          *int
	ForcedMedals *[]string
}

// ApplyOverrides writes the given values directly, skipping every rule
func (p *Planner) ApplyOverrides(ctx context.Context, o Overrides) error {
	return p.mutateCurrent(ctx, func(plan *models.StudyPlan) error {
		if o.BonusXP != nil {
			plan.BonusXP = *o.BonusXP
		}
		if o.Streak != nil {
			plan.Streak = *o.Streak
		}
		if o.Ice != nil {
			plan.Inventory.Ice = *o.Ice
		}
		if o.ForcedMedals != nil {
			plan.ForcedMedals = append([]string{}, (*o.ForcedMedals)...)
		}
		return nil
	})
}

// ClearRevisions drops every scheduled revision of the current plan
func (p *Planner) ClearRevisions(ctx context.Context) error {
	return p.mutateCurrent(ctx, func(plan *models.StudyPlan) error {
		for i := range plan.Subjects {
			for j := range plan.Subjects[i].Lessons {
				plan.Subjects[i].Lessons[j].RevisionDate = nil
				plan.Subjects[i].Lessons[j].RevisionQueue = []int64{}
			}
		}
		return nil
	})
}

// mutateCurrent applies fn to a copy of the current plan and swaps it in
// only when fn succeeds.
func (p *Planner) mutateCurrent(ctx context.Context, fn func(plan *models.StudyPlan) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur, ok := p.state.Current()
	if !ok {
		return ErrPlanNotFound
	}
	return p.mutatePlanLocked(ctx, cur.ID, fn)
}

func (p *Planner) mutatePlan(ctx context.Context, planID string, fn func(plan *models.StudyPlan) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mutatePlanLocked(ctx, planID, fn)
}

func (p *Planner) mutatePlanLocked(ctx context.Context, planID string, fn func(plan *models.StudyPlan) error) error {
	next := p.state.Clone()
	plan, ok := next.Plan(planID)
	if !ok {
		return ErrPlanNotFound
	}
	if err := fn(plan); err != nil {
		return err
	}
	p.commitLocked(ctx, next)
	return nil
}

func (p *Planner) commitLocked(ctx context.Context, next models.PlanState) {
	p.state = next
	p.persistLocked(ctx)
}

// persistLocked saves the state without reporting failures to the caller;
// the next successful save overwrites whatever was lost.
func (p *Planner) persistLocked(ctx context.Context) {
	if p.store == nil {
		return
	}
	data, err := json.Marshal(p.state)
	if err != nil {
		log.Printf("Error encoding plan state of user %s: %v", p.userID, err)
		return
	}
	if err := p.store.SavePlanState(ctx, p.userID, data); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Error saving plan state of user %s: %v", p.userID, err)
	}
}

// Close stops the session refresher
func (p *Planner) Close() {
	p.session.Close()
}
