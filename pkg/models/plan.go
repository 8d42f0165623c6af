package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultPlanName is the name given to the plan created for a fresh profile
const DefaultPlanName = "Plano Principal"

// TimerSettings holds the pomodoro lengths of a plan, in minutes
type TimerSettings struct {
	Focus int `json:"focus"`
	Short int `json:"short"`
	Long  int `json:"long"`
}

// DefaultTimerSettings returns the 25/5/15 pomodoro configuration
func DefaultTimerSettings() TimerSettings {
	return TimerSettings{Focus: 25, Short: 5, Long: 15}
}

// Inventory holds consumable items of a plan.
// Ice is a streak-protection credit; nothing consumes it automatically.
type Inventory struct {
	Ice int `json:"ice"`
}

// StudyPlan is one study curriculum
type StudyPlan struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Subjects      []Subject     `json:"subjects"`
	TimerSettings TimerSettings `json:"timerSettings"`
	CreatedAt     int64         `json:"createdAt"` // Unix milliseconds
	Streak        int           `json:"streak"`
	LastStudyDate int64         `json:"lastStudyDate"` // Unix milliseconds, 0 if never
	Inventory     Inventory     `json:"inventory"`
	BonusXP       int           `json:"bonusXP"`
	ForcedMedals  []string      `json:"forcedMedals"`
	CareerID      string        `json:"careerId,omitempty"`
}

// NewStudyPlan creates an empty plan with the default timer and one ice credit
func NewStudyPlan(name, careerID string, now time.Time) StudyPlan {
	return StudyPlan{
		ID:            uuid.New().String(),
		Name:          name,
		Subjects:      []Subject{},
		TimerSettings: DefaultTimerSettings(),
		CreatedAt:     now.UnixMilli(),
		Inventory:     Inventory{Ice: 1},
		ForcedMedals:  []string{},
		CareerID:      careerID,
	}
}

// Subject finds a subject by id
func (p *StudyPlan) Subject(id string) (*Subject, bool) {
	for i := range p.Subjects {
		if p.Subjects[i].ID == id {
			return &p.Subjects[i], true
		}
	}
	return nil, false
}

// Lesson finds a lesson by subject and lesson id
func (p *StudyPlan) Lesson(subjectID, lessonID string) (*Lesson, bool) {
	s, ok := p.Subject(subjectID)
	if !ok {
		return nil, false
	}
	return s.Lesson(lessonID)
}

// Lessons returns every lesson of the plan in display order
func (p StudyPlan) Lessons() []Lesson {
	var lessons []Lesson
	for _, s := range p.Subjects {
		lessons = append(lessons, s.Lessons...)
	}
	return lessons
}

// HasForcedMedal reports whether id was unlocked manually
func (p StudyPlan) HasForcedMedal(id string) bool {
	for _, m := range p.ForcedMedals {
		if m == id {
			return true
		}
	}
	return false
}

// Subject is a named group of lessons inside a plan
type Subject struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Lessons []Lesson `json:"lessons"`
	IsOpen  bool     `json:"isOpen"`
}

// Lesson finds a lesson by id
func (s *Subject) Lesson(id string) (*Lesson, bool) {
	for i := range s.Lessons {
		if s.Lessons[i].ID == id {
			return &s.Lessons[i], true
		}
	}
	return nil, false
}

// PlanState is the whole persisted blob of a profile
type PlanState struct {
	Plans         []StudyPlan `json:"plans"`
	CurrentPlanID string      `json:"currentPlanId"`
}

// Plan finds a plan by id
func (s *PlanState) Plan(id string) (*StudyPlan, bool) {
	for i := range s.Plans {
		if s.Plans[i].ID == id {
			return &s.Plans[i], true
		}
	}
	return nil, false
}

// Current returns the selected plan, falling back to the first one
func (s *PlanState) Current() (*StudyPlan, bool) {
	if p, ok := s.Plan(s.CurrentPlanID); ok {
		return p, true
	}
	if len(s.Plans) > 0 {
		return &s.Plans[0], true
	}
	return nil, false
}

// Clone returns a deep copy that shares no slices with s
func (s PlanState) Clone() PlanState {
	out := PlanState{CurrentPlanID: s.CurrentPlanID}
	if s.Plans != nil {
		out.Plans = make([]StudyPlan, len(s.Plans))
		for i, p := range s.Plans {
			out.Plans[i] = p.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the plan
func (p StudyPlan) Clone() StudyPlan {
	out := p
	if p.ForcedMedals != nil {
		out.ForcedMedals = append([]string{}, p.ForcedMedals...)
	}
	if p.Subjects != nil {
		out.Subjects = make([]Subject, len(p.Subjects))
		for i, s := range p.Subjects {
			cs := s
			if s.Lessons != nil {
				cs.Lessons = make([]Lesson, len(s.Lessons))
				for j, l := range s.Lessons {
					cs.Lessons[j] = l.Clone()
				}
			}
			out.Subjects[i] = cs
		}
	}
	return out
}
