package planner

import (
	"context"
	"log"
	"time"

	"github.com/example/studybot/internal/session"
	"github.com/example/studybot/pkg/models"
)

// StartSession starts timing a lesson of the current plan. Starting the
// lesson already being timed pauses or resumes it.
//
// p.mu is held until the session has started so DeleteLesson cannot remove
// the lesson in between.
func (p *Planner) StartSession(subjectID, lessonID string) (session.Transition, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur, ok := p.state.Current()
	if !ok {
		return session.Transition{}, ErrPlanNotFound
	}
	l, err := findLesson(cur, subjectID, lessonID)
	if err != nil {
		return session.Transition{}, err
	}
	return p.session.Start(subjectID, lessonID, l.Title)
}

// ToggleSession pauses or resumes the active session
func (p *Planner) ToggleSession() (session.State, error) {
	return p.session.Toggle()
}

// StopSession ends the active session and adds its minutes to the timed
// lesson, in whichever plan holds it. When the lesson no longer exists the
// time is dropped and ErrLessonNotFound is returned with the result.
func (p *Planner) StopSession(ctx context.Context) (session.Result, error) {
	res, err := p.session.Stop()
	if err != nil {
		return res, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	planID := ""
	for _, plan := range p.state.Plans {
		if _, ok := plan.Lesson(res.SubjectID, res.LessonID); ok {
			planID = plan.ID
			break
		}
	}
	if planID == "" {
		log.Printf("Dropping %.1f min of study for user %s: lesson %s is gone", res.Minutes, p.userID, res.LessonID)
		return res, ErrLessonNotFound
	}
	if !(res.Minutes > 0) {
		return res, nil
	}

	err = p.mutatePlanLocked(ctx, planID, func(plan *models.StudyPlan) error {
		l, err := findLesson(plan, res.SubjectID, res.LessonID)
		if err != nil {
			return err
		}
		l.Metrics = session.ApplyToMetrics(l.Metrics, res.Minutes)
		return nil
	})
	return res, err
}

// Session returns the active session, if any
func (p *Planner) Session() (models.ActiveSession, session.State, time.Duration) {
	s, _ := p.session.Active()
	return s, p.session.State(), p.session.Elapsed()
}

// WatchSession registers fn for every timer refresh of this profile.
// fn may run while the Planner is locked and must not call back into it.
func (p *Planner) WatchSession(fn func(s models.ActiveSession, state session.State, elapsed time.Duration)) {
	p.session.Watch(fn)
}
