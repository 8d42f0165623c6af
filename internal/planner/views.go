package planner

import (
	"sort"

	"github.com/example/studybot/internal/gamification"
	"github.com/example/studybot/internal/medals"
	"github.com/example/studybot/internal/revision"
	"github.com/example/studybot/internal/stats"
	"github.com/example/studybot/internal/streak"
)

// Progress derives the XP, level and rank of the current plan
func (p *Planner) Progress() gamification.Progress {
	return gamification.Evaluate(p.CurrentPlan(), p.careers)
}

// Stats aggregates the current plan, with the level filled in
func (p *Planner) Stats() stats.Stats {
	plan := p.CurrentPlan()
	st := stats.Aggregate(plan, p.clock.Now())
	st.Level = gamification.Evaluate(plan, p.careers).Level
	return st
}

// StreakStatus returns the streak of the current plan and where it stands today
func (p *Planner) StreakStatus() (int, streak.Status) {
	plan := p.CurrentPlan()
	return plan.Streak, streak.Check(plan.LastStudyDate, p.clock.Now())
}

// SubjectStats breaks the current plan down per subject
func (p *Planner) SubjectStats() []stats.SubjectStats {
	return stats.BySubject(p.CurrentPlan())
}

// Medals evaluates every medal against the current plan
func (p *Planner) Medals() []medals.Result {
	return medals.Evaluate(p.Stats(), p.CurrentPlan())
}

// DueRevisions lists the due revisions of the current plan
func (p *Planner) DueRevisions() []revision.DueItem {
	return revision.Due(p.CurrentPlan(), p.clock.Now())
}

// AllDueRevisions lists the due revisions across every plan, oldest first
func (p *Planner) AllDueRevisions() []revision.DueItem {
	now := p.clock.Now()
	var items []revision.DueItem
	for _, plan := range p.State().Plans {
		items = append(items, revision.Due(plan, now)...)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].DueAt.Before(items[j].DueAt) })
	return items
}
