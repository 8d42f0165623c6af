// Package stats aggregates lesson metrics of a plan.
package stats

import (
	"math"
	"time"

	"github.com/example/studybot/pkg/models"
)

// Stats are the plan-wide totals used by medals and dashboards
type Stats struct {
	TotalTime        float64 // minutes
	TotalQuestions   int
	CorrectQuestions int
	TotalLessons     int
	CompletedLessons int
	Flashcards       int
	DueRevisions     int
	Level            int
	Streak           int
}

// Accuracy is the share of correct questions as a rounded percentage
func (s Stats) Accuracy() int {
	return accuracy(s.CorrectQuestions, s.TotalQuestions)
}

// CompletionRate is the share of completed lessons as a rounded percentage
func (s Stats) CompletionRate() int {
	if s.TotalLessons == 0 {
		return 0
	}
	return int(math.Round(float64(s.CompletedLessons) / float64(s.TotalLessons) * 100))
}

// Aggregate sums the lessons of a plan. Level is left for the caller to
// fill from the XP engine; Streak is copied from the plan.
func Aggregate(plan models.StudyPlan, now time.Time) Stats {
	st := Stats{Streak: plan.Streak}
	for _, l := range plan.Lessons() {
		st.TotalLessons++
		if l.Completed {
			st.CompletedLessons++
		}
		if l.RevisionDue(now) {
			st.DueRevisions++
		}
		st.Flashcards += len(l.Flashcards)
		if l.Metrics != nil {
			st.TotalTime += l.Metrics.StudyTime
			st.TotalQuestions += l.Metrics.QuestionsTotal
			st.CorrectQuestions += l.Metrics.QuestionsCorrect
		}
	}
	return st
}

// SubjectStats is the analytics row of one subject
type SubjectStats struct {
	SubjectID        string
	Name             string
	TotalTime        float64
	TotalQuestions   int
	CorrectQuestions int
	Accuracy         int
	Lessons          int
	CompletedLessons int
}

// BySubject breaks the plan down per subject. Subjects without study time
// and without questions are left out.
func BySubject(plan models.StudyPlan) []SubjectStats {
	var rows []SubjectStats
	for _, s := range plan.Subjects {
		row := SubjectStats{SubjectID: s.ID, Name: s.Name, Lessons: len(s.Lessons)}
		for _, l := range s.Lessons {
			if l.Completed {
				row.CompletedLessons++
			}
			if l.Metrics != nil {
				row.TotalTime += l.Metrics.StudyTime
				row.TotalQuestions += l.Metrics.QuestionsTotal
				row.CorrectQuestions += l.Metrics.QuestionsCorrect
			}
		}
		if row.TotalTime <= 0 && row.TotalQuestions <= 0 {
			continue
		}
		row.Accuracy = accuracy(row.CorrectQuestions, row.TotalQuestions)
		rows = append(rows, row)
	}
	return rows
}

func accuracy(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
