package excel

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/studybot/internal/stats"
	"github.com/example/studybot/pkg/models"
)

// Sheet names of the report workbook
const (
	LessonsSheet  = "Lessons"
	SubjectsSheet = "Subjects"
)

var lessonHeader = []interface{}{
	"Plan", "Subject", "Lesson", "Completed", "Next revision", "Queued revisions",
	"Study minutes", "Questions", "Correct", "Accuracy %", "Flashcards", "Material",
}

var subjectHeader = []interface{}{
	"Plan", "Subject", "Lessons", "Completed", "Study minutes", "Questions", "Correct", "Accuracy %",
}

// ExportReport writes every plan of state as an xlsx workbook with one row
// per lesson and one row per studied subject.
func ExportReport(state models.PlanState, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), LessonsSheet)
	if _, err := f.NewSheet(SubjectsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %v", err)
	}

	if err := writeRow(f, LessonsSheet, 1, lessonHeader); err != nil {
		return err
	}
	if err := writeRow(f, SubjectsSheet, 1, subjectHeader); err != nil {
		return err
	}

	lessonRow, subjectRow := 2, 2
	for _, plan := range state.Plans {
		for _, s := range plan.Subjects {
			for _, l := range s.Lessons {
				if err := writeRow(f, LessonsSheet, lessonRow, lessonValues(plan, s, l)); err != nil {
					return err
				}
				lessonRow++
			}
		}

		for _, row := range stats.BySubject(plan) {
			values := []interface{}{
				plan.Name, row.Name, row.Lessons, row.CompletedLessons,
				round1(row.TotalTime), row.TotalQuestions, row.CorrectQuestions, row.Accuracy,
			}
			if err := writeRow(f, SubjectsSheet, subjectRow, values); err != nil {
				return err
			}
			subjectRow++
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %v", err)
	}
	return nil
}

func lessonValues(plan models.StudyPlan, s models.Subject, l models.Lesson) []interface{} {
	next := ""
	if t, ok := l.RevisionTime(); ok {
		next = t.In(time.Local).Format("2006-01-02")
	}

	var minutes float64
	var total, correct int
	if l.Metrics != nil {
		minutes = l.Metrics.StudyTime
		total = l.Metrics.QuestionsTotal
		correct = l.Metrics.QuestionsCorrect
	}
	accuracy := 0
	if total > 0 {
		accuracy = int(math.Round(float64(correct) / float64(total) * 100))
	}

	completed := "no"
	if l.Completed {
		completed = "yes"
	}

	return []interface{}{
		plan.Name, s.Name, l.Title, completed, next, len(l.RevisionQueue),
		round1(minutes), total, correct, accuracy, len(l.Flashcards), l.MaterialLink,
	}
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %v", row, sheet, err)
	}
	return nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
