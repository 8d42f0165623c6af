package models

import "time"

// RevisionDateLayout is the ISO 8601 layout used for Lesson.RevisionDate
const RevisionDateLayout = "2006-01-02T15:04:05.000Z"

// LessonMetrics tracks study effort on a lesson
type LessonMetrics struct {
	StudyTime        float64 `json:"studyTime"` // minutes, fractional
	QuestionsTotal   int     `json:"questionsTotal"`
	QuestionsCorrect int     `json:"questionsCorrect"`
}

// Flashcard is a question/answer card attached to a lesson
type Flashcard struct {
	ID        string `json:"id"`
	Front     string `json:"front"`
	Back      string `json:"back"`
	CreatedAt int64  `json:"createdAt"`
}

// Lesson is the atomic unit of study
type Lesson struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Completed     bool           `json:"completed"`
	RevisionDate  *string        `json:"revisionDate"`  // next due revision, ISO 8601 UTC
	RevisionQueue []int64        `json:"revisionQueue"` // later revisions, Unix milliseconds
	Notes         string         `json:"notes,omitempty"`
	MaterialLink  string         `json:"materialLink,omitempty"`
	Flashcards    []Flashcard    `json:"flashcards"`
	Metrics       *LessonMetrics `json:"metrics,omitempty"`
}

// FormatRevisionDate renders t the way RevisionDate stores it
func FormatRevisionDate(t time.Time) string {
	return t.UTC().Format(RevisionDateLayout)
}

// RevisionTime parses RevisionDate. ok is false when no revision is set
// or the stored value is unreadable.
func (l Lesson) RevisionTime() (time.Time, bool) {
	if l.RevisionDate == nil || *l.RevisionDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, *l.RevisionDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// RevisionDue reports whether a completed lesson has a revision at or before now
func (l Lesson) RevisionDue(now time.Time) bool {
	if !l.Completed {
		return false
	}
	t, ok := l.RevisionTime()
	return ok && !t.After(now)
}

// Clone returns a deep copy of the lesson
func (l Lesson) Clone() Lesson {
	out := l
	if l.RevisionDate != nil {
		d := *l.RevisionDate
		out.RevisionDate = &d
	}
	if l.RevisionQueue != nil {
		out.RevisionQueue = append([]int64{}, l.RevisionQueue...)
	}
	if l.Flashcards != nil {
		out.Flashcards = append([]Flashcard{}, l.Flashcards...)
	}
	if l.Metrics != nil {
		m := *l.Metrics
		out.Metrics = &m
	}
	return out
}
