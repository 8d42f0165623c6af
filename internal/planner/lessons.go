package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/example/studybot/internal/revision"
	"github.com/example/studybot/internal/streak"
	"github.com/example/studybot/pkg/models"
)

// Outcome is what ToggleLesson did to a lesson
type Outcome int

const (
	// OutcomeNone is returned with every error: nothing changed.
	OutcomeNone Outcome = iota
	// OutcomeNeedsSchedule means the lesson is not completed yet; the
	// caller must collect a revision request and call CompleteLesson.
	OutcomeNeedsSchedule
	// OutcomeReviewed means a due revision was consumed.
	OutcomeReviewed
	// OutcomeUncompleted means the lesson went back to not completed and
	// lost its revision chain.
	OutcomeUncompleted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReviewed:
		return "reviewed"
	case OutcomeUncompleted:
		return "uncompleted"
	case OutcomeNeedsSchedule:
		return "needs_schedule"
	default:
		return "none"
	}
}

// AddSubject creates an open subject at the top of the current plan
func (p *Planner) AddSubject(ctx context.Context, name string) (models.Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Subject{}, ErrEmptyName
	}

	subject := models.Subject{
		ID:      uuid.New().String(),
		Name:    name,
		Lessons: []models.Lesson{},
		IsOpen:  true,
	}
	err := p.mutateCurrent(ctx, func(plan *models.StudyPlan) error {
		plan.Subjects = append([]models.Subject{subject}, plan.Subjects...)
		return nil
	})
	return subject, err
}

// ToggleSubject flips the expanded state of a subject
func (p *Planner) ToggleSubject(ctx context.Context, subjectID string) error {
	return p.mutateCurrent(ctx, func(plan *models.StudyPlan) error {
		s, ok := plan.Subject(subjectID)
		if !ok {
			return ErrSubjectNotFound
		}
		s.IsOpen = !s.IsOpen
		return nil
	})
}

// DeleteSubject removes a subject with all its lessons
func (p *Planner) DeleteSubject(ctx context.Context, subjectID string, confirm Confirmer) error {
	return p.mutateCurrent(ctx, func(plan *models.StudyPlan) error {
		s, ok := plan.Subject(subjectID)
		if !ok {
			return ErrSubjectNotFound
		}
		for _, l := range s.Lessons {
			if p.session.IsTarget(l.ID) {
				return ErrLessonInSession
			}
		}
		if !confirmed(confirm, fmt.Sprintf("Delete subject %q and its %d lessons?", s.Name, len(s.Lessons))) {
			return ErrNotConfirmed
		}

		subjects := make([]models.Subject, 0, len(plan.Subjects)-1)
		for _, other := range plan.Subjects {
			if other.ID != subjectID {
				subjects = append(subjects, other)
			}
		}
		plan.Subjects = subjects
		return nil
	})
}

// AddLesson appends a lesson to a subject of the current plan
func (p *Planner) AddLesson(ctx context.Context, subjectID, title, link string) (models.Lesson, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Lesson{}, ErrEmptyName
	}

	lesson := models.Lesson{
		ID:            uuid.New().String(),
		Title:         title,
		MaterialLink:  strings.TrimSpace(link),
		Flashcards:    []models.Flashcard{},
		RevisionQueue: []int64{},
	}
	err := p.mutateCurrent(ctx, func(plan *models.StudyPlan) error {
		s, ok := plan.Subject(subjectID)
		if !ok {
			return ErrSubjectNotFound
		}
		s.Lessons = append(s.Lessons, lesson)
		return nil
	})
	return lesson, err
}

// DeleteLesson removes a lesson. A lesson being timed cannot be deleted.
func (p *Planner) DeleteLesson(ctx context.Context, subjectID, lessonID string, confirm Confirmer) error {
	return p.mutateCurrent(ctx, func(plan *models.StudyPlan) error {
		s, ok := plan.Subject(subjectID)
		if !ok {
			return ErrSubjectNotFound
		}
		l, ok := s.Lesson(lessonID)
		if !ok {
			return ErrLessonNotFound
		}
		if p.session.IsTarget(lessonID) {
			return ErrLessonInSession
		}
		if !confirmed(confirm, fmt.Sprintf("Delete lesson %q?", l.Title)) {
			return ErrNotConfirmed
		}

		lessons := make([]models.Lesson, 0, len(s.Lessons)-1)
		for _, other := range s.Lessons {
			if other.ID != lessonID {
				lessons = append(lessons, other)
			}
		}
		s.Lessons = lessons
		return nil
	})
}

// ToggleLesson handles a tap on a lesson's check box.
//
// A lesson that is not completed is left alone and OutcomeNeedsSchedule is
// returned. A completed lesson with a due revision is treated as reviewed:
// the queue advances and the streak counts today. Any other completed
// lesson is uncompleted after confirmation, dropping its revisions.
// The outcome is OutcomeNone whenever err is not nil.
func (p *Planner) ToggleLesson(ctx context.Context, subjectID, lessonID string, confirm Confirmer) (Outcome, error) {
	outcome := OutcomeNone
	err := p.mutateCurrent(ctx, func(plan *models.StudyPlan) error {
		l, err := findLesson(plan, subjectID, lessonID)
		if err != nil {
			return err
		}
		now := p.clock.Now()

		switch {
		case !l.Completed:
			outcome = OutcomeNeedsSchedule
			return errNoChange
		case l.RevisionDue(now):
			*l = revision.Consume(*l)
			plan.Streak, plan.LastStudyDate = streak.Apply(plan.Streak, plan.LastStudyDate, now)
			outcome = OutcomeReviewed
		default:
			if !confirmed(confirm, "Uncheck this lesson? Its future revision history will be lost.") {
				return ErrNotConfirmed
			}
			*l = revision.Reset(*l)
			outcome = OutcomeUncompleted
		}
		return nil
	})
	if err == errNoChange {
		err = nil
	}
	if err != nil {
		return OutcomeNone, err
	}
	return outcome, nil
}

// CompleteLesson marks a lesson completed with the requested revisions and
// counts today for the streak. An empty request completes the lesson with
// no revision planned.
func (p *Planner) CompleteLesson(ctx context.Context, subjectID, lessonID string, req revision.Request) error {
	return p.mutateCurrent(ctx, func(plan *models.StudyPlan) error {
		l, err := findLesson(plan, subjectID, lessonID)
		if err != nil {
			return err
		}
		if l.Completed {
			return ErrAlreadyCompleted
		}

		now := p.clock.Now()
		schedule, err := revision.Schedule(req, now)
		if err != nil {
			return err
		}
		*l = revision.Apply(*l, schedule)
		plan.Streak, plan.LastStudyDate = streak.Apply(plan.Streak, plan.LastStudyDate, now)
		return nil
	})
}

// SaveNotes replaces the notes of a lesson
func (p *Planner) SaveNotes(ctx context.Context, subjectID, lessonID, notes string) error {
	return p.mutateLesson(ctx, subjectID, lessonID, func(l *models.Lesson) error {
		l.Notes = notes
		return nil
	})
}

// SetMaterialLink replaces the study material link of a lesson
func (p *Planner) SetMaterialLink(ctx context.Context, subjectID, lessonID, link string) error {
	return p.mutateLesson(ctx, subjectID, lessonID, func(l *models.Lesson) error {
		l.MaterialLink = strings.TrimSpace(link)
		return nil
	})
}

// AddFlashcard attaches a new card to a lesson
func (p *Planner) AddFlashcard(ctx context.Context, subjectID, lessonID, front, back string) (models.Flashcard, error) {
	front, back = strings.TrimSpace(front), strings.TrimSpace(back)
	if front == "" || back == "" {
		return models.Flashcard{}, ErrEmptyName
	}

	card := models.Flashcard{
		ID:        uuid.New().String(),
		Front:     front,
		Back:      back,
		CreatedAt: p.clock.Now().UnixMilli(),
	}
	err := p.mutateLesson(ctx, subjectID, lessonID, func(l *models.Lesson) error {
		l.Flashcards = append(l.Flashcards, card)
		return nil
	})
	return card, err
}

// DeleteFlashcard removes a card from a lesson
func (p *Planner) DeleteFlashcard(ctx context.Context, subjectID, lessonID, cardID string) error {
	return p.mutateLesson(ctx, subjectID, lessonID, func(l *models.Lesson) error {
		cards := make([]models.Flashcard, 0, len(l.Flashcards))
		for _, c := range l.Flashcards {
			if c.ID != cardID {
				cards = append(cards, c)
			}
		}
		if len(cards) == len(l.Flashcards) {
			return ErrFlashcardMissing
		}
		l.Flashcards = cards
		return nil
	})
}

// ValidateMetrics checks hand-edited lesson metrics
func ValidateMetrics(m models.LessonMetrics) error {
	if m.StudyTime < 0 || m.QuestionsTotal < 0 || m.QuestionsCorrect < 0 {
		return fmt.Errorf("%w: values must not be negative", ErrInvalidMetrics)
	}
	if m.QuestionsCorrect > m.QuestionsTotal {
		return fmt.Errorf("%w: more correct answers than questions", ErrInvalidMetrics)
	}
	return nil
}

// UpdateMetrics replaces the metrics of a lesson with hand-edited values
func (p *Planner) UpdateMetrics(ctx context.Context, subjectID, lessonID string, m models.LessonMetrics) error {
	if err := ValidateMetrics(m); err != nil {
		return err
	}
	return p.mutateLesson(ctx, subjectID, lessonID, func(l *models.Lesson) error {
		l.Metrics = &m
		return nil
	})
}

func (p *Planner) mutateLesson(ctx context.Context, subjectID, lessonID string, fn func(l *models.Lesson) error) error {
	return p.mutateCurrent(ctx, func(plan *models.StudyPlan) error {
		l, err := findLesson(plan, subjectID, lessonID)
		if err != nil {
			return err
		}
		return fn(l)
	})
}

func findLesson(plan *models.StudyPlan, subjectID, lessonID string) (*models.Lesson, error) {
	s, ok := plan.Subject(subjectID)
	if !ok {
		return nil, ErrSubjectNotFound
	}
	l, ok := s.Lesson(lessonID)
	if !ok {
		return nil, ErrLessonNotFound
	}
	return l, nil
}
