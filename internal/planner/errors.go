package planner

import "errors"

// Sentinel errors for the planner package.
// Use errors.Is to check: errors.Is(err, planner.ErrLastPlan)
var (
	ErrLastPlan         = errors.New("planner: at least one plan must remain")
	ErrLessonInSession  = errors.New("planner: stop the timer before deleting this lesson")
	ErrNotConfirmed     = errors.New("planner: action not confirmed")
	ErrPlanNotFound     = errors.New("planner: plan not found")
	ErrSubjectNotFound  = errors.New("planner: subject not found")
	ErrLessonNotFound   = errors.New("planner: lesson not found")
	ErrFlashcardMissing = errors.New("planner: flashcard not found")
	ErrAlreadyCompleted = errors.New("planner: lesson is already completed")
	ErrInvalidBackup    = errors.New("planner: backup has no plans collection")
	ErrInvalidMetrics   = errors.New("planner: invalid lesson metrics")
	ErrUnknownCareer    = errors.New("planner: unknown career")
	ErrEmptyName        = errors.New("planner: name must not be empty")
)

// errNoChange aborts a mutation without persisting anything
var errNoChange = errors.New("planner: no change")
