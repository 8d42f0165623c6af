package revision

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/studybot/internal/clock"
	"github.com/example/studybot/pkg/models"
)

// DateLayout is the layout of explicit revision dates
const DateLayout = "2006-01-02"

// Presets are the day offsets offered when a lesson is completed
var Presets = []int{1, 5, 7, 15, 30, 60, 90, 120}

// Cycle is the 1/7/30 shortcut selection
var Cycle = []int{1, 7, 30}

// Request lists the revisions asked for when completing a lesson.
// Offsets are days from today; Dates are calendar days as YYYY-MM-DD.
type Request struct {
	Offsets []int
	Dates   []string
}

// WithCycle returns a copy of r with the Cycle offsets added
func (r Request) WithCycle() Request {
	out := Request{
		Offsets: append([]int{}, r.Offsets...),
		Dates:   append([]string{}, r.Dates...),
	}
	seen := make(map[int]bool, len(out.Offsets))
	for _, o := range out.Offsets {
		seen[o] = true
	}
	for _, o := range Cycle {
		if !seen[o] {
			out.Offsets = append(out.Offsets, o)
		}
	}
	return out
}

// Empty reports whether no revision was requested
func (r Request) Empty() bool {
	return len(r.Offsets) == 0 && len(r.Dates) == 0
}

// Plan is the revision schedule of a lesson: the next due date plus the
// later ones, in ascending order.
type Plan struct {
	RevisionDate *string
	Queue        []int64
}

// Schedule converts a request into absolute revision times. Offsets are
// counted in calendar days from now and land on local midnight; dates are
// read as local calendar days so the chosen day never shifts with the
// timezone and may not be earlier than today. The result is sorted and
// free of duplicates.
func Schedule(req Request, now time.Time) (Plan, error) {
	stamps := make([]int64, 0, len(req.Offsets)+len(req.Dates))

	today := clock.StartOfDay(now)
	for _, offset := range req.Offsets {
		d := time.Date(today.Year(), today.Month(), today.Day()+offset, 0, 0, 0, 0, today.Location())
		stamps = append(stamps, d.UnixMilli())
	}

	for _, raw := range req.Dates {
		d, err := ParseDate(raw, now.Location())
		if err != nil {
			return Plan{}, err
		}
		if d.Before(today) {
			return Plan{}, fmt.Errorf("%w: %s", ErrPastDate, raw)
		}
		stamps = append(stamps, d.UnixMilli())
	}

	return fromStamps(stamps), nil
}

// ParseDate reads a YYYY-MM-DD string as midnight of that day in loc
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return d, nil
}

func fromStamps(stamps []int64) Plan {
	sorted := dedupe(stamps)
	if len(sorted) == 0 {
		return Plan{Queue: []int64{}}
	}
	head := models.FormatRevisionDate(time.UnixMilli(sorted[0]))
	return Plan{
		RevisionDate: &head,
		Queue:        append([]int64{}, sorted[1:]...),
	}
}

func dedupe(stamps []int64) []int64 {
	sorted := append([]int64{}, stamps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	out := sorted[:0]
	for i, s := range sorted {
		if i > 0 && s == sorted[i-1] {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Consume advances a lesson past its due revision: the earliest queued
// revision becomes the next one, or the schedule ends when the queue is
// empty. The lesson stays completed.
func Consume(l models.Lesson) models.Lesson {
	out := l.Clone()
	queue := append([]int64{}, l.RevisionQueue...)
	sort.Slice(queue, func(i, j int) bool { return queue[i] < queue[j] })

	out.Completed = true
	if len(queue) == 0 {
		out.RevisionDate = nil
		out.RevisionQueue = []int64{}
		return out
	}

	next := models.FormatRevisionDate(time.UnixMilli(queue[0]))
	out.RevisionDate = &next
	out.RevisionQueue = queue[1:]
	return out
}

// Apply marks a lesson completed with the given schedule
func Apply(l models.Lesson, p Plan) models.Lesson {
	out := l.Clone()
	out.Completed = true
	out.RevisionDate = p.RevisionDate
	out.RevisionQueue = p.Queue
	if out.RevisionQueue == nil {
		out.RevisionQueue = []int64{}
	}
	return out
}

// Reset uncompletes a lesson and forgets its revision chain
func Reset(l models.Lesson) models.Lesson {
	out := l.Clone()
	out.Completed = false
	out.RevisionDate = nil
	out.RevisionQueue = []int64{}
	return out
}

// DueItem is a lesson whose revision is due
type DueItem struct {
	SubjectID   string
	SubjectName string
	LessonID    string
	Title       string
	DueAt       time.Time
}

// Due lists the completed lessons of a plan whose revision is at or before
// now, oldest first.
func Due(plan models.StudyPlan, now time.Time) []DueItem {
	var items []DueItem
	for _, s := range plan.Subjects {
		for _, l := range s.Lessons {
			if !l.RevisionDue(now) {
				continue
			}
			at, _ := l.RevisionTime()
			items = append(items, DueItem{
				SubjectID:   s.ID,
				SubjectName: s.Name,
				LessonID:    l.ID,
				Title:       l.Title,
				DueAt:       at,
			})
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].DueAt.Before(items[j].DueAt) })
	return items
}
