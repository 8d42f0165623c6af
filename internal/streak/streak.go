// Package streak tracks consecutive days of study on a plan.
package streak

import (
	"time"

	"github.com/example/studybot/internal/clock"
)

// Apply records a qualifying study event at now against a plan's streak.
//
// lastStudyDate is in Unix milliseconds, 0 meaning never. A study on the
// day right after the last one extends the streak, a longer gap restarts it
// at 1, and a second study on the same day only lifts a zero streak to 1.
// The returned lastStudyDate is always now.
func Apply(streak int, lastStudyDate int64, now time.Time) (int, int64) {
	last := clock.FromMillis(lastStudyDate).In(now.Location())
	diffDays := clock.DaysBetween(last, now)

	switch {
	case diffDays == 1:
		streak++
	case diffDays > 1:
		streak = 1
	case diffDays == 0 && streak <= 0:
		streak = 1
	}

	return streak, now.UnixMilli()
}

// Broken reports whether the streak would restart if the next study
// happened at now.
func Broken(lastStudyDate int64, now time.Time) bool {
	if lastStudyDate == 0 {
		return false
	}
	last := clock.FromMillis(lastStudyDate).In(now.Location())
	return clock.DaysBetween(last, now) > 1
}

// Status is where a streak stands on a given day
type Status int

const (
	// Kept means there was a study today, or never any study.
	Kept Status = iota
	// AtRisk means the last study was yesterday; the streak ends tonight.
	AtRisk
	// Lost means the next study starts over at 1.
	Lost
)

// Check reports the status of a streak whose last study was lastStudyDate
func Check(lastStudyDate int64, now time.Time) Status {
	if lastStudyDate == 0 {
		return Kept
	}
	if Broken(lastStudyDate, now) {
		return Lost
	}
	last := clock.FromMillis(lastStudyDate).In(now.Location())
	if clock.DaysBetween(last, now) == 1 {
		return AtRisk
	}
	return Kept
}
