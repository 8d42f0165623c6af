package models

// ActiveSession is the running or paused stopwatch of a lesson.
// It lives only in memory and is never persisted.
type ActiveSession struct {
	SubjectID       string `json:"sId"`
	LessonID        string `json:"lId"`
	Title           string `json:"title"`
	StartTime       int64  `json:"startTime"`       // Unix ms of the current segment, 0 while paused
	AccumulatedTime int64  `json:"accumulatedTime"` // ms banked from earlier segments
	IsPaused        bool   `json:"isPaused"`
}
