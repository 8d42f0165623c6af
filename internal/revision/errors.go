package revision

import "errors"

var (
	// ErrInvalidDate is returned when an explicit revision date is not YYYY-MM-DD
	ErrInvalidDate = errors.New("revision: invalid date, expected YYYY-MM-DD")
	// ErrPastDate is returned when an explicit revision date is before today
	ErrPastDate = errors.New("revision: date is in the past")
)
