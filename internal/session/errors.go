package session

import "errors"

// Sentinel errors for the session package.
var (
	ErrNoActiveSession = errors.New("session: no active session")
	ErrInvalidTarget   = errors.New("session: subject and lesson ids are required")
)
