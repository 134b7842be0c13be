package engine

import "errors"

var (
	// ErrNoEntry means the graph has no usable entry link; the session ends
	// without showing anything
	ErrNoEntry = errors.New("graph has no resolved entry link")

	// ErrNotStarted is returned by Proceed before Start
	ErrNotStarted = errors.New("session not started")

	// ErrSessionEnded is returned by Proceed after the session ended
	ErrSessionEnded = errors.New("session has ended")

	// ErrInvalidChoice is returned by Proceed for a target that is not
	// currently offered. The session state is unchanged.
	ErrInvalidChoice = errors.New("target is not an offered choice")
)
