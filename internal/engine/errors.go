package engine

import "errors"

var (
	// ErrDuplicate is returned by Create when another bookmark already sits
	// within the duplicate window of the requested timestamp.
	ErrDuplicate = errors.New("a bookmark already exists near this timestamp")

	// ErrNotFound is returned by Edit when no bookmark matches the given
	// ID or timestamp. Delete treats the same situation as a no-op.
	ErrNotFound = errors.New("bookmark not found")

	// ErrNoVideo is returned by mutating operations called without a video ID.
	ErrNoVideo = errors.New("no active video")
)
