package runtime

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrEmptyTimeline     = errors.New("session has no questions to run")
	ErrAnotherSessionLive = errors.New("another session is already live")
	ErrSessionNotActive  = errors.New("session is not the active session")
	ErrNoSnapshot        = errors.New("no snapshot to resume from")
	ErrSnapshotOutOfRange = errors.New("snapshot does not match current timeline")
	ErrNotFinished       = errors.New("session has not finished")
)
