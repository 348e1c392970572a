package session

import "github.com/cockroachdb/errors"

var (
	ErrNoGateway         = errors.New("no gateway configured")
	ErrSessionInProgress = errors.New("session already in progress")
	ErrNotErrored        = errors.New("session is not in an error state")
	ErrNotActive         = errors.New("session is not active")
	ErrNotInCall         = errors.New("no call in progress")
)
