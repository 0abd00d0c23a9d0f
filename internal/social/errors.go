package social

import "errors"

var (
	// ErrNotFound indicates a referenced user or film does not exist.
	ErrNotFound = errors.New("not found")
	// ErrSelfFriendship indicates a user tried to befriend themselves.
	ErrSelfFriendship = errors.New("user cannot befriend themselves")
	// ErrInvalidEvent indicates an event with an unknown type or operation.
	ErrInvalidEvent = errors.New("invalid event")
)
