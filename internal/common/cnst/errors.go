package cnst

import "errors"

var (
	// ErrSelfAction is returned when a user targets themself with a social action
	ErrSelfAction = errors.New("cannot target yourself")
	// ErrNotFriends is returned when an action requires an accepted friendship
	ErrNotFriends = errors.New("users are not friends")
	// ErrEmptyContent is returned for blank message or comment bodies
	ErrEmptyContent = errors.New("content cannot be empty")
	// ErrContentTooLong is returned when a body exceeds its length limit
	ErrContentTooLong = errors.New("content too long")
)
