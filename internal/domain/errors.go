package domain

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrNoSnapshot  = errors.New("no snapshot available")
	ErrRateLimited = errors.New("rate limited")
	ErrLockHeld    = errors.New("lock already held")
)
