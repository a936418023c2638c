package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrLoginRequired is returned when an operation needs an authenticated session.
	ErrLoginRequired = errors.New("login required")
	// ErrStale indicates a response arrived after the state it belonged to changed.
	ErrStale = errors.New("stale response")
)
