package service

import "errors"

// Sentinel kinds for session registry errors.
var (
	// ErrNotStarted is returned when the service is used before Start.
	ErrNotStarted = errors.New("service not started")

	// ErrSessionNotFound is returned for operations on unknown session ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists is returned when creating a session whose id is
	// already registered.
	ErrSessionExists = errors.New("session already exists")
)
