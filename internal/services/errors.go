// Package services implements the reminder lifecycle engine. This file
// centralizes service-level error values so they can be consistently
// returned by service methods and checked by callers. Translation into
// user-facing replies or HTTP status codes happens at the handler layer.
package services

import "errors"

var (
	// ErrEventNotFound indicates that the referenced event does not exist.
	// Replayed or stale postbacks commonly trigger this; callers no-op.
	ErrEventNotFound = errors.New("event not found")

	// ErrInvalidOffset is returned when an offset kind/value pair is outside
	// the accepted vocabulary (unknown kind, non-positive value).
	ErrInvalidOffset = errors.New("invalid reminder offset")

	// ErrReminderInPast is returned when the derived reminder instant would
	// not be strictly in the future. The event is left unmodified.
	ErrReminderInPast = errors.New("reminder instant is in the past")
)
