// Package scheduler provides the durable one-shot timer facility behind the
// reminder service. The facility is a replaceable backend behind a single
// interface: timers are keyed, arming with an existing key cancels and
// replaces the previous timer (never accumulates a duplicate), and the timer
// payload is only the key — everything else is re-read from the event store
// at fire time.
//
// The in-memory backend in this package is volatile; durability across
// process restarts comes from the service re-arming unfired reminder rows
// from the store at startup, plus a periodic catch-up sweep.
package scheduler

import "time"

// FireFunc is invoked, on its own goroutine, when a timer elapses. The key is
// the only payload.
type FireFunc func(key string)

// TimerFacility is the contract the reminder service schedules against.
//
// Implementations must guarantee at most one outstanding timer per key:
// Arm with an existing key is a cancel-then-insert, not additive. This is the
// mechanism that makes repeated button presses and snoozes idempotent.
type TimerFacility interface {
	// Arm schedules the timer for key at the given instant, replacing any
	// existing timer with the same key. Instants in the past fire
	// immediately.
	Arm(key string, at time.Time)

	// Cancel removes the timer for key, reporting whether one existed.
	// An in-flight fire execution is not interrupted.
	Cancel(key string) bool

	// ArmedCount returns the number of currently outstanding timers.
	ArmedCount() int

	// Running reports facility liveness for health introspection.
	Running() bool

	// Stop cancels all outstanding timers and rejects further arming.
	Stop()
}
