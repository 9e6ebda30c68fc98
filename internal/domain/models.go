// Package domain defines the persistence model for reminder events and the
// offset vocabulary used to derive reminder instants. The Event type is
// mapped with GORM and forms the core data layer of the reminder service.
package domain

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Event represents a user-recorded occurrence with a target instant and an
// optional derived reminder. It is the sole persistent entity of the service
// and the single source of truth for the fire path, which always re-reads
// the row before acting.
//
// Fields:
//   - ID: stable UUID primary key (char(36)), assigned at creation.
//   - CreatorID: identifier of the user who issued the command; indexed.
//   - TargetID: identifier of the notification recipient (may equal CreatorID).
//   - TargetDisplayName: label used in the outgoing message; resolved once at
//     creation and frozen, since profile lookups may fail or drift later.
//   - Content: free-text description of what is being reminded.
//   - EventAt: instant the event itself concerns, supplied by the user.
//   - ReminderAt: instant the notification should fire; nil means no reminder
//     is armed (or it was explicitly disabled).
//   - Fired: becomes true only after a successful push, never speculatively.
//     Monotonic except for the snooze path, which deliberately resets it
//     before re-arming.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (events are kept as history).
type Event struct {
	ID                string         `json:"id"                  gorm:"type:char(36);primaryKey"`
	CreatorID         string         `json:"creator_id"          gorm:"type:varchar(64);not null;index:idx_creator_events"`
	TargetID          string         `json:"target_id"           gorm:"type:varchar(64);not null"`
	TargetDisplayName string         `json:"target_display_name" gorm:"type:text;not null"`
	Content           string         `json:"content"             gorm:"type:text;not null"`
	EventAt           time.Time      `json:"event_at"            gorm:"not null"`
	ReminderAt        *time.Time     `json:"reminder_at,omitempty" gorm:"index"`
	Fired             bool           `json:"fired"               gorm:"not null;default:false"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-"                   gorm:"index"`
}

// TableName returns the database table name for Event.
func (Event) TableName() string { return "events" }

// OffsetKind is the unit of a reminder offset subtracted from an event's
// instant. The "none" kind disarms the reminder instead.
type OffsetKind string

// Offset kinds accepted from postback payloads.
const (
	OffsetDay    OffsetKind = "day"
	OffsetHour   OffsetKind = "hour"
	OffsetMinute OffsetKind = "minute"
	OffsetNone   OffsetKind = "none"
)

// ErrUnknownOffsetKind is returned by ParseOffsetKind for values outside the
// accepted vocabulary.
var ErrUnknownOffsetKind = errors.New("unknown offset kind")

// ParseOffsetKind validates a raw offset-kind token from a postback payload.
func ParseOffsetKind(s string) (OffsetKind, error) {
	switch OffsetKind(s) {
	case OffsetDay, OffsetHour, OffsetMinute, OffsetNone:
		return OffsetKind(s), nil
	}
	return "", ErrUnknownOffsetKind
}

// Duration converts the offset to a concrete duration for the given value.
// OffsetNone always yields zero.
func (k OffsetKind) Duration(value int) time.Duration {
	switch k {
	case OffsetDay:
		return time.Duration(value) * 24 * time.Hour
	case OffsetHour:
		return time.Duration(value) * time.Hour
	case OffsetMinute:
		return time.Duration(value) * time.Minute
	}
	return 0
}
