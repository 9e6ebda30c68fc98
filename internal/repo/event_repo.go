// Package repo implements the data persistence layer for reminder events,
// backed by GORM. This file provides repository functions for the Event model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. The service layer (services.
// ReminderService) owns the lifecycle rules built on top of these calls.
//
// Error semantics:
//   - When an event is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-reminder-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across the service
// layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateEvent inserts a new Event row. The event ID is a randomly generated
// UUID (string) and timestamps are stored in UTC. The display name is frozen
// here; it is never re-resolved later.
func CreateEvent(ctx context.Context, db *gorm.DB, creatorID, targetID, displayName, content string, eventAt time.Time) (*domain.Event, error) {
	e := &domain.Event{
		ID:                uuid.NewString(),
		CreatorID:         creatorID,
		TargetID:          targetID,
		TargetDisplayName: displayName,
		Content:           content,
		EventAt:           eventAt.UTC(),
		CreatedAt:         time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// GetEvent fetches a single event by ID, or ErrNotFound if missing.
func GetEvent(ctx context.Context, db *gorm.DB, id string) (*domain.Event, error) {
	var e domain.Event
	if err := db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateReminderAt sets (or with nil clears) the reminder instant of an
// event. Returns ErrNotFound if the event does not exist.
func UpdateReminderAt(ctx context.Context, db *gorm.DB, id string, at *time.Time) error {
	if at != nil {
		utc := at.UTC()
		at = &utc
	}
	res := db.WithContext(ctx).
		Model(&domain.Event{}).
		Where("id = ?", id).
		Update("reminder_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkFired flips fired to true, guarded by fired = false so that duplicate
// timer deliveries mark (and therefore push-account) at most once. It reports
// whether this call performed the transition.
func MarkFired(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Event{}).
		Where("id = ? AND fired = ?", id, false).
		Update("fired", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ResetFired moves an event back to unfired state. This is the deliberate
// snooze exception to the otherwise monotonic fired flag. Returns ErrNotFound
// if the event does not exist.
func ResetFired(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Event{}).
		Where("id = ?", id).
		Update("fired", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListArmed returns all unfired events with a non-null reminder instant,
// ordered soonest first. Used at startup to re-arm timers that were lost
// with the previous process.
func ListArmed(ctx context.Context, db *gorm.DB) ([]domain.Event, error) {
	var out []domain.Event
	err := db.WithContext(ctx).
		Where("fired = ? AND reminder_at IS NOT NULL", false).
		Order("reminder_at asc").
		Find(&out).Error
	return out, err
}

// ListDue returns unfired events whose reminder instant is at or before now.
// Used by the periodic catch-up sweep.
func ListDue(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.Event, error) {
	var out []domain.Event
	err := db.WithContext(ctx).
		Where("fired = ? AND reminder_at IS NOT NULL AND reminder_at <= ?", false, now.UTC()).
		Order("reminder_at asc").
		Find(&out).Error
	return out, err
}

// CountArmed returns the number of unfired events with a reminder instant.
// Informational only; the health endpoint reports it next to the live timer
// count.
func CountArmed(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Event{}).
		Where("fired = ? AND reminder_at IS NOT NULL", false).
		Count(&total).Error
	return total, err
}
