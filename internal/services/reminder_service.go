// Package services – ReminderService
//
// This file implements the ReminderService, the aggregate owning the
// reminder lifecycle: creating events from interpreted commands, arming and
// disarming the per-event one-shot timer, firing notifications through the
// push channel, snoozing, and recovering timers after a restart. All
// collaborators (store handle, timer facility, push channel, clock, display
// location) are injected at construction; there are no ambient globals.
//
// Lifecycle rules enforced here:
//   - A reminder instant must be strictly in the future and never after the
//     event's own instant; violations reject without mutating state.
//   - At most one timer is outstanding per event ID: arming cancels and
//     replaces (the timer facility guarantees this per key), and concurrent
//     arms of the same ID serialize on a per-ID mutex so the armed timer
//     always corresponds to the last-committed reminder instant.
//   - Fired becomes true only after a successful push. The fire path re-reads
//     the event and no-ops on missing or already-fired rows, which absorbs
//     duplicate timer deliveries and cancel-vs-fire races.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-reminder-backend/internal/command"
	"github.com/tbourn/go-reminder-backend/internal/domain"
	"github.com/tbourn/go-reminder-backend/internal/line"
	"github.com/tbourn/go-reminder-backend/internal/repo"
	"github.com/tbourn/go-reminder-backend/internal/scheduler"
)

// PushChannel is the external notification sink. At most one Push call is
// made per fire; retry is the channel's own business.
type PushChannel interface {
	Push(ctx context.Context, to string, msgs ...line.Message) error
}

// ReminderService coordinates the event store, the timer facility, and the
// push channel. Construct it once at process start and share it between the
// webhook path and the timer fire path.
type ReminderService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Timers is the durable one-shot timer facility, keyed by event ID.
	// Assigned after construction because the facility's fire callback
	// points back at this service.
	Timers scheduler.TimerFacility
	// Push delivers fired notifications.
	Push PushChannel
	// Loc is the deployment location used to render instants in messages.
	Loc *time.Location
	// Now is the clock; injectable for deterministic tests.
	Now func() time.Time

	locks keyedMutex
}

// NewReminderService constructs a ReminderService. Set Timers before any
// arm/fire traffic is possible.
func NewReminderService(db *gorm.DB, push PushChannel, loc *time.Location) *ReminderService {
	return &ReminderService{
		DB:   db,
		Push: push,
		Loc:  loc,
		Now:  time.Now,
	}
}

// OffsetChoice is one of the canned reminder offsets offered after an event
// is recorded.
type OffsetChoice struct {
	Label string
	Kind  domain.OffsetKind
	Value int
}

// OfferedOffsets returns the canned quick-reply choices, largest offset
// first, ending with the disarm choice.
func OfferedOffsets() []OffsetChoice {
	return []OffsetChoice{
		{Label: "1天前", Kind: domain.OffsetDay, Value: 1},
		{Label: "1小時前", Kind: domain.OffsetHour, Value: 1},
		{Label: "30分鐘前", Kind: domain.OffsetMinute, Value: 30},
		{Label: "10分鐘前", Kind: domain.OffsetMinute, Value: 10},
		{Label: "不提醒", Kind: domain.OffsetNone},
	}
}

// CreateFromCommand persists a new event from a fully resolved command. The
// interpreter has already validated the instant; persistence failures are
// returned for the handler to surface as a generic failure reply.
func (s *ReminderService) CreateFromCommand(ctx context.Context, cmd *command.Command) (*domain.Event, error) {
	return repo.CreateEvent(ctx, s.DB, cmd.CreatorID, cmd.TargetID, cmd.TargetDisplayName, cmd.Content, cmd.EventAt)
}

// ArmOutcome reports the result of an accepted Arm call.
type ArmOutcome struct {
	// Disarmed is true when the none offset cleared the reminder.
	Disarmed bool
	// ReminderAt is the armed instant; zero when Disarmed.
	ReminderAt time.Time
}

// Arm computes the reminder instant for an event from a relative offset,
// persists it, and (re)arms the durable timer keyed by the event ID.
//
// Semantics:
//   - kind none clears the reminder instant and cancels any timer (Disarmed).
//   - Otherwise reminderAt = eventAt - offset; instants not strictly in the
//     future return ErrReminderInPast without mutating state.
//   - Re-arming replaces the previous timer (cancel-then-insert), so repeated
//     button presses never accumulate duplicates.
//
// Concurrent Arm calls for the same event ID serialize; across IDs no
// ordering is imposed.
func (s *ReminderService) Arm(ctx context.Context, eventID string, kind domain.OffsetKind, value int) (ArmOutcome, error) {
	unlock := s.locks.lock(eventID)
	defer unlock()

	ev, err := repo.GetEvent(ctx, s.DB, eventID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ArmOutcome{}, ErrEventNotFound
		}
		return ArmOutcome{}, err
	}

	if kind == domain.OffsetNone {
		if err := repo.UpdateReminderAt(ctx, s.DB, eventID, nil); err != nil {
			return ArmOutcome{}, err
		}
		s.Timers.Cancel(eventID)
		reminderArms.WithLabelValues("disarmed").Inc()
		log.Info().Str("event_id", eventID).Msg("reminder disarmed")
		return ArmOutcome{Disarmed: true}, nil
	}

	offset := kind.Duration(value)
	if offset <= 0 {
		return ArmOutcome{}, ErrInvalidOffset
	}

	reminderAt := ev.EventAt.Add(-offset)
	if !reminderAt.After(s.now()) {
		reminderArms.WithLabelValues("rejected").Inc()
		return ArmOutcome{}, ErrReminderInPast
	}

	if err := repo.UpdateReminderAt(ctx, s.DB, eventID, &reminderAt); err != nil {
		return ArmOutcome{}, err
	}
	s.Timers.Arm(eventID, reminderAt)
	reminderArms.WithLabelValues("armed").Inc()
	log.Info().
		Str("event_id", eventID).
		Time("reminder_at", reminderAt).
		Msg("reminder armed")
	return ArmOutcome{ReminderAt: reminderAt}, nil
}

// Fire delivers the notification for an event. It is invoked by the timer
// facility at the scheduled instant and by the catch-up sweep.
//
// The event is re-read first: a missing or already-fired row is a logged
// no-op, which absorbs duplicate timer deliveries and the race where a
// cancel-and-replace lost to an in-flight fire. The fired mark is written
// only after a successful push; push and mark are not transactional — a
// crash in between favors visible delivery over bookkeeping.
func (s *ReminderService) Fire(ctx context.Context, eventID string) error {
	ev, err := repo.GetEvent(ctx, s.DB, eventID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			reminderPushes.WithLabelValues("skipped").Inc()
			log.Warn().Str("event_id", eventID).Msg("fire: event missing, skipping")
			return nil
		}
		return err
	}
	if ev.Fired {
		reminderPushes.WithLabelValues("skipped").Inc()
		log.Info().Str("event_id", eventID).Msg("fire: already fired, skipping")
		return nil
	}

	msg := s.renderNotification(ev)
	if err := s.Push.Push(ctx, ev.TargetID, msg); err != nil {
		// Leave the event unfired; it stays eligible for manual re-arm.
		// No automatic retry.
		reminderPushes.WithLabelValues("failed").Inc()
		log.Error().Err(err).Str("event_id", eventID).Msg("fire: push failed")
		return err
	}

	marked, err := repo.MarkFired(ctx, s.DB, eventID)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("fire: pushed but mark failed")
		return err
	}
	if !marked {
		log.Warn().Str("event_id", eventID).Msg("fire: mark lost to concurrent transition")
	}
	reminderPushes.WithLabelValues("delivered").Inc()
	log.Info().Str("event_id", eventID).Str("target_id", ev.TargetID).Msg("reminder delivered")
	return nil
}

// Snooze resets a fired event and re-arms it at now + minutes, a degenerate
// absolute offset. The fresh timer supersedes any previous one for the ID.
func (s *ReminderService) Snooze(ctx context.Context, eventID string, minutes int) (time.Time, error) {
	if minutes <= 0 {
		return time.Time{}, ErrInvalidOffset
	}

	unlock := s.locks.lock(eventID)
	defer unlock()

	if _, err := repo.GetEvent(ctx, s.DB, eventID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return time.Time{}, ErrEventNotFound
		}
		return time.Time{}, err
	}
	if err := repo.ResetFired(ctx, s.DB, eventID); err != nil {
		return time.Time{}, err
	}

	reminderAt := s.now().Add(time.Duration(minutes) * time.Minute)
	if err := repo.UpdateReminderAt(ctx, s.DB, eventID, &reminderAt); err != nil {
		return time.Time{}, err
	}
	s.Timers.Arm(eventID, reminderAt)
	reminderArms.WithLabelValues("armed").Inc()
	log.Info().
		Str("event_id", eventID).
		Int("minutes", minutes).
		Time("reminder_at", reminderAt).
		Msg("reminder snoozed")
	return reminderAt, nil
}

// Recover re-arms timers for all unfired events that still carry a reminder
// instant. Run once at startup; past-due instants fire immediately, so
// reminders missed during downtime are delivered late rather than dropped.
func (s *ReminderService) Recover(ctx context.Context) (int, error) {
	events, err := repo.ListArmed(ctx, s.DB)
	if err != nil {
		return 0, err
	}
	for _, ev := range events {
		s.Timers.Arm(ev.ID, *ev.ReminderAt)
	}
	if len(events) > 0 {
		log.Info().Int("count", len(events)).Msg("recovered armed reminders from store")
	}
	return len(events), nil
}

// Sweep re-arms due unfired reminders. It backs the periodic catch-up job
// and is harmless when it overlaps live timers: arming is cancel-and-replace
// and the fire path pushes at most once per unfired row.
func (s *ReminderService) Sweep(ctx context.Context) (int, error) {
	due, err := repo.ListDue(ctx, s.DB, s.now())
	if err != nil {
		return 0, err
	}
	for _, ev := range due {
		s.Timers.Arm(ev.ID, *ev.ReminderAt)
	}
	if len(due) > 0 {
		log.Info().Int("count", len(due)).Msg("sweep re-armed due reminders")
	}
	return len(due), nil
}

// Health is an informational snapshot of the timer facility.
type Health struct {
	TimersRunning bool  `json:"timers_running"`
	ArmedTimers   int   `json:"armed_timers"`
	ArmedEvents   int64 `json:"armed_events"`
}

// HealthSnapshot reports timer-facility liveness, the live timer count, and
// the number of armed rows in the store. Informational only.
func (s *ReminderService) HealthSnapshot(ctx context.Context) Health {
	armed, err := repo.CountArmed(ctx, s.DB)
	if err != nil {
		armed = -1
	}
	return Health{
		TimersRunning: s.Timers.Running(),
		ArmedTimers:   s.Timers.ArmedCount(),
		ArmedEvents:   armed,
	}
}

// renderNotification formats the outgoing reminder with confirm and snooze
// quick-reply buttons. Instants are rendered in the deployment location.
func (s *ReminderService) renderNotification(ev *domain.Event) line.Message {
	when := ev.EventAt.In(s.location()).Format("2006/01/02 15:04")
	text := fmt.Sprintf("⏰ 提醒！\n\n%s\n記得在 %s 要「%s」喔！", ev.TargetDisplayName, when, ev.Content)
	return line.TextMessage(text).WithQuickReplies(
		line.PostbackItem("知道了", command.ConfirmReminder{EventID: ev.ID}.Data()),
		line.PostbackItem("10分鐘後再提醒", command.SnoozeReminder{EventID: ev.ID, Minutes: 10}.Data()),
	)
}

func (s *ReminderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ReminderService) location() *time.Location {
	if s.Loc != nil {
		return s.Loc
	}
	return time.UTC
}
