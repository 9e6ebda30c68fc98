// Typed postback payloads.
//
// Quick-reply buttons carry a small key=value payload back through the chat
// platform. Payloads are parsed once at this boundary into a closed tagged
// union with explicit validation; unknown or malformed payloads are rejected
// so callers can log and no-op instead of acting on garbage (replays and
// hand-crafted postbacks included).
package command

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/tbourn/go-reminder-backend/internal/domain"
)

// ErrMalformedPostback is returned for payloads that do not form a valid
// postback command.
var ErrMalformedPostback = errors.New("malformed postback payload")

// Postback is the tagged union of button payloads.
type Postback interface{ isPostback() }

// SetReminder arms (or, with OffsetNone, disarms) the reminder for an event.
type SetReminder struct {
	EventID string
	Kind    domain.OffsetKind
	Value   int
}

// ConfirmReminder acknowledges a fired reminder.
type ConfirmReminder struct {
	EventID string
}

// SnoozeReminder re-arms a fired reminder a few minutes out.
type SnoozeReminder struct {
	EventID string
	Minutes int
}

func (SetReminder) isPostback()     {}
func (ConfirmReminder) isPostback() {}
func (SnoozeReminder) isPostback()  {}

// Data renders the payload carried by a set-reminder button.
func (p SetReminder) Data() string {
	v := url.Values{"action": {"set_reminder"}, "id": {p.EventID}, "type": {string(p.Kind)}}
	if p.Kind != domain.OffsetNone {
		v.Set("val", strconv.Itoa(p.Value))
	}
	return v.Encode()
}

// Data renders the payload carried by a confirm button.
func (p ConfirmReminder) Data() string {
	return url.Values{"action": {"confirm"}, "id": {p.EventID}}.Encode()
}

// Data renders the payload carried by a snooze button.
func (p SnoozeReminder) Data() string {
	return url.Values{
		"action": {"snooze"},
		"id":     {p.EventID},
		"val":    {strconv.Itoa(p.Minutes)},
	}.Encode()
}

// ParsePostback parses and validates a raw postback payload. It never
// returns a partially populated command: any missing or invalid field yields
// ErrMalformedPostback.
func ParsePostback(data string) (Postback, error) {
	values, err := url.ParseQuery(data)
	if err != nil {
		return nil, ErrMalformedPostback
	}
	id := values.Get("id")
	if id == "" {
		return nil, ErrMalformedPostback
	}

	switch values.Get("action") {
	case "set_reminder":
		kind, err := domain.ParseOffsetKind(values.Get("type"))
		if err != nil {
			return nil, ErrMalformedPostback
		}
		if kind == domain.OffsetNone {
			return SetReminder{EventID: id, Kind: kind}, nil
		}
		val, err := strconv.Atoi(values.Get("val"))
		if err != nil || val <= 0 {
			return nil, ErrMalformedPostback
		}
		return SetReminder{EventID: id, Kind: kind, Value: val}, nil

	case "confirm":
		return ConfirmReminder{EventID: id}, nil

	case "snooze":
		minutes, err := strconv.Atoi(values.Get("val"))
		if err != nil || minutes <= 0 {
			return nil, ErrMalformedPostback
		}
		return SnoozeReminder{EventID: id, Minutes: minutes}, nil
	}
	return nil, ErrMalformedPostback
}
