package command

import (
	"errors"
	"testing"

	"github.com/tbourn/go-reminder-backend/internal/domain"
)

func TestParsePostback_SetReminder(t *testing.T) {
	pb, err := ParsePostback("action=set_reminder&id=ev1&type=hour&val=1")
	if err != nil {
		t.Fatalf("ParsePostback: %v", err)
	}
	set, ok := pb.(SetReminder)
	if !ok {
		t.Fatalf("expected SetReminder, got %T", pb)
	}
	if set.EventID != "ev1" || set.Kind != domain.OffsetHour || set.Value != 1 {
		t.Fatalf("unexpected payload: %+v", set)
	}
}

func TestParsePostback_SetReminderNone(t *testing.T) {
	pb, err := ParsePostback("action=set_reminder&id=ev1&type=none")
	if err != nil {
		t.Fatalf("ParsePostback: %v", err)
	}
	set := pb.(SetReminder)
	if set.Kind != domain.OffsetNone || set.Value != 0 {
		t.Fatalf("unexpected payload: %+v", set)
	}
}

func TestParsePostback_ConfirmAndSnooze(t *testing.T) {
	pb, err := ParsePostback("action=confirm&id=ev2")
	if err != nil {
		t.Fatalf("ParsePostback confirm: %v", err)
	}
	if c, ok := pb.(ConfirmReminder); !ok || c.EventID != "ev2" {
		t.Fatalf("unexpected confirm payload: %+v", pb)
	}

	pb, err = ParsePostback("action=snooze&id=ev2&val=10")
	if err != nil {
		t.Fatalf("ParsePostback snooze: %v", err)
	}
	if s, ok := pb.(SnoozeReminder); !ok || s.EventID != "ev2" || s.Minutes != 10 {
		t.Fatalf("unexpected snooze payload: %+v", pb)
	}
}

func TestParsePostback_Malformed(t *testing.T) {
	cases := []string{
		"",
		"action=set_reminder",                           // missing id
		"action=set_reminder&id=ev1&type=fortnight",     // unknown offset kind
		"action=set_reminder&id=ev1&type=minute",        // missing value
		"action=set_reminder&id=ev1&type=minute&val=-5", // non-positive value
		"action=snooze&id=ev1&val=zero",
		"action=launch&id=ev1",
		"%%%",
	}
	for _, data := range cases {
		if _, err := ParsePostback(data); !errors.Is(err, ErrMalformedPostback) {
			t.Fatalf("ParsePostback(%q): expected ErrMalformedPostback, got %v", data, err)
		}
	}
}

func TestPostbackData_RoundTrip(t *testing.T) {
	orig := SetReminder{EventID: "ev3", Kind: domain.OffsetMinute, Value: 30}
	pb, err := ParsePostback(orig.Data())
	if err != nil {
		t.Fatalf("ParsePostback: %v", err)
	}
	if pb.(SetReminder) != orig {
		t.Fatalf("round trip mismatch: %+v", pb)
	}

	sz := SnoozeReminder{EventID: "ev3", Minutes: 5}
	pb, err = ParsePostback(sz.Data())
	if err != nil {
		t.Fatalf("ParsePostback: %v", err)
	}
	if pb.(SnoozeReminder) != sz {
		t.Fatalf("round trip mismatch: %+v", pb)
	}
}
