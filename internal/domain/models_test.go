package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseOffsetKind(t *testing.T) {
	for _, raw := range []string{"day", "hour", "minute", "none"} {
		k, err := ParseOffsetKind(raw)
		if err != nil {
			t.Fatalf("ParseOffsetKind(%q): %v", raw, err)
		}
		if string(k) != raw {
			t.Fatalf("ParseOffsetKind(%q) = %q", raw, k)
		}
	}

	if _, err := ParseOffsetKind("fortnight"); !errors.Is(err, ErrUnknownOffsetKind) {
		t.Fatalf("expected ErrUnknownOffsetKind, got %v", err)
	}
}

func TestOffsetKindDuration(t *testing.T) {
	cases := []struct {
		kind  OffsetKind
		value int
		want  time.Duration
	}{
		{OffsetDay, 1, 24 * time.Hour},
		{OffsetDay, 2, 48 * time.Hour},
		{OffsetHour, 3, 3 * time.Hour},
		{OffsetMinute, 30, 30 * time.Minute},
		{OffsetNone, 5, 0},
	}
	for _, tc := range cases {
		if got := tc.kind.Duration(tc.value); got != tc.want {
			t.Errorf("%s(%d) = %v, want %v", tc.kind, tc.value, got, tc.want)
		}
	}
}

func TestEventTableName(t *testing.T) {
	if got := (Event{}).TableName(); got != "events" {
		t.Fatalf("TableName() = %q, want events", got)
	}
}
