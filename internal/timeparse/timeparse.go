// Package timeparse turns raw date/time token sequences from user commands
// into timezone-aware instants. It tries a fixed, ordered list of strict
// layouts first (slash and dash separators, with and without year or clock)
// and only then falls back to a permissive free-text parser with the
// month-before-day convention, mirroring how users actually type dates in
// chat. Relative day words are expanded to explicit dates before the
// pipeline runs.
package timeparse

import (
	"errors"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrUnparseable is returned when neither the strict layouts nor the
// permissive fallback can make sense of the input.
var ErrUnparseable = errors.New("unparseable date/time expression")

// layout pairs a Go reference layout with flags describing which components
// it carries, so missing ones can be backfilled from the reference time.
type layout struct {
	format   string
	hasYear  bool
	hasClock bool
}

// Strict layouts, most specific first. The first full match wins.
var layouts = []layout{
	{"2006/1/2 15:04", true, true},
	{"2006-1-2 15:04", true, true},
	{"2006/1/2", true, false},
	{"2006-1-2", true, false},
	{"1/2 15:04", false, true},
	{"1-2 15:04", false, true},
	{"1/2", false, false},
	{"1-2", false, false},
}

// relativeDays maps reserved day words to their offset from the reference
// date. Both the English and the original Chinese command words are accepted.
var relativeDays = map[string]int{
	"tomorrow":           1,
	"明天":                 1,
	"day-after-tomorrow": 2,
	"後天":                 2,
}

// Resolver resolves raw text into instants anchored to a fixed deployment
// location. Naive inputs are always interpreted in Loc; results never leave
// this boundary timezone-naive.
type Resolver struct {
	// Loc is the deployment's reference location. Nil falls back to UTC.
	Loc *time.Location
}

// Resolve parses raw into an instant, using ref to backfill any component
// the matched layout lacks: a missing year becomes ref's year, and a missing
// clock becomes ref's hour and minute rather than midnight, so a date-only
// input is never silently scheduled at 00:00.
func (r *Resolver) Resolve(raw string, ref time.Time) (time.Time, error) {
	loc := r.location()
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrUnparseable
	}
	ref = ref.In(loc)
	raw = expandRelative(raw, ref)

	for _, l := range layouts {
		t, err := time.ParseInLocation(l.format, raw, loc)
		if err != nil {
			continue
		}
		year := t.Year()
		if !l.hasYear {
			year = ref.Year()
		}
		hour, min := t.Hour(), t.Minute()
		if !l.hasClock {
			hour, min = ref.Hour(), ref.Minute()
		}
		return time.Date(year, t.Month(), t.Day(), hour, min, 0, 0, loc), nil
	}

	// Permissive fallback, month before day ("7/15" is July 15th).
	if t, err := dateparse.ParseIn(raw, loc); err == nil {
		return t, nil
	}
	return time.Time{}, ErrUnparseable
}

func (r *Resolver) location() *time.Location {
	if r.Loc != nil {
		return r.Loc
	}
	return time.UTC
}

// expandRelative rewrites a leading reserved day word into an explicit date
// string, preserving any trailing time token for the strict layouts.
func expandRelative(raw string, ref time.Time) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return raw
	}
	days, ok := relativeDays[strings.ToLower(fields[0])]
	if !ok {
		return raw
	}
	date := ref.AddDate(0, 0, days).Format("2006/1/2")
	if len(fields) > 1 {
		return date + " " + strings.Join(fields[1:], " ")
	}
	return date
}
