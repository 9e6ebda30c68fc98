package timeparse

import (
	"errors"
	"testing"
	"time"
)

var taipei = time.FixedZone("Asia/Taipei", 8*60*60)

func resolver() *Resolver { return &Resolver{Loc: taipei} }

func TestResolve_FullDateTime(t *testing.T) {
	ref := time.Date(2024, 1, 1, 0, 0, 0, 0, taipei)
	got, err := resolver().Resolve("2025/07/15 17:20", ref)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := time.Date(2025, 7, 15, 17, 20, 0, 0, taipei)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestResolve_DashSeparator(t *testing.T) {
	ref := time.Date(2024, 1, 1, 0, 0, 0, 0, taipei)
	got, err := resolver().Resolve("2025-07-15 17:20", ref)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Year() != 2025 || got.Month() != 7 || got.Day() != 15 || got.Hour() != 17 {
		t.Fatalf("unexpected instant: %v", got)
	}
}

func TestResolve_MissingYearUsesReference(t *testing.T) {
	ref := time.Date(2025, 3, 1, 9, 0, 0, 0, taipei)
	got, err := resolver().Resolve("7/15 17:20", ref)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := time.Date(2025, 7, 15, 17, 20, 0, 0, taipei)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestResolve_DateOnlyBackfillsClockFromReference(t *testing.T) {
	// Date-only input must not silently schedule at midnight.
	ref := time.Date(2025, 7, 1, 14, 35, 0, 0, taipei)
	got, err := resolver().Resolve("2025/08/02", ref)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := time.Date(2025, 8, 2, 14, 35, 0, 0, taipei)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestResolve_Tomorrow(t *testing.T) {
	ref := time.Date(2025, 7, 15, 10, 0, 0, 0, taipei)
	got, err := resolver().Resolve("tomorrow", ref)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := time.Date(2025, 7, 16, 10, 0, 0, 0, taipei)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestResolve_TomorrowWithExplicitTime(t *testing.T) {
	ref := time.Date(2025, 7, 15, 10, 0, 0, 0, taipei)
	got, err := resolver().Resolve("明天 08:30", ref)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := time.Date(2025, 7, 16, 8, 30, 0, 0, taipei)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestResolve_DayAfterTomorrow(t *testing.T) {
	ref := time.Date(2025, 12, 31, 23, 5, 0, 0, taipei)
	got, err := resolver().Resolve("後天", ref)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// Rolls over the year boundary.
	want := time.Date(2026, 1, 2, 23, 5, 0, 0, taipei)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestResolve_PermissiveFallback(t *testing.T) {
	ref := time.Date(2025, 1, 1, 0, 0, 0, 0, taipei)
	got, err := resolver().Resolve("Jul 15, 2025 17:20", ref)
	if err != nil {
		t.Fatalf("Resolve fallback: %v", err)
	}
	if got.Month() != 7 || got.Day() != 15 || got.Year() != 2025 {
		t.Fatalf("unexpected fallback instant: %v", got)
	}
}

func TestResolve_Garbage(t *testing.T) {
	ref := time.Date(2025, 1, 1, 0, 0, 0, 0, taipei)
	if _, err := resolver().Resolve("blah", ref); !errors.Is(err, ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable, got %v", err)
	}
	if _, err := resolver().Resolve("", ref); !errors.Is(err, ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable for empty input, got %v", err)
	}
}

func TestResolve_NilLocationDefaultsUTC(t *testing.T) {
	r := &Resolver{}
	ref := time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)
	got, err := r.Resolve("2025/07/15 17:20", ref)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", got.Location())
	}
}
