package recurrence

import (
	"strings"
	"testing"
	"time"
)

func TestNextDailyKeepsWallClock(t *testing.T) {
	r := New(time.UTC)
	fired := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	next, ok, err := r.Next("FREQ=DAILY", fired)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if !ok {
		t.Fatal("daily rule must not exhaust")
	}
	want := fired.Add(24 * time.Hour)
	if !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}
}

func TestNextWeeklyByDay(t *testing.T) {
	r := New(time.UTC)
	// 2025-03-10 is a Monday.
	fired := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	next, ok, err := r.Next("FREQ=WEEKLY;BYDAY=MO", fired)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if !ok {
		t.Fatal("weekly rule must not exhaust")
	}
	if next.Weekday() != time.Monday {
		t.Fatalf("expected a Monday, got %v", next.Weekday())
	}
	want := fired.AddDate(0, 0, 7)
	if !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}
}

func TestNextIsStrictlyAfter(t *testing.T) {
	r := New(time.UTC)
	fired := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	next, ok, err := r.Next("FREQ=DAILY", fired)
	if err != nil || !ok {
		t.Fatalf("next: ok=%v err=%v", ok, err)
	}
	if !next.After(fired) {
		t.Fatalf("next %v must be strictly after %v", next, fired)
	}
}

func TestAdvanceDecrementsCount(t *testing.T) {
	r := New(time.UTC)
	fired := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	next, remaining, ok, err := r.Advance("FREQ=DAILY;COUNT=3", fired)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !ok {
		t.Fatal("two occurrences remain, must not exhaust")
	}
	if !next.Equal(fired.Add(24 * time.Hour)) {
		t.Fatalf("expected next day, got %v", next)
	}
	if !strings.Contains(remaining, "COUNT=2") {
		t.Fatalf("expected COUNT=2 in remaining rule, got %q", remaining)
	}
}

func TestAdvanceCountOneExhausts(t *testing.T) {
	r := New(time.UTC)
	fired := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	_, _, ok, err := r.Advance("FREQ=DAILY;COUNT=1", fired)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if ok {
		t.Fatal("COUNT=1 fired its last occurrence, must exhaust")
	}
}

func TestAdvancePastUntilExhausts(t *testing.T) {
	r := New(time.UTC)
	fired := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	_, _, ok, err := r.Advance("FREQ=DAILY;UNTIL=20240101T000000Z", fired)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if ok {
		t.Fatal("rule past its UNTIL must exhaust")
	}
}

func TestMalformedRuleErrors(t *testing.T) {
	r := New(time.UTC)
	fired := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	if _, _, _, err := r.Advance("FREQ=SOMETIMES", fired); err == nil {
		t.Fatal("expected error for malformed rule")
	}
	if err := r.Validate("not a rule"); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestNormalizePrefixAndCase(t *testing.T) {
	r := New(time.UTC)
	fired := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	next, ok, err := r.Next("RRULE:freq=daily", fired)
	if err != nil || !ok {
		t.Fatalf("next: ok=%v err=%v", ok, err)
	}
	if !next.Equal(fired.Add(24 * time.Hour)) {
		t.Fatalf("expected next day, got %v", next)
	}
}
