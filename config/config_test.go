package config

import (
	"testing"
	"time"
)

func TestParseWeekdaysDefault(t *testing.T) {
	days, err := parseWeekdays("")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !days[time.Monday] || !days[time.Friday] {
		t.Fatalf("expected Mon-Fri default, got %v", days)
	}
	if days[time.Saturday] || days[time.Sunday] {
		t.Fatalf("weekend must be off by default, got %v", days)
	}
}

func TestParseWeekdaysExplicit(t *testing.T) {
	days, err := parseWeekdays("0, 6")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !days[time.Sunday] || !days[time.Saturday] || len(days) != 2 {
		t.Fatalf("expected weekend only, got %v", days)
	}
}

func TestParseWeekdaysInvalid(t *testing.T) {
	if _, err := parseWeekdays("7"); err == nil {
		t.Fatal("expected error for out-of-range weekday")
	}
	if _, err := parseWeekdays("lunes"); err == nil {
		t.Fatal("expected error for non-numeric weekday")
	}
}
