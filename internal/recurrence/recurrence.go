// Package recurrence computes the next due instant of an iCalendar RRULE.
package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Resolver evaluates RRULE strings in a fixed civil timezone.
type Resolver struct {
	timezone *time.Location
}

func New(tz *time.Location) *Resolver {
	if tz == nil {
		tz = time.Local
	}
	return &Resolver{timezone: tz}
}

// Validate reports whether rule parses as an RRULE.
func (r *Resolver) Validate(rule string) error {
	_, err := rrule.StrToROption(normalize(rule))
	if err != nil {
		return fmt.Errorf("parse rrule %q: %w", rule, err)
	}
	return nil
}

// Next returns the earliest occurrence of rule strictly after the given
// instant, anchored at the instant that just fired so BYDAY and the wall
// clock of the due time are preserved. ok is false when the rule is
// exhausted. A malformed rule is an error; callers degrade to a terminal
// status rather than abort their pass.
func (r *Resolver) Next(rule string, after time.Time) (next time.Time, ok bool, err error) {
	next, _, ok, err = r.Advance(rule, after)
	return next, ok, err
}

// Advance is Next plus COUNT bookkeeping: the returned remaining rule has
// its COUNT decremented by the occurrence that just fired, so bounded rules
// run down across firings when the caller stores it back. UNTIL needs no
// rewriting; rrule-go stops producing occurrences past it.
func (r *Resolver) Advance(rule string, after time.Time) (next time.Time, remaining string, ok bool, err error) {
	opt, err := rrule.StrToROption(normalize(rule))
	if err != nil {
		return time.Time{}, "", false, fmt.Errorf("parse rrule %q: %w", rule, err)
	}

	if opt.Count == 1 {
		// The occurrence that just fired was the last one.
		return time.Time{}, "", false, nil
	}

	// Anchor at the instant that just fired: it is occurrence one of the
	// remaining set, so the next due time is the occurrence after it.
	opt.Dtstart = after.In(r.timezone).Truncate(time.Second)
	set, err := rrule.NewRRule(*opt)
	if err != nil {
		return time.Time{}, "", false, fmt.Errorf("build rrule %q: %w", rule, err)
	}

	next = set.After(opt.Dtstart, false)
	if next.IsZero() {
		return time.Time{}, "", false, nil
	}

	if opt.Count > 1 {
		opt.Count--
	}
	return next.In(r.timezone), opt.RRuleString(), true, nil
}

func normalize(rule string) string {
	rule = strings.TrimSpace(rule)
	rule = strings.TrimPrefix(rule, "RRULE:")
	return strings.ToUpper(rule)
}
