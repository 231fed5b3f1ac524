package domain

import "time"

// DateLayout is the wire format for due timestamps, interpreted in the
// configured civil timezone.
const DateLayout = "2006-01-02 15:04:05"

// Status is the delivery lifecycle of a reminder.
type Status string

const (
	// StatusPending marks a reminder that is still waiting to fire.
	StatusPending Status = "pending"
	// StatusSent marks a reminder that has fired and has no further occurrences.
	StatusSent Status = "sent"
)

// Reminder is a scheduled notification owned by a single chat.
type Reminder struct {
	ID          int64
	OwnerID     int64 // Telegram chat ID of the owner
	Message     string
	RemindAt    time.Time
	Recurrence  string // iCalendar RRULE, empty for one-shot reminders
	Status      Status
	ImageFileID string // Telegram file ID of an attached photo, optional
	CreatedAt   time.Time
}

// IsRecurring reports whether the reminder carries a recurrence rule.
func (r *Reminder) IsRecurring() bool {
	return r.Recurrence != ""
}

// DueBy reports whether the reminder is eligible for delivery at now.
func (r *Reminder) DueBy(now time.Time) bool {
	return r.Status == StatusPending && !r.RemindAt.After(now)
}
