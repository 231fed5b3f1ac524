package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/clusivai/clusivai/internal/domain"
	"github.com/clusivai/clusivai/internal/recurrence"
	"github.com/clusivai/clusivai/internal/storage"
)

// DateLayout mirrors the store's due-timestamp wire format.
const DateLayout = domain.DateLayout

type ReminderService struct {
	storage  *storage.Storage
	resolver *recurrence.Resolver
	timezone *time.Location
}

func NewReminderService(s *storage.Storage, resolver *recurrence.Resolver, tz *time.Location) *ReminderService {
	return &ReminderService{
		storage:  s,
		resolver: resolver,
		timezone: tz,
	}
}

// ParseDate reads a "YYYY-MM-DD HH:MM:SS" timestamp in the civil timezone.
func (s *ReminderService) ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), s.timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return t, nil
}

// Create validates inputs and stores a new pending reminder.
func (s *ReminderService) Create(ownerID int64, message, date, rule, imageFileID string) (*domain.Reminder, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("reminder message cannot be empty")
	}

	remindAt, err := s.ParseDate(date)
	if err != nil {
		return nil, err
	}

	if rule != "" {
		if err := s.resolver.Validate(rule); err != nil {
			return nil, fmt.Errorf("invalid recurrence: %w", err)
		}
	}

	reminder := &domain.Reminder{
		OwnerID:     ownerID,
		Message:     message,
		RemindAt:    remindAt,
		Recurrence:  rule,
		Status:      domain.StatusPending,
		ImageFileID: imageFileID,
	}
	if err := s.storage.CreateReminder(reminder); err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	return reminder, nil
}

// ListPending returns the owner's active reminders. Also used as grounding
// context for the intent extractor so it only references real IDs.
func (s *ReminderService) ListPending(ownerID int64) ([]*domain.Reminder, error) {
	return s.storage.ListPendingReminders(ownerID)
}

// Update applies the provided fields to an owned reminder. A new date always
// reactivates the reminder. Returns false when the id does not exist for the
// owner or nothing was provided.
func (s *ReminderService) Update(ownerID, id int64, message, date, rule *string) (bool, error) {
	var remindAt *time.Time
	if date != nil {
		t, err := s.ParseDate(*date)
		if err != nil {
			return false, err
		}
		remindAt = &t
	}
	if rule != nil && *rule != "" {
		if err := s.resolver.Validate(*rule); err != nil {
			return false, fmt.Errorf("invalid recurrence: %w", err)
		}
	}
	return s.storage.UpdateReminder(ownerID, id, message, remindAt, rule)
}

// DeleteByID removes a single owned reminder.
func (s *ReminderService) DeleteByID(ownerID, id int64) (bool, error) {
	return s.storage.DeleteReminderByID(ownerID, id)
}

// DeleteByToken removes pending reminders by numeric ID or message
// substring and returns how many were removed.
func (s *ReminderService) DeleteByToken(ownerID int64, token string) (int64, error) {
	return s.storage.DeleteRemindersByToken(ownerID, token)
}

// ListDueToday returns the owner's pending reminders due on the civil day
// containing now, earliest first.
func (s *ReminderService) ListDueToday(ownerID int64, now time.Time) ([]*domain.Reminder, error) {
	local := now.In(s.timezone)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.timezone)
	end := start.Add(24*time.Hour - time.Second)
	return s.storage.ListDueToday(ownerID, start, end)
}

// FormatList renders reminders for a chat message.
func (s *ReminderService) FormatList(reminders []*domain.Reminder) string {
	if len(reminders) == 0 {
		return "No tienes recordatorios activos."
	}
	var sb strings.Builder
	sb.WriteString("📝 Tus recordatorios:\n\n")
	for _, r := range reminders {
		sb.WriteString(fmt.Sprintf("• #%d: %s (%s)", r.ID, r.Message, r.RemindAt.In(s.timezone).Format(DateLayout)))
		if r.IsRecurring() {
			sb.WriteString(" 🔁")
		}
		if r.ImageFileID != "" {
			sb.WriteString(" 🖼")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatDigest renders the daily summary for one owner.
func (s *ReminderService) FormatDigest(reminders []*domain.Reminder) string {
	if len(reminders) == 0 {
		return "☀️ ¡Buenos días! No tienes recordatorios para hoy."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("☀️ ¡Buenos días! Tienes %d recordatorio(s) para hoy:\n\n", len(reminders)))
	for _, r := range reminders {
		sb.WriteString(fmt.Sprintf("• %s — %s\n", r.RemindAt.In(s.timezone).Format("15:04"), r.Message))
	}
	return sb.String()
}
