package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/clusivai/clusivai/config"
	"github.com/clusivai/clusivai/internal/domain"
	"github.com/clusivai/clusivai/internal/recurrence"
	"github.com/clusivai/clusivai/internal/service"
	"github.com/clusivai/clusivai/internal/storage"
)

// MessageSender delivers notifications to a chat. Delivery is best-effort,
// at-least-once: a failed send is logged and the reminder still transitions.
type MessageSender interface {
	SendMessage(chatID int64, text string) error
	SendReminderAlert(chatID int64, r *domain.Reminder) error
}

// AlertRecorder receives a synthetic record of each delivered alert so
// follow-up messages ("postpone that") can be grounded to the right ID.
type AlertRecorder interface {
	RecordAlert(ownerID, reminderID int64, text string)
}

type Scheduler struct {
	cron            *cron.Cron
	cfg             *config.Config
	storage         *storage.Storage
	reminderService *service.ReminderService
	resolver        *recurrence.Resolver
	sender          MessageSender
	recorder        AlertRecorder
}

func New(cfg *config.Config, store *storage.Storage, reminderSvc *service.ReminderService, resolver *recurrence.Resolver) *Scheduler {
	c := cron.New(cron.WithLocation(cfg.Timezone))

	return &Scheduler{
		cron:            c,
		cfg:             cfg,
		storage:         store,
		reminderService: reminderSvc,
		resolver:        resolver,
	}
}

func (s *Scheduler) SetSender(sender MessageSender) {
	s.sender = sender
}

func (s *Scheduler) SetRecorder(recorder AlertRecorder) {
	s.recorder = recorder
}

func (s *Scheduler) Start(ctx context.Context) error {
	// Due-reminder scan every minute
	if _, err := s.cron.AddFunc("* * * * *", s.scanTick); err != nil {
		return fmt.Errorf("add reminder scan: %w", err)
	}

	// Daily digest gate, evaluated every minute against per-user times
	if _, err := s.cron.AddFunc("* * * * *", s.digestTick); err != nil {
		return fmt.Errorf("add daily digest: %w", err)
	}

	s.cron.Start()
	log.Printf("Scheduler started (TZ: %s)", s.cfg.Timezone)

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}

func (s *Scheduler) scanTick() {
	if err := s.RunScan(time.Now().In(s.cfg.Timezone)); err != nil {
		log.Printf("Scan pass error: %v", err)
	}
}

// RunScan performs one scanner pass: select everything due at now, attempt
// delivery, and transition each reminder. One bad rule or failed send never
// blocks the rest of the pass.
func (s *Scheduler) RunScan(now time.Time) error {
	if s.sender == nil {
		return nil
	}

	due, err := s.storage.ListDueReminders(now)
	if err != nil {
		return fmt.Errorf("list due reminders: %w", err)
	}

	for _, r := range due {
		// At-most-once attempt per due occurrence per tick. The transition
		// below happens regardless of the outcome so a broken transport
		// cannot cause a re-delivery storm.
		if err := s.sender.SendReminderAlert(r.OwnerID, r); err != nil {
			log.Printf("Error sending reminder %d to %d: %v", r.ID, r.OwnerID, err)
		} else if s.recorder != nil {
			s.recorder.RecordAlert(r.OwnerID, r.ID, r.Message)
		}

		s.transition(r, now)
	}
	return nil
}

// transition advances a fired reminder: recurring reminders re-arm at their
// next occurrence, everything else retires as sent.
func (s *Scheduler) transition(r *domain.Reminder, now time.Time) {
	if !r.IsRecurring() {
		if err := s.storage.MarkReminderSent(r.ID); err != nil {
			log.Printf("Error marking reminder %d sent: %v", r.ID, err)
		}
		return
	}

	next, remaining, ok, err := s.resolver.Advance(r.Recurrence, now)
	if err != nil {
		log.Printf("Reminder %d has unusable recurrence %q, retiring: %v", r.ID, r.Recurrence, err)
	}
	if err != nil || !ok {
		if err := s.storage.MarkReminderSent(r.ID); err != nil {
			log.Printf("Error marking reminder %d sent: %v", r.ID, err)
		}
		return
	}

	if err := s.storage.RearmReminder(r.ID, next, remaining); err != nil {
		log.Printf("Error re-arming reminder %d: %v", r.ID, err)
	}
}

func (s *Scheduler) digestTick() {
	if err := s.RunDigest(time.Now().In(s.cfg.Timezone)); err != nil {
		log.Printf("Digest pass error: %v", err)
	}
}

// RunDigest delivers the daily summary to every subscriber whose configured
// time matches the current civil minute, on configured weekdays only.
// Failure for one owner never blocks the others.
func (s *Scheduler) RunDigest(now time.Time) error {
	if s.sender == nil {
		return nil
	}

	local := now.In(s.cfg.Timezone)
	if !s.cfg.DigestWeekdays[local.Weekday()] {
		return nil
	}

	subscribers, err := s.storage.ListDigestSubscribers()
	if err != nil {
		return fmt.Errorf("list digest subscribers: %w", err)
	}

	minute := local.Format("15:04")
	for _, sub := range subscribers {
		if normalizeTimeOfDay(sub.TimeOfDay) != minute {
			continue
		}

		reminders, err := s.reminderService.ListDueToday(sub.OwnerID, local)
		if err != nil {
			log.Printf("Error fetching digest for %d: %v", sub.OwnerID, err)
			continue
		}

		text := s.reminderService.FormatDigest(reminders)
		if err := s.sender.SendMessage(sub.OwnerID, text); err != nil {
			log.Printf("Error sending digest to %d: %v", sub.OwnerID, err)
		}
	}
	return nil
}

// normalizeTimeOfDay tolerates legacy "HH:MM:SS" values stored by earlier
// versions of the settings table.
func normalizeTimeOfDay(v string) string {
	if len(v) > 5 {
		return v[:5]
	}
	return v
}
