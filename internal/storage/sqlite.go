package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/clusivai/clusivai/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

type Storage struct {
	db *sql.DB
}

// memDBSeq distinguishes in-memory test databases from each other.
var memDBSeq int64

func New(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// NewInMemory opens a throwaway database, used by tests. The database is
// named and cache-shared so every pooled connection sees the same data;
// a bare :memory: DSN would give each connection its own empty database.
func NewInMemory() (*Storage, error) {
	dsn := fmt.Sprintf("file:mem%d?mode=memory&cache=shared&_foreign_keys=on", atomic.AddInt64(&memDBSeq, 1))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS reminders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			message TEXT NOT NULL,
			remind_at DATETIME NOT NULL,
			recurrence TEXT DEFAULT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_user_id ON reminders(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(status, remind_at)`,
		`CREATE TABLE IF NOT EXISTS user_settings (
			user_id INTEGER PRIMARY KEY,
			daily_summary_enabled INTEGER DEFAULT 0,
			daily_summary_time TEXT DEFAULT '07:45'
		)`,
		`CREATE TABLE IF NOT EXISTS notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_user_id ON notes(user_id)`,
		// Photo attachments for reminders
		`ALTER TABLE reminders ADD COLUMN image_file_id TEXT DEFAULT ''`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// Ignore "duplicate column" errors for ALTER TABLE
			if !strings.Contains(err.Error(), "duplicate column") {
				return fmt.Errorf("exec migration: %w", err)
			}
		}
	}
	return nil
}

const reminderColumns = `id, user_id, message, remind_at, COALESCE(recurrence, ''), status, COALESCE(image_file_id, ''), created_at`

func scanReminder(row interface{ Scan(...any) error }) (*domain.Reminder, error) {
	r := &domain.Reminder{}
	err := row.Scan(&r.ID, &r.OwnerID, &r.Message, &r.RemindAt, &r.Recurrence, &r.Status, &r.ImageFileID, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// === Reminders ===

func (s *Storage) CreateReminder(r *domain.Reminder) error {
	if r.Status == "" {
		r.Status = domain.StatusPending
	}
	res, err := s.db.Exec(
		`INSERT INTO reminders (user_id, message, remind_at, recurrence, status, image_file_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.OwnerID, r.Message, r.RemindAt, nullString(r.Recurrence), r.Status, r.ImageFileID,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	r.ID = id
	r.CreatedAt = time.Now()
	return nil
}

func (s *Storage) GetReminder(ownerID, id int64) (*domain.Reminder, error) {
	row := s.db.QueryRow(
		`SELECT `+reminderColumns+` FROM reminders WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	r, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// ListPendingReminders returns the owner's pending reminders in insertion order.
func (s *Storage) ListPendingReminders(ownerID int64) ([]*domain.Reminder, error) {
	rows, err := s.db.Query(
		`SELECT `+reminderColumns+` FROM reminders WHERE user_id = ? AND status = 'pending' ORDER BY id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReminders(rows)
}

// ListDueReminders returns every pending reminder across all owners whose
// due time has passed. Rows re-armed past now during a pass drop out of the
// WHERE clause, so a second call at the same instant cannot return them.
func (s *Storage) ListDueReminders(now time.Time) ([]*domain.Reminder, error) {
	rows, err := s.db.Query(
		`SELECT `+reminderColumns+` FROM reminders WHERE status = 'pending' AND remind_at <= ?`,
		now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReminders(rows)
}

// ListDueToday returns the owner's pending reminders inside [start, end],
// ordered by due time.
func (s *Storage) ListDueToday(ownerID int64, start, end time.Time) ([]*domain.Reminder, error) {
	rows, err := s.db.Query(
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE user_id = ? AND status = 'pending' AND remind_at >= ? AND remind_at <= ?
		 ORDER BY remind_at ASC`,
		ownerID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReminders(rows)
}

// UpdateReminder applies only the provided fields in a single UPDATE
// statement. A new due time always reactivates the reminder. Returns false
// when nothing was provided or no row matched the owner/id pair.
func (s *Storage) UpdateReminder(ownerID, id int64, message *string, remindAt *time.Time, recurrence *string) (bool, error) {
	var sets []string
	var args []any

	if message != nil {
		sets = append(sets, "message = ?")
		args = append(args, *message)
	}
	if remindAt != nil {
		sets = append(sets, "remind_at = ?", "status = 'pending'")
		args = append(args, *remindAt)
	}
	if recurrence != nil {
		sets = append(sets, "recurrence = ?")
		args = append(args, nullString(*recurrence))
	}
	if len(sets) == 0 {
		return false, nil
	}

	args = append(args, id, ownerID)
	res, err := s.db.Exec(
		`UPDATE reminders SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`,
		args...,
	)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *Storage) DeleteReminderByID(ownerID, id int64) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM reminders WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeleteRemindersByToken removes pending reminders matching a numeric ID or
// a case-insensitive substring of the message. Returns the number removed.
func (s *Storage) DeleteRemindersByToken(ownerID int64, token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, nil
	}

	var (
		res sql.Result
		err error
	)
	if id, convErr := strconv.ParseInt(token, 10, 64); convErr == nil {
		res, err = s.db.Exec(
			`DELETE FROM reminders WHERE user_id = ? AND id = ? AND status = 'pending'`,
			ownerID, id,
		)
	} else {
		res, err = s.db.Exec(
			`DELETE FROM reminders WHERE user_id = ? AND LOWER(message) LIKE LOWER(?) AND status = 'pending'`,
			ownerID, "%"+token+"%",
		)
	}
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RearmReminder advances a fired recurring reminder to its next occurrence.
// Due time, stored rule and status move together in one statement so a
// concurrent user update cannot observe a half-applied transition.
func (s *Storage) RearmReminder(id int64, nextAt time.Time, recurrence string) error {
	_, err := s.db.Exec(
		`UPDATE reminders SET remind_at = ?, recurrence = ?, status = 'pending' WHERE id = ?`,
		nextAt, nullString(recurrence), id,
	)
	return err
}

// MarkReminderSent retires a reminder with no further occurrences.
func (s *Storage) MarkReminderSent(id int64) error {
	_, err := s.db.Exec(`UPDATE reminders SET status = 'sent' WHERE id = ?`, id)
	return err
}

func collectReminders(rows *sql.Rows) ([]*domain.Reminder, error) {
	var reminders []*domain.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// === User settings ===

func (s *Storage) UpsertUserSetting(setting *domain.UserSetting) error {
	_, err := s.db.Exec(
		`INSERT INTO user_settings (user_id, daily_summary_enabled, daily_summary_time)
		 VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			daily_summary_enabled = excluded.daily_summary_enabled,
			daily_summary_time = excluded.daily_summary_time`,
		setting.OwnerID, setting.Enabled, setting.TimeOfDay,
	)
	return err
}

func (s *Storage) GetUserSetting(ownerID int64) (*domain.UserSetting, error) {
	setting := &domain.UserSetting{}
	err := s.db.QueryRow(
		`SELECT user_id, daily_summary_enabled, daily_summary_time FROM user_settings WHERE user_id = ?`,
		ownerID,
	).Scan(&setting.OwnerID, &setting.Enabled, &setting.TimeOfDay)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return setting, err
}

// ListDigestSubscribers returns every user with the daily digest enabled.
func (s *Storage) ListDigestSubscribers() ([]*domain.UserSetting, error) {
	rows, err := s.db.Query(
		`SELECT user_id, daily_summary_enabled, daily_summary_time
		 FROM user_settings WHERE daily_summary_enabled = 1`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []*domain.UserSetting
	for rows.Next() {
		setting := &domain.UserSetting{}
		if err := rows.Scan(&setting.OwnerID, &setting.Enabled, &setting.TimeOfDay); err != nil {
			return nil, err
		}
		settings = append(settings, setting)
	}
	return settings, rows.Err()
}

// === Notes ===

func (s *Storage) CreateNote(n *domain.Note) error {
	res, err := s.db.Exec(`INSERT INTO notes (user_id, content) VALUES (?, ?)`, n.OwnerID, n.Content)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	n.ID = id
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	return nil
}

func (s *Storage) ListNotesByOwner(ownerID int64) ([]*domain.Note, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, content, created_at, updated_at
		 FROM notes WHERE user_id = ? ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		n := &domain.Note{}
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *Storage) UpdateNote(ownerID, id int64, content string) (bool, error) {
	res, err := s.db.Exec(
		`UPDATE notes SET content = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		content, id, ownerID,
	)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *Storage) DeleteNote(ownerID, id int64) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM notes WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// nullString maps "" to NULL so the recurrence column keeps its original
// NULL-means-absent convention.
func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
