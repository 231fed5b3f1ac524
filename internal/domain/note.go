package domain

import "time"

// Note is undated free-text storage, independent of the reminder lifecycle.
type Note struct {
	ID        int64
	OwnerID   int64
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
