package domain

// UserSetting holds the per-user daily digest subscription.
// Rows are upserted on change and never deleted.
type UserSetting struct {
	OwnerID   int64
	Enabled   bool
	TimeOfDay string // civil wall-clock "HH:MM"
}
