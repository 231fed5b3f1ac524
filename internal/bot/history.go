package bot

import (
	"encoding/json"
	"sync"

	"github.com/clusivai/clusivai/internal/brain"
)

// maxHistoryEntries bounds the per-user conversation context handed to the
// intent extractor. Oldest entries are dropped first.
const maxHistoryEntries = 16

// historyStore keeps the bounded per-user conversation context in memory.
// It is deliberately not persisted; a restart starts a fresh conversation.
type historyStore struct {
	mu      sync.Mutex
	entries map[int64][]brain.Message
}

func newHistoryStore() *historyStore {
	return &historyStore{entries: make(map[int64][]brain.Message)}
}

func (h *historyStore) Append(ownerID int64, role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := append(h.entries[ownerID], brain.Message{Role: role, Content: content})
	if len(entries) > maxHistoryEntries {
		entries = entries[len(entries)-maxHistoryEntries:]
	}
	h.entries[ownerID] = entries
}

// Snapshot returns a copy of the owner's history safe to read concurrently.
func (h *historyStore) Snapshot(ownerID int64) []brain.Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := h.entries[ownerID]
	out := make([]brain.Message, len(entries))
	copy(out, entries)
	return out
}

// Reset drops the owner's history, used when the extractor fails so a
// corrupted exchange does not compound.
func (h *historyStore) Reset(ownerID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.entries, ownerID)
}

// RecordAlert appends a synthetic assistant entry for a delivered reminder
// so follow-ups like "pospón eso" resolve to the right ID.
func (h *historyStore) RecordAlert(ownerID, reminderID int64, text string) {
	payload, err := json.Marshal(map[string]any{
		"action":  "ALERT_DELIVERED",
		"id":      reminderID,
		"message": text,
	})
	if err != nil {
		return
	}
	h.Append(ownerID, "assistant", string(payload))
}
