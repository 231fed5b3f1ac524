package bot

import (
	"fmt"
	"strings"
	"testing"
)

func TestHistoryAppendAndSnapshot(t *testing.T) {
	h := newHistoryStore()

	h.Append(1, "user", "hola")
	h.Append(1, "assistant", `{"action":"CHAT"}`)
	h.Append(2, "user", "otro chat")

	snap := h.Snapshot(1)
	if len(snap) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap))
	}
	if snap[0].Role != "user" || snap[0].Content != "hola" {
		t.Fatalf("unexpected first entry: %+v", snap[0])
	}

	// Snapshot is a copy; mutating it must not touch the store.
	snap[0].Content = "mutado"
	if h.Snapshot(1)[0].Content != "hola" {
		t.Fatal("snapshot must not alias the store")
	}
}

func TestHistoryBounded(t *testing.T) {
	h := newHistoryStore()

	for i := 0; i < maxHistoryEntries+5; i++ {
		h.Append(1, "user", fmt.Sprintf("mensaje %d", i))
	}

	snap := h.Snapshot(1)
	if len(snap) != maxHistoryEntries {
		t.Fatalf("expected %d entries, got %d", maxHistoryEntries, len(snap))
	}
	if snap[0].Content != "mensaje 5" {
		t.Fatalf("oldest entries must be dropped, got %q", snap[0].Content)
	}
}

func TestHistoryReset(t *testing.T) {
	h := newHistoryStore()
	h.Append(1, "user", "hola")
	h.Reset(1)

	if len(h.Snapshot(1)) != 0 {
		t.Fatal("expected empty history after reset")
	}
}

func TestHistoryRecordAlert(t *testing.T) {
	h := newHistoryStore()
	h.RecordAlert(1, 42, "tomar pastillas")

	snap := h.Snapshot(1)
	if len(snap) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(snap))
	}
	if snap[0].Role != "assistant" {
		t.Fatalf("alert record must be an assistant entry, got %q", snap[0].Role)
	}
	if !strings.Contains(snap[0].Content, "ALERT_DELIVERED") || !strings.Contains(snap[0].Content, "42") {
		t.Fatalf("unexpected alert record: %q", snap[0].Content)
	}
}
