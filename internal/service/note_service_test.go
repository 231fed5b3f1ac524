package service

import (
	"strings"
	"testing"

	"github.com/clusivai/clusivai/internal/domain"
	"github.com/clusivai/clusivai/internal/storage"
)

func newTestNoteService(t *testing.T) *NoteService {
	t.Helper()
	store, err := storage.NewInMemory()
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewNoteService(store)
}

func TestNoteCreateAndList(t *testing.T) {
	svc := newTestNoteService(t)

	if _, err := svc.Create(1, "   "); err == nil {
		t.Fatal("expected error for empty content")
	}

	n, err := svc.Create(1, "cumpleaños de Ana: 14 de junio")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if n.ID == 0 {
		t.Fatal("expected assigned ID")
	}

	notes, err := svc.List(1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notes) != 1 || notes[0].Content != "cumpleaños de Ana: 14 de junio" {
		t.Fatalf("unexpected notes: %+v", notes)
	}
}

func TestNoteFormatList(t *testing.T) {
	svc := newTestNoteService(t)

	if got := svc.FormatList(nil); !strings.Contains(got, "No tienes notas") {
		t.Fatalf("unexpected empty-state text: %q", got)
	}

	text := svc.FormatList([]*domain.Note{{ID: 3, Content: "clave wifi"}})
	if !strings.Contains(text, "#3") || !strings.Contains(text, "clave wifi") {
		t.Fatalf("unexpected list text: %q", text)
	}
}
