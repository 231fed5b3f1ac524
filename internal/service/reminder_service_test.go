package service

import (
	"strings"
	"testing"
	"time"

	"github.com/clusivai/clusivai/internal/domain"
	"github.com/clusivai/clusivai/internal/recurrence"
	"github.com/clusivai/clusivai/internal/storage"
)

func newTestService(t *testing.T) *ReminderService {
	t.Helper()
	store, err := storage.NewInMemory()
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewReminderService(store, recurrence.New(time.UTC), time.UTC)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Create(1, "   ", "2025-03-10 09:00:00", "", ""); err == nil {
		t.Fatal("expected error for empty message")
	}
	if _, err := svc.Create(1, "ok", "mañana a las nueve", "", ""); err == nil {
		t.Fatal("expected error for unparseable date")
	}
	if _, err := svc.Create(1, "ok", "2025-03-10 09:00:00", "FREQ=SOMETIMES", ""); err == nil {
		t.Fatal("expected error for malformed recurrence")
	}
}

func TestCreateAndListPending(t *testing.T) {
	svc := newTestService(t)

	r, err := svc.Create(1, "pagar la luz", "2025-03-10 09:00:00", "FREQ=MONTHLY", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.ID == 0 {
		t.Fatal("expected assigned ID")
	}
	if !r.IsRecurring() {
		t.Fatal("expected recurring reminder")
	}

	pending, err := svc.ListPending(1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 || pending[0].Message != "pagar la luz" {
		t.Fatalf("unexpected pending: %+v", pending)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	svc := newTestService(t)

	msg := "nuevo texto"
	ok, err := svc.Update(1, 404, &msg, nil, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if ok {
		t.Fatal("unknown id must report false")
	}
}

func TestUpdateRejectsBadInputs(t *testing.T) {
	svc := newTestService(t)
	r, err := svc.Create(1, "cita", "2025-03-10 09:00:00", "", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	bad := "no es una fecha"
	if _, err := svc.Update(1, r.ID, nil, &bad, nil); err == nil {
		t.Fatal("expected error for unparseable date")
	}

	rule := "FREQ=SOMETIMES"
	if _, err := svc.Update(1, r.ID, nil, nil, &rule); err == nil {
		t.Fatal("expected error for malformed recurrence")
	}
}

func TestListDueTodayBounds(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Create(1, "hoy temprano", "2025-03-10 00:00:00", "", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(1, "hoy tarde", "2025-03-10 23:59:59", "", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(1, "mañana", "2025-03-11 00:00:00", "", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	got, err := svc.ListDueToday(1, now)
	if err != nil {
		t.Fatalf("list due today: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 reminders today, got %d", len(got))
	}
}

func TestFormatList(t *testing.T) {
	svc := newTestService(t)

	if got := svc.FormatList(nil); !strings.Contains(got, "No tienes recordatorios") {
		t.Fatalf("unexpected empty-state text: %q", got)
	}

	r, err := svc.Create(1, "gimnasio", "2025-03-10 18:00:00", "FREQ=WEEKLY;BYDAY=MO", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	text := svc.FormatList([]*domain.Reminder{r})
	if !strings.Contains(text, "#") || !strings.Contains(text, "gimnasio") || !strings.Contains(text, "🔁") {
		t.Fatalf("unexpected list text: %q", text)
	}
}

func TestFormatDigest(t *testing.T) {
	svc := newTestService(t)

	if got := svc.FormatDigest(nil); !strings.Contains(got, "No tienes recordatorios") {
		t.Fatalf("unexpected empty digest: %q", got)
	}

	r, err := svc.Create(1, "reunión", "2025-03-10 10:30:00", "", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	text := svc.FormatDigest([]*domain.Reminder{r})
	if !strings.Contains(text, "10:30") || !strings.Contains(text, "reunión") {
		t.Fatalf("unexpected digest text: %q", text)
	}
}
