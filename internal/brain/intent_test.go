package brain

import "testing"

func TestParseIntentCreate(t *testing.T) {
	intent, err := ParseIntent(`{
		"action": "CREATE",
		"message": "comprar leche",
		"date": "2025-03-10 09:00:00",
		"recurrence": "FREQ=DAILY",
		"reply": "¡Listo!"
	}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if intent.Action != ActionCreate {
		t.Fatalf("expected CREATE, got %q", intent.Action)
	}
	if intent.Message != "comprar leche" || intent.Date != "2025-03-10 09:00:00" {
		t.Fatalf("unexpected fields: %+v", intent)
	}
	if intent.Recurrence != "FREQ=DAILY" {
		t.Fatalf("unexpected recurrence: %q", intent.Recurrence)
	}
}

func TestParseIntentIDCoercion(t *testing.T) {
	intent, err := ParseIntent(`{"action": "DELETE", "id": 12}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if intent.ID == nil || *intent.ID != 12 {
		t.Fatalf("expected id 12, got %v", intent.ID)
	}

	intent, err = ParseIntent(`{"action": "UPDATE", "id": "34"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if intent.ID == nil || *intent.ID != 34 {
		t.Fatalf("expected id 34 from string, got %v", intent.ID)
	}

	intent, err = ParseIntent(`{"action": "UPDATE", "id": "el primero"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if intent.ID != nil {
		t.Fatalf("non-numeric id must coerce to nil, got %v", *intent.ID)
	}
}

func TestParseIntentNullID(t *testing.T) {
	// An explicit null id must read as absent so delete-by-message still works.
	intent, err := ParseIntent(`{"action": "DELETE", "id": null, "message": "comprar leche"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if intent.ID != nil {
		t.Fatalf("null id must coerce to nil, got %v", *intent.ID)
	}
	if intent.Message != "comprar leche" {
		t.Fatalf("message must survive, got %q", intent.Message)
	}
}

func TestParseIntentStripsFences(t *testing.T) {
	intent, err := ParseIntent("```json\n{\"action\": \"LIST\"}\n```")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if intent.Action != ActionList {
		t.Fatalf("expected LIST, got %q", intent.Action)
	}
}

func TestParseIntentUnknownAction(t *testing.T) {
	intent, err := ParseIntent(`{"action": "DANCE", "reply": "ok"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if intent.Action != ActionUnknown {
		t.Fatalf("expected UNKNOWN, got %q", intent.Action)
	}
	if intent.Reply != "ok" {
		t.Fatalf("reply must survive, got %q", intent.Reply)
	}
}

func TestParseIntentCaseInsensitiveAction(t *testing.T) {
	intent, err := ParseIntent(`{"action": "chat", "reply": "hola"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if intent.Action != ActionChat {
		t.Fatalf("expected CHAT, got %q", intent.Action)
	}
}

func TestParseIntentSetSetting(t *testing.T) {
	intent, err := ParseIntent(`{"action": "SET_SETTING", "enabled": true, "time": "08:30"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if intent.Action != ActionSetSetting {
		t.Fatalf("expected SET_SETTING, got %q", intent.Action)
	}
	if intent.Enabled == nil || !*intent.Enabled {
		t.Fatalf("expected enabled=true, got %v", intent.Enabled)
	}
	if intent.Time != "08:30" {
		t.Fatalf("expected time 08:30, got %q", intent.Time)
	}
}

func TestParseIntentMalformed(t *testing.T) {
	if _, err := ParseIntent("lo siento, no entendí"); err == nil {
		t.Fatal("expected error for non-JSON content")
	}
}
