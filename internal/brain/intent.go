package brain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Action discriminates the structured intent extracted from a user message.
type Action string

const (
	ActionCreate       Action = "CREATE"
	ActionList         Action = "LIST"
	ActionDelete       Action = "DELETE"
	ActionUpdate       Action = "UPDATE"
	ActionChat         Action = "CHAT"
	ActionSetSetting   Action = "SET_SETTING"
	ActionConsultNotes Action = "CONSULT_NOTES"
	// ActionUnknown absorbs malformed or unrecognized actions so the caller
	// never has to handle a nil intent.
	ActionUnknown Action = "UNKNOWN"
)

// Intent is the validated output of the extractor. Only the fields relevant
// to each action are populated.
type Intent struct {
	Action     Action
	ID         *int64 // UPDATE/DELETE target, nil when absent or un-coercible
	Message    string
	Date       string // "YYYY-MM-DD HH:MM:SS" in the civil timezone
	Recurrence string // RRULE string or empty
	Reply      string // direct answer for conversational actions
	Enabled    *bool  // SET_SETTING digest toggle
	Time       string // SET_SETTING digest time "HH:MM"
}

// Message is one entry of the bounded conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type rawIntent struct {
	Action     string          `json:"action"`
	ID         json.RawMessage `json:"id"`
	Message    string          `json:"message"`
	Date       string          `json:"date"`
	Recurrence string          `json:"recurrence"`
	Reply      string          `json:"reply"`
	Enabled    *bool           `json:"enabled"`
	Time       string          `json:"time"`
}

// ParseIntent validates the model's raw completion into a tagged Intent.
// Markdown code fences are stripped first; the models wrap JSON in them
// despite instructions not to.
func ParseIntent(content string) (*Intent, error) {
	content = stripFences(content)

	var raw rawIntent
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("decode intent: %w", err)
	}

	intent := &Intent{
		Action:     ActionUnknown,
		ID:         coerceID(raw.ID),
		Message:    strings.TrimSpace(raw.Message),
		Date:       strings.TrimSpace(raw.Date),
		Recurrence: strings.TrimSpace(raw.Recurrence),
		Reply:      raw.Reply,
		Enabled:    raw.Enabled,
		Time:       strings.TrimSpace(raw.Time),
	}

	switch Action(strings.ToUpper(strings.TrimSpace(raw.Action))) {
	case ActionCreate:
		intent.Action = ActionCreate
	case ActionList:
		intent.Action = ActionList
	case ActionDelete:
		intent.Action = ActionDelete
	case ActionUpdate:
		intent.Action = ActionUpdate
	case ActionChat:
		intent.Action = ActionChat
	case ActionSetSetting:
		intent.Action = ActionSetSetting
	case ActionConsultNotes:
		intent.Action = ActionConsultNotes
	}
	return intent, nil
}

// coerceID accepts a JSON number or a numeric string; anything else is nil.
// Models emit an explicit null for unused fields, which must read as absent.
func coerceID(raw json.RawMessage) *int64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var asNumber int64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return &asNumber
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if n, err := strconv.ParseInt(strings.TrimSpace(asString), 10, 64); err == nil {
			return &n
		}
	}
	return nil
}

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
