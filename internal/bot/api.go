package bot

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/emersion/go-ical"

	"github.com/clusivai/clusivai/internal/domain"
)

// APIResponse is the JSON envelope for every facade endpoint. Store errors
// are never exposed verbatim; the error field carries a generic message.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type ReminderResponse struct {
	ID         int64  `json:"id"`
	Message    string `json:"message"`
	Date       string `json:"date"`
	Recurrence string `json:"recurrence,omitempty"`
	HasImage   bool   `json:"has_image"`
}

type NoteResponse struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type reprogramRequest struct {
	UserID     int64   `json:"user_id"`
	ID         int64   `json:"id"`
	Message    string  `json:"message"`
	Date       string  `json:"date"`
	Recurrence *string `json:"recurrence"` // nil leaves the rule untouched
}

type deleteRequest struct {
	UserID int64 `json:"user_id"`
	ID     int64 `json:"id"`
}

type noteUpdateRequest struct {
	UserID  int64  `json:"user_id"`
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

// SetupAPI registers the web view's facade routes.
func (b *Bot) SetupAPI() {
	http.HandleFunc("/api/reminders", b.withAPIAccess(b.apiReminders))
	http.HandleFunc("/api/reprogram", b.withAPIAccess(b.apiReprogram))
	http.HandleFunc("/api/delete", b.withAPIAccess(b.apiDelete))
	http.HandleFunc("/api/notes", b.withAPIAccess(b.apiNotes))
	http.HandleFunc("/api/notes/update", b.withAPIAccess(b.apiNoteUpdate))
	http.HandleFunc("/api/notes/delete", b.withAPIAccess(b.apiNoteDelete))
	http.HandleFunc("/api/calendar.ics", b.withAPIAccess(b.apiCalendarFeed))
}

// withAPIAccess applies CORS for the web view and, when credentials are
// configured, Basic Auth.
func (b *Bot) withAPIAccess(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if b.cfg.APIUsername != "" && b.cfg.APIPassword != "" {
			username, password, ok := r.BasicAuth()
			if !ok || username != b.cfg.APIUsername || password != b.cfg.APIPassword {
				w.Header().Set("WWW-Authenticate", `Basic realm="Clusivai API"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func queryUserID(r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// GET /api/reminders?user_id= — pending reminders for the web view.
func (b *Bot) apiReminders(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUserID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: "Missing user_id"})
		return
	}

	reminders, err := b.reminderService.ListPending(userID)
	if err != nil {
		log.Printf("API: list reminders: %v", err)
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Error: "Internal error"})
		return
	}

	out := make([]ReminderResponse, 0, len(reminders))
	for _, rem := range reminders {
		out = append(out, ReminderResponse{
			ID:         rem.ID,
			Message:    rem.Message,
			Date:       rem.RemindAt.In(b.cfg.Timezone).Format(domain.DateLayout),
			Recurrence: rem.Recurrence,
			HasImage:   rem.ImageFileID != "",
		})
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

// POST /api/reprogram — update text/date/recurrence and notify the user.
func (b *Bot) apiReprogram(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, APIResponse{Success: false, Error: "POST only"})
		return
	}

	var req reprogramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: "Invalid JSON"})
		return
	}
	if req.UserID == 0 || req.ID == 0 || req.Message == "" || req.Date == "" {
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: "Missing data"})
		return
	}

	ok, err := b.reminderService.Update(req.UserID, req.ID, &req.Message, &req.Date, req.Recurrence)
	if err != nil {
		log.Printf("API: reprogram %d: %v", req.ID, err)
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Error: "Database update failed"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, APIResponse{Success: false, Error: "Reminder not found"})
		return
	}

	notice := fmt.Sprintf("✅ ¡Hecho! Recordatorio #%d actualizado con éxito:\n📌 %s\n📅 %s", req.ID, req.Message, req.Date)
	if err := b.SendMessage(req.UserID, notice); err != nil {
		log.Printf("API: notify reprogram to %d: %v", req.UserID, err)
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

// POST /api/delete — remove a reminder and notify the user.
func (b *Bot) apiDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, APIResponse{Success: false, Error: "POST only"})
		return
	}

	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: "Invalid JSON"})
		return
	}
	if req.UserID == 0 || req.ID == 0 {
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: "Missing data"})
		return
	}

	ok, err := b.reminderService.DeleteByID(req.UserID, req.ID)
	if err != nil {
		log.Printf("API: delete %d: %v", req.ID, err)
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Error: "Internal error"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, APIResponse{Success: false, Error: "Reminder not found"})
		return
	}

	notice := fmt.Sprintf("🗑️ Recordatorio #%d eliminado correctamente.", req.ID)
	if err := b.SendMessage(req.UserID, notice); err != nil {
		log.Printf("API: notify delete to %d: %v", req.UserID, err)
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

// GET /api/notes?user_id=
func (b *Bot) apiNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUserID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: "Missing user_id"})
		return
	}

	notes, err := b.noteService.List(userID)
	if err != nil {
		log.Printf("API: list notes: %v", err)
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Error: "Internal error"})
		return
	}

	out := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, NoteResponse{
			ID:        n.ID,
			Content:   n.Content,
			CreatedAt: n.CreatedAt.In(b.cfg.Timezone).Format(domain.DateLayout),
			UpdatedAt: n.UpdatedAt.In(b.cfg.Timezone).Format(domain.DateLayout),
		})
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

// POST /api/notes/update
func (b *Bot) apiNoteUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, APIResponse{Success: false, Error: "POST only"})
		return
	}

	var req noteUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: "Invalid JSON"})
		return
	}
	if req.UserID == 0 || req.ID == 0 || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: "Missing data"})
		return
	}

	ok, err := b.noteService.Update(req.UserID, req.ID, req.Content)
	if err != nil {
		log.Printf("API: update note %d: %v", req.ID, err)
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Error: "Internal error"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, APIResponse{Success: false, Error: "Note not found"})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

// POST /api/notes/delete
func (b *Bot) apiNoteDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, APIResponse{Success: false, Error: "POST only"})
		return
	}

	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: "Invalid JSON"})
		return
	}
	if req.UserID == 0 || req.ID == 0 {
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: "Missing data"})
		return
	}

	ok, err := b.noteService.Delete(req.UserID, req.ID)
	if err != nil {
		log.Printf("API: delete note %d: %v", req.ID, err)
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Error: "Internal error"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, APIResponse{Success: false, Error: "Note not found"})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

// GET /api/calendar.ics?user_id= — iCalendar feed of pending reminders so
// the web view can recalendar them in any calendar client.
func (b *Bot) apiCalendarFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUserID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: "Missing user_id"})
		return
	}

	reminders, err := b.reminderService.ListPending(userID)
	if err != nil {
		log.Printf("API: calendar feed: %v", err)
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Error: "Internal error"})
		return
	}

	cal := remindersToICS(reminders)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		log.Printf("API: encode calendar feed: %v", err)
	}
}

func remindersToICS(reminders []*domain.Reminder) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//Clusivai//Reminders//ES")

	for _, r := range reminders {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, fmt.Sprintf("reminder-%d@clusivai", r.ID))
		event.Props.SetText(ical.PropSummary, r.Message)
		event.Props.SetDateTime(ical.PropDateTimeStart, r.RemindAt.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
		if r.Recurrence != "" {
			event.Props.SetText(ical.PropRecurrenceRule, r.Recurrence)
		}
		cal.Children = append(cal.Children, event.Component)
	}
	return cal
}
