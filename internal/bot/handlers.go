package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/clusivai/clusivai/internal/brain"
	"github.com/clusivai/clusivai/internal/domain"
)

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		b.handleMessage(update.Message)
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	text := strings.TrimSpace(msg.Text)
	imageFileID := ""
	if len(msg.Photo) > 0 {
		// Telegram sends several sizes; the last one is the largest.
		imageFileID = msg.Photo[len(msg.Photo)-1].FileID
		text = strings.TrimSpace(msg.Caption)
	}

	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}
	if text == "" {
		return
	}

	log.Printf("Message from %d: %s", chatID, text)
	b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))

	// Pending reminders ground the extractor so it only references real IDs.
	pending, err := b.reminderService.ListPending(chatID)
	if err != nil {
		log.Printf("Error listing reminders for context: %v", err)
	}

	intent, err := b.brainClient.Process(context.Background(), text, b.history.Snapshot(chatID), pending)
	if err != nil {
		log.Printf("Brain error for %d: %v", chatID, err)
		b.SendMessage(chatID, "Lo siento, tuve un problema con mi conexión cerebral. Inténtalo de nuevo.")
		// Drop the conversation so a corrupted exchange does not compound.
		b.history.Reset(chatID)
		return
	}

	reply := b.dispatch(chatID, intent, imageFileID)
	if reply != "" {
		if err := b.SendMessage(chatID, reply); err != nil {
			log.Printf("Error replying to %d: %v", chatID, err)
		}
	}

	b.history.Append(chatID, "user", text)
	if payload, err := json.Marshal(intent); err == nil {
		b.history.Append(chatID, "assistant", string(payload))
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.SendMessage(msg.Chat.ID, "👋 ¡Hola! Soy Clusivai. Puedo chatear contigo y gestionar tus recordatorios. ¡Pruébame!")
	default:
		b.SendMessage(msg.Chat.ID, "No conozco ese comando. Escríbeme en lenguaje natural.")
	}
}

// dispatch executes a validated intent and returns the user-facing reply.
func (b *Bot) dispatch(chatID int64, intent *brain.Intent, imageFileID string) string {
	switch intent.Action {
	case brain.ActionCreate:
		return b.handleCreate(chatID, intent, imageFileID)
	case brain.ActionList:
		return b.handleList(chatID)
	case brain.ActionDelete:
		return b.handleDelete(chatID, intent)
	case brain.ActionUpdate:
		return b.handleIntentUpdate(chatID, intent)
	case brain.ActionChat:
		return intent.Reply
	case brain.ActionSetSetting:
		return b.handleSetSetting(chatID, intent)
	case brain.ActionConsultNotes:
		return b.handleConsultNotes(chatID, intent)
	default:
		return "No estoy seguro de qué hacer. ¿Puedes repetirlo?"
	}
}

func (b *Bot) handleCreate(chatID int64, intent *brain.Intent, imageFileID string) string {
	if intent.Message == "" || intent.Date == "" {
		return "❌ Necesito la descripción y la fecha para crear el recordatorio."
	}

	reminder, err := b.reminderService.Create(chatID, intent.Message, intent.Date, intent.Recurrence, imageFileID)
	if err != nil {
		log.Printf("Error creating reminder for %d: %v", chatID, err)
		return "❌ No pude guardar el recordatorio. Revisa la fecha e inténtalo de nuevo."
	}

	reply := fmt.Sprintf("✅ ¡Perfecto! He guardado tu recordatorio:\n\n📍 %s\n📅 %s", reminder.Message, intent.Date)
	if reminder.IsRecurring() {
		reply += fmt.Sprintf("\n🔁 %s", reminder.Recurrence)
	}
	if reminder.ImageFileID != "" {
		reply += "\n🖼 Con imagen adjunta"
	}
	return reply
}

func (b *Bot) handleList(chatID int64) string {
	reminders, err := b.reminderService.ListPending(chatID)
	if err != nil {
		log.Printf("Error listing reminders for %d: %v", chatID, err)
		return "❌ No pude consultar tus recordatorios."
	}
	return b.reminderService.FormatList(reminders)
}

func (b *Bot) handleDelete(chatID int64, intent *brain.Intent) string {
	token := intent.Message
	if intent.ID != nil {
		token = strconv.FormatInt(*intent.ID, 10)
	}
	if strings.TrimSpace(token) == "" {
		return "❌ Dime cuál recordatorio quieres eliminar (ID o parte del texto)."
	}

	count, err := b.reminderService.DeleteByToken(chatID, token)
	if err != nil {
		log.Printf("Error deleting reminders for %d: %v", chatID, err)
		return "❌ No pude eliminar el recordatorio."
	}
	if count == 0 {
		return fmt.Sprintf("No encontré ningún recordatorio activo que coincida con '%s'.", token)
	}
	return fmt.Sprintf("🗑️ He eliminado %d recordatorio(s) relacionado(s) con '%s'.", count, token)
}

func (b *Bot) handleIntentUpdate(chatID int64, intent *brain.Intent) string {
	if intent.ID == nil {
		return "❌ No pude identificar qué recordatorio deseas modificar. ¿Cuál es el ID?"
	}

	var message, date, rule *string
	if intent.Message != "" {
		message = &intent.Message
	}
	if intent.Date != "" {
		date = &intent.Date
	}
	if intent.Recurrence != "" {
		rule = &intent.Recurrence
	}
	if message == nil && date == nil && rule == nil {
		return "❌ Necesito saber qué quieres cambiar (la descripción, la fecha/hora, o ambas)."
	}

	ok, err := b.reminderService.Update(chatID, *intent.ID, message, date, rule)
	if err != nil {
		log.Printf("Error updating reminder %d for %d: %v", *intent.ID, chatID, err)
		return "❌ No pude actualizar el recordatorio. Revisa la fecha e inténtalo de nuevo."
	}
	if !ok {
		return fmt.Sprintf("❌ No encontré un recordatorio activo con ID %d.", *intent.ID)
	}

	var changes []string
	if message != nil {
		changes = append(changes, "descripción: "+*message)
	}
	if date != nil {
		changes = append(changes, "fecha/hora: "+*date)
	}
	if rule != nil {
		changes = append(changes, "repetición: "+*rule)
	}
	return fmt.Sprintf("✏️ ¡Listo! He actualizado el recordatorio #%d:\n- %s", *intent.ID, strings.Join(changes, " y "))
}

func (b *Bot) handleSetSetting(chatID int64, intent *brain.Intent) string {
	if intent.Enabled == nil {
		return "❌ No entendí si quieres activar o desactivar el resumen diario."
	}

	timeOfDay := intent.Time
	if timeOfDay == "" {
		timeOfDay = "07:45"
	}

	setting := &domain.UserSetting{OwnerID: chatID, Enabled: *intent.Enabled, TimeOfDay: timeOfDay}
	if err := b.storage.UpsertUserSetting(setting); err != nil {
		log.Printf("Error upserting setting for %d: %v", chatID, err)
		return "❌ No pude guardar tu preferencia."
	}

	if *intent.Enabled {
		return fmt.Sprintf("🔔 Resumen diario activado a las %s.", timeOfDay)
	}
	return "🔕 Resumen diario desactivado."
}

func (b *Bot) handleConsultNotes(chatID int64, intent *brain.Intent) string {
	if intent.Message != "" {
		note, err := b.noteService.Create(chatID, intent.Message)
		if err != nil {
			log.Printf("Error creating note for %d: %v", chatID, err)
			return "❌ No pude guardar la nota."
		}
		return fmt.Sprintf("🗒 Nota #%d guardada:\n%s", note.ID, note.Content)
	}

	notes, err := b.noteService.List(chatID)
	if err != nil {
		log.Printf("Error listing notes for %d: %v", chatID, err)
		return "❌ No pude consultar tus notas."
	}
	return b.noteService.FormatList(notes)
}
