package bot

import (
	"context"
	"fmt"
	"log"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/clusivai/clusivai/config"
	"github.com/clusivai/clusivai/internal/brain"
	"github.com/clusivai/clusivai/internal/domain"
	"github.com/clusivai/clusivai/internal/service"
	"github.com/clusivai/clusivai/internal/storage"
)

type Bot struct {
	api             *tgbotapi.BotAPI
	cfg             *config.Config
	storage         *storage.Storage
	reminderService *service.ReminderService
	noteService     *service.NoteService
	brainClient     *brain.Client
	history         *historyStore
	server          *http.Server
}

func New(cfg *config.Config, store *storage.Storage, reminderSvc *service.ReminderService, noteSvc *service.NoteService, brainClient *brain.Client) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("Authorized as @%s", api.Self.UserName)

	return &Bot{
		api:             api,
		cfg:             cfg,
		storage:         store,
		reminderService: reminderSvc,
		noteService:     noteSvc,
		brainClient:     brainClient,
		history:         newHistoryStore(),
	}, nil
}

// RecordAlert feeds a delivered alert into the conversation context so the
// scheduler's notifications are visible to follow-up messages.
func (b *Bot) RecordAlert(ownerID, reminderID int64, text string) {
	b.history.RecordAlert(ownerID, reminderID, text)
}

func (b *Bot) SetupWebhook() error {
	if b.cfg.WebhookURL == "" {
		return nil // long polling
	}

	wh, err := tgbotapi.NewWebhook(b.cfg.WebhookURL + "/bot")
	if err != nil {
		return fmt.Errorf("create webhook: %w", err)
	}

	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	info, err := b.api.GetWebhookInfo()
	if err != nil {
		return fmt.Errorf("get webhook info: %w", err)
	}
	if info.LastErrorDate != 0 {
		log.Printf("Webhook last error: %s", info.LastErrorMessage)
	}

	log.Printf("Webhook set to: %s/bot", b.cfg.WebhookURL)
	return nil
}

func (b *Bot) Start(ctx context.Context) error {
	var updates tgbotapi.UpdatesChannel
	if b.cfg.WebhookURL != "" {
		updates = b.api.ListenForWebhook("/bot")
	} else {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 30
		updates = b.api.GetUpdatesChan(u)
	}

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	b.SetupAPI()

	b.server = &http.Server{
		Addr:    ":" + b.cfg.ServerPort,
		Handler: nil, // use DefaultServeMux
	}

	go func() {
		log.Printf("Starting HTTP server on :%s", b.cfg.ServerPort)
		if err := b.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-updates:
			go b.handleUpdate(update)
		}
	}
}

func (b *Bot) Stop(ctx context.Context) error {
	if b.server != nil {
		return b.server.Shutdown(ctx)
	}
	return nil
}

func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}

// SendReminderAlert delivers a due reminder: the alert text, the attached
// photo when present, and a button into the web view to reschedule it.
func (b *Bot) SendReminderAlert(chatID int64, r *domain.Reminder) error {
	text := fmt.Sprintf("⏰ ¡HOLA! Tienes este recordatorio pendiente:\n\n📌 %s", r.Message)

	if r.ImageFileID != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(r.ImageFileID))
		photo.Caption = text
		photo.ReplyMarkup = b.reprogramKeyboard(r)
		_, err := b.api.Send(photo)
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = b.reprogramKeyboard(r)
	_, err := b.api.Send(msg)
	return err
}

// reprogramKeyboard builds the "reschedule" affordance attached to every
// alert. Without a configured web view it degrades to no keyboard.
func (b *Bot) reprogramKeyboard(r *domain.Reminder) any {
	if b.cfg.WebAppURL == "" {
		return nil
	}
	url := fmt.Sprintf("%s?user_id=%d&id=%d", b.cfg.WebAppURL, r.OwnerID, r.ID)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📅 Reprogramar", url),
		),
	)
}
