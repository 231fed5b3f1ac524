package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clusivai/clusivai/config"
	"github.com/clusivai/clusivai/internal/bot"
	"github.com/clusivai/clusivai/internal/brain"
	"github.com/clusivai/clusivai/internal/recurrence"
	"github.com/clusivai/clusivai/internal/scheduler"
	"github.com/clusivai/clusivai/internal/service"
	"github.com/clusivai/clusivai/internal/storage"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}
	defer store.Close()

	resolver := recurrence.New(cfg.Timezone)
	reminderSvc := service.NewReminderService(store, resolver, cfg.Timezone)
	noteSvc := service.NewNoteService(store)
	brainClient := brain.New(cfg.OpenRouterAPIKey, cfg.ModelName, cfg.Timezone)

	tgBot, err := bot.New(cfg, store, reminderSvc, noteSvc, brainClient)
	if err != nil {
		log.Fatalf("Failed to init bot: %v", err)
	}

	if err := tgBot.SetupWebhook(); err != nil {
		log.Fatalf("Failed to setup webhook: %v", err)
	}

	sched := scheduler.New(cfg, store, reminderSvc, resolver)
	sched.SetSender(tgBot)
	sched.SetRecorder(tgBot)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := sched.Start(ctx); err != nil {
			log.Printf("Scheduler error: %v", err)
		}
	}()

	go func() {
		if err := tgBot.Start(ctx); err != nil {
			log.Printf("Bot error: %v", err)
		}
	}()

	log.Println("Clusivai started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")

	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := tgBot.Stop(shutdownCtx); err != nil {
		log.Printf("Error stopping bot: %v", err)
	}

	log.Println("Clusivai stopped")
}
