package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken    string
	OpenRouterAPIKey string
	ModelName        string
	DatabasePath     string
	Timezone         *time.Location
	ServerPort       string
	WebhookURL       string // empty means long polling
	WebAppURL        string
	DigestWeekdays   map[time.Weekday]bool
	APIUsername      string
	APIPassword      string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/reminders.db"
	}

	tzName := os.Getenv("TIMEZONE")
	if tzName == "" {
		tzName = "America/Bogota"
	}
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	model := os.Getenv("MODEL_NAME")
	if model == "" {
		model = "openai/gpt-4o-mini"
	}

	weekdays, err := parseWeekdays(os.Getenv("DIGEST_WEEKDAYS"))
	if err != nil {
		return nil, fmt.Errorf("invalid DIGEST_WEEKDAYS: %w", err)
	}

	return &Config{
		TelegramToken:    token,
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		ModelName:        model,
		DatabasePath:     dbPath,
		Timezone:         tz,
		ServerPort:       serverPort,
		WebhookURL:       os.Getenv("WEBHOOK_URL"),
		WebAppURL:        os.Getenv("WEBAPP_URL"),
		DigestWeekdays:   weekdays,
		APIUsername:      os.Getenv("API_USERNAME"),
		APIPassword:      os.Getenv("API_PASSWORD"),
	}, nil
}

// parseWeekdays reads a comma-separated list of weekday numbers (0=Sunday).
// Empty input defaults to Monday through Friday.
func parseWeekdays(raw string) (map[time.Weekday]bool, error) {
	days := make(map[time.Weekday]bool)
	if strings.TrimSpace(raw) == "" {
		for d := time.Monday; d <= time.Friday; d++ {
			days[d] = true
		}
		return days, nil
	}
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("weekday %q must be 0-6", part)
		}
		days[time.Weekday(n)] = true
	}
	return days, nil
}
