// Package brain talks to the natural-language intent extractor. The model
// is a trusted black box; its output is validated only structurally.
package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/clusivai/clusivai/internal/domain"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// ErrClientNotInitialised is returned when no API key was configured.
var ErrClientNotInitialised = errors.New("brain client not initialised")

// Client wraps an OpenAI-compatible chat completion endpoint (OpenRouter).
type Client struct {
	client   *openai.Client
	model    openai.ChatModel
	timezone *time.Location
}

// New returns a usable client, or an inert one when apiKey is empty.
func New(apiKey, model string, tz *time.Location) *Client {
	if tz == nil {
		tz = time.Local
	}
	if apiKey == "" {
		return &Client{timezone: tz}
	}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(openRouterBaseURL),
	)
	return &Client{
		client:   &client,
		model:    openai.ChatModel(model),
		timezone: tz,
	}
}

// Process sends the user's text with conversation history and the owner's
// pending reminders as grounding context, and returns the extracted intent.
func (c *Client) Process(ctx context.Context, text string, history []Message, pending []*domain.Reminder) (*Intent, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	if c.client == nil {
		return nil, ErrClientNotInitialised
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, systemMessage(c.systemPrompt(pending)))
	for _, m := range history {
		if m.Role == "assistant" {
			messages = append(messages, assistantMessage(m.Content))
		} else {
			messages = append(messages, userMessage(m.Content))
		}
	}
	messages = append(messages, userMessage(text))

	req := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
		// Deterministic output: the reply must be machine-parseable JSON.
		Temperature: openai.Float(0.0),
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no completion received")
	}

	return ParseIntent(resp.Choices[0].Message.Content)
}

func (c *Client) systemPrompt(pending []*domain.Reminder) string {
	now := time.Now().In(c.timezone).Format(domain.DateLayout)

	var sb strings.Builder
	sb.WriteString("Eres 'Clusivai', un asistente personal inteligente.\n")
	sb.WriteString("CONTEXTO IMPORTANTE:\n")
	sb.WriteString(fmt.Sprintf("- Hora actual (%s): %s.\n", c.timezone, now))
	sb.WriteString("- Si el usuario pide algo para \"mañana\", \"luego\" o \"en X minutos\", calcula la fecha exacta a partir de esa hora.\n")

	if len(pending) > 0 {
		sb.WriteString("- Recordatorios activos del usuario (usa SOLO estos IDs):\n")
		for _, r := range pending {
			sb.WriteString(fmt.Sprintf("  id=%d: %s (%s)\n", r.ID, r.Message, r.RemindAt.In(c.timezone).Format(domain.DateLayout)))
		}
	}

	sb.WriteString(`
Debes responder ÚNICAMENTE con un objeto JSON con esta estructura:
{
    "action": "CREATE" | "LIST" | "DELETE" | "UPDATE" | "CHAT" | "SET_SETTING" | "CONSULT_NOTES",
    "id": 12 (número, solo para UPDATE o DELETE por ID),
    "message": "descripción de la tarea o nota",
    "date": "YYYY-MM-DD HH:MM:SS" (fecha calculada para CREATE o UPDATE),
    "recurrence": "RRULE iCalendar, p.ej. FREQ=DAILY o FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR (solo si se repite)",
    "reply": "Tu respuesta directa si la acción es CHAT",
    "enabled": true | false (solo SET_SETTING, resumen diario),
    "time": "HH:MM" (solo SET_SETTING, hora del resumen diario)
}

Reglas:
- Si el usuario saluda o pregunta algo general, usa action: "CHAT".
- Si quiere guardar un recordatorio, usa action: "CREATE".
- Si quiere guardar o consultar notas sin fecha, usa action: "CONSULT_NOTES".
- Responde siempre de forma amable en español.
`)
	return sb.String()
}

func systemMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionMessageParamUnion{
		OfSystem: &openai.ChatCompletionSystemMessageParam{
			Content: openai.ChatCompletionSystemMessageParamContentUnion{
				OfString: openai.String(content),
			},
		},
	}
}

func userMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfString: openai.String(content),
			},
		},
	}
}

func assistantMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionMessageParamUnion{
		OfAssistant: &openai.ChatCompletionAssistantMessageParam{
			Content: openai.ChatCompletionAssistantMessageParamContentUnion{
				OfString: openai.String(content),
			},
		},
	}
}
