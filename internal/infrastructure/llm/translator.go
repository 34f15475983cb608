package llm

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"ESDMMonitor/internal/config"
	"ESDMMonitor/internal/ports"
)

// UntranslatedSuffix marks titles that could not be translated because no
// API key is configured.
const UntranslatedSuffix = " (untranslated)"

// Translator implements ports.Translator backed by an OpenAI-compatible API.
type Translator struct {
	client       *openai.Client
	model        string
	systemPrompt string
	logger       *slog.Logger
}

var _ ports.Translator = (*Translator)(nil)

// NewTranslator builds a translator from configuration. A missing API key
// yields a translator that only appends UntranslatedSuffix.
func NewTranslator(cfg config.LLMConfig, logger *slog.Logger) *Translator {
	t := &Translator{
		model:        cfg.Model,
		systemPrompt: safePrompt(cfg.SystemPrompt),
		logger:       logger,
	}
	if cfg.APIKey == "" {
		return t
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}
	t.client = openai.NewClientWithConfig(clientCfg)
	return t
}

// Translate returns the translated text. Request failures return text unchanged.
func (t *Translator) Translate(ctx context.Context, text string) string {
	if t == nil || t.client == nil {
		return text + UntranslatedSuffix
	}

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: t.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.3,
	})
	if err != nil {
		t.warn("translation failed", "error", err)
		return text
	}
	if len(resp.Choices) == 0 {
		t.warn("translation returned no choices")
		return text
	}

	translated := strings.TrimSpace(resp.Choices[0].Message.Content)
	if translated == "" {
		return text
	}
	return translated
}

func (t *Translator) warn(msg string, args ...interface{}) {
	if t.logger != nil {
		t.logger.Warn(msg, args...)
	}
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a professional translator. Translate the following Indonesian news title to Chinese. Output ONLY the translated text."
	}
	return prompt
}
