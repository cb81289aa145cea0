package interpreter

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/dvloznov/finance-bot/internal/logger"
)

// DatePlaceholder is replaced with today's date in the prompt template.
const DatePlaceholder = "{current_date}"

const dateLayout = "2006-01-02"

// FallbackPrompt is used when the template file cannot be read. It asks for
// the same JSON shape as the shipped template.
const FallbackPrompt = "You are a personal finance bot. Today is {current_date}. " +
	"Reply with raw JSON only. For a transaction return the fields amount (number), " +
	"currency (ISO code), category (string), description (string or null), " +
	"type (INCOME or EXPENSE) and date (YYYY-MM-DD). " +
	"If the message is ambiguous return {\"clarification_needed\": true, \"bot_response\": \"<question>\"}."

// PromptLoader reads the instruction template from disk. The file is read on
// every call so edits are picked up without a restart.
type PromptLoader struct {
	path string
}

// NewPromptLoader creates a loader for the template at path.
func NewPromptLoader(path string) *PromptLoader {
	return &PromptLoader{path: path}
}

// Load returns the template text, or FallbackPrompt when the file is missing,
// unreadable or empty.
func (l *PromptLoader) Load(ctx context.Context) string {
	log := logger.FromContext(ctx)

	if l == nil || l.path == "" {
		return FallbackPrompt
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		log.Error().Err(err).Str("path", l.path).Msg("Prompt template not readable, using fallback")
		return FallbackPrompt
	}

	text := string(data)
	if strings.TrimSpace(text) == "" {
		log.Error().Str("path", l.path).Msg("Prompt template is empty, using fallback")
		return FallbackPrompt
	}
	return text
}

// RenderPrompt substitutes every date placeholder with now as YYYY-MM-DD.
func RenderPrompt(template string, now time.Time) string {
	return strings.ReplaceAll(template, DatePlaceholder, now.Format(dateLayout))
}
