package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-bot/internal/domain"
	"github.com/dvloznov/finance-bot/internal/interpreter"
	"github.com/dvloznov/finance-bot/internal/logger"
)

// Store persists records. Save must be atomic: on error nothing is stored.
// On success it sets rec.ID and rec.CreatedAt.
type Store interface {
	Save(ctx context.Context, rec *domain.TransactionRecord) error
}

// State is the terminal state of one message.
type State string

const (
	StateClarifying State = "CLARIFYING"
	StateSaved      State = "SAVED"
	StateSaveFailed State = "SAVE_FAILED"
)

// FallbackClarification is sent when the model asks for clarification
// without saying what it needs.
const FallbackClarification = "I didn't get that. Could you clarify?"

// Outcome is what happened to one interpretation result.
type Outcome struct {
	State  State
	Reply  string
	Record *domain.TransactionRecord
	Err    error
}

// Writer turns interpretation results into stored records and user replies.
type Writer struct {
	store           Store
	defaultCurrency string
}

// NewWriter creates a Writer. An empty defaultCurrency means EUR.
func NewWriter(store Store, defaultCurrency string) *Writer {
	if defaultCurrency == "" {
		defaultCurrency = domain.DefaultCurrency
	}
	return &Writer{store: store, defaultCurrency: defaultCurrency}
}

// Apply stores res when it is a transaction and returns the reply to send.
// Nothing is retried.
func (w *Writer) Apply(ctx context.Context, res interpreter.Result) Outcome {
	log := logger.FromContext(ctx)

	if res.Kind != interpreter.KindTransaction || res.Transaction == nil {
		question := ""
		if res.Clarification != nil {
			question = strings.TrimSpace(res.Clarification.Question)
		}
		if question == "" {
			question = FallbackClarification
		}
		log.Info().Bool("ai_failure", res.Failed()).Msg("Clarification requested, nothing saved")
		return Outcome{State: StateClarifying, Reply: question, Err: res.Cause}
	}

	rec, err := BuildRecord(res.Transaction, w.defaultCurrency)
	if err != nil {
		log.Error().Err(err).Str("raw_response", res.Raw).Msg("Model output rejected")
		return Outcome{State: StateSaveFailed, Reply: "Could not save the transaction: " + err.Error(), Err: err}
	}

	log.Debug().Str("state", "PERSISTING").Msg("Saving transaction")

	if saveErr := w.store.Save(ctx, rec); saveErr != nil {
		log.Error().Err(saveErr).Msg("Database error")
		return Outcome{
			State: StateSaveFailed,
			Reply: "Failed to save to the database: " + saveErr.Error(),
			Err:   fmt.Errorf("Writer.Apply: save: %w", saveErr),
		}
	}

	log.Info().
		Str("transaction_id", rec.ID).
		Str("category", rec.Category).
		Str("amount", rec.Amount.String()).
		Str("currency", rec.Currency).
		Str("type", string(rec.Type)).
		Msg("Transaction saved")

	return Outcome{State: StateSaved, Reply: FormatConfirmation(rec), Record: rec}
}

// FormatConfirmation renders the success message for rec.
func FormatConfirmation(rec *domain.TransactionRecord) string {
	icon := "💸"
	if rec.Type == domain.TransactionTypeIncome {
		icon = "🤑"
	}

	var b strings.Builder
	b.WriteString("✅ Saved!\n")
	fmt.Fprintf(&b, "📂 %s: %s %s", rec.Category, rec.Amount.String(), rec.Currency)
	if desc := rec.DescriptionOrEmpty(); desc != "" {
		fmt.Fprintf(&b, "\n%s %s", icon, desc)
	} else {
		fmt.Fprintf(&b, "\n%s %s", icon, strings.ToLower(string(rec.Type)))
	}
	return b.String()
}
