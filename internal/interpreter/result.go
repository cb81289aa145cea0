package interpreter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind discriminates the two shapes of Result.
type Kind int

const (
	KindClarification Kind = iota + 1
	KindTransaction
)

func (k Kind) String() string {
	switch k {
	case KindClarification:
		return "clarification"
	case KindTransaction:
		return "transaction"
	default:
		return "unknown"
	}
}

// Result is the outcome of interpreting one message. Exactly one of
// Clarification and Transaction is set, matching Kind.
type Result struct {
	Kind          Kind
	Clarification *Clarification
	Transaction   *TransactionDraft

	// Cause is set when the clarification was produced because the model call
	// or decoding failed.
	Cause error
	// Raw is the model text as received.
	Raw string
}

// Clarification asks the user for more detail. Nothing is stored.
type Clarification struct {
	Question string
}

// TransactionDraft holds the transaction fields as the model returned them.
// Nil means the model left the field out. Problems lists fields that were
// present but had the wrong JSON type.
type TransactionDraft struct {
	Amount      *decimal.Decimal
	Currency    *string
	Category    *string
	Description *string
	Type        *string
	Date        *string
	BotResponse string
	Problems    []string
}

// Failed reports whether the result stands in for an AI failure.
func (r Result) Failed() bool {
	return r.Cause != nil
}

// ClarificationResult builds a clarification.
func ClarificationResult(question string) Result {
	return Result{Kind: KindClarification, Clarification: &Clarification{Question: question}}
}

// FailureResult builds the apology clarification used when the model is
// unavailable or its answer cannot be decoded.
func FailureResult(cause error, raw string) Result {
	r := ClarificationResult(ApologyText)
	r.Cause = cause
	r.Raw = raw
	return r
}

// ApologyText is shown to the user when interpretation fails.
const ApologyText = "Sorry, I couldn't process that right now. Please try again in a moment."

// DecodeResult parses cleaned model JSON into a Result.
func DecodeResult(clean string) (Result, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(clean)))
	dec.UseNumber()

	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return Result{}, fmt.Errorf("DecodeResult: unmarshal JSON: %w", err)
	}
	if obj == nil {
		return Result{}, fmt.Errorf("DecodeResult: model returned null")
	}

	botResponse, _ := obj["bot_response"].(string)

	if isTrue(obj["clarification_needed"]) {
		return ClarificationResult(strings.TrimSpace(botResponse)), nil
	}

	draft := &TransactionDraft{BotResponse: botResponse}
	draft.Amount = draft.decimalField(obj, "amount")
	draft.Currency = draft.stringField(obj, "currency")
	draft.Category = draft.stringField(obj, "category")
	draft.Description = draft.stringField(obj, "description")
	draft.Type = draft.stringField(obj, "type")
	draft.Date = draft.stringField(obj, "date")

	return Result{Kind: KindTransaction, Transaction: draft}, nil
}

func isTrue(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		return err == nil && b
	default:
		return false
	}
}

func (d *TransactionDraft) stringField(m map[string]interface{}, key string) *string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		return &s
	default:
		d.Problems = append(d.Problems, fmt.Sprintf("field %q has type %T, want string", key, v))
		return nil
	}
}

func (d *TransactionDraft) decimalField(m map[string]interface{}, key string) *decimal.Decimal {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}

	var text string
	switch val := v.(type) {
	case json.Number:
		text = val.String()
	case string:
		text = strings.TrimSpace(val)
	default:
		d.Problems = append(d.Problems, fmt.Sprintf("field %q has type %T, want number", key, v))
		return nil
	}

	amount, err := decimal.NewFromString(text)
	if err != nil {
		d.Problems = append(d.Problems, fmt.Sprintf("field %q is not a number: %q", key, text))
		return nil
	}
	return &amount
}
