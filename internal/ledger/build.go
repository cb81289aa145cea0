package ledger

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-bot/internal/domain"
	"github.com/dvloznov/finance-bot/internal/interpreter"
)

// ErrInvalidResult means the model output cannot be turned into a record.
var ErrInvalidResult = errors.New("invalid interpretation result")

// Column limits of the transactions table.
const (
	maxCurrencyLen    = 10
	maxCategoryLen    = 50
	maxDescriptionLen = 255
)

// BuildRecord validates a draft and fills in defaults. defaultCurrency is used
// when the draft has no currency; an empty value means domain.DefaultCurrency.
func BuildRecord(d *interpreter.TransactionDraft, defaultCurrency string) (*domain.TransactionRecord, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: no transaction data", ErrInvalidResult)
	}
	if len(d.Problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResult, strings.Join(d.Problems, "; "))
	}

	if d.Date == nil {
		return nil, fmt.Errorf("%w: missing required field \"date\"", ErrInvalidResult)
	}
	date, err := civil.ParseDate(*d.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q: %v", ErrInvalidResult, *d.Date, err)
	}

	if d.Amount == nil {
		return nil, fmt.Errorf("%w: missing required field \"amount\"", ErrInvalidResult)
	}
	if d.Amount.IsZero() {
		return nil, fmt.Errorf("%w: amount must not be zero", ErrInvalidResult)
	}

	if d.Category == nil {
		return nil, fmt.Errorf("%w: missing required field \"category\"", ErrInvalidResult)
	}

	txType, err := domain.ParseTransactionType(deref(d.Type))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}

	currency := strings.ToUpper(deref(d.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	if err := checkLen("currency", currency, maxCurrencyLen); err != nil {
		return nil, err
	}
	if err := checkLen("category", *d.Category, maxCategoryLen); err != nil {
		return nil, err
	}
	if d.Description != nil {
		if err := checkLen("description", *d.Description, maxDescriptionLen); err != nil {
			return nil, err
		}
	}

	return &domain.TransactionRecord{
		// Direction lives in Type, so the stored amount is never negative.
		Amount:      d.Amount.Abs(),
		Currency:    currency,
		Category:    *d.Category,
		Description: d.Description,
		Type:        txType,
		Date:        date,
	}, nil
}

func checkLen(field, value string, max int) error {
	if n := utf8.RuneCountInString(value); n > max {
		return fmt.Errorf("%w: %s is %d characters, limit is %d", ErrInvalidResult, field, n, max)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
