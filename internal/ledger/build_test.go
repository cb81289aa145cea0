package ledger

import (
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-bot/internal/domain"
	"github.com/dvloznov/finance-bot/internal/interpreter"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func validDraft() *interpreter.TransactionDraft {
	return &interpreter.TransactionDraft{
		Amount:   decPtr("15"),
		Currency: strPtr("EUR"),
		Category: strPtr("Coffee"),
		Date:     strPtr("2024-03-15"),
	}
}

func TestBuildRecord_Defaults(t *testing.T) {
	d := validDraft()
	d.Currency = nil

	rec, err := BuildRecord(d, "")
	require.NoError(t, err)

	assert.Equal(t, domain.TransactionTypeExpense, rec.Type)
	assert.Equal(t, "EUR", rec.Currency)
	assert.Equal(t, civil.Date{Year: 2024, Month: 3, Day: 15}, rec.Date)
	assert.True(t, decimal.NewFromInt(15).Equal(rec.Amount))
	assert.Nil(t, rec.Description)
	assert.Empty(t, rec.ID)
}

func TestBuildRecord_ConfiguredDefaultCurrency(t *testing.T) {
	d := validDraft()
	d.Currency = nil

	rec, err := BuildRecord(d, "GBP")
	require.NoError(t, err)
	assert.Equal(t, "GBP", rec.Currency)
}

func TestBuildRecord_Income(t *testing.T) {
	d := &interpreter.TransactionDraft{
		Amount:      decPtr("100"),
		Currency:    strPtr("usd"),
		Category:    strPtr("Food"),
		Type:        strPtr("INCOME"),
		Date:        strPtr("2024-01-01"),
		Description: strPtr("refund"),
	}

	rec, err := BuildRecord(d, "EUR")
	require.NoError(t, err)

	assert.Equal(t, domain.TransactionTypeIncome, rec.Type)
	assert.Equal(t, "USD", rec.Currency)
	assert.Equal(t, "Food", rec.Category)
	assert.Equal(t, "refund", rec.DescriptionOrEmpty())
}

func TestBuildRecord_NegativeAmountStoredPositive(t *testing.T) {
	d := validDraft()
	d.Amount = decPtr("-4.20")

	rec, err := BuildRecord(d, "")
	require.NoError(t, err)
	assert.Equal(t, "4.2", rec.Amount.String())
}

func TestBuildRecord_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *interpreter.TransactionDraft)
		want   string
	}{
		{"missing date", func(d *interpreter.TransactionDraft) { d.Date = nil }, `"date"`},
		{"unparsable date", func(d *interpreter.TransactionDraft) { d.Date = strPtr("15.03.2024") }, "invalid date"},
		{"date with time", func(d *interpreter.TransactionDraft) { d.Date = strPtr("2024-03-15T10:00:00Z") }, "invalid date"},
		{"impossible date", func(d *interpreter.TransactionDraft) { d.Date = strPtr("2024-02-30") }, "invalid date"},
		{"missing amount", func(d *interpreter.TransactionDraft) { d.Amount = nil }, `"amount"`},
		{"zero amount", func(d *interpreter.TransactionDraft) { d.Amount = decPtr("0") }, "zero"},
		{"missing category", func(d *interpreter.TransactionDraft) { d.Category = nil }, `"category"`},
		{"unknown type", func(d *interpreter.TransactionDraft) { d.Type = strPtr("TRANSFER") }, "TRANSFER"},
		{"long currency", func(d *interpreter.TransactionDraft) { d.Currency = strPtr("EUROS-AND-CENTS") }, "currency"},
		{"mistyped field", func(d *interpreter.TransactionDraft) { d.Problems = []string{`field "amount" has type bool, want number`} }, "bool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(d)

			rec, err := BuildRecord(d, "")
			require.Error(t, err)
			assert.Nil(t, rec)
			assert.True(t, errors.Is(err, ErrInvalidResult))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuildRecord_NilDraft(t *testing.T) {
	_, err := BuildRecord(nil, "")
	assert.ErrorIs(t, err, ErrInvalidResult)
}
