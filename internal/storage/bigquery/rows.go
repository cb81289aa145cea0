package bigquery

import (
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-bot/internal/domain"
	"github.com/shopspring/decimal"
)

// numericScale is the number of fractional digits of the NUMERIC type.
const numericScale = 9

// TransactionRow is one row of the transactions table.
type TransactionRow struct {
	TransactionID   string              `bigquery:"transaction_id"`   // REQUIRED
	Amount          *big.Rat            `bigquery:"amount"`           // REQUIRED NUMERIC
	Currency        string              `bigquery:"currency"`         // REQUIRED
	Category        string              `bigquery:"category"`         // REQUIRED
	Description     bigquery.NullString `bigquery:"description"`      // NULLABLE
	TransactionType string              `bigquery:"transaction_type"` // REQUIRED
	TransactionDate civil.Date          `bigquery:"transaction_date"` // REQUIRED
	CreatedTS       time.Time           `bigquery:"created_ts"`       // REQUIRED
}

// transactionsSchema is the table schema created by EnsureTable.
var transactionsSchema = bigquery.Schema{
	{Name: "transaction_id", Type: bigquery.StringFieldType, Required: true},
	{Name: "amount", Type: bigquery.NumericFieldType, Required: true},
	{Name: "currency", Type: bigquery.StringFieldType, Required: true},
	{Name: "category", Type: bigquery.StringFieldType, Required: true},
	{Name: "description", Type: bigquery.StringFieldType},
	{Name: "transaction_type", Type: bigquery.StringFieldType, Required: true},
	{Name: "transaction_date", Type: bigquery.DateFieldType, Required: true},
	{Name: "created_ts", Type: bigquery.TimestampFieldType, Required: true},
}

func toRow(rec *domain.TransactionRecord) *TransactionRow {
	row := &TransactionRow{
		TransactionID:   rec.ID,
		Amount:          rec.Amount.Rat(),
		Currency:        rec.Currency,
		Category:        rec.Category,
		TransactionType: string(rec.Type),
		TransactionDate: rec.Date,
		CreatedTS:       rec.CreatedAt,
	}
	if rec.Description != nil {
		row.Description = bigquery.NullString{StringVal: *rec.Description, Valid: true}
	}
	return row
}

func fromRow(row *TransactionRow) (*domain.TransactionRecord, error) {
	if row.Amount == nil {
		return nil, fmt.Errorf("fromRow: transaction %s has no amount", row.TransactionID)
	}
	amount, err := decimal.NewFromString(row.Amount.FloatString(numericScale))
	if err != nil {
		return nil, fmt.Errorf("fromRow: amount: %w", err)
	}

	rec := &domain.TransactionRecord{
		ID:        row.TransactionID,
		Amount:    amount,
		Currency:  row.Currency,
		Category:  row.Category,
		Type:      domain.TransactionType(row.TransactionType),
		Date:      row.TransactionDate,
		CreatedAt: row.CreatedTS,
	}
	if row.Description.Valid {
		desc := row.Description.StringVal
		rec.Description = &desc
	}
	return rec, nil
}
