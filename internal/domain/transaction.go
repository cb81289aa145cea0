package domain

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TransactionType tells whether money came in or went out. The sign of
// Amount is never used for this.
type TransactionType string

const (
	TransactionTypeExpense TransactionType = "EXPENSE"
	TransactionTypeIncome  TransactionType = "INCOME"
)

// DefaultCurrency is used when the model does not name a currency.
const DefaultCurrency = "EUR"

// ParseTransactionType accepts "expense"/"income" in any case.
// An empty value means EXPENSE.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(TransactionTypeExpense):
		return TransactionTypeExpense, nil
	case string(TransactionTypeIncome):
		return TransactionTypeIncome, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// TransactionRecord is one stored income or expense. ID and CreatedAt are set
// by the store on insert; the record is never changed afterwards.
type TransactionRecord struct {
	ID          string
	Amount      decimal.Decimal
	Currency    string
	Category    string
	Description *string
	Type        TransactionType
	Date        civil.Date
	CreatedAt   time.Time
}

// DescriptionOrEmpty returns the description, or "" when it was not given.
func (r *TransactionRecord) DescriptionOrEmpty() string {
	if r.Description == nil {
		return ""
	}
	return *r.Description
}
