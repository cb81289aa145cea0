package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-bot/internal/domain"
	"github.com/dvloznov/finance-bot/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore connects to TEST_DATABASE_URL or skips the test.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.EnsureSchema(ctx))
	// Running it twice must be harmless.
	require.NoError(t, s.EnsureSchema(ctx))
	return s
}

func TestOpen_EmptyURL(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}

func TestSchemaSQL_Idempotent(t *testing.T) {
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS transactions")
	assert.Contains(t, schemaSQL, "CREATE INDEX IF NOT EXISTS")
}

func TestStore_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &domain.TransactionRecord{
		Amount:   decimal.NewFromInt(100),
		Currency: "USD",
		Category: "Food",
		Type:     domain.TransactionTypeIncome,
		Date:     civil.Date{Year: 2024, Month: 1, Day: 1},
	}
	require.NoError(t, s.Save(ctx, rec))
	require.NotEmpty(t, rec.ID)
	require.False(t, rec.CreatedAt.IsZero())

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)

	assert.True(t, rec.Amount.Equal(got.Amount), "amount %s != %s", rec.Amount, got.Amount)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, "Food", got.Category)
	assert.Equal(t, domain.TransactionTypeIncome, got.Type)
	assert.Equal(t, rec.Date, got.Date)
	assert.Nil(t, got.Description)
}

func TestStore_SaveFailureLeavesNoRecord(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &domain.TransactionRecord{
		Amount:   decimal.NewFromInt(5),
		Currency: "EUR",
		Category: "Coffee",
		Type:     domain.TransactionType("TRANSFER"), // violates the CHECK constraint
		Date:     civil.Date{Year: 2024, Month: 3, Day: 15},
	}

	err := s.Save(ctx, rec)
	require.Error(t, err)
	assert.Empty(t, rec.ID)
}

func TestStore_GetNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
