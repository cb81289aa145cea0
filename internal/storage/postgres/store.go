package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-bot/internal/domain"
	"github.com/dvloznov/finance-bot/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

//go:embed schema.sql
var schemaSQL string

const insertTransactionSQL = `
	INSERT INTO transactions (
		amount, currency, category, description, transaction_type, transaction_date
	)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id::text, created_at
`

const selectTransactionSQL = `
	SELECT id::text, amount, currency, category, description, transaction_type, transaction_date, created_at
	FROM transactions
	WHERE id = $1
`

// Store keeps transaction records in PostgreSQL. The pool is shared by all
// messages.
type Store struct {
	pool *pgxpool.Pool
}

// Open creates a pool for databaseURL and checks it with a ping.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("postgres.Open: database URL cannot be empty")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres.Open: parse config: %w", err)
	}
	config.ConnConfig.ConnectTimeout = 5 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("postgres.Open: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.Open: ping: %w", err)
	}

	return &Store{pool: pool}, nil
}

// EnsureSchema creates the transactions table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("postgres.EnsureSchema: %w", err)
	}
	return nil
}

// Save inserts rec inside one transaction. rec.ID and rec.CreatedAt are only
// set once the commit succeeded.
func (s *Store) Save(ctx context.Context, rec *domain.TransactionRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres.Save: begin: %w", err)
	}
	// No-op after a successful commit.
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		id        string
		createdAt time.Time
	)
	err = tx.QueryRow(ctx, insertTransactionSQL, insertArgs(rec)...).Scan(&id, &createdAt)
	if err != nil {
		return fmt.Errorf("postgres.Save: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres.Save: commit: %w", err)
	}

	rec.ID = id
	rec.CreatedAt = createdAt
	return nil
}

// insertArgs returns the parameters of insertTransactionSQL for rec.
func insertArgs(rec *domain.TransactionRecord) []any {
	return []any{
		rec.Amount,
		rec.Currency,
		rec.Category,
		rec.Description,
		string(rec.Type),
		rec.Date.In(time.UTC),
	}
}

// Get reads one record by id.
func (s *Store) Get(ctx context.Context, id string) (*domain.TransactionRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, storage.ErrNotFound
	}

	var (
		rec    domain.TransactionRecord
		amount decimal.Decimal
		txType string
		date   time.Time
	)
	err := s.pool.QueryRow(ctx, selectTransactionSQL, id).Scan(
		&rec.ID,
		&amount,
		&rec.Currency,
		&rec.Category,
		&rec.Description,
		&txType,
		&date,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres.Get: %w", err)
	}

	rec.Amount = amount
	rec.Type = domain.TransactionType(txType)
	rec.Date = civil.DateOf(date)
	return &rec, nil
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
