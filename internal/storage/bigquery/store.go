package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-bot/internal/domain"
	"github.com/dvloznov/finance-bot/internal/storage"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

const transactionsTable = "transactions"

// Store keeps transaction records in a BigQuery table. Each Save is a single
// DML INSERT, which BigQuery applies atomically.
type Store struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	now       func() time.Time
}

// Open creates a BigQuery client for projectID and datasetID.
func Open(ctx context.Context, projectID, datasetID string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("bigquery.Open: creating client: %w", err)
	}
	return &Store{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		now:       time.Now,
	}, nil
}

// Close closes the BigQuery client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Ping checks that the dataset is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.DatasetInProject(s.projectID, s.datasetID).Metadata(ctx); err != nil {
		return fmt.Errorf("bigquery.Ping: dataset metadata: %w", err)
	}
	return nil
}

// EnsureTable creates the dataset and the transactions table when missing.
func (s *Store) EnsureTable(ctx context.Context) error {
	ds := s.client.DatasetInProject(s.projectID, s.datasetID)
	if err := ds.Create(ctx, &bigquery.DatasetMetadata{}); err != nil && !isAlreadyExists(err) {
		return fmt.Errorf("bigquery.EnsureTable: create dataset: %w", err)
	}

	meta := &bigquery.TableMetadata{
		Schema: transactionsSchema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.MonthPartitioningType,
			Field: "transaction_date",
		},
	}
	if err := ds.Table(transactionsTable).Create(ctx, meta); err != nil && !isAlreadyExists(err) {
		return fmt.Errorf("bigquery.EnsureTable: create table: %w", err)
	}
	return nil
}

// EnsureSchema is EnsureTable under the name the other backend uses.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.EnsureTable(ctx)
}

func isAlreadyExists(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusConflict
}

func (s *Store) tableRef() string {
	return "`" + s.projectID + "." + s.datasetID + "." + transactionsTable + "`"
}

// Save inserts rec with a DML INSERT. rec.ID and rec.CreatedAt are only set
// once the job finished without error.
func (s *Store) Save(ctx context.Context, rec *domain.TransactionRecord) error {
	pending := *rec
	pending.ID = uuid.NewString()
	pending.CreatedAt = s.now().UTC()
	row := toRow(&pending)

	q := s.client.Query(`
		INSERT INTO ` + s.tableRef() + ` (
			transaction_id, amount, currency, category,
			description, transaction_type, transaction_date, created_ts
		)
		VALUES (
			@transaction_id, @amount, @currency, @category,
			@description, @transaction_type, @transaction_date, @created_ts
		)
	`)

	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: row.TransactionID},
		{Name: "amount", Value: row.Amount},
		{Name: "currency", Value: row.Currency},
		{Name: "category", Value: row.Category},
		{Name: "description", Value: row.Description},
		{Name: "transaction_type", Value: row.TransactionType},
		{Name: "transaction_date", Value: row.TransactionDate},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("bigquery.Save: running insert query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("bigquery.Save: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("bigquery.Save: job error: %w", err)
	}

	rec.ID = pending.ID
	rec.CreatedAt = pending.CreatedAt
	return nil
}

// Get reads one record by id.
func (s *Store) Get(ctx context.Context, id string) (*domain.TransactionRecord, error) {
	q := s.client.Query(`
		SELECT
			transaction_id, amount, currency, category,
			description, transaction_type, transaction_date, created_ts
		FROM ` + s.tableRef() + `
		WHERE transaction_id = @transaction_id
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: id},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("bigquery.Get: query read: %w", err)
	}

	var row TransactionRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bigquery.Get: iter next: %w", err)
	}

	return fromRow(&row)
}
