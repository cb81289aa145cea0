package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/finance-bot/internal/interpreter"
	"github.com/google/uuid"
)

// DefaultPrefix is the object prefix model outputs are written under.
const DefaultPrefix = "model-outputs"

// record is the JSON document written for every model exchange.
type record struct {
	ID         string    `json:"id"`
	Model      string    `json:"model"`
	PromptDate string    `json:"prompt_date"`
	UserText   string    `json:"user_text"`
	RawText    string    `json:"raw_text"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// GCSArchive writes raw model outputs as JSON objects to a GCS bucket.
type GCSArchive struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSArchive creates a storage client writing into bucket.
// It assumes Application Default Credentials are configured.
func NewGCSArchive(ctx context.Context, bucket string) (*GCSArchive, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewGCSArchive: bucket is empty")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSArchive: create storage client: %w", err)
	}
	return &GCSArchive{client: client, bucket: bucket, prefix: DefaultPrefix}, nil
}

// Store uploads out as gs://<bucket>/<prefix>/YYYY/MM/DD/<id>.json.
func (a *GCSArchive) Store(ctx context.Context, out interpreter.ModelOutput) error {
	id := uuid.NewString()
	name := ObjectName(a.prefix, out.CreatedAt, id)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/json"

	if err := encode(w, id, out); err != nil {
		_ = w.Close()
		return fmt.Errorf("GCSArchive.Store: encode %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("GCSArchive.Store: finalize upload %s: %w", name, err)
	}
	return nil
}

// Close closes the underlying storage client.
func (a *GCSArchive) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

// ObjectName builds the object path for an output created at t.
func ObjectName(prefix string, t time.Time, id string) string {
	t = t.UTC()
	return path.Join(prefix, t.Format("2006"), t.Format("01"), t.Format("02"), id+".json")
}

func encode(w io.Writer, id string, out interpreter.ModelOutput) error {
	return json.NewEncoder(w).Encode(record{
		ID:         id,
		Model:      out.Model,
		PromptDate: out.PromptDate,
		UserText:   out.UserText,
		RawText:    out.RawText,
		Error:      out.Error,
		CreatedAt:  out.CreatedAt.UTC(),
	})
}

var _ interpreter.OutputArchive = (*GCSArchive)(nil)
