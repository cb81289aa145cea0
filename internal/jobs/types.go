package jobs

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by Submit once the dispatcher stopped accepting work.
var ErrClosed = errors.New("dispatcher is closed")

// MessageJob is one incoming chat message waiting to be processed.
type MessageJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// ChatID identifies the conversation. Jobs of one chat run in order.
	ChatID int64 `json:"chat_id"`

	// MessageID is the transport's id of the message.
	MessageID string `json:"message_id"`

	// Text is the raw message text.
	Text string `json:"text"`

	// ReceivedAt is when the transport received the message.
	ReceivedAt time.Time `json:"received_at"`
}

// Handler processes one message job.
type Handler func(ctx context.Context, job MessageJob) error

// Submitter accepts message jobs for asynchronous processing.
type Submitter interface {
	Submit(job MessageJob) error
}
