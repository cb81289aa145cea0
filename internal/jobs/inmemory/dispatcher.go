package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/finance-bot/internal/jobs"
	"github.com/dvloznov/finance-bot/internal/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PanicHandler is called when a job handler panics.
type PanicHandler func(ctx context.Context, job jobs.MessageJob, recovered any)

// Dispatcher runs message jobs concurrently across chats and strictly in
// arrival order within one chat. Each chat with pending work has a single
// goroutine draining its lane; the goroutine exits when the lane is empty.
type Dispatcher struct {
	ctx     context.Context
	handler jobs.Handler
	onPanic PanicHandler
	log     zerolog.Logger

	mu     sync.Mutex
	lanes  map[int64][]jobs.MessageJob
	closed bool
	wg     sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPanicHandler sets the callback invoked after a handler panic was recovered.
func WithPanicHandler(h PanicHandler) Option {
	return func(d *Dispatcher) { d.onPanic = h }
}

// NewDispatcher creates a dispatcher that calls handler with ctx for every job.
// The logger in ctx is used for job level logging.
func NewDispatcher(ctx context.Context, handler jobs.Handler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		ctx:     ctx,
		handler: handler,
		log:     logger.FromContext(ctx),
		lanes:   make(map[int64][]jobs.MessageJob),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Submit enqueues job behind earlier jobs of the same chat.
func (d *Dispatcher) Submit(job jobs.MessageJob) error {
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.ReceivedAt.IsZero() {
		job.ReceivedAt = time.Now()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return fmt.Errorf("Dispatcher.Submit: %w", jobs.ErrClosed)
	}

	pending, active := d.lanes[job.ChatID]
	d.lanes[job.ChatID] = append(pending, job)
	if !active {
		d.wg.Add(1)
		go d.drain(job.ChatID)
	}
	return nil
}

// drain processes the lane of chatID until it is empty.
func (d *Dispatcher) drain(chatID int64) {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		pending := d.lanes[chatID]
		if len(pending) == 0 {
			delete(d.lanes, chatID)
			d.mu.Unlock()
			return
		}
		job := pending[0]
		d.lanes[chatID] = pending[1:]
		d.mu.Unlock()

		d.process(job)
	}
}

func (d *Dispatcher) process(job jobs.MessageJob) {
	log := logger.ForChat(d.log, job.ChatID, job.MessageID).With().Str("job_id", job.JobID).Logger()
	ctx := logger.WithContext(d.ctx, log)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Panic recovered while handling message")
			if d.onPanic != nil {
				d.onPanic(ctx, job, r)
			}
		}
	}()

	start := time.Now()
	if err := d.handler(ctx, job); err != nil {
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("Message job failed")
		return
	}
	log.Debug().Dur("duration", time.Since(start)).Msg("Message job completed")
}

// Pending reports the number of queued jobs not yet started.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, lane := range d.lanes {
		n += len(lane)
	}
	return n
}

// Stop rejects new jobs and waits until every accepted job has been handled
// or ctx is done.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ jobs.Submitter = (*Dispatcher)(nil)
