package interpreter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finance-bot/internal/logger"
)

// ErrEmptyResponse is the Cause when the model answered with no text.
var ErrEmptyResponse = errors.New("empty response from model")

// ModelOutput is one model exchange as kept by an OutputArchive.
type ModelOutput struct {
	Model      string
	PromptDate string
	UserText   string
	RawText    string
	Error      string
	CreatedAt  time.Time
}

// OutputArchive keeps raw model answers for later inspection.
type OutputArchive interface {
	Store(ctx context.Context, out ModelOutput) error
}

// Interpreter turns free text into a Result using an LLM.
type Interpreter struct {
	gen     Generator
	prompts *PromptLoader
	archive OutputArchive
	model   string
	now     func() time.Time
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithArchive archives every model answer to a.
func WithArchive(a OutputArchive) Option {
	return func(i *Interpreter) { i.archive = a }
}

// WithClock replaces time.Now for date substitution.
func WithClock(now func() time.Time) Option {
	return func(i *Interpreter) { i.now = now }
}

// WithModelName records the model name in archived outputs.
func WithModelName(name string) Option {
	return func(i *Interpreter) { i.model = name }
}

// New creates an Interpreter.
func New(gen Generator, prompts *PromptLoader, opts ...Option) *Interpreter {
	i := &Interpreter{
		gen:     gen,
		prompts: prompts,
		model:   DefaultModelName,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Interpret never fails: provider errors and undecodable answers come back as
// an apology clarification with Cause set.
func (i *Interpreter) Interpret(ctx context.Context, userText string) Result {
	log := logger.FromContext(ctx)

	today := i.now()
	prompt := RenderPrompt(i.prompts.Load(ctx), today)

	raw, err := i.gen.Generate(ctx, prompt, userText)
	result := i.decode(raw, err)
	i.store(ctx, today, userText, raw, result.Cause)

	if result.Failed() {
		log.Error().Err(result.Cause).Str("raw_response", raw).Msg("Error parsing with AI")
	} else {
		log.Debug().Stringer("kind", result.Kind).Msg("Model answer decoded")
	}
	return result
}

func (i *Interpreter) decode(raw string, genErr error) Result {
	if genErr != nil {
		return FailureResult(genErr, raw)
	}
	if strings.TrimSpace(raw) == "" {
		return FailureResult(ErrEmptyResponse, raw)
	}

	result, err := DecodeResult(CleanModelJSON(raw))
	if err != nil {
		return FailureResult(fmt.Errorf("Interpret: %w", err), raw)
	}
	result.Raw = raw
	return result
}

func (i *Interpreter) store(ctx context.Context, today time.Time, userText, raw string, cause error) {
	if i.archive == nil {
		return
	}

	out := ModelOutput{
		Model:      i.model,
		PromptDate: today.Format(dateLayout),
		UserText:   userText,
		RawText:    raw,
		CreatedAt:  i.now(),
	}
	if cause != nil {
		out.Error = cause.Error()
	}

	if err := i.archive.Store(ctx, out); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Failed to archive model output")
	}
}
