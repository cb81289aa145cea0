package bot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ConsoleChatID is the chat id used for the local console conversation.
const ConsoleChatID int64 = 0

// ConsoleTransport runs one local conversation over a reader and a writer.
type ConsoleTransport struct {
	in  io.Reader
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleTransport creates a transport reading lines from in and writing
// replies to out.
func NewConsoleTransport(in io.Reader, out io.Writer) *ConsoleTransport {
	return &ConsoleTransport{in: in, out: out}
}

// SendTyping prints nothing; the console has no typing indicator.
func (c *ConsoleTransport) SendTyping(ctx context.Context, chatID int64) error {
	return nil
}

// SendText writes text followed by a blank line.
func (c *ConsoleTransport) SendText(ctx context.Context, chatID int64, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.out, "%s\n\n", text)
	return err
}

// Run hands every non-empty input line to h until input ends or ctx is done.
func (c *ConsoleTransport) Run(ctx context.Context, h *Handler) error {
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := h.HandleMessage(ctx, ConsoleChatID, line); err != nil {
			return fmt.Errorf("ConsoleTransport.Run: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("ConsoleTransport.Run: read input: %w", err)
	}
	return nil
}

var _ Messenger = (*ConsoleTransport)(nil)
