package bot

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dvloznov/finance-bot/internal/interpreter"
	"github.com/dvloznov/finance-bot/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestConsoleTransport_Run(t *testing.T) {
	var out bytes.Buffer
	console := NewConsoleTransport(strings.NewReader("/start\n\n  coffee 3  \n"), &out)

	in := new(MockInterpreter)
	w := new(MockWriter)
	res := interpreter.ClarificationResult("Which currency?")
	in.On("Interpret", mock.Anything, "coffee 3").Return(res).Once()
	w.On("Apply", mock.Anything, res).Return(ledger.Outcome{Reply: "Which currency?"}).Once()

	h := NewHandler(console, in, w)
	require.NoError(t, console.Run(context.Background(), h))

	assert.Equal(t, Greeting+"\n\nWhich currency?\n\n", out.String())
	in.AssertExpectations(t)
}
