package terminal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintAgentMsg(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader(""), &out)

	c.PrintAgentMsg(AiCall, "Managing agent", "Testing a process.")
	c.PrintAgentMsg(Issue, "Backend developer", "Error checking: /health")

	assert.Contains(t, out.String(), "Agent: Managing agent:")
	assert.Contains(t, out.String(), "Testing a process.")
	assert.Contains(t, out.String(), "Error checking: /health")
}

func TestAsk_TrimsAnswer(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("  a todo api  \n"), &out)

	answer, err := c.Ask("What webserver are we building today?")
	require.NoError(t, err)
	assert.Equal(t, "a todo api", answer)
	assert.Contains(t, out.String(), "What webserver are we building today?")
}

func TestAsk_LastLineWithoutNewline(t *testing.T) {
	c := NewConsole(strings.NewReader("no newline"), &bytes.Buffer{})
	answer, err := c.Ask("q")
	require.NoError(t, err)
	assert.Equal(t, "no newline", answer)
}

func TestAsk_EOF(t *testing.T) {
	c := NewConsole(strings.NewReader(""), &bytes.Buffer{})
	_, err := c.Ask("q")
	assert.ErrorIs(t, err, ErrNoAnswer)
}

func TestConfirmSafeCode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"approve", "1\n", true},
		{"reject", "2\n", false},
		{"reprompt then approve", "yes\n3\n1\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := NewConsole(strings.NewReader(tt.input), &out)
			ok, err := c.ConfirmSafeCode()
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestConfirmSafeCode_InvalidInputMessage(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("x\n2\n"), &out)
	ok, err := c.ConfirmSafeCode()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, out.String(), "Invalid input")
}

func TestConfirmSafeCode_NoAnswer(t *testing.T) {
	c := NewConsole(strings.NewReader(""), &bytes.Buffer{})
	ok, err := c.ConfirmSafeCode()
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNoAnswer)
}

func TestAutoConfirm(t *testing.T) {
	ok, err := AutoConfirm{}.ConfirmSafeCode()
	require.NoError(t, err)
	assert.True(t, ok)
}
