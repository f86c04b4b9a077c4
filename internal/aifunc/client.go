// Package aifunc turns a directive and its input into a model answer: plain text
// or a value decoded from structured JSON output.
package aifunc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/forge/internal/errors"
	"github.com/p-blackswan/forge/internal/llm"
	"github.com/p-blackswan/forge/internal/metrics"
	"github.com/p-blackswan/forge/internal/retry"
	"github.com/p-blackswan/forge/internal/terminal"
)

// Call is one request to the prompted-function service.
type Call struct {
	Function Function
	// Role and Op identify the caller in status lines and errors.
	Role  string
	Op    string
	Input string
}

// Caller is anything that can answer a Call with text.
type Caller interface {
	Request(ctx context.Context, call Call) (string, error)
}

// StatusPrinter shows the operator which agent is calling the model.
type StatusPrinter interface {
	PrintAgentMsg(cmd terminal.PrintCommand, role, statement string)
}

// Config configures a Client.
type Config struct {
	Temperature float64
	Retry       retry.Config
}

// Client is the Caller backed by an LLM provider.
type Client struct {
	provider llm.Provider
	cfg      Config
	printer  StatusPrinter
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewClient creates a prompted-function client. printer and m may be nil.
func NewClient(provider llm.Provider, cfg Config, printer StatusPrinter, m *metrics.Metrics, logger zerolog.Logger) *Client {
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.Once()
	}
	return &Client{
		provider: provider,
		cfg:      cfg,
		printer:  printer,
		metrics:  m,
		logger:   logger.With().Str("component", "aifunc").Logger(),
	}
}

// ExtendFunction wraps a directive and its input into the single system message
// that asks the model to act as the function.
func ExtendFunction(fn Function, input string) llm.Message {
	return llm.SystemMessage(fmt.Sprintf(`FUNCTION: %s
INSTRUCTION: You are a function printer. You ONLY print the results of functions.
Nothing else. No commentary. Here is the input of the function: %s.
Print out what the function will return.`, fn.Directive, input))
}

// Request sends the call, retrying once on a transient failure.
func (c *Client) Request(ctx context.Context, call Call) (string, error) {
	msg := ExtendFunction(call.Function, call.Input)
	if c.printer != nil {
		c.printer.PrintAgentMsg(terminal.AiCall, call.Role, call.Op)
	}

	rc := c.cfg.Retry
	rc.OnRetry = func(attempt int, err error) {
		c.metrics.RecordAICall(call.Function.Name, "retry")
		c.logger.Warn().Err(err).
			Str("function", call.Function.Name).
			Int("attempt", attempt).
			Msg("prompted-function call failed, retrying")
	}

	var text string
	err := retry.Do(ctx, rc, func(ctx context.Context) error {
		resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
			Messages:    []llm.Message{msg},
			Temperature: c.cfg.Temperature,
		})
		if err != nil {
			return err
		}
		text = resp.Text
		return nil
	})
	if err != nil {
		c.metrics.RecordAICall(call.Function.Name, "error")
		return "", perrors.NewAgentError(perrors.ErrTransientService, call.Role, call.Op, err).
			WithDetail("directive: " + call.Function.Name)
	}

	c.metrics.RecordAICall(call.Function.Name, "ok")
	c.logger.Debug().
		Str("function", call.Function.Name).
		Str("role", call.Role).
		Int("answer_bytes", len(text)).
		Msg("prompted-function answered")
	return text, nil
}

// Decode requests a structured answer and decodes it into T. It also returns the
// raw answer text. A decode failure is not retried.
func Decode[T any](ctx context.Context, c Caller, call Call) (T, string, error) {
	var out T
	raw, err := c.Request(ctx, call)
	if err != nil {
		return out, "", err
	}
	if err := json.Unmarshal([]byte(StripFence(raw)), &out); err != nil {
		return out, raw, perrors.NewAgentError(perrors.ErrDecode, call.Role, call.Op, err).
			WithDetail(fmt.Sprintf("directive: %s\nanswer: %s", call.Function.Name, truncate(raw, 500)))
	}
	return out, raw, nil
}

// StripFence removes a surrounding Markdown code fence, if any.
func StripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
