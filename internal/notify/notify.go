// Package notify reports finished agents to observability sinks.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/p-blackswan/forge/internal/agent"
)

// Report describes one agent that finished executing, successfully or not.
type Report struct {
	RunID    string
	Agent    agent.BasicAgent
	Duration time.Duration
	Err      error
}

// Status is "ok" or "error".
func (r Report) Status() string {
	if r.Err != nil {
		return "error"
	}
	return "ok"
}

// Sink receives agent reports.
type Sink interface {
	Report(ctx context.Context, r Report) error
}

// LogSink writes reports as structured log events.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a sink that logs every report.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "notify.log").Logger()}
}

func (s *LogSink) Report(_ context.Context, r Report) error {
	ev := s.logger.Info()
	if r.Err != nil {
		ev = s.logger.Error().Err(r.Err)
	}
	ev.Str("run_id", r.RunID).
		Str("role", r.Agent.Position).
		Str("objective", r.Agent.Objective).
		Stringer("state", r.Agent.State).
		Int("memory", len(r.Agent.Memory)).
		Dur("duration", r.Duration).
		Msg("agent finished")
	return nil
}

// SlackAPI is the minimal Slack API surface needed to post reports.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackSink posts reports to a Slack channel.
type SlackSink struct {
	api     SlackAPI
	channel string
}

// NewSlackSink creates a sink that posts to channel.
func NewSlackSink(api SlackAPI, channel string) *SlackSink {
	return &SlackSink{api: api, channel: channel}
}

func (s *SlackSink) Report(ctx context.Context, r Report) error {
	_, _, err := s.api.PostMessageContext(ctx, s.channel, slack.MsgOptionText(formatReport(r), false))
	if err != nil {
		return fmt.Errorf("post agent report: %w", err)
	}
	return nil
}

func formatReport(r Report) string {
	var b strings.Builder
	icon := ":white_check_mark:"
	if r.Err != nil {
		icon = ":x:"
	}
	fmt.Fprintf(&b, "%s *%s* finished in %s (state: %s)\n", icon, r.Agent.Position, r.Duration.Round(time.Millisecond), r.Agent.State)
	fmt.Fprintf(&b, "_%s_\n", r.Agent.Objective)
	if r.RunID != "" {
		fmt.Fprintf(&b, "run `%s`\n", r.RunID)
	}
	if r.Err != nil {
		fmt.Fprintf(&b, "```%s```", r.Err)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Multi fans a report out to several sinks. Every sink is called; errors are joined.
type Multi []Sink

func (m Multi) Report(ctx context.Context, r Report) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Report(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
