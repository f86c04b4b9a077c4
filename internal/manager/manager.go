// Package manager sequences the pipeline agents over one shared fact sheet.
package manager

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/forge/internal/agent"
	"github.com/p-blackswan/forge/internal/aifunc"
	"github.com/p-blackswan/forge/internal/metrics"
	"github.com/p-blackswan/forge/internal/notify"
	"github.com/p-blackswan/forge/internal/project"
)

const managerPosition = "Project Manager"

// ManagingAgent owns the fact sheet and runs registered agents in order.
type ManagingAgent struct {
	runID     string
	factSheet *project.FactSheet
	agents    []agent.SpecialFunctions
	sink      notify.Sink
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// Option configures a ManagingAgent.
type Option func(*ManagingAgent)

// WithRunID tags reports and log lines with a run identifier.
func WithRunID(id string) Option {
	return func(m *ManagingAgent) { m.runID = id }
}

// WithSink sets where agent reports are delivered.
func WithSink(s notify.Sink) Option {
	return func(m *ManagingAgent) { m.sink = s }
}

// WithMetrics records agent runs.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *ManagingAgent) { m.metrics = mt }
}

// New derives the project description from the user request with a single
// model call and creates an empty fact sheet for it.
func New(ctx context.Context, request string, ai aifunc.Caller, logger zerolog.Logger, opts ...Option) (*ManagingAgent, error) {
	m := &ManagingAgent{
		logger: logger.With().Str("component", "manager").Logger(),
	}
	for _, o := range opts {
		o(m)
	}
	if m.runID != "" {
		m.logger = m.logger.With().Str("run_id", m.runID).Logger()
	}

	description, err := ai.Request(ctx, aifunc.Call{
		Function: aifunc.ConvertUserInputToGoal,
		Role:     managerPosition,
		Op:       "Converting user request into project goal",
		Input:    request,
	})
	if err != nil {
		return nil, err
	}
	m.factSheet = project.NewFactSheet(description)
	m.logger.Info().Str("description", m.factSheet.Description()).Msg("project goal derived")
	return m, nil
}

// Register appends an agent to the pipeline.
func (m *ManagingAgent) Register(a agent.SpecialFunctions) {
	m.agents = append(m.agents, a)
}

// Agents returns the number of registered agents.
func (m *ManagingAgent) Agents() int { return len(m.agents) }

// FactSheet returns the shared record.
func (m *ManagingAgent) FactSheet() *project.FactSheet { return m.factSheet }

// Run executes every agent strictly in registration order. The first agent
// error ends the run and is returned.
func (m *ManagingAgent) Run(ctx context.Context) error {
	for i, a := range m.agents {
		if err := ctx.Err(); err != nil {
			return err
		}

		role := a.Attributes().Position
		m.logger.Info().Int("step", i+1).Int("of", len(m.agents)).Str("role", role).Msg("agent starting")

		start := time.Now()
		err := a.Execute(ctx, m.factSheet)
		report := notify.Report{
			RunID:    m.runID,
			Agent:    a.Attributes(),
			Duration: time.Since(start),
			Err:      err,
		}
		m.metrics.RecordAgentRun(role, report.Status(), report.Duration.Seconds())
		if m.sink != nil {
			if serr := m.sink.Report(ctx, report); serr != nil {
				m.logger.Warn().Err(serr).Str("role", role).Msg("agent report not delivered")
			}
		}
		if err != nil {
			return err
		}
	}
	m.logger.Info().Int("agents", len(m.agents)).Msg("pipeline complete")
	return nil
}
