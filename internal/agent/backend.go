package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/forge/internal/aifunc"
	perrors "github.com/p-blackswan/forge/internal/errors"
	"github.com/p-blackswan/forge/internal/llm"
	"github.com/p-blackswan/forge/internal/metrics"
	"github.com/p-blackswan/forge/internal/project"
	"github.com/p-blackswan/forge/internal/terminal"
	"github.com/p-blackswan/forge/internal/tool"
)

const backendPosition = "Backend Developer"

// DefaultMaxBugCount is how many failed builds are tolerated before giving up.
const DefaultMaxBugCount = 2

// Process is a running server that can be terminated.
type Process interface {
	Stop() error
}

// Builder compiles the generated project and launches it.
type Builder interface {
	Build(ctx context.Context) (tool.BuildResult, error)
	Start(ctx context.Context) (Process, error)
}

// Prober issues GET requests against the launched server.
type Prober interface {
	Check(ctx context.Context, route string) (int, error)
	URL(route string) string
}

// Confirmer asks the operator to approve generated code before it is executed.
type Confirmer interface {
	ConfirmSafeCode() (bool, error)
}

// RunnerBuilder adapts a tool.Runner to the Builder interface.
func RunnerBuilder(r *tool.Runner) Builder { return runnerBuilder{r} }

type runnerBuilder struct{ r *tool.Runner }

func (b runnerBuilder) Build(ctx context.Context) (tool.BuildResult, error) { return b.r.Build(ctx) }

func (b runnerBuilder) Start(ctx context.Context) (Process, error) {
	p, err := b.r.Start(ctx)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// BackendConfig tunes the backend developer's build loop.
type BackendConfig struct {
	MaxBugCount int
	// WarmUp is how long to wait after launching the server before probing it.
	WarmUp time.Duration
}

// BackendSpec wires a backend developer to its collaborators.
type BackendSpec struct {
	AI      aifunc.Caller
	Store   *project.Store
	Builder Builder
	Prober  Prober
	Confirm Confirmer
	Printer aifunc.StatusPrinter
	Metrics *metrics.Metrics
	Config  BackendConfig
	Logger  zerolog.Logger
}

// BackendDeveloper writes, builds, fixes and smoke-tests the web server code.
type BackendDeveloper struct {
	attributes BasicAgent
	bugErrors  string
	bugCount   int
	failures   []*perrors.AgentError

	ai      aifunc.Caller
	store   *project.Store
	builder Builder
	prober  Prober
	confirm Confirmer
	printer aifunc.StatusPrinter
	metrics *metrics.Metrics
	cfg     BackendConfig
	logger  zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewBackendDeveloper creates a backend developer agent.
func NewBackendDeveloper(spec BackendSpec) *BackendDeveloper {
	if spec.Config.MaxBugCount <= 0 {
		spec.Config.MaxBugCount = DefaultMaxBugCount
	}
	if spec.Printer == nil {
		spec.Printer = nopPrinter{}
	}
	return &BackendDeveloper{
		attributes: BasicAgent{
			Objective: "Develops backend code for webserver and json database",
			Position:  backendPosition,
			State:     Discovery,
		},
		ai:      spec.AI,
		store:   spec.Store,
		builder: spec.Builder,
		prober:  spec.Prober,
		confirm: spec.Confirm,
		printer: spec.Printer,
		metrics: spec.Metrics,
		cfg:     spec.Config,
		logger:  spec.Logger.With().Str("component", "agent.backend").Logger(),
		sleep:   sleepCtx,
	}
}

// Attributes returns a snapshot of the agent descriptor.
func (b *BackendDeveloper) Attributes() BasicAgent { return b.attributes.Snapshot() }

// BugCount returns the number of consecutive failed builds.
func (b *BackendDeveloper) BugCount() int { return b.bugCount }

// BugErrors returns the stderr of the most recent failed build.
func (b *BackendDeveloper) BugErrors() string { return b.bugErrors }

// ProbeFailures returns the non-fatal endpoint failures recorded during testing.
func (b *BackendDeveloper) ProbeFailures() []*perrors.AgentError {
	return append([]*perrors.AgentError(nil), b.failures...)
}

// Execute runs the developer until it reaches Finishing.
func (b *BackendDeveloper) Execute(ctx context.Context, fs *project.FactSheet) error {
	for b.attributes.State != Finishing {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch b.attributes.State {
		case Discovery:
			if err := b.callInitialBackendCode(ctx, fs); err != nil {
				return err
			}
			if err := b.attributes.UpdateState(Working); err != nil {
				return err
			}

		case Working:
			var err error
			if b.bugCount == 0 {
				err = b.callImprovedBackendCode(ctx, fs)
			} else {
				err = b.callFixCodeBugs(ctx, fs)
			}
			if err != nil {
				return err
			}
			if err := b.attributes.UpdateState(UnitTesting); err != nil {
				return err
			}

		case UnitTesting:
			if err := b.unitTest(ctx, fs); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *BackendDeveloper) callInitialBackendCode(ctx context.Context, fs *project.FactSheet) error {
	template, err := b.store.ReadCodeTemplate()
	if err != nil {
		return perrors.NewAgentError(perrors.ErrInvalidInput, backendPosition, "read code template", err)
	}
	input := fmt.Sprintf("CODE TEMPLATE: %s \n PROJECT_DESCRIPTION: %s \n", template, fs.Description())
	return b.writeCode(ctx, fs, aifunc.Call{
		Function: aifunc.PrintBackendWebserverCode,
		Role:     backendPosition,
		Op:       "Writing backend code",
		Input:    input,
	})
}

func (b *BackendDeveloper) callImprovedBackendCode(ctx context.Context, fs *project.FactSheet) error {
	sheet, err := json.Marshal(fs)
	if err != nil {
		return perrors.NewAgentError(perrors.ErrInvalidInput, backendPosition, "encode fact sheet", err)
	}
	input := fmt.Sprintf("CODE TEMPLATE: %s \n PROJECT_DESCRIPTION: %s \n", fs.Code(), sheet)
	return b.writeCode(ctx, fs, aifunc.Call{
		Function: aifunc.PrintImprovedWebserverCode,
		Role:     backendPosition,
		Op:       "Improving backend code",
		Input:    input,
	})
}

func (b *BackendDeveloper) callFixCodeBugs(ctx context.Context, fs *project.FactSheet) error {
	input := fmt.Sprintf("BROKEN_CODE: %s \n ERROR_BUGS: %s \n\n"+
		"THIS FUNCTION ONLY OUTPUTS THE CODE. JUST THE WORKING CODE NOTHING MORE", fs.Code(), b.bugErrors)
	return b.writeCode(ctx, fs, aifunc.Call{
		Function: aifunc.PrintFixedCode,
		Role:     backendPosition,
		Op:       "Fixing backend code bugs",
		Input:    input,
	})
}

func (b *BackendDeveloper) writeCode(ctx context.Context, fs *project.FactSheet, call aifunc.Call) error {
	answer, err := b.ai.Request(ctx, call)
	b.remember(call, answer)
	if err != nil {
		return err
	}
	code := aifunc.StripFence(answer)
	if err := b.store.SaveBackendCode(code); err != nil {
		return perrors.NewAgentError(perrors.ErrInvalidInput, backendPosition, "save backend code", err)
	}
	fs.SetBackendCode(code)
	b.logger.Info().Str("function", call.Function.Name).Int("bytes", len(code)).Msg("backend code written")
	return nil
}

func (b *BackendDeveloper) unitTest(ctx context.Context, fs *project.FactSheet) error {
	b.printer.PrintAgentMsg(terminal.UnitTest, backendPosition,
		"Backend Code Unit Testing: ensuring safe code")
	approved, err := b.confirm.ConfirmSafeCode()
	if err != nil {
		return perrors.NewAgentError(perrors.ErrOperatorRejection, backendPosition, "confirm code", err)
	}
	if !approved {
		return perrors.NewAgentError(perrors.ErrOperatorRejection, backendPosition, "confirm code", nil).
			WithDetail("It is time to come back to this code later")
	}

	b.printer.PrintAgentMsg(terminal.UnitTest, backendPosition,
		"Backend Code Unit Testing: building project...")
	res, err := b.builder.Build(ctx)
	if err != nil {
		return perrors.NewAgentError(perrors.ErrProcess, backendPosition, "build", err)
	}
	if !res.Success() {
		b.bugErrors = res.Stderr
		b.bugCount++
		b.metrics.RecordBuild("failure", b.bugCount)
		b.logger.Warn().Int("bug_count", b.bugCount).Int("exit_code", res.ExitCode).Msg("build failed")
		b.printer.PrintAgentMsg(terminal.Issue, backendPosition,
			"Backend Code Unit Testing: Error building backend code")

		if b.bugCount > b.cfg.MaxBugCount {
			buildErr := perrors.NewAgentError(perrors.ErrBuildFailure, backendPosition, "build", nil)
			return perrors.NewAgentError(perrors.ErrTooManyBugs, backendPosition, "build", buildErr).
				WithDetail(res.Stderr)
		}
		return b.attributes.UpdateState(Working)
	}

	b.bugCount = 0
	b.metrics.RecordBuild("success", 0)
	b.printer.PrintAgentMsg(terminal.UnitTest, backendPosition,
		"Backend Code Unit Testing: Test server build successful...")

	routes, raw, err := b.callExtractRESTAPIEndpoints(ctx)
	if err != nil {
		return err
	}
	probeable := project.FilterProbeable(routes)
	if err := fs.SetEndpointSchema(probeable); err != nil {
		return perrors.NewAgentError(perrors.ErrInvalidInput, backendPosition, "store endpoint schema", err)
	}

	if err := b.serveAndProbe(ctx, probeable, raw); err != nil {
		return err
	}

	b.printer.PrintAgentMsg(terminal.UnitTest, backendPosition, "Backend testing complete...")
	return b.attributes.UpdateState(Finishing)
}

func (b *BackendDeveloper) callExtractRESTAPIEndpoints(ctx context.Context) ([]project.RouteObject, string, error) {
	source, err := b.store.ReadExecMain()
	if err != nil {
		return nil, "", perrors.NewAgentError(perrors.ErrInvalidInput, backendPosition, "read backend code", err)
	}
	call := aifunc.Call{
		Function: aifunc.PrintRESTAPIEndpoints,
		Role:     backendPosition,
		Op:       "Extracting API endpoints",
		Input:    fmt.Sprintf("CODE_INPUT: %s", source),
	}
	routes, raw, err := aifunc.Decode[[]project.RouteObject](ctx, b.ai, call)
	b.remember(call, raw)
	if err != nil {
		return nil, raw, err
	}
	return routes, aifunc.StripFence(raw), nil
}

// serveAndProbe launches the server, checks every route, saves the raw endpoint
// JSON and stops the server. With no routes the server is never launched.
func (b *BackendDeveloper) serveAndProbe(ctx context.Context, routes []project.RouteObject, raw string) (err error) {
	if len(routes) > 0 {
		b.printer.PrintAgentMsg(terminal.UnitTest, backendPosition,
			"Backend Code Unit Testing: Starting web server...")
		proc, startErr := b.builder.Start(ctx)
		if startErr != nil {
			return perrors.NewAgentError(perrors.ErrProcess, backendPosition, "start server", startErr)
		}
		defer func() {
			if stopErr := proc.Stop(); stopErr != nil && err == nil {
				err = perrors.NewAgentError(perrors.ErrProcess, backendPosition, "stop server", stopErr)
			}
		}()

		b.printer.PrintAgentMsg(terminal.UnitTest, backendPosition,
			fmt.Sprintf("Backend Code Unit Testing: Launching tests on server in %s...", b.cfg.WarmUp))
		if err := b.sleep(ctx, b.cfg.WarmUp); err != nil {
			return err
		}
		b.probe(ctx, proc, routes)
	}

	if err := b.store.SaveAPIEndpoints(raw); err != nil {
		return perrors.NewAgentError(perrors.ErrInvalidInput, backendPosition, "save api endpoints", err)
	}
	return nil
}

func (b *BackendDeveloper) probe(ctx context.Context, proc Process, routes []project.RouteObject) {
	for _, r := range routes {
		url := b.prober.URL(r.Route)
		b.printer.PrintAgentMsg(terminal.UnitTest, backendPosition,
			fmt.Sprintf("Testing endpoint '%s'...", r.Route))

		status, err := b.prober.Check(ctx, r.Route)
		if err != nil {
			if stopErr := proc.Stop(); stopErr != nil {
				b.logger.Error().Err(stopErr).Msg("stop server after probe transport error")
			}
			b.recordFailure(r, url, perrors.NewAgentError(perrors.ErrProbeFailure, backendPosition, "probe", err).
				WithDetail("Error checking backend " + url))
			continue
		}
		if status != http.StatusOK {
			b.recordFailure(r, url, perrors.NewAgentError(perrors.ErrProbeFailure, backendPosition, "probe", nil).
				WithDetail(fmt.Sprintf("WARNING: Failed to call backend url endpoint %s (status %d)", url, status)))
			continue
		}
		b.metrics.RecordProbe("ok")
	}
}

func (b *BackendDeveloper) recordFailure(r project.RouteObject, url string, failure *perrors.AgentError) {
	b.failures = append(b.failures, failure)
	b.metrics.RecordProbe("failure")
	b.logger.Warn().Err(failure).Str("route", r.Route).Str("url", url).Msg("endpoint probe failed")
	b.printer.PrintAgentMsg(terminal.Issue, backendPosition, failure.Detail)
}

func (b *BackendDeveloper) remember(call aifunc.Call, answer string) {
	msgs := []llm.Message{aifunc.ExtendFunction(call.Function, call.Input)}
	if answer != "" {
		msgs = append(msgs, llm.AssistantMessage(answer))
	}
	b.attributes.Remember(msgs...)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
