package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/spf13/cobra"

	"github.com/p-blackswan/forge/internal/agent"
	"github.com/p-blackswan/forge/internal/aifunc"
	"github.com/p-blackswan/forge/internal/config"
	"github.com/p-blackswan/forge/internal/llm"
	"github.com/p-blackswan/forge/internal/manager"
	"github.com/p-blackswan/forge/internal/metrics"
	"github.com/p-blackswan/forge/internal/notify"
	"github.com/p-blackswan/forge/internal/project"
	"github.com/p-blackswan/forge/internal/terminal"
	"github.com/p-blackswan/forge/internal/tool"
)

type buildFlags struct {
	autoYes      bool
	pipelineFile string
}

func newBuildCmd() *cobra.Command {
	var flags buildFlags
	cmd := &cobra.Command{
		Use:   "build [request]",
		Short: "Run the agent pipeline for a web server request",
		Long: `Run the agent pipeline for a web server request.

The request is taken from the arguments, or asked for interactively when none
is given. Agents run in the order listed in the pipeline file (PIPELINE_FILE or
--pipeline); by default only the solutions architect runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args, flags)
		},
	}
	cmd.Flags().BoolVarP(&flags.autoYes, "yes", "y", false,
		"Approve AI-written code without prompting (env: AUTO_CONFIRM)")
	cmd.Flags().StringVarP(&flags.pipelineFile, "pipeline", "p", "",
		"YAML file listing the agents to run (env: PIPELINE_FILE)")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string, flags buildFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flags.autoYes {
		cfg.AutoConfirm = true
	}
	if flags.pipelineFile != "" {
		cfg.PipelineFile = flags.pipelineFile
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	runID := uuid.NewString()
	logger := newLogger(cfg).With().Str("run_id", runID).Logger()

	pipeline, err := config.LoadPipeline(cfg.PipelineFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	console := terminal.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout())
	request := strings.TrimSpace(strings.Join(args, " "))
	if request == "" {
		request, err = console.Ask("What webserver are we building today?")
		if err != nil {
			return err
		}
	}
	if request == "" {
		return errors.New("no request given")
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("llm_provider", cfg.LLMProvider).
		Strs("agents", pipeline.Agents).
		Bool("slack_enabled", cfg.SlackEnabled()).
		Bool("auto_confirm", cfg.AutoConfirm).
		Msg("starting forge build")

	m := metrics.New()
	if cfg.MetricsEnabled() {
		shutdown := serveMetrics(cfg.MetricsAddr, m, logger)
		defer shutdown()
	}

	provider, err := newProvider(cfg, logger)
	if err != nil {
		return err
	}
	ai := aifunc.NewClient(provider, aifunc.Config{Temperature: cfg.LLMTemperature}, console, m, logger)

	sinks := notify.Multi{notify.NewLogSink(logger)}
	if cfg.SlackEnabled() {
		sinks = append(sinks, notify.NewSlackSink(slack.New(cfg.SlackBotToken), cfg.SlackChannel))
	}

	mgr, err := manager.New(ctx, request, ai, logger,
		manager.WithRunID(runID),
		manager.WithSink(sinks),
		manager.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	agents, err := buildAgents(pipeline, cfg, agentDeps{
		ai:      ai,
		console: console,
		metrics: m,
		logger:  logger,
	})
	if err != nil {
		return err
	}
	for _, a := range agents {
		mgr.Register(a)
	}

	if err := mgr.Run(ctx); err != nil {
		return err
	}

	printSummary(cmd, mgr.FactSheet())
	return nil
}

func newProvider(cfg *config.Config, logger zerolog.Logger) (llm.Provider, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "openai":
		return llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:  cfg.OpenAIKey,
			OrgID:   cfg.OpenAIOrg,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.LLMTimeout,
		}, logger), nil
	case "anthropic":
		opts := []llm.AnthropicOption{
			llm.WithLogger(logger),
			llm.WithHTTPClient(&http.Client{Timeout: cfg.LLMTimeout}),
		}
		if cfg.AnthropicModel != "" {
			opts = append(opts, llm.WithModel(cfg.AnthropicModel))
		}
		return llm.NewAnthropicProvider(cfg.AnthropicAPIKey, opts...), nil
	}
	return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
}

type agentDeps struct {
	ai      aifunc.Caller
	console *terminal.Console
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// buildAgents instantiates the pipeline's agents in order.
func buildAgents(p *config.Pipeline, cfg *config.Config, d agentDeps) ([]agent.SpecialFunctions, error) {
	agents := make([]agent.SpecialFunctions, 0, len(p.Agents))
	for _, name := range p.Agents {
		switch name {
		case config.AgentSolutionsArchitect:
			agents = append(agents, agent.NewSolutionArchitect(d.ai, d.logger))
		case config.AgentBackendDeveloper:
			agents = append(agents, newBackendDeveloper(cfg, d))
		default:
			return nil, fmt.Errorf("unknown agent %q", name)
		}
	}
	return agents, nil
}

func newBackendDeveloper(cfg *config.Config, d agentDeps) *agent.BackendDeveloper {
	var confirm agent.Confirmer = d.console
	if cfg.AutoConfirm {
		confirm = terminal.AutoConfirm{}
	}
	runner := tool.NewRunner(tool.RunnerConfig{
		Dir:       cfg.WebServerProjectPath,
		Command:   cfg.BuildCommand,
		BuildArgs: cfg.BuildArgs,
		RunArgs:   cfg.RunArgs,
	}, d.logger)

	return agent.NewBackendDeveloper(agent.BackendSpec{
		AI:      d.ai,
		Store:   newStore(cfg, d.logger),
		Builder: agent.RunnerBuilder(runner),
		Prober:  tool.NewProber(cfg.ProbePort, cfg.ProbeTimeout, d.logger),
		Confirm: confirm,
		Printer: d.console,
		Metrics: d.metrics,
		Config: agent.BackendConfig{
			MaxBugCount: cfg.MaxBugCount,
			WarmUp:      cfg.WarmUpDelay,
		},
		Logger: d.logger,
	})
}

func newStore(cfg *config.Config, logger zerolog.Logger) *project.Store {
	return project.NewStore(project.Paths{
		CodeTemplate: cfg.CodeTemplatePath,
		ExecMain:     cfg.ExecMainPath,
		APISchema:    cfg.APISchemaPath,
	}, logger)
}

// serveMetrics exposes /metrics on addr until the returned func is called.
func serveMetrics(addr string, m *metrics.Metrics, logger zerolog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}
}

func printSummary(cmd *cobra.Command, fs *project.FactSheet) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nProject: %s\n", fs.Description())
	if s := fs.ProjectScope; s != nil {
		fmt.Fprintf(out, "Scope: crud=%t auth=%t external_urls=%t\n",
			s.IsCrudRequired, s.IsUserLoginAndLogout, s.IsExternalURLsRequired)
	}
	for _, u := range fs.ExternalURLs {
		fmt.Fprintf(out, "External URL: %s\n", u)
	}
	if fs.BackendCode != nil {
		fmt.Fprintf(out, "Backend code: %d bytes\n", len(fs.Code()))
	}
	for _, r := range fs.APIEndpointSchema {
		fmt.Fprintf(out, "Endpoint: %s %s\n", strings.ToUpper(r.Method), r.Route)
	}
}
