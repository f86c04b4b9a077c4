package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// LLM
	LLMProvider     string        `envconfig:"LLM_PROVIDER" default:"openai"` // "openai" or "anthropic"
	OpenAIKey       string        `envconfig:"OPEN_AI_KEY"`
	OpenAIOrg       string        `envconfig:"OPEN_AI_ORG"`
	OpenAIModel     string        `envconfig:"OPENAI_MODEL" default:"gpt-4-turbo-preview"`
	AnthropicAPIKey string        `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicModel  string        `envconfig:"ANTHROPIC_MODEL"`
	LLMTemperature  float64       `envconfig:"LLM_TEMPERATURE" default:"0.1"`
	LLMTimeout      time.Duration `envconfig:"LLM_TIMEOUT" default:"5m"`

	// Generated project layout
	CodeTemplatePath     string `envconfig:"CODE_TEMPLATE_PATH" default:"./web_template/src/template.rs"`
	ExecMainPath         string `envconfig:"EXEC_MAIN_PATH" default:"./web_template/src/main.rs"`
	APISchemaPath        string `envconfig:"API_SCHEMA_PATH" default:"./schemas/api_schema.json"`
	WebServerProjectPath string `envconfig:"WEB_SERVER_PROJECT_PATH" default:"./web_template/"`

	// Build and validation
	BuildCommand string        `envconfig:"BUILD_COMMAND" default:"cargo"`
	BuildArgs    []string      `envconfig:"BUILD_ARGS" default:"build"` // comma-separated
	RunArgs      []string      `envconfig:"RUN_ARGS" default:"run"`     // comma-separated
	ProbePort    int           `envconfig:"PROBE_PORT" default:"8080"`
	WarmUpDelay  time.Duration `envconfig:"WARMUP_DELAY" default:"5s"`
	ProbeTimeout time.Duration `envconfig:"PROBE_TIMEOUT" default:"5s"`
	MaxBugCount  int           `envconfig:"MAX_BUG_COUNT" default:"2"`
	AutoConfirm  bool          `envconfig:"AUTO_CONFIRM" default:"false"`

	// Pipeline composition (optional YAML file)
	PipelineFile string `envconfig:"PIPELINE_FILE"`

	// Observability (optional)
	MetricsAddr   string `envconfig:"METRICS_ADDR"`
	SlackBotToken string `envconfig:"SLACK_BOT_TOKEN"`
	SlackChannel  string `envconfig:"SLACK_CHANNEL"`
}

// SlackEnabled returns true if agent reports should be posted to Slack.
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackChannel != ""
}

// MetricsEnabled returns true if the metrics endpoint should be served.
func (c *Config) MetricsEnabled() bool {
	return c.MetricsAddr != ""
}

// Validate checks the settings a build run cannot start without.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.LLMProvider) {
	case "openai":
		if c.OpenAIKey == "" {
			errs = append(errs, errors.New("OPEN_AI_KEY is required for the openai provider"))
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required for the anthropic provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	if c.ProbePort <= 0 || c.ProbePort > 65535 {
		errs = append(errs, fmt.Errorf("PROBE_PORT %d out of range", c.ProbePort))
	}
	if c.MaxBugCount < 1 {
		errs = append(errs, errors.New("MAX_BUG_COUNT must be at least 1"))
	}
	if c.BuildCommand == "" {
		errs = append(errs, errors.New("BUILD_COMMAND is required"))
	}
	return errors.Join(errs...)
}

// LoadDotEnv loads variables from the given .env files (default ".env") into
// the process environment. Missing files are ignored; existing variables win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	present := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("loading dotenv: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// LoadWithPrefix reads configuration with a prefix.
func LoadWithPrefix(prefix string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config with prefix %s: %w", prefix, err)
	}
	return &cfg, nil
}
