// Package config tests.
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.InDelta(t, 0.1, cfg.LLMTemperature, 1e-9)
	assert.Equal(t, "cargo", cfg.BuildCommand)
	assert.Equal(t, []string{"build"}, cfg.BuildArgs)
	assert.Equal(t, []string{"run"}, cfg.RunArgs)
	assert.Equal(t, 8080, cfg.ProbePort)
	assert.Equal(t, 5*time.Second, cfg.WarmUpDelay)
	assert.Equal(t, 5*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, 2, cfg.MaxBugCount)
	assert.False(t, cfg.AutoConfirm)
	assert.False(t, cfg.SlackEnabled())
	assert.False(t, cfg.MetricsEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("BUILD_ARGS", "build,--release")
	t.Setenv("WARMUP_DELAY", "250ms")
	t.Setenv("MAX_BUG_COUNT", "4")
	t.Setenv("AUTO_CONFIRM", "true")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_CHANNEL", "C123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"build", "--release"}, cfg.BuildArgs)
	assert.Equal(t, 250*time.Millisecond, cfg.WarmUpDelay)
	assert.Equal(t, 4, cfg.MaxBugCount)
	assert.True(t, cfg.AutoConfirm)
	assert.True(t, cfg.SlackEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("PROBE_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadWithPrefix(t *testing.T) {
	t.Setenv("FORGE_PROBE_PORT", "9090")
	cfg, err := LoadWithPrefix("FORGE")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ProbePort)
}

func TestValidate(t *testing.T) {
	os.Clearenv()
	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPEN_AI_KEY")

	cfg.OpenAIKey = "sk-test"
	assert.NoError(t, cfg.Validate())

	cfg.MaxBugCount = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_BUG_COUNT")
	cfg.MaxBugCount = 2

	cfg.LLMProvider = "ollama"
	cfg.ProbePort = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown LLM_PROVIDER")
	assert.Contains(t, err.Error(), "PROBE_PORT")
}

func TestLoadDotEnv(t *testing.T) {
	os.Clearenv()
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("OPEN_AI_KEY=sk-from-file\nOPEN_AI_ORG=org-1\n"), 0o600))
	t.Setenv("OPEN_AI_ORG", "org-from-env")

	require.NoError(t, LoadDotEnv(path))
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-from-file", cfg.OpenAIKey)
	assert.Equal(t, "org-from-env", cfg.OpenAIOrg)
}

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}
