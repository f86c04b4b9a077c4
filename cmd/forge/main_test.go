package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/forge/internal/agent"
	"github.com/p-blackswan/forge/internal/config"
	"github.com/p-blackswan/forge/internal/llm"
	"github.com/p-blackswan/forge/internal/metrics"
	"github.com/p-blackswan/forge/internal/terminal"
)

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "forge dev (none)\n", out.String())
}

func TestEndpointsCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api_schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"is_route_dynamic": "false", "method": "get", "route": "/items"},
		{"is_route_dynamic": "true", "method": "get", "route": "/items/{id}"}
	]`), 0o644))
	t.Setenv("API_SCHEMA_PATH", path)
	t.Setenv("LOG_LEVEL", "disabled")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"endpoints"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "/items")
	assert.NotContains(t, out.String(), "{id}")

	out.Reset()
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"endpoints", "--all"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "/items/{id}")
}

func TestNewProvider(t *testing.T) {
	cfg := &config.Config{LLMProvider: "openai", OpenAIKey: "sk", OpenAIModel: "gpt-4"}
	p, err := newProvider(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &llm.OpenAIProvider{}, p)
	assert.Equal(t, "gpt-4", p.ModelID())

	cfg = &config.Config{LLMProvider: "Anthropic", AnthropicAPIKey: "sk-ant", AnthropicModel: "claude-x"}
	p, err = newProvider(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &llm.AnthropicProvider{}, p)
	assert.Equal(t, "claude-x", p.ModelID())

	_, err = newProvider(&config.Config{LLMProvider: "ollama"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestBuildAgents_Order(t *testing.T) {
	cfg := &config.Config{BuildCommand: "cargo", ProbePort: 8080, AutoConfirm: true}
	p := &config.Pipeline{Agents: []string{config.AgentBackendDeveloper, config.AgentSolutionsArchitect}}

	agents, err := buildAgents(p, cfg, agentDeps{
		console: terminal.NewConsole(&bytes.Buffer{}, &bytes.Buffer{}),
		metrics: metrics.New(),
		logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.IsType(t, &agent.BackendDeveloper{}, agents[0])
	assert.IsType(t, &agent.SolutionArchitect{}, agents[1])
	assert.Equal(t, "Backend Developer", agents[0].Attributes().Position)
}

func TestBuildAgents_Unknown(t *testing.T) {
	_, err := buildAgents(&config.Pipeline{Agents: []string{"qa_engineer"}}, &config.Config{}, agentDeps{})
	assert.Error(t, err)
}
