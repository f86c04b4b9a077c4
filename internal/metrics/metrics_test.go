package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_New(t *testing.T) {
	m := New()
	assert.NotNil(t, m.AgentRunsTotal)
	assert.NotNil(t, m.AgentDuration)
	assert.NotNil(t, m.AICallsTotal)
	assert.NotNil(t, m.BuildAttemptsTotal)
	assert.NotNil(t, m.ProbesTotal)
	assert.NotNil(t, m.BugCount)
}

func TestMetrics_RecordAgentRun(t *testing.T) {
	m := New()
	m.RecordAgentRun("Solutions Architect", "completed", 1.5)
	m.RecordAgentRun("Backend developer", "error", 3)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `forge_agent_runs_total{role="Solutions Architect",status="completed"} 1`)
	assert.Contains(t, body, `forge_agent_runs_total{role="Backend developer",status="error"} 1`)
	assert.Contains(t, body, `forge_agent_duration_seconds_count{role="Backend developer"} 1`)
}

func TestMetrics_RecordBuild(t *testing.T) {
	m := New()
	m.RecordBuild("failure", 1)
	m.RecordBuild("failure", 2)
	m.RecordBuild("success", 0)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `forge_build_attempts_total{result="failure"} 2`)
	assert.Contains(t, body, `forge_build_attempts_total{result="success"} 1`)
	assert.Contains(t, body, `forge_backend_bug_count 0`)
}

func TestMetrics_RecordAICallAndProbe(t *testing.T) {
	m := New()
	m.RecordAICall("print_project_scope", "ok")
	m.RecordProbe("ok")
	m.RecordProbe("bad_status")

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `forge_ai_calls_total{function="print_project_scope",status="ok"} 1`)
	assert.Contains(t, body, `forge_endpoint_probes_total{result="bad_status"} 1`)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordAgentRun("r", "ok", 1)
		m.RecordAICall("f", "ok")
		m.RecordBuild("success", 0)
		m.RecordProbe("ok")
	})
}

func getMetricsBody(t *testing.T, m *Metrics) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
