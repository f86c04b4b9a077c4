package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/forge/internal/agent"
)

func sampleReport(err error) Report {
	return Report{
		RunID: "run-1",
		Agent: agent.BasicAgent{
			Objective: "Develops backend code for webserver and json database",
			Position:  "Backend Developer",
			State:     agent.Finishing,
		},
		Duration: 1500 * time.Millisecond,
		Err:      err,
	}
}

func TestLogSink_Report(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSink(zerolog.New(&buf))

	require.NoError(t, s.Report(context.Background(), sampleReport(nil)))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "Backend Developer", line["role"])
	assert.Equal(t, "finishing", line["state"])
	assert.Equal(t, "run-1", line["run_id"])
}

func TestLogSink_ReportError(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSink(zerolog.New(&buf))

	require.NoError(t, s.Report(context.Background(), sampleReport(errors.New("too many bugs"))))
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "too many bugs")
}

func TestSlackSink_Report(t *testing.T) {
	var form map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "channel": "C123", "ts": "1700000000.000100"}`))
	}))
	defer srv.Close()

	api := slack.New("xoxb-test", slack.OptionAPIURL(srv.URL+"/"))
	s := NewSlackSink(api, "C123")

	require.NoError(t, s.Report(context.Background(), sampleReport(nil)))
	require.Contains(t, form, "channel")
	assert.Equal(t, "C123", form["channel"][0])
	assert.Contains(t, form["text"][0], "*Backend Developer*")
	assert.Contains(t, form["text"][0], "run `run-1`")
}

func TestSlackSink_ReportAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": false, "error": "channel_not_found"}`))
	}))
	defer srv.Close()

	s := NewSlackSink(slack.New("xoxb-test", slack.OptionAPIURL(srv.URL+"/")), "C404")
	err := s.Report(context.Background(), sampleReport(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestFormatReport(t *testing.T) {
	text := formatReport(sampleReport(errors.New("build failed")))
	assert.Contains(t, text, ":x:")
	assert.Contains(t, text, "1.5s")
	assert.Contains(t, text, "```build failed```")

	text = formatReport(sampleReport(nil))
	assert.Contains(t, text, ":white_check_mark:")
	assert.NotContains(t, text, "```")
}

type recordingSink struct {
	reports []Report
	err     error
}

func (s *recordingSink) Report(_ context.Context, r Report) error {
	s.reports = append(s.reports, r)
	return s.err
}

func TestMulti_CallsEverySink(t *testing.T) {
	a := &recordingSink{err: errors.New("a down")}
	b := &recordingSink{}
	m := Multi{a, nil, b}

	err := m.Report(context.Background(), sampleReport(nil))

	assert.EqualError(t, err, "a down")
	assert.Len(t, a.reports, 1)
	assert.Len(t, b.reports, 1)
}

func TestReport_Status(t *testing.T) {
	assert.Equal(t, "ok", sampleReport(nil).Status())
	assert.Equal(t, "error", sampleReport(errors.New("x")).Status())
}
