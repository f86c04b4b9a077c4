package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Prober issues GET requests against the locally running server.
type Prober struct {
	client  *http.Client
	baseURL string
	logger  zerolog.Logger
}

// NewProber creates a Prober for http://localhost:<port>.
// timeout bounds each request (0 = 5s).
func NewProber(port int, timeout time.Duration, logger zerolog.Logger) *Prober {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Prober{
		client:  &http.Client{Timeout: timeout},
		baseURL: fmt.Sprintf("http://localhost:%d", port),
		logger:  logger.With().Str("component", "tool.prober").Logger(),
	}
}

// URL returns the full URL probed for a route.
func (p *Prober) URL(route string) string {
	return p.baseURL + route
}

// Check sends a GET for the route and returns the status code. The error is
// only set for transport failures.
func (p *Prober) Check(ctx context.Context, route string) (int, error) {
	url := p.URL(route)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("probe: create request: %w", err)
	}

	p.logger.Debug().Str("url", url).Msg("probing endpoint")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	return resp.StatusCode, nil
}
