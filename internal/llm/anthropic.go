package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/forge/internal/errors"
)

const (
	anthropicAPIBase    = "https://api.anthropic.com/v1"
	anthropicAPIVersion = "2023-06-01"
	defaultMaxTokens    = 4096
	defaultModel        = "claude-sonnet-4-5"
)

// AnthropicProvider implements Provider using the Anthropic Messages API.
type AnthropicProvider struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
	logger    zerolog.Logger
}

// AnthropicOption configures the provider.
type AnthropicOption func(*AnthropicProvider)

func WithModel(model string) AnthropicOption {
	return func(p *AnthropicProvider) {
		if model != "" {
			p.model = model
		}
	}
}

func WithMaxTokens(n int) AnthropicOption {
	return func(p *AnthropicProvider) { p.maxTokens = n }
}

func WithHTTPClient(c *http.Client) AnthropicOption {
	return func(p *AnthropicProvider) { p.client = c }
}

func WithBaseURL(u string) AnthropicOption {
	return func(p *AnthropicProvider) { p.baseURL = u }
}

func WithLogger(l zerolog.Logger) AnthropicOption {
	return func(p *AnthropicProvider) { p.logger = l.With().Str("component", "llm.anthropic").Logger() }
}

// NewAnthropicProvider constructs a new Anthropic provider.
func NewAnthropicProvider(apiKey string, opts ...AnthropicOption) *AnthropicProvider {
	p := &AnthropicProvider{
		apiKey:    apiKey,
		baseURL:   anthropicAPIBase,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
		client:    &http.Client{Timeout: 120 * time.Second},
		logger:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *AnthropicProvider) ModelID() string { return p.model }

// ---- Anthropic wire types ----

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

type anthropicResponse struct {
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// buildRequest folds system-role messages into the system prompt; the Messages API
// only accepts user and assistant turns.
func (p *AnthropicProvider) buildRequest(req CompletionRequest) anthropicRequest {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}
	maxTok := p.maxTokens
	if req.MaxTokens > 0 {
		maxTok = req.MaxTokens
	}

	ar := anthropicRequest{
		Model:       model,
		MaxTokens:   maxTok,
		System:      req.SystemPrompt,
		Temperature: req.Temperature,
	}
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			if ar.System != "" {
				ar.System += "\n\n"
			}
			ar.System += m.Content
			continue
		}
		ar.Messages = append(ar.Messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}
	if len(ar.Messages) == 0 {
		// The API rejects a conversation without a user turn.
		ar.Messages = []anthropicMessage{{Role: RoleUser, Content: "Print the function result."}}
	}
	return ar
}

// Complete sends a blocking completion request.
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ar := p.buildRequest(req)
	body, err := json.Marshal(ar)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("anthropic http: %w: %w", perrors.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w: %w", perrors.ErrUnavailable, err)
	}

	var ar2 anthropicResponse
	if err := json.Unmarshal(raw, &ar2); err != nil {
		if resp.StatusCode >= 300 {
			return nil, perrors.NewAPIError("anthropic", resp.StatusCode, string(raw))
		}
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if ar2.Error != nil || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if ar2.Error != nil {
			msg = ar2.Error.Type + ": " + ar2.Error.Message
		}
		return nil, perrors.NewAPIError("anthropic", resp.StatusCode, msg)
	}

	out := &CompletionResponse{
		StopReason:   ar2.StopReason,
		InputTokens:  ar2.Usage.InputTokens,
		OutputTokens: ar2.Usage.OutputTokens,
	}
	for _, block := range ar2.Content {
		if block.Type == "text" {
			out.Text += block.Text
		}
	}

	p.logger.Debug().
		Str("model", ar.Model).
		Str("stop_reason", out.StopReason).
		Int("in_tokens", out.InputTokens).
		Int("out_tokens", out.OutputTokens).
		Msg("anthropic complete")
	return out, nil
}
