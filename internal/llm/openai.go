package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	perrors "github.com/p-blackswan/forge/internal/errors"
)

const defaultOpenAIModel = "gpt-4-turbo-preview"

// OpenAIConfig configures an OpenAIProvider.
type OpenAIConfig struct {
	APIKey  string
	OrgID   string
	Model   string
	BaseURL string // optional; defaults to the public API
	Timeout time.Duration
}

// OpenAIProvider implements Provider using the OpenAI chat completions API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
}

// NewOpenAIProvider constructs a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig, logger zerolog.Logger) *OpenAIProvider {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.OrgID = cfg.OrgID
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(oc),
		model:  model,
		logger: logger.With().Str("component", "llm.openai").Logger(),
	}
}

func (p *OpenAIProvider) ModelID() string { return p.model }

// Complete sends a blocking chat completion request.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	cr := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: float32(req.Temperature),
	}
	if req.MaxTokens > 0 {
		cr.MaxTokens = req.MaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, cr)
	if err != nil {
		return nil, p.classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return nil, perrors.NewAPIError("openai", http.StatusBadGateway, "no choices returned")
	}

	out := &CompletionResponse{
		Text:         resp.Choices[0].Message.Content,
		StopReason:   string(resp.Choices[0].FinishReason),
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	p.logger.Debug().
		Str("model", model).
		Str("stop_reason", out.StopReason).
		Int("in_tokens", out.InputTokens).
		Int("out_tokens", out.OutputTokens).
		Msg("openai complete")
	return out, nil
}

func (p *OpenAIProvider) classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &perrors.APIError{Service: "openai", StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &perrors.APIError{Service: "openai", StatusCode: reqErr.HTTPStatusCode, Message: "request failed", Err: err}
	}
	return fmt.Errorf("openai http: %w: %w", perrors.ErrUnavailable, err)
}
