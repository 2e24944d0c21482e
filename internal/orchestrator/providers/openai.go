package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/pathwise/ai-orchestrator/internal/shared/models"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider is the primary adapter. Messages pass through role-tagged,
// exactly as the caller supplied them.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates the primary provider adapter.
func NewOpenAI(apiKey, model string, timeout time.Duration) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// NewOpenAIWithBaseURL points the adapter at an alternate endpoint. Used by
// tests and OpenAI-compatible proxies.
func NewOpenAIWithBaseURL(apiKey, model, baseURL string, timeout time.Duration) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Complete makes a chat completion request.
func (p *OpenAIProvider) Complete(ctx context.Context, messages []models.Message, opts models.CallOptions) (*Completion, error) {
	model := opts.Model
	if model == "" {
		model = p.model
	}

	req := openai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: opts.MaxOutputTokens,
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	// Reasoning-family models reject the temperature parameter outright, so
	// it is omitted entirely rather than sent and bounced.
	if !rejectsTemperature(model) {
		req.Temperature = opts.Temperature
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, p.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &ProviderError{
			Provider: NameOpenAI,
			Body:     "response contained no choices",
			Err:      errors.New("empty choices"),
		}
	}

	return &Completion{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     intPtr(resp.Usage.PromptTokens),
		CompletionTokens: intPtr(resp.Usage.CompletionTokens),
		TotalTokens:      intPtr(resp.Usage.TotalTokens),
		RequestID:        resp.ID,
	}, nil
}

// wrapError converts SDK errors into ProviderError so the retry executor can
// classify them by HTTP status.
func (p *OpenAIProvider) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		body := apiErr.Message
		if body == "" {
			body = apiErr.Error()
		}
		return &ProviderError{
			Provider:   NameOpenAI,
			StatusCode: apiErr.HTTPStatusCode,
			Body:       body,
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{
			Provider:   NameOpenAI,
			StatusCode: reqErr.HTTPStatusCode,
			Body:       reqErr.Error(),
			Err:        err,
		}
	}

	// Transport-level failure, no HTTP status available.
	return &ProviderError{Provider: NameOpenAI, Err: err}
}

// rejectsTemperature reports whether a model refuses the temperature
// parameter (reasoning-family models only accept the default).
func rejectsTemperature(model string) bool {
	return strings.HasPrefix(model, "o1") ||
		strings.HasPrefix(model, "o3") ||
		strings.HasPrefix(model, "gpt-5")
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return NameOpenAI
}

// Model returns the default model this adapter targets.
func (p *OpenAIProvider) Model() string {
	return p.model
}
