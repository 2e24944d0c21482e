package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pathwise/ai-orchestrator/internal/shared/models"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Role labels used when flattening a conversation into one prompt string.
// Gemini's native request takes a single prompt here, so each turn is
// prefixed with its role in original order and a trailing assistant marker
// solicits the completion.
const (
	labelSystem    = "SYSTEM INSTRUCTIONS:"
	labelUser      = "USER:"
	labelAssistant = "ASSISTANT:"
)

// GeminiProvider is the secondary adapter.
type GeminiProvider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGemini creates the secondary provider adapter.
func NewGemini(apiKey, model string, timeout time.Duration) *GeminiProvider {
	return &GeminiProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultGeminiBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewGeminiWithBaseURL points the adapter at an alternate endpoint. Used by
// tests.
func NewGeminiWithBaseURL(apiKey, model, baseURL string, timeout time.Duration) *GeminiProvider {
	p := NewGemini(apiKey, model, timeout)
	p.baseURL = baseURL
	return p
}

// geminiRequest represents a request to Gemini's generateContent API
type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

// geminiResponse represents a response from Gemini API. UsageMetadata is a
// pointer because the field is sometimes absent; absent usage must surface
// as unknown token counts, not zero.
type geminiResponse struct {
	ResponseID    string            `json:"responseId,omitempty"`
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata *geminiUsage      `json:"usageMetadata,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// FlattenMessages deterministically collapses a role-tagged conversation into
// one prompt string: each message prefixed with its role label in original
// order, then a trailing assistant marker to solicit the completion.
func FlattenMessages(messages []models.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleSystem:
			b.WriteString(labelSystem)
		case models.RoleAssistant:
			b.WriteString(labelAssistant)
		default:
			b.WriteString(labelUser)
		}
		b.WriteString("\n")
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
	}
	b.WriteString(labelAssistant)
	return b.String()
}

// Complete makes a generateContent request.
func (p *GeminiProvider) Complete(ctx context.Context, messages []models.Message, opts models.CallOptions) (*Completion, error) {
	model := opts.Model
	if model == "" {
		model = p.model
	}

	temp := opts.Temperature
	maxTokens := opts.MaxOutputTokens
	geminiReq := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: FlattenMessages(messages)}}},
		},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     &temp,
			MaxOutputTokens: &maxTokens,
		},
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, model, p.apiKey)

	reqBody, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, &ProviderError{Provider: NameGemini, Err: err}
	}
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, &ProviderError{Provider: NameGemini, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: NameGemini, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider:   NameGemini,
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        fmt.Errorf("gemini returned status %d", resp.StatusCode),
		}
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, &ProviderError{
			Provider: NameGemini,
			Body:     string(body),
			Err:      fmt.Errorf("failed to parse response: %w", err),
		}
	}

	if len(geminiResp.Candidates) == 0 {
		return nil, &ProviderError{
			Provider: NameGemini,
			Body:     string(body),
			Err:      fmt.Errorf("response contained no candidates"),
		}
	}

	var content strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		content.WriteString(part.Text)
	}

	completion := &Completion{
		Content:   content.String(),
		RequestID: geminiResp.ResponseID,
	}
	if geminiResp.UsageMetadata != nil {
		completion.PromptTokens = intPtr(geminiResp.UsageMetadata.PromptTokenCount)
		completion.CompletionTokens = intPtr(geminiResp.UsageMetadata.CandidatesTokenCount)
		completion.TotalTokens = intPtr(geminiResp.UsageMetadata.TotalTokenCount)
	}

	return completion, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return NameGemini
}

// Model returns the default model this adapter targets.
func (p *GeminiProvider) Model() string {
	return p.model
}
