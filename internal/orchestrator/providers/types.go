package providers

import (
	"context"
	"fmt"

	"github.com/pathwise/ai-orchestrator/internal/shared/models"
)

// Provider names as they appear in results and audit rows.
const (
	NameOpenAI = "openai"
	NameGemini = "gemini"
)

// Completion is the canonical result of one provider call. Token counts are
// pointers because some providers omit usage data; nil means unknown, which
// the cost estimator treats differently from zero.
type Completion struct {
	Content          string
	PromptTokens     *int
	CompletionTokens *int
	TotalTokens      *int
	RequestID        string
}

// Provider is the interface both adapters implement. The failover
// coordinator only ever sees this contract.
type Provider interface {
	Complete(ctx context.Context, messages []models.Message, opts models.CallOptions) (*Completion, error)
	Name() string
	Model() string
}

// ProviderError is a single failed attempt against one provider. StatusCode
// is 0 for network-level failures (connection refused, timeout before any
// response).
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt against the same provider could
// plausibly succeed. Network failures, timeouts, 408, 429 and 5xx are
// retryable; other 4xx responses (bad auth, bad request) are not.
func (e *ProviderError) Retryable() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == 408 || e.StatusCode == 429:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

func intPtr(v int) *int {
	return &v
}
