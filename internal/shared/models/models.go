package models

import "time"

// Role values for conversation messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation. Order matters: a system message,
// when present, is interpreted as the first instruction.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CallOptions configures a single generation call. Immutable per call.
type CallOptions struct {
	Model           string  `json:"model,omitempty"`
	MaxOutputTokens int     `json:"max_output_tokens,omitempty"`
	Temperature     float32 `json:"temperature,omitempty"`
}

// Defaults applied when the caller leaves options zero-valued.
const (
	DefaultMaxOutputTokens = 800
	DefaultTemperature     = float32(0.7)
)

// WithDefaults returns a copy with unset fields filled in.
func (o CallOptions) WithDefaults() CallOptions {
	if o.MaxOutputTokens <= 0 {
		o.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if o.Temperature <= 0 {
		o.Temperature = DefaultTemperature
	}
	return o
}

// CallerContext identifies who is calling and why, for rate limiting and
// audit. Identity is opaque; only equality matters.
type CallerContext struct {
	FunctionName string `json:"function_name"`
	Identity     string `json:"identity"`
	CallerID     string `json:"caller_id,omitempty"`
}

// RateSubject returns the key rate limits are tracked against.
func (c CallerContext) RateSubject() string {
	if c.Identity != "" {
		return c.Identity
	}
	return c.FunctionName
}

// CallResult is the single canonical outcome of an orchestrated call. It is
// always fully populated; failure is carried in-band via Success and
// ErrorMessage, never as an error to the caller.
type CallResult struct {
	Content          string   `json:"content"`
	ProviderUsed     string   `json:"provider_used"`
	Model            string   `json:"model,omitempty"`
	Success          bool     `json:"success"`
	ErrorMessage     string   `json:"error_message,omitempty"`
	LatencyMs        int      `json:"latency_ms"`
	CostEstimateUSD  *float64 `json:"cost_estimate_usd,omitempty"`
	PromptTokens     *int     `json:"prompt_tokens,omitempty"`
	CompletionTokens *int     `json:"completion_tokens,omitempty"`
	TotalTokens      *int     `json:"total_tokens,omitempty"`
	RequestID        string   `json:"request_id,omitempty"`
	RateLimited      bool     `json:"rate_limited,omitempty"`
}

// ResponseLog is one append-only audit row, written exactly once per
// orchestrated call regardless of retries or provider switches.
type ResponseLog struct {
	FunctionName     string
	Identity         string
	CallerID         *string
	Provider         string
	Model            string
	LatencyMs        int
	CostEstimateUSD  *float64
	PromptTokens     *int
	CompletionTokens *int
	TotalTokens      *int
	RequestID        *string
	Status           string
	ErrorMessage     *string
	Metadata         map[string]interface{}
	CreatedAt        time.Time
}

// Status values for ResponseLog rows.
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusRateLimited = "rate_limited"
)

// Availability reports which providers are configured and which one a call
// would try first.
type Availability struct {
	Primary   bool   `json:"primary"`
	Secondary bool   `json:"secondary"`
	First     string `json:"first"` // provider name, or "none"
}
