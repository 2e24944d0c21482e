// Package orchestrator turns a chat-style conversation into a completion
// from whichever provider can currently answer, while enforcing per-caller
// rate limits, retrying transient failures, failing over from the primary to
// the secondary provider, estimating cost and writing one audit record per
// call. It never returns an error to its caller: every outcome, including
// total failure, is an in-band CallResult.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pathwise/ai-orchestrator/internal/orchestrator/audit"
	"github.com/pathwise/ai-orchestrator/internal/orchestrator/pricing"
	"github.com/pathwise/ai-orchestrator/internal/orchestrator/providers"
	"github.com/pathwise/ai-orchestrator/internal/orchestrator/ratelimit"
	"github.com/pathwise/ai-orchestrator/internal/orchestrator/retry"
	"github.com/pathwise/ai-orchestrator/internal/shared/models"
)

// auditWriteTimeout bounds the single best-effort audit write. The write
// runs on a context detached from the caller's so a disconnect after the
// result is decided still produces the one audit row the call owes.
const auditWriteTimeout = 5 * time.Second

// Engine is the orchestration entry point. Construct it explicitly and
// inject it wherever requests are handled; it holds no global state.
type Engine struct {
	primary   providers.Provider // nil when no credentials configured
	secondary providers.Provider // nil when no credentials configured
	limiter   *ratelimit.Limiter
	auditor   *audit.Logger
	retryOpts retry.Options
}

// New wires an engine. Either provider may be nil; with both nil every call
// returns a descriptive configuration failure.
func New(primary, secondary providers.Provider, limiter *ratelimit.Limiter, auditor *audit.Logger, retryOpts retry.Options) *Engine {
	return &Engine{
		primary:   primary,
		secondary: secondary,
		limiter:   limiter,
		auditor:   auditor,
		retryOpts: retryOpts,
	}
}

// GenerateResponse runs the full admission → primary → fallback sequence for
// one conversation and always returns a fully populated CallResult. Rate
// budget is consumed exactly once, up front; retries and the fallback leg
// ride on the original admission.
func (e *Engine) GenerateResponse(ctx context.Context, messages []models.Message, opts models.CallOptions, callCtx models.CallerContext) models.CallResult {
	start := time.Now()
	opts = opts.WithDefaults()

	decision, _ := e.limiter.CheckAndAdmit(ctx, callCtx.RateSubject())
	if !decision.Allowed {
		return e.finish(callCtx, start, models.CallResult{
			Success:     false,
			RateLimited: true,
			ErrorMessage: fmt.Sprintf(
				"rate limit exceeded: %d/%d requests this window, resets at %s",
				decision.CurrentCount, decision.Limit, decision.ResetAt.UTC().Format(time.RFC3339),
			),
		})
	}

	if e.primary == nil && e.secondary == nil {
		return e.finish(callCtx, start, models.CallResult{
			Success:      false,
			ErrorMessage: "no provider credentials configured; cannot generate a response",
		})
	}

	var legFailures []string

	// Primary leg. An unconfigured primary is skipped without counting as a
	// failure attempt.
	if e.primary != nil {
		if result, ok := e.tryProvider(ctx, e.primary, messages, opts, &legFailures); ok {
			return e.finish(callCtx, start, result)
		}
	} else {
		legFailures = append(legFailures, fmt.Sprintf("%s: no credentials configured", providers.NameOpenAI))
	}

	// Fallback leg.
	if e.secondary != nil {
		if result, ok := e.tryProvider(ctx, e.secondary, messages, opts, &legFailures); ok {
			return e.finish(callCtx, start, result)
		}
	} else {
		legFailures = append(legFailures, fmt.Sprintf("%s: no credentials configured", providers.NameGemini))
	}

	return e.finish(callCtx, start, models.CallResult{
		Success:      false,
		ErrorMessage: "all providers failed: " + strings.Join(legFailures, "; "),
	})
}

// tryProvider runs one provider leg through the retry executor. On exhausted
// failure it appends the leg's reason to legFailures and reports ok=false.
func (e *Engine) tryProvider(ctx context.Context, p providers.Provider, messages []models.Message, opts models.CallOptions, legFailures *[]string) (models.CallResult, bool) {
	completion, err := retry.Do(ctx, func(ctx context.Context) (*providers.Completion, error) {
		return p.Complete(ctx, messages, opts)
	}, e.retryOpts)
	if err != nil {
		*legFailures = append(*legFailures, fmt.Sprintf("%s: %v", p.Name(), err))
		return models.CallResult{}, false
	}

	model := opts.Model
	if model == "" {
		model = p.Model()
	}

	return models.CallResult{
		Content:          completion.Content,
		ProviderUsed:     p.Name(),
		Model:            model,
		Success:          true,
		PromptTokens:     completion.PromptTokens,
		CompletionTokens: completion.CompletionTokens,
		TotalTokens:      completion.TotalTokens,
		RequestID:        completion.RequestID,
		CostEstimateUSD:  pricing.Estimate(p.Name(), model, completion.PromptTokens, completion.CompletionTokens),
	}, true
}

// finish stamps latency, writes the call's single audit record and returns
// the result. The audit write is detached from the caller's context and its
// failure never surfaces.
func (e *Engine) finish(callCtx models.CallerContext, start time.Time, result models.CallResult) models.CallResult {
	result.LatencyMs = int(time.Since(start).Milliseconds())

	auditCtx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()
	e.auditor.Record(auditCtx, callCtx, result)

	return result
}

// GenerateText is a convenience wrapper for single-prompt callers.
func (e *Engine) GenerateText(ctx context.Context, prompt, systemPrompt string, opts models.CallOptions, callCtx models.CallerContext) models.CallResult {
	var messages []models.Message
	if systemPrompt != "" {
		messages = append(messages, models.Message{Role: models.RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, models.Message{Role: models.RoleUser, Content: prompt})
	return e.GenerateResponse(ctx, messages, opts, callCtx)
}

// CheckAvailability reports which providers are configured and which one a
// call would try first.
func (e *Engine) CheckAvailability() models.Availability {
	avail := models.Availability{
		Primary:   e.primary != nil,
		Secondary: e.secondary != nil,
		First:     "none",
	}
	switch {
	case e.primary != nil:
		avail.First = e.primary.Name()
	case e.secondary != nil:
		avail.First = e.secondary.Name()
	}
	return avail
}
