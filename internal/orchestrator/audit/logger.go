// Package audit persists one append-only record per orchestrated call, for
// billing, audit and debugging. Writes are strictly best-effort: a broken
// log store must never change or delay the answer the caller gets.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/pathwise/ai-orchestrator/internal/shared/models"
)

// Store is the durable backend (Postgres in production).
type Store interface {
	InsertResponseLog(ctx context.Context, rec *models.ResponseLog) error
}

// Logger writes audit rows. A nil store degrades to process-log diagnostics
// only, so the orchestrator stays usable without a database.
type Logger struct {
	store Store
	now   func() time.Time
}

// New creates a logger over the given store. store may be nil.
func New(store Store) *Logger {
	return &Logger{store: store, now: time.Now}
}

// Record persists one row for a finished call. Any store failure is logged
// locally and swallowed; the single attempt is not retried.
func (l *Logger) Record(ctx context.Context, callCtx models.CallerContext, result models.CallResult) {
	rec := &models.ResponseLog{
		FunctionName:     callCtx.FunctionName,
		Identity:         callCtx.RateSubject(),
		Provider:         result.ProviderUsed,
		Model:            result.Model,
		LatencyMs:        result.LatencyMs,
		CostEstimateUSD:  result.CostEstimateUSD,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		TotalTokens:      result.TotalTokens,
		Status:           statusFor(result),
		CreatedAt:        l.now().UTC(),
		Metadata: map[string]interface{}{
			"function_name": callCtx.FunctionName,
			"logged_at":     l.now().UTC().Format(time.RFC3339),
		},
	}

	if callCtx.CallerID != "" {
		id := callCtx.CallerID
		rec.CallerID = &id
	}
	if result.RequestID != "" {
		reqID := result.RequestID
		rec.RequestID = &reqID
	}
	if result.ErrorMessage != "" {
		msg := result.ErrorMessage
		rec.ErrorMessage = &msg
	}

	if l.store == nil {
		log.Printf("audit store not configured, dropping record for %s (%s)", rec.Identity, rec.Status)
		return
	}

	if err := l.store.InsertResponseLog(ctx, rec); err != nil {
		log.Printf("failed to write audit record for %s: %v", rec.Identity, err)
	}
}

func statusFor(result models.CallResult) string {
	switch {
	case result.Success:
		return models.StatusSuccess
	case result.RateLimited:
		return models.StatusRateLimited
	default:
		return models.StatusError
	}
}
