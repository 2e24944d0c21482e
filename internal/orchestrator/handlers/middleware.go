package handlers

import (
	"net/http"

	"github.com/pathwise/ai-orchestrator/internal/shared/models"
)

// Header fallbacks for caller identification. Authentication itself is an
// upstream concern; these only name the rate-limit subject when the body
// leaves it blank.
const (
	headerCallerIdentity = "X-Caller-Identity"
	headerCallerFunction = "X-Caller-Function"
)

// fillCallerContext backfills identity fields from request headers.
func fillCallerContext(callCtx *models.CallerContext, r *http.Request) {
	if callCtx.Identity == "" {
		callCtx.Identity = r.Header.Get(headerCallerIdentity)
	}
	if callCtx.FunctionName == "" {
		callCtx.FunctionName = r.Header.Get(headerCallerFunction)
	}
	if callCtx.Identity == "" && callCtx.FunctionName == "" {
		// Last resort so the limiter still has a subject to count against.
		callCtx.Identity = r.RemoteAddr
	}
}

// CORSMiddleware handles CORS for browser-originated callers.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Caller-Identity, X-Caller-Function")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
