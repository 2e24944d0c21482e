package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pathwise/ai-orchestrator/internal/orchestrator"
	"github.com/pathwise/ai-orchestrator/internal/shared/models"
)

type GenerateHandler struct {
	engine *orchestrator.Engine
}

func NewGenerateHandler(engine *orchestrator.Engine) *GenerateHandler {
	return &GenerateHandler{engine: engine}
}

// GenerateRequest is the body of POST /v1/generate.
type GenerateRequest struct {
	Messages []models.Message     `json:"messages"`
	Options  models.CallOptions   `json:"options"`
	Context  models.CallerContext `json:"context"`
}

// GenerateTextRequest is the body of POST /v1/generate-text.
type GenerateTextRequest struct {
	Prompt       string               `json:"prompt"`
	SystemPrompt string               `json:"system_prompt,omitempty"`
	Options      models.CallOptions   `json:"options"`
	Context      models.CallerContext `json:"context"`
}

// HandleGenerate handles POST /v1/generate
func (h *GenerateHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Messages) == 0 {
		http.Error(w, "messages must not be empty", http.StatusBadRequest)
		return
	}

	fillCallerContext(&req.Context, r)

	result := h.engine.GenerateResponse(r.Context(), req.Messages, req.Options, req.Context)
	writeResult(w, result)
}

// HandleGenerateText handles POST /v1/generate-text
func (h *GenerateHandler) HandleGenerateText(w http.ResponseWriter, r *http.Request) {
	var req GenerateTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Prompt == "" {
		http.Error(w, "prompt must not be empty", http.StatusBadRequest)
		return
	}

	fillCallerContext(&req.Context, r)

	result := h.engine.GenerateText(r.Context(), req.Prompt, req.SystemPrompt, req.Options, req.Context)
	writeResult(w, result)
}

// HandleAvailability handles GET /v1/availability
func (h *GenerateHandler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.engine.CheckAvailability())
}

// writeResult maps the in-band outcome onto an HTTP status: the body is
// always the full CallResult either way, so callers can treat the JSON as
// the single source of truth.
func writeResult(w http.ResponseWriter, result models.CallResult) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Provider", result.ProviderUsed)
	w.Header().Set("X-Latency-Ms", fmt.Sprintf("%d", result.LatencyMs))

	switch {
	case result.Success:
		w.WriteHeader(http.StatusOK)
	case result.RateLimited:
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	default:
		w.WriteHeader(http.StatusBadGateway)
	}

	json.NewEncoder(w).Encode(result)
}
