// Package pricing approximates the monetary cost of a completed call for
// observability and budgeting. It is not a billing source of truth: the
// table is a fixed snapshot of published list prices and ignores provider
// discounts, caching tiers and price changes.
package pricing

import "strings"

// rate holds USD prices per 1000 tokens, prompt and completion priced
// separately.
type rate struct {
	inputPer1k  float64
	outputPer1k float64
}

var modelRates = map[string]rate{
	// openai
	"gpt-4o":      {inputPer1k: 0.0025, outputPer1k: 0.01},
	"gpt-4o-mini": {inputPer1k: 0.00015, outputPer1k: 0.0006},
	"gpt-4.1":     {inputPer1k: 0.002, outputPer1k: 0.008},

	// gemini
	"gemini-2.5-pro":   {inputPer1k: 0.00125, outputPer1k: 0.01},
	"gemini-2.5-flash": {inputPer1k: 0.0003, outputPer1k: 0.0025},
}

// providerRates back-stop models missing from the table.
var providerRates = map[string]rate{
	"openai": {inputPer1k: 0.0025, outputPer1k: 0.01},
	"gemini": {inputPer1k: 0.0003, outputPer1k: 0.0025},
}

// Estimate returns the approximate USD cost of one call. It is pure: equal
// inputs always produce equal outputs. A nil token count means the provider
// reported no usage data, and the estimate is nil (unknown) rather than
// zero — zero is reserved for genuinely free calls.
func Estimate(provider, model string, promptTokens, completionTokens *int) *float64 {
	if promptTokens == nil || completionTokens == nil {
		return nil
	}

	r, ok := modelRates[normalizeModel(model)]
	if !ok {
		r, ok = providerRates[provider]
		if !ok {
			return nil
		}
	}

	cost := float64(*promptTokens)/1000.0*r.inputPer1k +
		float64(*completionTokens)/1000.0*r.outputPer1k
	return &cost
}

// modelPrefixes is checked longest-first so "gpt-4o-mini-2024-07-18" maps to
// gpt-4o-mini, not gpt-4o.
var modelPrefixes = []string{
	"gemini-2.5-flash",
	"gemini-2.5-pro",
	"gpt-4o-mini",
	"gpt-4.1",
	"gpt-4o",
}

// normalizeModel strips date/version suffixes like "gpt-4o-2024-08-06" down
// to a table key when the exact name is absent.
func normalizeModel(model string) string {
	if _, ok := modelRates[model]; ok {
		return model
	}
	for _, key := range modelPrefixes {
		if strings.HasPrefix(model, key) {
			return key
		}
	}
	return model
}
