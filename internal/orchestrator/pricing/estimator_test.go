package pricing

import "testing"

func ip(v int) *int { return &v }

func TestEstimateIsPure(t *testing.T) {
	a := Estimate("openai", "gpt-4o-mini", ip(1000), ip(500))
	b := Estimate("openai", "gpt-4o-mini", ip(1000), ip(500))

	if a == nil || b == nil {
		t.Fatal("expected estimates for known model")
	}
	if *a != *b {
		t.Errorf("identical inputs gave %v and %v", *a, *b)
	}

	// 1000 prompt tokens at 0.00015/1k + 500 completion tokens at 0.0006/1k.
	want := 0.00015 + 0.0003
	if *a != want {
		t.Errorf("estimate = %v, want %v", *a, want)
	}
}

func TestEstimateZeroTokensIsZeroCost(t *testing.T) {
	got := Estimate("openai", "gpt-4o-mini", ip(0), ip(0))
	if got == nil {
		t.Fatal("zero tokens should produce a known cost")
	}
	if *got != 0 {
		t.Errorf("estimate = %v, want 0", *got)
	}
}

func TestEstimateUnknownTokensIsUnknownCost(t *testing.T) {
	if got := Estimate("gemini", "gemini-2.5-flash", nil, ip(100)); got != nil {
		t.Errorf("nil prompt tokens should yield nil estimate, got %v", *got)
	}
	if got := Estimate("gemini", "gemini-2.5-flash", ip(100), nil); got != nil {
		t.Errorf("nil completion tokens should yield nil estimate, got %v", *got)
	}
}

func TestEstimateFallsBackToProviderRate(t *testing.T) {
	got := Estimate("gemini", "gemini-9-experimental", ip(1000), ip(1000))
	if got == nil {
		t.Fatal("unknown model of a known provider should use the provider rate")
	}
	want := 0.0003 + 0.0025
	if *got != want {
		t.Errorf("estimate = %v, want %v", *got, want)
	}
}

func TestEstimateDatedModelNameMatchesBaseRate(t *testing.T) {
	dated := Estimate("openai", "gpt-4o-mini-2024-07-18", ip(1000), ip(1000))
	base := Estimate("openai", "gpt-4o-mini", ip(1000), ip(1000))
	if dated == nil || base == nil {
		t.Fatal("expected estimates")
	}
	if *dated != *base {
		t.Errorf("dated name %v != base name %v", *dated, *base)
	}
}

func TestEstimateUnknownProviderIsUnknown(t *testing.T) {
	if got := Estimate("acme", "acme-large", ip(10), ip(10)); got != nil {
		t.Errorf("unknown provider should yield nil, got %v", *got)
	}
}
