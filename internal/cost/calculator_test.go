package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"haiku": {
				Input: 0.80, Output: 4.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
		},
		OpenAI: map[string]ModelRate{
			"turbo": {Input: 2.00, Output: 2.00},
		},
	}
}

func TestCall(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name     string
		provider string
		model    string
		usage    Usage
		wantIn   float64
		wantOut  float64
	}{
		{
			name: "haiku simple", provider: "anthropic", model: "haiku",
			usage:  Usage{Input: 1000000, Output: 100000},
			wantIn: 0.80, wantOut: 0.40,
		},
		{
			name: "haiku with cache", provider: "anthropic", model: "haiku",
			usage: Usage{Input: 500000, Output: 50000, CacheWrite: 200000, CacheRead: 300000},
			// in: 0.40 + cw 0.20 + cr 0.024
			wantIn: 0.624, wantOut: 0.20,
		},
		{
			name: "openai two dollars per million", provider: "openai", model: "turbo",
			usage:  Usage{Input: 1500, Output: 500},
			wantIn: 0.003, wantOut: 0.001,
		},
		{
			name: "unknown model", provider: "anthropic", model: "nope",
			usage: Usage{Input: 1000000, Output: 1000000},
		},
		{
			name: "unknown provider", provider: "mistral", model: "haiku",
			usage: Usage{Input: 1000000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := calc.Call(tt.provider, tt.model, tt.usage)
			assert.InDelta(t, tt.wantIn, got.Input, 1e-9)
			assert.InDelta(t, tt.wantOut, got.Output, 1e-9)
			assert.InDelta(t, tt.wantIn+tt.wantOut, got.Total(), 1e-9)
		})
	}
}

func TestKnown(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())
	assert.True(t, calc.Known("anthropic", "haiku"))
	assert.True(t, calc.Known("openai", "turbo"))
	assert.False(t, calc.Known("openai", "haiku"))
	assert.False(t, calc.Known("other", "turbo"))
}

func TestDefaultRates(t *testing.T) {
	t.Parallel()
	r := DefaultRates()
	assert.Contains(t, r.Anthropic, "claude-haiku-4-5-20251001")
	assert.Equal(t, 2.00, r.OpenAI["gpt-3.5-turbo"].Input)
	assert.Equal(t, 2.00, r.OpenAI["gpt-3.5-turbo"].Output)
}
