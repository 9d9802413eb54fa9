package cost

// Rates holds per-provider pricing configuration.
type Rates struct {
	Anthropic map[string]ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI    map[string]ModelRate `yaml:"openai" mapstructure:"openai"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// Usage is the token count of a single oracle call.
type Usage struct {
	Input      int
	Output     int
	CacheWrite int
	CacheRead  int
}

// Breakdown splits a call's cost into its input and output parts (USD).
type Breakdown struct {
	Input  float64
	Output float64
}

// Total returns the combined cost.
func (b Breakdown) Total() float64 { return b.Input + b.Output }

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Call computes the cost of one call to provider's model. Unknown providers
// and models cost zero.
func (c *Calculator) Call(provider, model string, u Usage) Breakdown {
	var table map[string]ModelRate
	switch provider {
	case "anthropic":
		table = c.rates.Anthropic
	case "openai":
		table = c.rates.OpenAI
	}
	rate, ok := table[model]
	if !ok {
		return Breakdown{}
	}

	in := (float64(u.Input) / 1e6) * rate.Input
	in += (float64(u.CacheWrite) / 1e6) * rate.Input * rate.CacheWriteMul
	in += (float64(u.CacheRead) / 1e6) * rate.Input * rate.CacheReadMul
	out := (float64(u.Output) / 1e6) * rate.Output

	return Breakdown{Input: in, Output: out}
}

// Known reports whether a rate is configured for provider's model.
func (c *Calculator) Known(provider, model string) bool {
	switch provider {
	case "anthropic":
		_, ok := c.rates.Anthropic[model]
		return ok
	case "openai":
		_, ok := c.rates.OpenAI[model]
		return ok
	}
	return false
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5-20251001": {
				Input: 0.80, Output: 4.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
			"claude-sonnet-4-5-20250929": {
				Input: 3.00, Output: 15.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
		},
		OpenAI: map[string]ModelRate{
			"gpt-3.5-turbo": {Input: 2.00, Output: 2.00},
			"gpt-4o-mini":   {Input: 0.15, Output: 0.60},
		},
	}
}
