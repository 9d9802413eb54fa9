// Package oracle wraps the text-completion providers behind one narrow
// interface.
package oracle

import (
	"context"

	"github.com/rotisserie/eris"
)

// Provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Request is a single-turn completion request.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Usage is the token count reported for one call.
type Usage struct {
	InputTokens      int
	OutputTokens     int
	CacheWriteTokens int
	CacheReadTokens  int
}

// Response is a completion answer.
type Response struct {
	Text  string
	Model string
	Usage Usage
}

// Completer sends a prompt to a completion service. Implementations do not
// retry.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Provider() string
	Model() string
}

// ErrEmptyAnswer is returned when the provider answered without any text choice.
var ErrEmptyAnswer = eris.New("oracle: empty answer")
