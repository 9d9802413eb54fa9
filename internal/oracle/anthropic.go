package oracle

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/Alibek88alarko/LogiGo2/pkg/anthropic"
)

// Anthropic is a Completer backed by the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic creates an Anthropic completer for model.
func NewAnthropic(client anthropic.Client, model string) *Anthropic {
	return &Anthropic{client: client, model: model}
}

func (a *Anthropic) Provider() string { return ProviderAnthropic }
func (a *Anthropic) Model() string    { return a.model }

// Complete sends req as a single user turn.
func (a *Anthropic) Complete(ctx context.Context, req Request) (*Response, error) {
	temp := req.Temperature
	resp, err := a.client.Complete(ctx, anthropic.Prompt{
		Model:       a.model,
		System:      req.System,
		Text:        req.Prompt,
		MaxTokens:   int64(req.MaxTokens),
		Temperature: &temp,
	})
	if err != nil {
		return nil, eris.Wrap(err, "oracle: anthropic complete")
	}
	if resp.Blocks == 0 {
		return nil, ErrEmptyAnswer
	}

	model := resp.Model
	if model == "" {
		model = a.model
	}
	return &Response{
		Text:  resp.Text,
		Model: model,
		Usage: Usage{
			InputTokens:      int(resp.Usage.Input),
			OutputTokens:     int(resp.Usage.Output),
			CacheWriteTokens: int(resp.Usage.CacheWrite),
			CacheReadTokens:  int(resp.Usage.CacheRead),
		},
	}, nil
}
