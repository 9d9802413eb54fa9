// Package anthropic is a narrow single-prompt client over the Messages API.
package anthropic

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// Client sends one prompt and returns one completion.
type Client interface {
	Complete(ctx context.Context, p Prompt) (*Completion, error)
}

// Prompt is a single user turn with an optional system instruction.
type Prompt struct {
	Model       string
	System      string
	Text        string
	MaxTokens   int64
	Temperature *float64
}

// Completion is the joined text answer plus accounting data.
type Completion struct {
	ID         string
	Model      string
	Text       string
	StopReason string
	// Blocks counts the text blocks in the answer. Zero means the model
	// returned nothing usable.
	Blocks int
	Usage  Usage
}

// Usage holds token counts as reported by the API.
type Usage struct {
	Input      int64
	Output     int64
	CacheWrite int64
	CacheRead  int64
}

type sdkClient struct {
	client sdk.Client
}

// NewClient returns a Client backed by the SDK. The SDK's own retries are
// turned off; opts are applied after the API key.
func NewClient(apiKey string, opts ...option.RequestOption) Client {
	all := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &sdkClient{client: sdk.NewClient(all...)}
}

func (c *sdkClient) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	msg, err := c.client.Messages.New(ctx, newParams(p))
	if err != nil {
		return nil, eris.Wrapf(err, "anthropic: complete with %s", p.Model)
	}
	return toCompletion(msg), nil
}

func newParams(p Prompt) sdk.MessageNewParams {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(p.Model),
		MaxTokens: p.MaxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(p.Text))},
	}
	if p.System != "" {
		params.System = []sdk.TextBlockParam{{Text: p.System}}
	}
	if p.Temperature != nil {
		params.Temperature = sdk.Float(*p.Temperature)
	}
	return params
}

// toCompletion keeps text blocks only; thinking and tool blocks are dropped.
func toCompletion(msg *sdk.Message) *Completion {
	var b strings.Builder
	blocks := 0
	for _, c := range msg.Content {
		if c.Type != "text" {
			continue
		}
		b.WriteString(c.Text)
		blocks++
	}
	return &Completion{
		ID:         msg.ID,
		Model:      string(msg.Model),
		Text:       b.String(),
		StopReason: string(msg.StopReason),
		Blocks:     blocks,
		Usage: Usage{
			Input:      msg.Usage.InputTokens,
			Output:     msg.Usage.OutputTokens,
			CacheWrite: msg.Usage.CacheCreationInputTokens,
			CacheRead:  msg.Usage.CacheReadInputTokens,
		},
	}
}
