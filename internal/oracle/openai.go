package oracle

import (
	"context"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
)

// ChatClient is the go-openai call used by OpenAI.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI is a Completer backed by the OpenAI chat completions API.
type OpenAI struct {
	client ChatClient
	model  string
}

// NewOpenAIClient builds a go-openai client. baseURL may be empty.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// NewOpenAI creates an OpenAI completer for model.
func NewOpenAI(client ChatClient, model string) *OpenAI {
	return &OpenAI{client: client, model: model}
}

func (o *OpenAI) Provider() string { return ProviderOpenAI }
func (o *OpenAI) Model() string    { return o.model }

// Complete sends a system turn (when set) followed by the prompt.
func (o *OpenAI) Complete(ctx context.Context, req Request) (*Response, error) {
	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    msgs,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, eris.Wrap(err, "oracle: openai complete")
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyAnswer
	}

	model := resp.Model
	if model == "" {
		model = o.model
	}
	return &Response{
		Text:  resp.Choices[0].Message.Content,
		Model: model,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}
