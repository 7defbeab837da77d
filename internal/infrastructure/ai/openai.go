package ai

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// chatBackend talks to any OpenAI-compatible chat completions endpoint
// (OpenAI itself and Mistral).
type chatBackend struct {
	backendInfo
	client openai.Client
}

func newChatBackend(name domain.ProviderName, model string, opts ...option.RequestOption) *chatBackend {
	return &chatBackend{
		backendInfo: backendInfo{name: name, model: model},
		client:      openai.NewClient(opts...),
	}
}

func (c *chatBackend) SupportsStreaming() bool { return true }

func (c *chatBackend) params(req ports.GenerateRequest) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case domain.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case domain.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}
	return openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	}
}

func (c *chatBackend) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	if err := failFast(ctx); err != nil {
		return "", err
	}
	completion, err := c.client.Chat.Completions.New(ctx, c.params(req))
	if err != nil {
		return "", classifyError(ctx, c.name, err)
	}
	if len(completion.Choices) == 0 {
		return "", &domain.GenerationError{Provider: c.name, Err: errors.New("no choices returned")}
	}
	return completion.Choices[0].Message.Content, nil
}

func (c *chatBackend) Stream(ctx context.Context, req ports.GenerateRequest) (<-chan ports.Fragment, error) {
	if err := failFast(ctx); err != nil {
		return nil, err
	}
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.params(req))
	out := make(chan ports.Fragment)
	go func() {
		defer close(out)
		defer func() { _ = stream.Close() }()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			if !send(ctx, out, ports.Fragment{Text: chunk.Choices[0].Delta.Content}) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			send(ctx, out, ports.Fragment{Err: classifyError(ctx, c.name, err)})
		}
	}()
	return out, nil
}

var _ ports.Backend = (*chatBackend)(nil)
