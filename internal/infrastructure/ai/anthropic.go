package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

type anthropicBackend struct {
	backendInfo
	client anthropic.Client
}

func newAnthropicBackend(model string, opts ...anthropicoption.RequestOption) *anthropicBackend {
	return &anthropicBackend{
		backendInfo: backendInfo{name: domain.ProviderAnthropic, model: model},
		client:      anthropic.NewClient(opts...),
	}
}

func (a *anthropicBackend) SupportsStreaming() bool { return false }

func (a *anthropicBackend) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	if err := failFast(ctx); err != nil {
		return "", err
	}
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case domain.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case domain.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: domain.DefaultMaxTokens,
		Messages:  messages,
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	message, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", classifyError(ctx, a.name, err)
	}
	var b strings.Builder
	for _, block := range message.Content {
		b.WriteString(block.Text)
	}
	if b.Len() == 0 {
		return "", &domain.GenerationError{Provider: a.name, Err: errors.New("empty response content")}
	}
	return b.String(), nil
}

func (a *anthropicBackend) Stream(ctx context.Context, req ports.GenerateRequest) (<-chan ports.Fragment, error) {
	if err := failFast(ctx); err != nil {
		return nil, err
	}
	return streamOnce(ctx, func(ctx context.Context) (string, error) {
		return a.Generate(ctx, req)
	}), nil
}

var _ ports.Backend = (*anthropicBackend)(nil)
