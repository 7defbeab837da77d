package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// DefaultKnowledgeBaseURL hosts the MongoDB knowledge-base model.
const DefaultKnowledgeBaseURL = "https://knowledge.mongodb.com/api/v1"

// knowledgeBackend uses the Responses API of the MongoDB knowledge service.
// The service is unauthenticated; requests are identified by origin headers.
type knowledgeBackend struct {
	backendInfo
	client openai.Client
}

func newKnowledgeBackend(model, baseURL, origin string, opts ...option.RequestOption) *knowledgeBackend {
	all := append([]option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey("unused"),
		option.WithHeader("X-Request-Origin", origin),
		option.WithHeader("User-Agent", origin),
	}, opts...)
	return &knowledgeBackend{
		backendInfo: backendInfo{name: domain.ProviderMongoDB, model: model},
		client:      openai.NewClient(all...),
	}
}

func (k *knowledgeBackend) SupportsStreaming() bool { return false }

func (k *knowledgeBackend) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	if err := failFast(ctx); err != nil {
		return "", err
	}
	input := make(responses.ResponseInputParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := responses.EasyInputMessageRoleUser
		if msg.Role == domain.RoleAssistant {
			role = responses.EasyInputMessageRoleAssistant
		}
		input = append(input, responses.ResponseInputItemParamOfMessage(msg.Content, role))
	}
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(k.model),
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: input},
	}
	if req.SystemPrompt != "" {
		params.Instructions = openai.String(req.SystemPrompt)
	}

	response, err := k.client.Responses.New(ctx, params)
	if err != nil {
		return "", classifyError(ctx, k.name, err)
	}

	var b strings.Builder
	for _, item := range response.Output {
		if message := item.AsMessage(); message.Type == "message" && message.Role == "assistant" {
			for _, content := range message.Content {
				if text := content.AsOutputText(); text.Type == "output_text" {
					b.WriteString(text.Text)
				}
			}
		}
	}
	if b.Len() == 0 {
		return "", &domain.GenerationError{Provider: k.name, Err: errors.New("empty response content")}
	}
	return b.String(), nil
}

func (k *knowledgeBackend) Stream(ctx context.Context, req ports.GenerateRequest) (<-chan ports.Fragment, error) {
	if err := failFast(ctx); err != nil {
		return nil, err
	}
	return streamOnce(ctx, func(ctx context.Context) (string, error) {
		return k.Generate(ctx, req)
	}), nil
}

var _ ports.Backend = (*knowledgeBackend)(nil)
