package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// geminiBackend creates its client lazily because genai needs a context to
// construct one.
type geminiBackend struct {
	backendInfo
	apiKey     string
	httpClient *http.Client

	once    sync.Once
	client  *genai.Client
	initErr error
}

func newGeminiBackend(model, apiKey string, httpClient *http.Client) *geminiBackend {
	return &geminiBackend{
		backendInfo: backendInfo{name: domain.ProviderGemini, model: model},
		apiKey:      apiKey,
		httpClient:  httpClient,
	}
}

func (g *geminiBackend) SupportsStreaming() bool { return false }

func (g *geminiBackend) init(ctx context.Context) error {
	g.once.Do(func() {
		if g.apiKey == "" {
			g.initErr = fmt.Errorf("gemini API key not configured")
			return
		}
		g.client, g.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:     g.apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: g.httpClient,
		})
	})
	return g.initErr
}

func (g *geminiBackend) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	if err := failFast(ctx); err != nil {
		return "", err
	}
	if err := g.init(ctx); err != nil {
		return "", &domain.GenerationError{Provider: g.name, Err: err}
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := string(genai.RoleUser)
		if msg.Role == domain.RoleAssistant {
			role = string(genai.RoleModel)
		}
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: msg.Content}},
			Role:  role,
		})
	}
	config := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", classifyError(ctx, g.name, err)
	}
	var b strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Thought {
				continue
			}
			b.WriteString(part.Text)
		}
		break
	}
	return b.String(), nil
}

func (g *geminiBackend) Stream(ctx context.Context, req ports.GenerateRequest) (<-chan ports.Fragment, error) {
	if err := failFast(ctx); err != nil {
		return nil, err
	}
	return streamOnce(ctx, func(ctx context.Context) (string, error) {
		return g.Generate(ctx, req)
	}), nil
}

var _ ports.Backend = (*geminiBackend)(nil)
