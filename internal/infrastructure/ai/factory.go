package ai

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go/option"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/pkg/logger"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// DefaultMistralBaseURL is Mistral's OpenAI-compatible endpoint.
const DefaultMistralBaseURL = "https://api.mistral.ai/v1/"

// KeyResolver looks up the API key for a provider. It returns "" when none is set.
type KeyResolver interface {
	APIKey(def domain.ProviderDefinition) string
}

type noKeys struct{}

func (noKeys) APIKey(domain.ProviderDefinition) string { return "" }

// Factory builds backends by provider name. It holds no global state; the
// container creates one and hands it to the session.
type Factory struct {
	httpClient *http.Client
	keys       KeyResolver
	version    string
	endpoints  map[domain.ProviderName]string
	logger     ports.Logger
}

// FactoryOption customizes a Factory.
type FactoryOption func(*Factory)

// WithHTTPClient replaces the shared HTTP client.
func WithHTTPClient(client *http.Client) FactoryOption {
	return func(f *Factory) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// WithKeyResolver sets where API keys come from.
func WithKeyResolver(keys KeyResolver) FactoryOption {
	return func(f *Factory) {
		if keys != nil {
			f.keys = keys
		}
	}
}

// WithEndpoint overrides a provider's base URL.
func WithEndpoint(provider domain.ProviderName, baseURL string) FactoryOption {
	return func(f *Factory) {
		f.endpoints[provider] = baseURL
	}
}

// WithVersion sets the version reported in origin headers.
func WithVersion(version string) FactoryOption {
	return func(f *Factory) {
		f.version = version
	}
}

// WithLogger sets the factory logger.
func WithLogger(l ports.Logger) FactoryOption {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		httpClient: &http.Client{Timeout: domain.DefaultHTTPClientTimeout},
		keys:       noKeys{},
		version:    "dev",
		endpoints:  map[domain.ProviderName]string{},
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Origin identifies this client to MongoDB-hosted services.
func (f *Factory) Origin() string {
	return "mongodb-shai/" + f.version
}

func (f *Factory) ForProvider(provider domain.ProviderName, model string) (ports.Backend, error) {
	def, ok := domain.LookupProvider(provider)
	if !ok {
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
	if !def.CustomModels && model != "" && model != domain.DefaultModel {
		return nil, &domain.UnsupportedModelOverrideError{Provider: provider}
	}
	resolved := def.ResolveModel(model)
	if strings.TrimSpace(resolved) == "" || strings.ContainsAny(resolved, " \t\r\n") {
		return nil, fmt.Errorf("invalid model identifier %q", model)
	}

	f.logger.Debug("building backend", map[string]interface{}{
		"provider": string(provider),
		"model":    resolved,
	})

	switch provider {
	case domain.ProviderMongoDB:
		return newKnowledgeBackend(resolved, f.endpoint(provider, DefaultKnowledgeBaseURL), f.Origin(),
			option.WithHTTPClient(f.httpClient)), nil
	case domain.ProviderDocs:
		return newDocsBackend(f.endpoint(provider, DefaultDocsBaseURL), f.Origin(), f.httpClient), nil
	case domain.ProviderOpenAI:
		opts := []option.RequestOption{
			option.WithAPIKey(f.keys.APIKey(def)),
			option.WithHTTPClient(f.httpClient),
		}
		if base := f.endpoints[provider]; base != "" {
			opts = append(opts, option.WithBaseURL(base))
		}
		return newChatBackend(provider, resolved, opts...), nil
	case domain.ProviderMistral:
		return newChatBackend(provider, resolved,
			option.WithAPIKey(f.keys.APIKey(def)),
			option.WithBaseURL(f.endpoint(provider, DefaultMistralBaseURL)),
			option.WithHTTPClient(f.httpClient),
		), nil
	case domain.ProviderOllama:
		return newOllamaBackend(resolved, f.endpoint(provider, os.Getenv("OLLAMA_HOST")), f.httpClient), nil
	case domain.ProviderAnthropic:
		opts := []anthropicoption.RequestOption{
			anthropicoption.WithAPIKey(f.keys.APIKey(def)),
			anthropicoption.WithHTTPClient(f.httpClient),
		}
		if base := f.endpoints[provider]; base != "" {
			opts = append(opts, anthropicoption.WithBaseURL(base))
		}
		return newAnthropicBackend(resolved, opts...), nil
	case domain.ProviderGemini:
		return newGeminiBackend(resolved, f.keys.APIKey(def), f.httpClient), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func (f *Factory) endpoint(provider domain.ProviderName, def string) string {
	if base := f.endpoints[provider]; base != "" {
		return base
	}
	return def
}

var _ ports.BackendFactory = (*Factory)(nil)
