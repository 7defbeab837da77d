// Package domain defines core entities and value objects for shai-mongo.
//
// This file contains the provider catalogue: which backends exist, their
// default models and whether they accept a custom model identifier.
package domain

// ProviderName selects a model backend.
type ProviderName string

const (
	// ProviderMongoDB is the primary knowledge-base backend.
	ProviderMongoDB   ProviderName = "mongodb"
	ProviderDocs      ProviderName = "docs"
	ProviderOpenAI    ProviderName = "openai"
	ProviderMistral   ProviderName = "mistral"
	ProviderOllama    ProviderName = "ollama"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderGemini    ProviderName = "gemini"
)

// ProviderDefinition describes a backend the factory can build.
type ProviderDefinition struct {
	Name         ProviderName
	DefaultModel string
	// CustomModels is false for backends with a fixed model.
	CustomModels bool
	// APIKeyEnv lists env vars checked in order for credentials.
	APIKeyEnv []string
}

// Providers is the provider catalogue in help order.
var Providers = []ProviderDefinition{
	{Name: ProviderMongoDB, DefaultModel: "mongodb-chat-latest", CustomModels: true},
	{Name: ProviderDocs, DefaultModel: "docs-chatbot", CustomModels: false},
	{Name: ProviderOpenAI, DefaultModel: "gpt-4.1-mini", CustomModels: true, APIKeyEnv: []string{"MONGOSH_AI_OPENAI_API_KEY", "OPENAI_API_KEY"}},
	{Name: ProviderMistral, DefaultModel: "mistral-small-latest", CustomModels: true, APIKeyEnv: []string{"MONGOSH_AI_MISTRAL_API_KEY", "MISTRAL_API_KEY"}},
	{Name: ProviderOllama, DefaultModel: "qwen2.5-coder:7b", CustomModels: true},
	{Name: ProviderAnthropic, DefaultModel: "claude-3-5-haiku-latest", CustomModels: true, APIKeyEnv: []string{"MONGOSH_AI_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"}},
	{Name: ProviderGemini, DefaultModel: "gemini-2.0-flash", CustomModels: true, APIKeyEnv: []string{"MONGOSH_AI_GEMINI_API_KEY", "GEMINI_API_KEY"}},
}

// LookupProvider returns the definition for name.
func LookupProvider(name ProviderName) (ProviderDefinition, bool) {
	for _, def := range Providers {
		if def.Name == name {
			return def, true
		}
	}
	return ProviderDefinition{}, false
}

// ProviderNames returns every provider name as strings.
func ProviderNames() []string {
	names := make([]string, 0, len(Providers))
	for _, def := range Providers {
		names = append(names, string(def.Name))
	}
	return names
}

// SupportsCustomModels reports whether name accepts a model other than the default.
func SupportsCustomModels(name ProviderName) bool {
	def, ok := LookupProvider(name)
	return ok && def.CustomModels
}

// RequiresAPIKey reports whether the backend needs a credential.
func (d ProviderDefinition) RequiresAPIKey() bool {
	return len(d.APIKeyEnv) > 0
}

// ResolveModel maps the default sentinel to the provider's built-in model.
func (d ProviderDefinition) ResolveModel(model string) string {
	if model == "" || model == DefaultModel {
		return d.DefaultModel
	}
	return model
}
