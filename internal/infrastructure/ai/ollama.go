package ai

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// DefaultOllamaHost is the local Ollama daemon.
const DefaultOllamaHost = "http://localhost:11434"

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

func newOllamaBackend(model, host string, client *http.Client) *httpProvider {
	host = valueOrDefault(strings.TrimSpace(host), DefaultOllamaHost)
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	endpoint := strings.TrimRight(host, "/") + "/api/chat"
	return newHTTPProvider(domain.ProviderOllama, model, endpoint, client, ollamaAdapter())
}

func ollamaAdapter() providerAdapter {
	return providerAdapter{
		buildRequest:  buildOllamaRequest,
		parseResponse: parseOllamaResponse,
		parseChunk:    parseOllamaChunk,
	}
}

func buildOllamaRequest(model string, req ports.GenerateRequest, stream bool) ([]byte, error) {
	messages := make([]ollamaMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, msg := range req.Messages {
		messages = append(messages, ollamaMessage{Role: string(msg.Role), Content: msg.Content})
	}
	return json.Marshal(ollamaChatRequest{Model: model, Messages: messages, Stream: stream})
}

func parseOllamaResponse(body []byte) (string, error) {
	var decoded ollamaChatResponse
	if err := decodeJSON(body, &decoded); err != nil {
		return "", err
	}
	if decoded.Error != "" {
		return "", errors.New(decoded.Error)
	}
	return decoded.Message.Content, nil
}

func parseOllamaChunk(line []byte) (string, bool, error) {
	var decoded ollamaChatResponse
	if err := decodeJSON(line, &decoded); err != nil {
		return "", false, err
	}
	if decoded.Error != "" {
		return "", true, errors.New(decoded.Error)
	}
	return decoded.Message.Content, decoded.Done, nil
}
