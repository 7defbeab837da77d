package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// DefaultDocsBaseURL hosts the documentation chatbot conversation API.
const DefaultDocsBaseURL = "https://knowledge.mongodb.com/api/v1"

type docsReference struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type docsMessageResponse struct {
	Content          string          `json:"content"`
	References       []docsReference `json:"references"`
	SuggestedPrompts []string        `json:"suggestedPrompts"`
}

// docsBackend keeps one chatbot conversation per backend instance. The
// conversation is created on first use; the chatbot holds the history, so
// only the latest user turn is sent.
type docsBackend struct {
	backendInfo
	baseURL    string
	origin     string
	httpClient *http.Client

	mu             sync.Mutex
	conversationID string
}

func newDocsBackend(baseURL, origin string, client *http.Client) *docsBackend {
	return &docsBackend{
		backendInfo: backendInfo{name: domain.ProviderDocs, model: docsModel()},
		baseURL:     strings.TrimRight(valueOrDefault(baseURL, DefaultDocsBaseURL), "/"),
		origin:      origin,
		httpClient:  client,
	}
}

func (d *docsBackend) SupportsStreaming() bool { return false }

func (d *docsBackend) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	if err := failFast(ctx); err != nil {
		return "", err
	}
	id, err := d.conversation(ctx)
	if err != nil {
		return "", err
	}

	message := lastUserTurn(req.Messages)
	if req.SystemPrompt != "" {
		message = "System prompt: " + req.SystemPrompt + "\n\n User prompt: " + message
	}
	var resp docsMessageResponse
	if err := d.post(ctx, "/conversations/"+id+"/messages", map[string]string{"message": message}, &resp); err != nil {
		return "", err
	}
	if !req.WithReferences {
		return resp.Content, nil
	}
	return formatDocsAnswer(resp), nil
}

func (d *docsBackend) Stream(ctx context.Context, req ports.GenerateRequest) (<-chan ports.Fragment, error) {
	if err := failFast(ctx); err != nil {
		return nil, err
	}
	return streamOnce(ctx, func(ctx context.Context) (string, error) {
		return d.Generate(ctx, req)
	}), nil
}

func (d *docsBackend) conversation(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conversationID != "" {
		return d.conversationID, nil
	}
	var created struct {
		ID string `json:"_id"`
	}
	if err := d.post(ctx, "/conversations", struct{}{}, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", &domain.GenerationError{Provider: d.name, Err: errors.New("conversation id missing from response")}
	}
	d.conversationID = created.ID
	return created.ID, nil
}

func (d *docsBackend) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &domain.GenerationError{Provider: d.name, Err: err}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &domain.GenerationError{Provider: d.name, Err: err}
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("X-Request-Origin", d.origin)
	httpReq.Header.Set("User-Agent", d.origin)
	httpReq.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return classifyError(ctx, d.name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyError(ctx, d.name, err)
	}
	if resp.StatusCode >= 400 {
		return &domain.GenerationError{
			Provider: d.name,
			Err:      fmt.Errorf("docs chatbot: %s %s", resp.Status, bytes.TrimSpace(raw)),
		}
	}
	if err := decodeJSON(raw, out); err != nil {
		return &domain.GenerationError{Provider: d.name, Err: err}
	}
	return nil
}

func lastUserTurn(messages []domain.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

func formatDocsAnswer(resp docsMessageResponse) string {
	var b strings.Builder
	b.WriteString(resp.Content)
	if len(resp.References) > 0 {
		refs := make([]string, 0, len(resp.References))
		for _, ref := range resp.References {
			refs = append(refs, ref.Title+": "+ref.URL)
		}
		b.WriteString("\n\n")
		b.WriteString(strings.Join(refs, "; "))
	}
	if len(resp.SuggestedPrompts) > 0 {
		b.WriteString("\n\nSuggested follow-up questions:\n")
		for _, prompt := range resp.SuggestedPrompts {
			b.WriteString("- " + prompt + "\n")
		}
	}
	return b.String()
}

var _ ports.Backend = (*docsBackend)(nil)

func docsModel() string {
	def, _ := domain.LookupProvider(domain.ProviderDocs)
	return def.DefaultModel
}
