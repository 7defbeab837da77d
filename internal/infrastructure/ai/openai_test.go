package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

func newTestChatBackend(t *testing.T, handler http.HandlerFunc) *chatBackend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return newChatBackend(domain.ProviderOpenAI, "gpt-test",
		option.WithAPIKey("test-key"),
		option.WithBaseURL(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithMaxRetries(0),
	)
}

func chatRequest() ports.GenerateRequest {
	return ports.GenerateRequest{
		SystemPrompt: "expert",
		Messages:     []domain.Message{{Role: domain.RoleUser, Content: "list dbs"}},
	}
}

func TestChatBackendGenerate(t *testing.T) {
	backend := newTestChatBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("content-type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-test",`+
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"show dbs"}}]}`)
	})

	text, err := backend.Generate(context.Background(), chatRequest())
	require.NoError(t, err)
	assert.Equal(t, "show dbs", text)
}

func TestChatBackendStream(t *testing.T) {
	backend := newTestChatBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/event-stream")
		for _, part := range []string{"show", " dbs"} {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-test\","+
				"\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	fragments, err := backend.Stream(context.Background(), chatRequest())
	require.NoError(t, err)

	var b strings.Builder
	for f := range fragments {
		require.NoError(t, f.Err)
		b.WriteString(f.Text)
	}
	assert.Equal(t, "show dbs", b.String())
}

func TestChatBackendServerErrorIsGenerationError(t *testing.T) {
	backend := newTestChatBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad model","type":"invalid_request_error"}}`)
	})

	_, err := backend.Generate(context.Background(), chatRequest())
	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, domain.ProviderOpenAI, genErr.Provider)
	assert.NotErrorIs(t, err, domain.ErrAborted)
}
