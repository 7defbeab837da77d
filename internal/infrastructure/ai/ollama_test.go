package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

func ollamaRequest() ports.GenerateRequest {
	return ports.GenerateRequest{
		SystemPrompt: "be brief",
		Messages:     []domain.Message{{Role: domain.RoleUser, Content: "count users"}},
	}
}

func TestOllamaGenerate(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"db.users.countDocuments()"},"done":true}`)
	}))
	defer srv.Close()

	backend := newOllamaBackend("qwen", srv.URL, srv.Client())
	text, err := backend.Generate(context.Background(), ollamaRequest())
	require.NoError(t, err)
	assert.Equal(t, "db.users.countDocuments()", text)

	assert.Equal(t, "qwen", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, ollamaMessage{Role: "system", Content: "be brief"}, got.Messages[0])
	assert.Equal(t, ollamaMessage{Role: "user", Content: "count users"}, got.Messages[1])
}

func TestOllamaStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		for _, part := range []string{"Use ", "countDocuments", "."} {
			fmt.Fprintf(w, `{"message":{"role":"assistant","content":%q},"done":false}`+"\n", part)
		}
		fmt.Fprint(w, `{"message":{"role":"assistant","content":""},"done":true}`+"\n")
	}))
	defer srv.Close()

	backend := newOllamaBackend("qwen", srv.URL, srv.Client())
	require.True(t, backend.SupportsStreaming())

	fragments, err := backend.Stream(context.Background(), ollamaRequest())
	require.NoError(t, err)

	var b strings.Builder
	for f := range fragments {
		require.NoError(t, f.Err)
		b.WriteString(f.Text)
	}
	assert.Equal(t, "Use countDocuments.", b.String())
}

func TestOllamaHTTPErrorIsGenerationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	backend := newOllamaBackend("missing", srv.URL, srv.Client())
	_, err := backend.Generate(context.Background(), ollamaRequest())

	var genErr *domain.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, domain.ProviderOllama, genErr.Provider)
	assert.Contains(t, err.Error(), "model not found")
}

func TestOllamaCancelledContextFailsFast(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(domain.ErrSuperseded)

	backend := newOllamaBackend("qwen", srv.URL, srv.Client())
	_, err := backend.Generate(ctx, ollamaRequest())
	assert.ErrorIs(t, err, domain.ErrAborted)
	assert.ErrorIs(t, err, domain.ErrSuperseded)
	assert.Zero(t, calls)
}

func TestOllamaHostWithoutScheme(t *testing.T) {
	backend := newOllamaBackend("qwen", "127.0.0.1:11434", http.DefaultClient)
	assert.Equal(t, "http://127.0.0.1:11434/api/chat", backend.endpoint)

	backend = newOllamaBackend("qwen", "", http.DefaultClient)
	assert.Equal(t, DefaultOllamaHost+"/api/chat", backend.endpoint)
}
