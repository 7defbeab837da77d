package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// httpProvider drives a plain JSON-over-HTTP model API. The wire format is
// supplied by a providerAdapter so new backends only describe their payloads.
type httpProvider struct {
	backendInfo
	endpoint   string
	httpClient *http.Client
	adapter    providerAdapter
}

type providerAdapter struct {
	buildRequest  func(model string, req ports.GenerateRequest, stream bool) ([]byte, error)
	parseResponse func([]byte) (string, error)
	// parseChunk decodes one NDJSON line of a streamed response.
	parseChunk func([]byte) (text string, done bool, err error)
	setHeaders func(*http.Request)
}

func newHTTPProvider(name domain.ProviderName, model, endpoint string, client *http.Client, adapter providerAdapter) *httpProvider {
	return &httpProvider{
		backendInfo: backendInfo{name: name, model: model},
		endpoint:    endpoint,
		httpClient:  client,
		adapter:     adapter,
	}
}

func (p *httpProvider) SupportsStreaming() bool {
	return p.adapter.parseChunk != nil
}

func (p *httpProvider) do(ctx context.Context, req ports.GenerateRequest, stream bool) (*http.Response, error) {
	body, err := p.adapter.buildRequest(p.model, req, stream)
	if err != nil {
		return nil, &domain.GenerationError{Provider: p.name, Err: err}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.GenerationError{Provider: p.name, Err: err}
	}
	httpReq.Header.Set("content-type", "application/json")
	if p.adapter.setHeaders != nil {
		p.adapter.setHeaders(httpReq)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyError(ctx, p.name, err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &domain.GenerationError{
			Provider: p.name,
			Err:      fmt.Errorf("%s: %s %s", p.name, resp.Status, bytes.TrimSpace(detail)),
		}
	}
	return resp, nil
}

func (p *httpProvider) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	if err := failFast(ctx); err != nil {
		return "", err
	}
	resp, err := p.do(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyError(ctx, p.name, err)
	}
	content, err := p.adapter.parseResponse(raw)
	if err != nil {
		return "", &domain.GenerationError{Provider: p.name, Err: err}
	}
	return content, nil
}

func (p *httpProvider) Stream(ctx context.Context, req ports.GenerateRequest) (<-chan ports.Fragment, error) {
	if err := failFast(ctx); err != nil {
		return nil, err
	}
	if !p.SupportsStreaming() {
		return streamOnce(ctx, func(ctx context.Context) (string, error) {
			return p.Generate(ctx, req)
		}), nil
	}
	resp, err := p.do(ctx, req, true)
	if err != nil {
		return nil, err
	}

	out := make(chan ports.Fragment)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			text, done, err := p.adapter.parseChunk(line)
			if err != nil {
				send(ctx, out, ports.Fragment{Err: &domain.GenerationError{Provider: p.name, Err: err}})
				return
			}
			if text != "" && !send(ctx, out, ports.Fragment{Text: text}) {
				return
			}
			if done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			send(ctx, out, ports.Fragment{Err: classifyError(ctx, p.name, err)})
			return
		}
		if ctx.Err() != nil {
			send(context.Background(), out, ports.Fragment{Err: abortedError(ctx)})
		}
	}()
	return out, nil
}

func decodeJSON(raw []byte, v interface{}) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var _ ports.Backend = (*httpProvider)(nil)
