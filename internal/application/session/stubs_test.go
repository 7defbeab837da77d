package session

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doeshing/shai-mongo/internal/application/config"
	"github.com/doeshing/shai-mongo/internal/domain"
	infraconfig "github.com/doeshing/shai-mongo/internal/infrastructure/config"
	"github.com/doeshing/shai-mongo/internal/pkg/logger"
	"github.com/doeshing/shai-mongo/internal/ports"
)

type generateFunc func(ctx context.Context, req ports.GenerateRequest) (string, error)

// streamFunc feeds out and returns once the stream is over. The stub closes
// out afterwards.
type streamFunc func(ctx context.Context, out chan<- ports.Fragment)

type stubBackend struct {
	name      domain.ProviderName
	model     string
	streaming bool
	fragments []string
	generate  generateFunc
	stream    streamFunc

	mu       sync.Mutex
	requests []ports.GenerateRequest
}

func (b *stubBackend) Name() domain.ProviderName { return b.name }
func (b *stubBackend) Model() string             { return b.model }
func (b *stubBackend) SupportsStreaming() bool   { return b.streaming }

func (b *stubBackend) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()
	if b.generate != nil {
		return b.generate(ctx, req)
	}
	return "ok", nil
}

func (b *stubBackend) Stream(ctx context.Context, req ports.GenerateRequest) (<-chan ports.Fragment, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()
	if b.stream != nil {
		out := make(chan ports.Fragment)
		go func() {
			defer close(out)
			b.stream(ctx, out)
		}()
		return out, nil
	}
	out := make(chan ports.Fragment, len(b.fragments))
	for _, f := range b.fragments {
		out <- ports.Fragment{Text: f}
	}
	close(out)
	return out, nil
}

func (b *stubBackend) Requests() []ports.GenerateRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ports.GenerateRequest(nil), b.requests...)
}

type stubFactory struct {
	backend *stubBackend
	err     error
	calls   []string
}

func (f *stubFactory) ForProvider(provider domain.ProviderName, model string) (ports.Backend, error) {
	f.calls = append(f.calls, string(provider)+"/"+model)
	if f.err != nil {
		return nil, f.err
	}
	f.backend.name = provider
	def, _ := domain.LookupProvider(provider)
	f.backend.model = def.ResolveModel(model)
	return f.backend, nil
}

type stubDatabase struct {
	name        string
	collections []string
	samples     []map[string]interface{}
	sampleCalls int
}

func (d *stubDatabase) CurrentDatabaseName() string { return d.name }

func (d *stubDatabase) ListCollectionNames(context.Context) ([]string, error) {
	return d.collections, nil
}

func (d *stubDatabase) SampleDocuments(_ context.Context, _ string, n int) ([]map[string]interface{}, error) {
	d.sampleCalls++
	if n < len(d.samples) {
		return d.samples[:n], nil
	}
	return d.samples, nil
}

type recorder struct {
	mu       sync.Mutex
	injected [][]string
	out      strings.Builder
}

func (r *recorder) Inject(chunks ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.injected = append(r.injected, chunks)
}

func (r *recorder) Write(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out.WriteString(text)
}

func (r *recorder) Println(text string) {
	r.Write(text + "\n")
}

func (r *recorder) Output() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.out.String()
}

func (r *recorder) Injected() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.injected...)
}

// indicator mirrors the spinner: Start while running and Stop while idle
// are no-ops and are not counted, and the animation ends with the context
// it was started with.
type indicator struct {
	mu      sync.Mutex
	running bool
	gen     int
	starts  int
	stops   int
}

func (i *indicator) Start(ctx context.Context) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.running {
		return
	}
	i.running = true
	i.starts++
	i.gen++
	if done := ctx.Done(); done != nil {
		gen := i.gen
		go func() {
			<-done
			i.mu.Lock()
			defer i.mu.Unlock()
			if i.running && i.gen == gen {
				i.running = false
				i.stops++
			}
		}()
	}
}

func (i *indicator) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.running {
		return
	}
	i.running = false
	i.stops++
}

func (i *indicator) counts() (starts, stops int, running bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.starts, i.stops, i.running
}

type memoryHistory struct {
	mu      sync.Mutex
	records []domain.GenerationRecord
}

func (h *memoryHistory) Save(rec domain.GenerationRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	return nil
}

func (h *memoryHistory) Records(int, string) ([]domain.GenerationRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.GenerationRecord(nil), h.records...), nil
}

func (h *memoryHistory) Clear() error { return nil }
func (h *memoryHistory) Path() string { return "memory" }

type harness struct {
	session   *Session
	config    *config.Store
	backend   *stubBackend
	factory   *stubFactory
	db        *stubDatabase
	io        *recorder
	indicator *indicator
	history   *memoryHistory
}

func newHarness(t *testing.T, settings domain.Settings) *harness {
	t.Helper()
	store, err := config.NewStore(context.Background(), infraconfig.NewMemoryStore(), settings, logger.Nop())
	require.NoError(t, err)

	h := &harness{
		config:    store,
		backend:   &stubBackend{},
		db:        &stubDatabase{name: "shop"},
		io:        &recorder{},
		indicator: &indicator{},
		history:   &memoryHistory{},
	}
	h.factory = &stubFactory{backend: h.backend}

	h.session, err = New(context.Background(), Deps{
		Config:    store,
		Backends:  h.factory,
		Database:  h.db,
		Input:     h.io,
		Output:    h.io,
		Indicator: h.indicator,
		Logger:    logger.Nop(),
		History:   h.history,
	})
	require.NoError(t, err)
	t.Cleanup(h.session.Close)
	return h
}

// newSessionOn starts a session over an existing key/value store, the way
// a fresh REPL would on launch.
func newSessionOn(t *testing.T, kv ports.KeyValueStore, backends ports.BackendFactory) (*Session, *config.Store) {
	t.Helper()
	store, err := config.NewStore(context.Background(), kv, domain.DefaultSettings(), logger.Nop())
	require.NoError(t, err)
	io := &recorder{}
	sess, err := New(context.Background(), Deps{
		Config:    store,
		Backends:  backends,
		Database:  &stubDatabase{name: "shop"},
		Input:     io,
		Output:    io,
		Indicator: &indicator{},
		Logger:    logger.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(sess.Close)
	return sess, store
}

func openAISettings(parallel bool) domain.Settings {
	settings := domain.DefaultSettings()
	settings.Provider = domain.ProviderOpenAI
	settings.ParallelRequests = parallel
	return settings
}
