// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the AI session core and the
// external adapters (infrastructure). The session never talks to a model SDK,
// a database driver or a terminal directly; it only sees the interfaces below.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., Backend, DatabaseContext)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"

	"github.com/doeshing/shai-mongo/internal/domain"
)

// KeyValueStore persists AI settings. Implementations namespace keys so they
// cannot collide with unrelated settings.
type KeyValueStore interface {
	// Get returns the stored value and whether it was present.
	Get(ctx context.Context, key string) (interface{}, bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

// SecretStore holds backend credentials outside the settings file.
type SecretStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// GenerateRequest carries the conversation and an optional system instruction.
type GenerateRequest struct {
	Messages     []domain.Message
	SystemPrompt string
	// WithReferences lets backends that cite sources append them to the text.
	WithReferences bool
}

// Fragment is one piece of incrementally generated text.
// A fragment with a non-nil Err is the last one sent.
type Fragment struct {
	Text string
	Err  error
}

// Backend generates text from a conversation, honoring ctx cancellation.
// Cancellation surfaces as domain.ErrAborted; any other failure as
// *domain.GenerationError.
type Backend interface {
	Name() domain.ProviderName
	Model() string
	SupportsStreaming() bool
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	// Stream returns a finite, non-restartable fragment sequence. The channel
	// is closed once the backend completes or ctx ends.
	Stream(ctx context.Context, req GenerateRequest) (<-chan Fragment, error)
}

// BackendFactory builds backends by provider and model.
type BackendFactory interface {
	ForProvider(provider domain.ProviderName, model string) (Backend, error)
}

// DatabaseContext exposes the current database to the session.
type DatabaseContext interface {
	CurrentDatabaseName() string
	ListCollectionNames(ctx context.Context) ([]string, error)
	SampleDocuments(ctx context.Context, collection string, n int) ([]map[string]interface{}, error)
}

// InputSink receives text to be treated as the next user-typed input.
type InputSink interface {
	Inject(chunks ...string)
}

// OutputSink displays text immediately. Streamed fragments are written through Write.
type OutputSink interface {
	Write(text string)
	Println(text string)
}

// Indicator is the "thinking" display. Start and Stop are idempotent and the
// indicator stops by itself once ctx ends.
type Indicator interface {
	Start(ctx context.Context)
	Stop()
}

// HistoryRepository records generations for the history subcommand.
type HistoryRepository interface {
	Save(record domain.GenerationRecord) error
	Records(limit int, search string) ([]domain.GenerationRecord, error)
	Clear() error
	Path() string
}

// SecurityService evaluates commands before they are executed.
type SecurityService interface {
	Evaluate(command string) (domain.RiskAssessment, error)
}

// CommandExecutor runs a confirmed mongosh command against a database.
type CommandExecutor interface {
	Execute(ctx context.Context, database string, command string) (domain.ExecutionResult, error)
}

// Logger is a minimal structured logger used across layers.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
