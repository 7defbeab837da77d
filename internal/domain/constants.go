package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout and duration constants
const (
	// DefaultRequestTimeout bounds every generation request
	DefaultRequestTimeout = 30 * time.Second
	// ClassificationTimeout bounds the collection classification call
	ClassificationTimeout = 10 * time.Second
	// DefaultHTTPClientTimeout is the timeout for HTTP client requests
	DefaultHTTPClientTimeout = 60 * time.Second
	// DatabaseTimeout bounds a single database collaborator call
	DatabaseTimeout = 10 * time.Second
)

// Session constants
const (
	// SampleDocumentCount is how many documents are sampled into prompts
	SampleDocumentCount = 3
	// ConfigKeyPrefix namespaces persisted settings
	ConfigKeyPrefix = "snippet_ai_"
	// EditorModeMarker switches the REPL into multi-line editing
	EditorModeMarker = ".editor\n"
	// CommandNamespace prefixes every REPL command
	CommandNamespace = "ai"
)

// History constants
const (
	// DefaultHistoryLimit is the default number of history records to display
	DefaultHistoryLimit = 20
)

// Model configuration constants
const (
	// DefaultMaxTokens is the default maximum number of tokens
	DefaultMaxTokens = 1024
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
