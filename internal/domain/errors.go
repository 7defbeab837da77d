package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAborted marks a generation cancelled by timeout or by a newer request.
	ErrAborted = errors.New("request aborted")
	// ErrSuperseded is the cancellation cause used when a newer request takes over.
	ErrSuperseded = fmt.Errorf("superseded by a newer request: %w", ErrAborted)
	// ErrParallelRequestRejected is returned when a request is itself superseded
	// while waiting for the previous one to clean up.
	ErrParallelRequestRejected = errors.New("Parallel request was stopped")
)

// ValidationError reports a configuration value that fails its schema.
type ValidationError struct {
	Key    ConfigKey
	Value  interface{}
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value %v for %s: %s", e.Value, e.Key, e.Reason)
}

// InvalidKeyError reports an unknown configuration key.
type InvalidKeyError struct {
	Key string
}

func (e *InvalidKeyError) Error() string {
	keys := make([]string, 0, len(ConfigKeys))
	for _, k := range ConfigKeys {
		keys = append(keys, string(k))
	}
	return fmt.Sprintf("Invalid config key: %s. Valid keys are: %s.", e.Key, strings.Join(keys, ", "))
}

// NoActiveCollectionError is raised when a collection-scoped operation cannot
// resolve a collection.
type NoActiveCollectionError struct {
	Database    string
	Collections []string
}

func (e *NoActiveCollectionError) Error() string {
	return fmt.Sprintf("No active collection set. Use ai.collection(\"collection_name\") to set a collection.\nCollections in %s: %s",
		e.Database, strings.Join(e.Collections, ", "))
}

// UnsupportedModelOverrideError is raised when a fixed-model provider is given
// a custom model.
type UnsupportedModelOverrideError struct {
	Provider ProviderName
}

func (e *UnsupportedModelOverrideError) Error() string {
	return fmt.Sprintf("%s does not support custom models", e.Provider)
}

// GenerationError wraps a backend failure other than cancellation.
type GenerationError struct {
	Provider ProviderName
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("Error generating text: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsAborted reports whether err is a cancellation.
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted)
}
