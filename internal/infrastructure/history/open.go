// Package history stores a record of every AI generation.
package history

import (
	"path/filepath"
	"strings"

	"github.com/doeshing/shai-mongo/internal/ports"
)

// Repository is a history store that can also export its records.
type Repository interface {
	ports.HistoryRepository
	ExportJSON(dest string) error
}

// Open returns the SQLite store at path, or a JSON lines store next to it
// when SQLite is unavailable.
func Open(path string, logger ports.Logger) Repository {
	store, err := NewSQLiteStore(path)
	if err == nil {
		return store
	}
	logger.Warn("history database unavailable, using file store", map[string]interface{}{"error": err.Error()})
	return NewFileStore(strings.TrimSuffix(path, filepath.Ext(path)) + ".jsonl")
}
