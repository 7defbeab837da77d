package history

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/pkg/logger"
)

func sampleRecords() []domain.GenerationRecord {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []domain.GenerationRecord{
		{ID: "1", Timestamp: base, Provider: "openai", Model: "gpt-4.1-mini", Operation: domain.OperationQuery,
			Prompt: "users over 30", Output: "db.users.find({ age: { $gt: 30 } })", Outcome: domain.OutcomeSuccess, DurationMS: 120},
		{ID: "2", Timestamp: base.Add(time.Minute), Provider: "openai", Model: "gpt-4.1-mini", Operation: domain.OperationAsk,
			Prompt: "what is an index?", Outcome: domain.OutcomeError, Error: "rate limited"},
		{ID: "3", Timestamp: base.Add(2 * time.Minute), Provider: "mongodb", Model: "mongodb-chat-latest", Operation: domain.OperationShell,
			Prompt: "list databases", Output: "show dbs", Outcome: domain.OutcomeAborted},
	}
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Repository{
		"sqlite": func(t *testing.T) Repository {
			store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
			require.NoError(t, err)
			t.Cleanup(func() { store.Close() })
			return store
		},
		"file": func(t *testing.T) Repository {
			return NewFileStore(filepath.Join(t.TempDir(), "history.jsonl"))
		},
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			for _, rec := range sampleRecords() {
				require.NoError(t, store.Save(rec))
			}

			all, err := store.Records(0, "")
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "3", all[0].ID, "newest first")
			assert.Equal(t, sampleRecords()[0], all[2])

			limited, err := store.Records(1, "")
			require.NoError(t, err)
			require.Len(t, limited, 1)
			assert.Equal(t, "3", limited[0].ID)

			found, err := store.Records(0, "$gt")
			require.NoError(t, err)
			require.Len(t, found, 1)
			assert.Equal(t, "1", found[0].ID)

			dest := filepath.Join(t.TempDir(), "export.jsonl")
			require.NoError(t, store.ExportJSON(dest))
			assert.Equal(t, 3, countLines(t, dest))

			require.NoError(t, store.Clear())
			all, err = store.Records(0, "")
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestOpenFallsBackToFileStore(t *testing.T) {
	dir := t.TempDir()
	// A directory where the database file should be makes SQLite fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "history.db"), 0o755))

	store := Open(filepath.Join(dir, "history.db"), logger.Nop())
	_, ok := store.(*FileStore)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "history.jsonl"), store.Path())
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	n := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		n++
	}
	return n
}
