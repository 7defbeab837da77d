package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

const schema = `CREATE TABLE IF NOT EXISTS generations (
	id          TEXT PRIMARY KEY,
	timestamp   TEXT NOT NULL,
	provider    TEXT NOT NULL,
	model       TEXT NOT NULL,
	operation   TEXT NOT NULL,
	prompt      TEXT NOT NULL,
	output      TEXT NOT NULL DEFAULT '',
	outcome     TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_generations_timestamp ON generations(timestamp);`

// timestampLayout is fixed width so text ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// row mirrors domain.GenerationRecord with the timestamp stored as text.
type row struct {
	ID         string `db:"id"`
	Timestamp  string `db:"timestamp"`
	Provider   string `db:"provider"`
	Model      string `db:"model"`
	Operation  string `db:"operation"`
	Prompt     string `db:"prompt"`
	Output     string `db:"output"`
	Outcome    string `db:"outcome"`
	Error      string `db:"error"`
	DurationMS int64  `db:"duration_ms"`
}

func toRow(rec domain.GenerationRecord) row {
	return row{
		ID:         rec.ID,
		Timestamp:  rec.Timestamp.UTC().Format(timestampLayout),
		Provider:   rec.Provider,
		Model:      rec.Model,
		Operation:  string(rec.Operation),
		Prompt:     rec.Prompt,
		Output:     rec.Output,
		Outcome:    string(rec.Outcome),
		Error:      rec.Error,
		DurationMS: rec.DurationMS,
	}
}

func (r row) record() domain.GenerationRecord {
	ts, _ := time.Parse(timestampLayout, r.Timestamp)
	return domain.GenerationRecord{
		ID:         r.ID,
		Timestamp:  ts,
		Provider:   r.Provider,
		Model:      r.Model,
		Operation:  domain.Operation(r.Operation),
		Prompt:     r.Prompt,
		Output:     r.Output,
		Outcome:    domain.Outcome(r.Outcome),
		Error:      r.Error,
		DurationMS: r.DurationMS,
	}
}

// SQLiteStore persists generation history in a SQLite database.
type SQLiteStore struct {
	db   *sqlx.DB
	path string
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts a record.
func (s *SQLiteStore) Save(record domain.GenerationRecord) error {
	_, err := s.db.NamedExec(`INSERT INTO generations
		(id, timestamp, provider, model, operation, prompt, output, outcome, error, duration_ms)
		VALUES (:id, :timestamp, :provider, :model, :operation, :prompt, :output, :outcome, :error, :duration_ms)`,
		toRow(record))
	if err != nil {
		return fmt.Errorf("saving history record: %w", err)
	}
	return nil
}

// Records returns the newest records first. limit <= 0 returns everything;
// search matches prompts and outputs.
func (s *SQLiteStore) Records(limit int, search string) ([]domain.GenerationRecord, error) {
	var (
		query strings.Builder
		args  []interface{}
	)
	query.WriteString("SELECT * FROM generations")
	if search != "" {
		query.WriteString(" WHERE prompt LIKE ? OR output LIKE ?")
		args = append(args, "%"+search+"%", "%"+search+"%")
	}
	query.WriteString(" ORDER BY timestamp DESC")
	if limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	var rows []row
	if err := s.db.Select(&rows, query.String(), args...); err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	records := make([]domain.GenerationRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return records, nil
}

// Clear deletes all records.
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM generations"); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

// ExportJSON writes every record to dest as JSON lines.
func (s *SQLiteStore) ExportJSON(dest string) error {
	records, err := s.Records(0, "")
	if err != nil {
		return err
	}
	return writeJSONL(dest, records)
}

// Path returns the database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func writeJSONL(dest string, records []domain.GenerationRecord) error {
	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

var _ ports.HistoryRepository = (*SQLiteStore)(nil)
