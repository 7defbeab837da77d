package domain

import "time"

// Outcome classifies how a generation ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
	OutcomeAborted Outcome = "aborted"
)

// GenerationRecord captures one processed request.
type GenerationRecord struct {
	ID         string    `json:"id" db:"id"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
	Provider   string    `json:"provider" db:"provider"`
	Model      string    `json:"model" db:"model"`
	Operation  Operation `json:"operation" db:"operation"`
	Prompt     string    `json:"prompt" db:"prompt"`
	Output     string    `json:"output" db:"output"`
	Outcome    Outcome   `json:"outcome" db:"outcome"`
	Error      string    `json:"error,omitempty" db:"error"`
	DurationMS int64     `json:"duration_ms" db:"duration_ms"`
}
