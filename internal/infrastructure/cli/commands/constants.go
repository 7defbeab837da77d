package commands

import (
	"github.com/spf13/cobra"

	"github.com/doeshing/shai-mongo/internal/app"
)

// ContainerFunc returns the dependency container, building it on first use.
type ContainerFunc func(cmd *cobra.Command) (*app.Container, error)

// Error messages
const (
	ErrHistoryStoreUnavailable = "history store unavailable"
	ErrSecretStoreUnavailable  = "keyring unavailable; export the provider's API key variable instead"
	ErrEmptyKey                = "API key cannot be empty"
)

// Success messages
const (
	MsgNoHistoryRecorded = "No history recorded yet."
	MsgHistoryCleared    = "History cleared."
)

// History defaults
const (
	MaxHistoryAnalysisRecords = 1000
	historyPromptWidth        = 60
)
