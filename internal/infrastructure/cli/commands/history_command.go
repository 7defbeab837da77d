package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/infrastructure/history"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(get ContainerFunc) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect AI generation history",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(get),
		newHistoryClearCommand(get),
		newHistoryExportCommand(get),
		newHistoryStatsCommand(get),
	)

	return historyCmd
}

func historyStore(get ContainerFunc, cmd *cobra.Command) (history.Repository, error) {
	c, err := get(cmd)
	if err != nil {
		return nil, err
	}
	if c.History == nil {
		return nil, errors.New(ErrHistoryStoreUnavailable)
	}
	return c.History, nil
}

// newHistoryListCommand creates the 'history list' subcommand
func newHistoryListCommand(get ContainerFunc) *cobra.Command {
	var (
		limit  int
		search string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent generations",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(get, cmd)
			if err != nil {
				return err
			}
			return listHistoryEntries(cmd.OutOrStdout(), store, limit, search)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryLimit, "Max entries to show")
	cmd.Flags().StringVar(&search, "search", "", "Only show prompts or outputs containing this text")
	return cmd
}

// newHistoryClearCommand creates the 'history clear' subcommand
func newHistoryClearCommand(get ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all history",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(get, cmd)
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgHistoryCleared)
			return nil
		},
	}
}

// newHistoryExportCommand creates the 'history export' subcommand
func newHistoryExportCommand(get ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export history to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(get, cmd)
			if err != nil {
				return err
			}
			if err := store.ExportJSON(args[0]); err != nil {
				return fmt.Errorf("failed to export history to %s: %w", args[0], err)
			}
			return nil
		},
	}
}

// newHistoryStatsCommand creates the 'history stats' subcommand
func newHistoryStatsCommand(get ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show outcomes and latency per provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(get, cmd)
			if err != nil {
				return err
			}
			records, err := store.Records(MaxHistoryAnalysisRecords, "")
			if err != nil {
				return fmt.Errorf("failed to retrieve history for analysis: %w", err)
			}
			displayHistoryStatistics(cmd.OutOrStdout(), analyzeHistoryRecords(records))
			return nil
		},
	}
}

// listHistoryEntries lists recent history entries
func listHistoryEntries(out io.Writer, store history.Repository, limit int, search string) error {
	records, err := store.Records(limit, search)
	if err != nil {
		return fmt.Errorf("failed to retrieve history records: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}

	for _, rec := range records {
		fmt.Fprintf(out, "%s | %s/%s | %s | %s | %s\n",
			rec.Timestamp.Local().Format(domain.TimestampFormat),
			rec.Provider,
			rec.Model,
			rec.Operation,
			rec.Outcome,
			truncate(rec.Prompt, historyPromptWidth))
	}
	return nil
}

// providerStats holds per-provider totals
type providerStats struct {
	total      int
	outcomes   map[domain.Outcome]int
	durationMS int64
}

// analyzeHistoryRecords groups records by provider
func analyzeHistoryRecords(records []domain.GenerationRecord) map[string]*providerStats {
	stats := make(map[string]*providerStats)
	for _, rec := range records {
		s, ok := stats[rec.Provider]
		if !ok {
			s = &providerStats{outcomes: make(map[domain.Outcome]int)}
			stats[rec.Provider] = s
		}
		s.total++
		s.outcomes[rec.Outcome]++
		s.durationMS += rec.DurationMS
	}
	return stats
}

// displayHistoryStatistics displays formatted history statistics
func displayHistoryStatistics(out io.Writer, stats map[string]*providerStats) {
	if len(stats) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return
	}

	providers := make([]string, 0, len(stats))
	for p := range stats {
		providers = append(providers, p)
	}
	sort.Strings(providers)

	for _, p := range providers {
		s := stats[p]
		fmt.Fprintf(out, "%s: %d requests, %d ok, %d failed, %d aborted, avg %dms\n",
			p,
			s.total,
			s.outcomes[domain.OutcomeSuccess],
			s.outcomes[domain.OutcomeError],
			s.outcomes[domain.OutcomeAborted],
			s.durationMS/int64(s.total))
	}
}

func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}
