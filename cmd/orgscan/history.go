package main

import (
	"context"
	"fmt"

	"github.com/reconkit/orgscan/internal/config"
	"github.com/reconkit/orgscan/internal/database"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [company-name]",
		Short: "List prior collection and search runs",
		Long: `History lists runs saved in the local database.

Without arguments it lists the most recent runs of both kinds. With a
company name it lists only the runs that included that target. A saved
run can be re-rendered in any report format with --id.

Examples:
  # List the 20 most recent runs
  orgscan history

  # List runs that included a specific company
  orgscan history "Example Corp"

  # Re-render run 5 as Markdown
  orgscan history --id 5 --markdown

  # List the stored entries of a search run
  orgscan history --id 5 --entries`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs to list (0 for all)")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")
	cmd.Flags().Int64("id", 0,
		"Show the full report of a single run by ID")
	cmd.Flags().Bool("entries", false,
		"With --id, list the stored entries of a search run")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildBaseConfig(cmd)
	if err != nil {
		return err
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}
	showEntries, err := cmd.Flags().GetBool("entries")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database (no runs saved yet?): %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if runID > 0 {
		if showEntries {
			return printRunEntries(ctx, db, runID)
		}
		return printRun(ctx, cfg, db, runID)
	}

	if len(args) == 1 {
		return printTargetHistory(ctx, db, args[0], limit)
	}
	return printRunList(ctx, db, limit)
}

// printRunList lists the most recent runs of both kinds.
func printRunList(ctx context.Context, db *database.HistoryDB, limit int) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs saved yet.")
		return nil
	}
	printRunRows(runs)
	return nil
}

// printTargetHistory lists the runs that included the given company.
func printTargetHistory(ctx context.Context, db *database.HistoryDB, target string, limit int) error {
	runs, err := db.TargetHistory(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to query history: %w", err)
	}
	if len(runs) == 0 {
		fmt.Printf("No runs found for %q.\n", target)
		return nil
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	printRunRows(runs)
	return nil
}

// printRunRows renders run metadata as a fixed-width table.
func printRunRows(runs []database.RunMetadata) {
	fmt.Printf("%-5s %-11s %-20s %-7s %-7s %-7s %s\n",
		"ID", "KIND", "STARTED", "DONE", "FAILED", "TOTAL", "QUERY")
	for _, r := range runs {
		query := r.Query
		if len(query) > 40 {
			query = query[:37] + "..."
		}
		fmt.Printf("%-5d %-11s %-20s %-7d %-7d %-7d %s\n",
			r.ID, r.Kind, r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Done, r.Failed, r.Total, query)
	}
}

// printRun re-renders a saved run in the requested report format.
func printRun(ctx context.Context, cfg *config.Config, db *database.HistoryDB, runID int64) error {
	output, closeOutput, err := openReportOutput(cfg)
	if err != nil {
		return err
	}
	defer closeOutput()
	writer := newReportWriter(cfg, output)

	batchReport, err := db.GetBatchRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	if batchReport != nil {
		_, err := writer.WriteBatch(batchReport)
		return err
	}

	searchReport, err := db.GetSearchRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	if searchReport != nil {
		_, err := writer.WriteSearch(searchReport)
		return err
	}

	return fmt.Errorf("run %d not found (use 'orgscan history' to list runs)", runID)
}

// printRunEntries lists the deduplicated entries stored for a search run.
func printRunEntries(ctx context.Context, db *database.HistoryDB, runID int64) error {
	entries, err := db.RunEntries(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}
	if len(entries) == 0 {
		fmt.Printf("No entries stored for run %d.\n", runID)
		return nil
	}
	for i, e := range entries {
		fmt.Printf("%4d. %s:%d", i+1, e.IP, e.Port)
		if e.Host != "" {
			fmt.Printf("  %s", e.Host)
		}
		if e.Title != "" {
			fmt.Printf("  [%s]", e.Title)
		}
		if e.Backend != "" {
			fmt.Printf("  (%s)", e.Backend)
		}
		fmt.Println()
	}
	return nil
}
