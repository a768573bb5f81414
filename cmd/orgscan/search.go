package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/reconkit/orgscan/internal/backend"
	"github.com/reconkit/orgscan/internal/config"
	"github.com/reconkit/orgscan/internal/database"
	"github.com/reconkit/orgscan/internal/model"
	"github.com/reconkit/orgscan/internal/query"
	"github.com/reconkit/orgscan/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Query asset-search backends with a unified query",
		Long: `Search fans a unified query out to the configured asset-search
backends (FOFA, Hunter, Quake), translates it into each backend's
dialect, and merges the results with cross-backend deduplication.

Recognized query fields: ip, port, domain, title, country, server.
Unrecognized terms pass through to FOFA verbatim and are dropped with a
warning for the other backends.

Backends are queried strictly one at a time; a failed backend never
stops the rest.

Requires backend API keys in the credentials file
(run 'orgscan init' first).

Examples:
  # Query every configured backend
  orgscan search 'port="443" country="CN"'

  # Query only FOFA and Quake, 50 entries each
  orgscan search --backends fofa,quake --limit 50 'domain="example.com"'

  # JSON report to a file
  orgscan search --json -o results.json 'title="login"'`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearchCmd,
	}

	cmd.Flags().StringSliceP("backends", "b", config.DefaultBackends,
		"Comma-separated backends to query (fofa, hunter, quake)")
	cmd.Flags().IntP("limit", "n", config.DefaultSearchLimit,
		"Maximum entries requested from each backend")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	return cmd
}

// runSearchCmd executes the search command.
func runSearchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildSearchConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.ValidateSearch(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runSearch(ctx, cfg, logger)
}

// buildSearchConfig creates a Config from the search command flags.
func buildSearchConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := buildBaseConfig(cmd)
	if err != nil {
		return nil, err
	}

	cfg.Backends, err = cmd.Flags().GetStringSlice("backends")
	if err != nil {
		return nil, err
	}
	cfg.SearchLimit, err = cmd.Flags().GetInt("limit")
	if err != nil {
		return nil, err
	}
	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	cfg.TorStartupTimeout, err = cmd.Flags().GetDuration("tor-timeout")
	if err != nil {
		return nil, err
	}

	// A quoted query survives as one argument; unquoted clauses arrive
	// as several.
	cfg.Query = strings.TrimSpace(strings.Join(args, " "))

	return cfg, nil
}

// buildBackends constructs the backend clients selected by name.
// Backends without a configured credential are skipped with a warning
// rather than failing the whole run.
func buildBackends(cfg *config.Config, httpClient *http.Client, creds *session.Store, logger *slog.Logger) ([]backend.Backend, error) {
	constructors := map[string]func() backend.Backend{
		backend.ServiceFOFA: func() backend.Backend {
			return backend.NewFOFA(httpClient, creds, backend.WithLogger(logger))
		},
		backend.ServiceHunter: func() backend.Backend {
			return backend.NewHunter(httpClient, creds, backend.WithLogger(logger))
		},
		backend.ServiceQuake: func() backend.Backend {
			return backend.NewQuake(httpClient, creds, backend.WithLogger(logger))
		},
	}

	backends := make([]backend.Backend, 0, len(cfg.Backends))
	for _, name := range cfg.Backends {
		construct, ok := constructors[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", config.ErrUnknownBackend, name)
		}
		if !creds.Has(name) {
			logger.Warn("backend has no credential, skipping", "backend", name)
			fmt.Printf("Skipping %s: no credential configured\n", name)
			continue
		}
		backends = append(backends, construct())
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("no usable backends: run 'orgscan init' and fill in API keys")
	}
	return backends, nil
}

// runSearch executes the asset-search run.
func runSearch(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	creds := cfg.Credentials.Store()

	t, cleanup, err := newTransport(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()
	defer t.Close()

	backends, err := buildBackends(cfg, t.Client(), creds, logger)
	if err != nil {
		return err
	}

	progress := make(chan model.ProgressEvent, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range progress {
			fmt.Printf("[%d/%d] %s: %s\n", ev.Index, ev.Total, ev.Stage, ev.Message)
		}
	}()

	dispatcher := backend.NewDispatcher(backends,
		backend.WithDispatcherLogger(logger),
		backend.WithDispatcherProgress(progress),
	)

	fmt.Printf("Searching %d backend(s)...\n", len(backends))
	startedAt := time.Now()

	q := query.Parse(cfg.Query)
	results, searchErr := dispatcher.Search(ctx, q, cfg.SearchLimit)
	close(progress)
	wg.Wait()

	searchReport := model.NewSearchReport(cfg.Query, results, startedAt)
	fmt.Printf("\nSearch finished in %s: %d backend(s) succeeded, %d merged entries\n\n",
		time.Since(startedAt).Round(time.Millisecond),
		searchReport.Succeeded(), len(searchReport.Entries))

	// Write and persist even a partial result set. A fresh context so a
	// Ctrl-C mid-run still leaves a saved record.
	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		return outputSearchReport(cfg, searchReport)
	})
	g.Go(func() error {
		return saveSearchReport(gctx, cfg, searchReport, logger)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	// A non-nil search error means the context ended the run early; the
	// partial results above were still written and saved.
	return searchErr
}

// outputSearchReport writes the search report in the requested format.
func outputSearchReport(cfg *config.Config, searchReport *model.SearchReport) error {
	output, closeOutput, err := openReportOutput(cfg)
	if err != nil {
		return err
	}
	defer closeOutput()

	if _, err := newReportWriter(cfg, output).WriteSearch(searchReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// saveSearchReport persists the run to the history database.
func saveSearchReport(ctx context.Context, cfg *config.Config, searchReport *model.SearchReport, logger *slog.Logger) error {
	if !cfg.SaveToDB {
		return nil
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveSearchRun(ctx, searchReport)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	logger.Info("run saved to database", "runID", id, "dir", cfg.DBDir)
	return nil
}
