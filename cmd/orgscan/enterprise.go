package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/reconkit/orgscan/internal/config"
	"github.com/reconkit/orgscan/internal/database"
	"github.com/reconkit/orgscan/internal/model"
	"github.com/reconkit/orgscan/internal/pipeline"
	"github.com/reconkit/orgscan/internal/registry"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewEnterpriseCmd creates the enterprise command.
func NewEnterpriseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enterprise [company-name]...",
		Short: "Collect the registry footprint of target organizations",
		Long: `Enterprise resolves company names against the enterprise registry and
collects, per target:
- Company profile (legal representative, status, industry)
- ICP web filings with licensed domains
- Mobile apps and official accounts
- Contact phone numbers and employee emails
- WHOIS registration data for filed domains

Targets are processed strictly one at a time with randomized courtesy
delays; a failed target never stops the rest of the batch.

Requires a registry session cookie in the credentials file
(run 'orgscan init' first).

Examples:
  # Collect a single company
  orgscan enterprise "Example Corp"

  # Collect several companies
  orgscan enterprise "Example Corp" "Another Inc"

  # Read targets from a file, one name per line
  orgscan enterprise --list targets.txt

  # Route traffic through a SOCKS5 proxy, write a Markdown report
  orgscan enterprise --proxy 127.0.0.1:1080 --markdown -o report.md "Example Corp"`,
		Args: cobra.ArbitraryArgs,
		RunE: runEnterpriseCmd,
	}

	cmd.Flags().StringP("list", "l", "",
		"Read target company names from a file, one per line")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")
	cmd.Flags().Duration("delay-min", config.DefaultTargetDelayMin,
		"Minimum courtesy delay between targets")
	cmd.Flags().Duration("delay-max", config.DefaultTargetDelayMax,
		"Maximum courtesy delay between targets")

	return cmd
}

// runEnterpriseCmd executes the enterprise command.
func runEnterpriseCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildEnterpriseConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.ValidateEnterprise(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runEnterprise(ctx, cfg, logger)
}

// buildEnterpriseConfig creates a Config from the enterprise command flags.
func buildEnterpriseConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := buildBaseConfig(cmd)
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
	cfg.TargetDelayMin, err = cmd.Flags().GetDuration("delay-min")
	if err != nil {
		return nil, err
	}
	cfg.TargetDelayMax, err = cmd.Flags().GetDuration("delay-max")
	if err != nil {
		return nil, err
	}

	listFile, err := cmd.Flags().GetString("list")
	if err != nil {
		return nil, err
	}

	cfg.Targets = append(cfg.Targets, args...)
	if listFile != "" {
		fromFile, err := readTargetList(listFile)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, fromFile...)
	}

	return cfg, nil
}

// readTargetList reads company names from a file, one per line.
// Blank lines and lines starting with # are skipped.
func readTargetList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open target list: %w", err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target list: %w", err)
	}
	return names, nil
}

// runEnterprise executes the batch collection run.
func runEnterprise(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	creds := cfg.Credentials.Store()
	if !creds.Has(config.ServiceRegistry) {
		return fmt.Errorf("no registry cookie configured: run 'orgscan init' and fill in the registry block")
	}

	targets := model.ParseTargets(cfg.Targets)
	logger.Info("starting collection",
		"targets", len(targets),
		"saveToDB", cfg.SaveToDB,
	)

	t, cleanup, err := newTransport(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()
	defer t.Close()

	client := registry.NewClient(t.Client(), creds,
		registry.WithLogger(logger),
	)

	runner := pipeline.New(pipeline.WithLogger(logger))
	runner.AddStages(pipeline.Stages(client)...)

	// The batch owns the sends; we own the channel and drain it until
	// the run returns.
	progress := make(chan model.ProgressEvent, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range progress {
			fmt.Printf("[%d/%d] %s\n", ev.Index, ev.Total, ev.Message)
		}
	}()

	batch := pipeline.NewBatch(runner,
		pipeline.WithBatchLogger(logger),
		pipeline.WithProgress(progress),
		pipeline.WithTargetDelay(cfg.TargetDelayMin, cfg.TargetDelayMax),
	)

	startTime := time.Now()
	batchReport := batch.Run(ctx, targets)
	close(progress)
	wg.Wait()

	elapsed := time.Since(startTime)
	fmt.Printf("\nCollection finished in %s: %d done, %d partial, %d failed\n\n",
		elapsed.Round(time.Millisecond),
		batchReport.Done, batchReport.Partial, batchReport.Failed)

	// Report writing and persistence are independent; run both even if
	// the collection itself was cancelled. A fresh context so a Ctrl-C
	// mid-run still leaves a saved record.
	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		return outputBatchReport(cfg, batchReport)
	})
	g.Go(func() error {
		return saveBatchReport(gctx, cfg, batchReport, logger)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if batchReport.Cancelled {
		return context.Canceled
	}
	return nil
}

// outputBatchReport writes the batch report in the requested format.
func outputBatchReport(cfg *config.Config, batchReport *model.BatchReport) error {
	output, closeOutput, err := openReportOutput(cfg)
	if err != nil {
		return err
	}
	defer closeOutput()

	if _, err := newReportWriter(cfg, output).WriteBatch(batchReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// saveBatchReport persists the run to the history database.
func saveBatchReport(ctx context.Context, cfg *config.Config, batchReport *model.BatchReport, logger *slog.Logger) error {
	if !cfg.SaveToDB {
		return nil
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveBatchRun(ctx, batchReport)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	logger.Info("run saved to database", "runID", id, "dir", cfg.DBDir)
	return nil
}
