package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/reconkit/orgscan/internal/config"
	"github.com/reconkit/orgscan/internal/log"
	"github.com/reconkit/orgscan/internal/report"
	"github.com/reconkit/orgscan/internal/transport"
	"github.com/spf13/cobra"
)

// buildBaseConfig creates a Config from the global flags shared by the
// enterprise and search commands.
func buildBaseConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.Verbose, err = cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}
	cfg.UseTor, err = cmd.Flags().GetBool("tor")
	if err != nil {
		return nil, err
	}
	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}
	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// Load per-service credentials.
	// If user explicitly specified a credentials file path, error if not
	// found. If no path specified, silently use an empty file.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Credentials, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load credentials file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("credentials file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.Credentials = &config.File{Services: make(map[string]config.ServiceCredential)}
	}

	// Always save to database using XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	return cfg, nil
}

// setupLogger creates the redacting structured logger. Every credential
// the engine handles is a live browser session or paid API key, so even
// verbose logs go through the sanitizing handler.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// newTransport builds the HTTP transport selected by the configuration:
// direct, SOCKS5 proxy, or embedded Tor. The returned cleanup stops the
// Tor daemon when one was started.
func newTransport(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*transport.Transport, func(), error) {
	switch {
	case cfg.UseTor:
		fmt.Println("Starting embedded Tor daemon...")
		fmt.Printf("This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

		embedded := transport.NewEmbeddedTor(
			transport.WithStartupTimeout(cfg.TorStartupTimeout),
		)
		if err := embedded.Start(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to start embedded Tor: %w", err)
		}
		logger.Info("embedded Tor daemon started", "socksAddr", embedded.SocksAddr())

		t, err := embedded.Transport(cfg.Timeout)
		if err != nil {
			_ = embedded.Stop() //nolint:errcheck // Best effort cleanup
			return nil, nil, fmt.Errorf("failed to create Tor transport: %w", err)
		}
		cleanup := func() {
			logger.Info("stopping embedded Tor daemon...")
			if err := embedded.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}
		return t, cleanup, nil

	case cfg.ProxyAddress != "":
		t, err := transport.NewSOCKS5(cfg.ProxyAddress, cfg.Timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create proxy transport: %w", err)
		}
		logger.Info("using SOCKS5 proxy", "address", cfg.ProxyAddress)
		return t, func() {}, nil

	default:
		return transport.NewDirect(cfg.Timeout), func() {}, nil
	}
}

// openReportOutput returns the report destination: the configured file
// or stdout. The caller must call the returned close function.
func openReportOutput(cfg *config.Config) (*os.File, func(), error) {
	if cfg.ReportFile == "" {
		return os.Stdout, func() {}, nil
	}

	// Create directories if they don't exist
	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// 0600 because reports carry contact details and infrastructure data
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil //nolint:errcheck // Best effort close
}

// newReportWriter selects the writer for the configured format.
func newReportWriter(cfg *config.Config, output *os.File) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output)
	}
}
