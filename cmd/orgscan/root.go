// Package main provides the entry point for the orgscan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for orgscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orgscan",
		Short: "Enterprise reconnaissance data-collection engine",
		Long: `orgscan collects the external footprint of target organizations for
authorized security assessments.

The enterprise command resolves company names against enterprise
registries and gathers ICP filings, mobile apps, official accounts,
contacts, and domain registrations. The search command fans a unified
query out to the FOFA, Hunter, and Quake asset-search backends and
merges the deduplicated results.

Run 'orgscan init' first to create the credentials file, then fill in
your browser session cookies and backend API keys.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Credentials file path (default: .orgscan in current or home directory)")
	cmd.PersistentFlags().String("proxy", "",
		"Route traffic through a SOCKS5 proxy at the given address (e.g., 127.0.0.1:1080)")
	cmd.PersistentFlags().Bool("tor", false,
		"Route traffic through an embedded Tor daemon")
	cmd.PersistentFlags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.PersistentFlags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.PersistentFlags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Add subcommands
	cmd.AddCommand(NewEnterpriseCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
