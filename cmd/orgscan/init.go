package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/reconkit/orgscan/internal/config"
	"github.com/spf13/cobra"
)

// credentialsTemplate is the skeleton written by `orgscan init`.
// Commented examples document every service block so users can fill in
// credentials without consulting the manual.
const credentialsTemplate = `# orgscan credentials file
#
# Cookie-based services take the raw Cookie header copied from a
# logged-in browser session (DevTools -> Network -> Request Headers).
# API-based services take the key from the provider's account page.
#
# Cookies expire server-side; when a run reports blocked requests,
# refresh the cookie and update last_updated.

services:
  # Enterprise registry (aiqicha). Requires a logged-in session cookie.
  registry:
    cookie: ""
    # last_updated: 2026-01-01T09:00:00Z

  # CRM portal (xunkebao). Shares the registry login; paste the same
  # or a portal-specific cookie.
  crm:
    cookie: ""

  # FOFA asset search. Requires both the account email and the API key.
  fofa:
    email: ""
    api_key: ""

  # Hunter (qianxin) asset search.
  hunter:
    api_key: ""

  # Quake (360) asset search.
  quake:
    api_key: ""
`

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new orgscan credentials file",
		Long: `Initialize creates a new .orgscan credentials file in the current directory.

The generated file lists every service orgscan can authenticate to,
with commented documentation:
- registry/crm: browser session cookies for the enterprise registry
- fofa/hunter/quake: API keys for the asset-search backends

Examples:
  # Create .orgscan in current directory
  orgscan init

  # Create credentials file at a specific path
  orgscan init -o mycreds.yaml

  # Force overwrite existing file
  orgscan init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("file", "f", config.DefaultConfigFile,
		"Output file path for the credentials file")
	cmd.Flags().Bool("force", false,
		"Overwrite existing credentials file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("file")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("credentials file already exists: %s (use --force to overwrite)", outputPath)
		}
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// 0600 because the file will hold live cookies and API keys
	if err := os.WriteFile(outputPath, []byte(credentialsTemplate), 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created credentials file: %s\n", outputPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nEdit this file and fill in:")
	fmt.Fprintln(cmd.OutOrStdout(), "  - registry/crm cookies from a logged-in browser session")
	fmt.Fprintln(cmd.OutOrStdout(), "  - fofa/hunter/quake API keys from your provider accounts")

	return nil
}
