package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default credentials file name.
const DefaultConfigFile = ".orgscan"

// ErrConfigNotFound is returned when the credentials file does not exist.
var ErrConfigNotFound = errors.New("credentials file not found")

// LoadConfigFile loads per-service credentials from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	// Initialize Services map if nil
	if cf.Services == nil {
		cf.Services = make(map[string]ServiceCredential)
	}

	return &cf, nil
}

// SaveConfigFile writes the credentials file to the given path.
// The file is created with 0600 permissions because it holds live
// session cookies and API keys.
func SaveConfigFile(path string, cf *File) error {
	data, err := yaml.Marshal(cf)
	if err != nil {
		return fmt.Errorf("failed to encode credentials file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

// FindConfigFile searches for the credentials file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .orgscan in the current directory
// 3. Look for .orgscan in the user's home directory
//
// Returns the path to the credentials file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
