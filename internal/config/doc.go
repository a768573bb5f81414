// Package config provides configuration structures and utilities for orgscan.
// It defines the run options populated from CLI flags, the YAML
// credentials file holding per-service cookies and API keys, and the
// validation rules applied before any network traffic.
package config
