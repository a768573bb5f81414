// Package main provides the entry point for the orgscan CLI.
//
// orgscan is a reconnaissance data-collection engine for authorized
// security assessments. It resolves company names against enterprise
// registries and queries asset-search backends for exposed services.
//
// Usage:
//
//	orgscan enterprise <company-name>
//	orgscan search 'port="443" country="CN"'
//
// See --help for all available options.
package main

// main is the entry point for orgscan.
func main() {
	Execute()
}
