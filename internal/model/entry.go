package model

import (
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Entry is one normalized asset record returned by a search backend.
// Every backend maps its native result schema onto these keys, so callers
// never need to know which backend produced a record.
type Entry struct {
	// Host is the hostname or URL the asset was observed on.
	Host string `json:"host,omitempty"`

	// IP is the asset's IP address.
	IP string `json:"ip,omitempty"`

	// Port is the service port.
	Port int `json:"port,omitempty"`

	// Title is the page or service title.
	Title string `json:"title,omitempty"`

	// Country and City locate the asset geographically.
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`

	// Server is the server banner or product fingerprint.
	Server string `json:"server,omitempty"`

	// Backend names the service that produced this entry.
	Backend string `json:"backend"`
}

// Fingerprint returns a stable deduplication key for the entry. Two
// entries describing the same endpoint collapse to the same fingerprint
// even when different backends reported them, so merged result sets can
// be deduplicated without backend-specific key logic.
func (e Entry) Fingerprint() string {
	h := sha3.New256()
	// Host is excluded: backends disagree on URL vs bare hostname for
	// the same endpoint, while ip:port identifies it unambiguously.
	h.Write([]byte(e.IP))
	h.Write([]byte{':'})
	h.Write([]byte(strconv.Itoa(e.Port)))
	h.Write([]byte{':'})
	h.Write([]byte(strings.ToLower(e.Server)))
	return hex.EncodeToString(h.Sum(nil))
}

// BackendResult is the outcome of querying one backend. All entries in a
// single result share that backend's fixed key schema.
type BackendResult struct {
	// Backend names the queried service.
	Backend string `json:"backend"`

	// Query is the backend-specific query string that was executed.
	Query string `json:"query"`

	// Success reports whether the query completed.
	Success bool `json:"success"`

	// Entries holds the normalized result records.
	Entries []Entry `json:"entries,omitempty"`

	// Total is the backend-reported total match count, which may exceed
	// len(Entries) when results were truncated by the request limit.
	Total int `json:"total"`

	// Error carries a readable failure description when Success is false.
	Error string `json:"error,omitempty"`
}

// FailedBackendResult creates a BackendResult describing a failed query.
func FailedBackendResult(backend, query, errMsg string) *BackendResult {
	return &BackendResult{
		Backend: backend,
		Query:   query,
		Success: false,
		Error:   errMsg,
	}
}

// MergeEntries flattens the entries of several backend results into one
// deduplicated list. Order follows the input results; within a result,
// entry order is preserved. Failed results contribute nothing.
func MergeEntries(results []*BackendResult) []Entry {
	seen := make(map[string]bool)
	var merged []Entry
	for _, r := range results {
		if r == nil || !r.Success {
			continue
		}
		for _, e := range r.Entries {
			fp := e.Fingerprint()
			if seen[fp] {
				continue
			}
			seen[fp] = true
			merged = append(merged, e)
		}
	}
	return merged
}
