package model

import "strings"

// Target is one unit of reconnaissance work submitted to the engine.
// For the enterprise pipeline the name is an organization name; for the
// asset-search dispatcher it is a unified query string. Targets are
// immutable once submitted.
type Target struct {
	// Name is the organization name or query string to process.
	Name string `json:"name"`
}

// NewTarget creates a Target from the given name with surrounding
// whitespace removed.
func NewTarget(name string) Target {
	return Target{Name: strings.TrimSpace(name)}
}

// IsZero reports whether the target carries no work.
func (t Target) IsZero() bool {
	return t.Name == ""
}

// ParseTargets converts a list of raw names into Targets, dropping
// blank lines. Order is preserved because batch processing reports
// results in submission order.
func ParseTargets(names []string) []Target {
	targets := make([]Target, 0, len(names))
	for _, name := range names {
		t := NewTarget(name)
		if t.IsZero() {
			continue
		}
		targets = append(targets, t)
	}
	return targets
}
