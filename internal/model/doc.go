// Package model defines the data types shared across the orgscan engine:
// targets, per-target collection reports, normalized backend entries,
// stage outcomes, and the aggregate batch report.
//
// The types in this package are intentionally free of behavior beyond
// construction and simple derivation. Collection logic lives in the
// pipeline, registry, and backend packages; model is the common vocabulary
// they exchange.
package model
