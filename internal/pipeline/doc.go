// Package pipeline runs the per-company collection stages in declared
// order and aggregates their results into an OrgReport. Stages declare
// the identifiers they need; when an earlier stage failed to produce
// one, dependents are skipped rather than run into guaranteed failure.
//
// The batch orchestrator processes targets strictly one at a time. The
// scraped registry rate-limits per session, so parallel targets would
// only trade throughput for blocking.
package pipeline
