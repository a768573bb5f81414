// Package backend queries internet-asset search services and normalizes
// their results. Each backend speaks its own wire protocol and result
// schema; the package maps every native row onto the shared Entry form
// so callers never branch on which service produced a record. The
// Dispatcher fans one unified query out to the configured backends in a
// fixed order, isolating per-backend failures.
package backend
