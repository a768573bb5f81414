// Package registry implements the enterprise-registry client: company
// discovery through the public search page, detail and filing lookups
// through the registry's AJAX endpoints, and contact retrieval through
// the registry's CRM sibling service.
//
// Every call goes through the same discipline: per-host throttling,
// browser identity rotation, response classification, and bounded retry
// with exponential backoff when the target blocks. Failures carry a
// FailureKind so the pipeline can decide between retry, skip, and abort.
package registry
