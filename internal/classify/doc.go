// Package classify decides whether an HTTP response represents usable
// data, a countermeasure page served by the target, or a hard protocol
// error. The decision drives retry policy: blocked responses escalate
// throttling and retry, hard errors do not.
package classify
