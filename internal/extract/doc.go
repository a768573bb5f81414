// Package extract recovers balanced structured-data objects embedded in
// non-structured host documents, such as a JSON assignment inside an
// inline script of an HTML page.
//
// The host document cannot be parsed as a whole, and pattern matching
// fails on nested braces and escaped quotes inside strings, so the
// extractor is a small explicit state machine over brace depth, string
// state, and escape state.
package extract
