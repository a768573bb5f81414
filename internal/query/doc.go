// Package query models one unified asset-search query and renders it
// into the syntax of each search backend. The unified form carries
// typed semantic fields; each backend dialect maps those fields onto
// its own vocabulary and logical-AND token. Translation is
// deterministic: identical input always yields identical strings.
package query
