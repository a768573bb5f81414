package extract

import (
	"errors"
	"strings"
)

// ErrObjectNotFound is returned when no balanced object follows the
// anchor: the anchor is absent, a statement terminator appears before
// any object opens, or the input ends with the object unclosed.
var ErrObjectNotFound = errors.New("embedded object not found")

// Object returns the first balanced brace-delimited object that follows
// the first occurrence of anchor in text. The returned string is the
// exact substring from the opening '{' to its matching '}' inclusive.
//
// Scanning tracks brace depth, whether the cursor is inside a quoted
// string, and escape state within that string, so nested braces and
// escaped quotes in string values never desynchronize the match.
func Object(text, anchor string) (string, error) {
	at := strings.Index(text, anchor)
	if at < 0 {
		return "", ErrObjectNotFound
	}
	return scanFrom(text[at+len(anchor):])
}

// scanFrom scans text for a balanced object starting at its first '{'.
// A ';' encountered at depth zero before any '{' means the assignment
// carried no object, so the scan fails rather than running to the end
// of the document.
func scanFrom(text string) (string, error) {
	var (
		start    = -1
		depth    int
		inString bool
		escaped  bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]

		if escaped {
			escaped = false
			continue
		}

		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if inString {
				continue
			}
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if inString || start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		case ';':
			if !inString && start < 0 {
				return "", ErrObjectNotFound
			}
		}
	}

	// Input ended with the object unclosed (or no object at all).
	return "", ErrObjectNotFound
}
