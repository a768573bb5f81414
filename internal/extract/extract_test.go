package extract

import (
	"errors"
	"testing"
)

// TestObject tests balanced object recovery from host documents.
func TestObject(t *testing.T) {
	t.Parallel()

	t.Run("returns the exact object after the anchor", func(t *testing.T) {
		t.Parallel()

		doc := `<script>window.pageData = {"a":1,"b":[2,3]};</script>`
		got, err := Object(doc, "window.pageData")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != `{"a":1,"b":[2,3]}` {
			t.Errorf("unexpected object: %q", got)
		}
	})

	t.Run("nested braces do not end the object early", func(t *testing.T) {
		t.Parallel()

		doc := `prefix data = {"result":{"list":[{"x":{"y":1}}]}}; suffix`
		got, err := Object(doc, "data =")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != `{"result":{"list":[{"x":{"y":1}}]}}` {
			t.Errorf("unexpected object: %q", got)
		}
	})

	t.Run("braces inside strings are ignored", func(t *testing.T) {
		t.Parallel()

		doc := `data = {"tpl":"{{name}} }{","n":1};`
		got, err := Object(doc, "data =")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != `{"tpl":"{{name}} }{","n":1}` {
			t.Errorf("unexpected object: %q", got)
		}
	})

	t.Run("escaped quotes inside strings keep string state", func(t *testing.T) {
		t.Parallel()

		doc := `data = {"msg":"he said \"hi {\" ok","n":2};`
		got, err := Object(doc, "data =")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != `{"msg":"he said \"hi {\" ok","n":2}` {
			t.Errorf("unexpected object: %q", got)
		}
	})

	t.Run("escaped backslash before closing quote", func(t *testing.T) {
		t.Parallel()

		doc := `data = {"path":"C:\\"};`
		got, err := Object(doc, "data =")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != `{"path":"C:\\"}` {
			t.Errorf("unexpected object: %q", got)
		}
	})

	t.Run("unrelated braces elsewhere do not matter", func(t *testing.T) {
		t.Parallel()

		doc := `function f() { return 1; } data = {"k":"v"}; function g() { }`
		got, err := Object(doc, "data =")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != `{"k":"v"}` {
			t.Errorf("unexpected object: %q", got)
		}
	})

	t.Run("missing anchor yields ErrObjectNotFound", func(t *testing.T) {
		t.Parallel()

		if _, err := Object("<html></html>", "window.pageData"); !errors.Is(err, ErrObjectNotFound) {
			t.Errorf("expected ErrObjectNotFound, got %v", err)
		}
	})

	t.Run("terminator before any object yields ErrObjectNotFound", func(t *testing.T) {
		t.Parallel()

		if _, err := Object(`data = null; {"k":1}`, "data ="); !errors.Is(err, ErrObjectNotFound) {
			t.Errorf("expected ErrObjectNotFound, got %v", err)
		}
	})

	t.Run("truncated object yields ErrObjectNotFound", func(t *testing.T) {
		t.Parallel()

		if _, err := Object(`data = {"k":{"nested":1}`, "data ="); !errors.Is(err, ErrObjectNotFound) {
			t.Errorf("expected ErrObjectNotFound, got %v", err)
		}
	})

	t.Run("empty input yields ErrObjectNotFound", func(t *testing.T) {
		t.Parallel()

		if _, err := Object("", "anchor"); !errors.Is(err, ErrObjectNotFound) {
			t.Errorf("expected ErrObjectNotFound, got %v", err)
		}
	})
}
