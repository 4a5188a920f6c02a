package fsjson

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

type doc struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags,omitempty"`
}

func TestWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "doc.json")

	in := doc{Name: "hello", Count: 3, Tags: []string{"a", "b"}}
	if err := Write(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out doc
	ok, err := Read(path, &out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true for existing file")
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestReadMissingFile(t *testing.T) {
	var out doc
	ok, err := Read(filepath.Join(t.TempDir(), "absent.json"), &out)
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if ok {
		t.Error("expected ok=false for missing file")
	}
}

func TestReadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{not json"), 0o644)

	var out doc
	if _, err := Read(path, &out); err == nil {
		t.Error("expected parse error for malformed file")
	}
}

func TestWriteIsPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := Write(path, doc{Name: "x", Count: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}

	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), "\n  \"name\"") {
		t.Errorf("expected 2-space indented output, got:\n%s", b)
	}
	if !strings.HasSuffix(string(b), "\n") {
		t.Error("expected trailing newline")
	}
}

func TestWriteLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	if err := Write(path, doc{Name: "x"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestChecksumStable(t *testing.T) {
	a, err := Checksum(map[string]int{"b": 2, "a": 1})
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	b, err := Checksum(map[string]int{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	if a != b {
		t.Errorf("checksum not stable across key order: %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("expected 16 hex chars, got %d", len(a))
	}

	c, _ := Checksum(map[string]int{"a": 1, "b": 3})
	if a == c {
		t.Error("different values should produce different checksums")
	}
}
