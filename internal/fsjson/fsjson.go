// Package fsjson provides atomic JSON file IO for the memory store.
//
// Every persisted document is UTF-8 JSON, pretty-printed with two-space
// indentation so the store stays inspectable with a pager. Writes go
// through a temp file plus rename so a crashed writer never leaves a
// half-written document behind.
package fsjson

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Read unmarshals the JSON document at path into v. A missing file is not
// an error: it returns (false, nil) and leaves v untouched, so callers can
// fall back to an empty value.
func Read(path string, v any) (bool, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("fsjson: read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("fsjson: parse %s: %w", path, err)
	}
	return true, nil
}

// Write marshals v and atomically replaces the document at path, creating
// parent directories as needed.
func Write(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("fsjson: marshal %s: %w", path, err)
	}
	b = append(b, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("fsjson: create dir for %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("fsjson: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("fsjson: rename %s: %w", path, err)
	}
	return nil
}

// Checksum returns a short hex digest over a canonical serialization of v.
// Canonical here means the value is round-tripped through an untyped map so
// object keys marshal in sorted order regardless of struct field order.
// The digest is an integrity hint, not a verified seal.
func Checksum(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fsjson: checksum marshal: %w", err)
	}
	var canonical any
	if err := json.Unmarshal(b, &canonical); err != nil {
		return "", fmt.Errorf("fsjson: checksum canonicalize: %w", err)
	}
	cb, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("fsjson: checksum remarshal: %w", err)
	}
	sum := sha256.Sum256(cb)
	return hex.EncodeToString(sum[:])[:16], nil
}
