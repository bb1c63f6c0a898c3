// Package output writes run results to disk as indented JSON.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CompletionFile is the name of the raw completion response file.
const CompletionFile = "output.json"

// CompletionPath returns the completion output path inside dir.
func CompletionPath(dir string) string {
	return filepath.Join(dir, CompletionFile)
}

// ValidationPath returns the validation output path inside dir. The holdout
// size is part of the name so runs with different sizes do not collide.
func ValidationPath(dir string, holdout int) string {
	return filepath.Join(dir, fmt.Sprintf("validation_result_%dbp.json", holdout))
}

// WriteJSON marshals v with two-space indentation and writes it to path,
// creating the parent directory. The file is replaced atomically so a failed
// write never leaves a truncated result behind.
func WriteJSON(path string, v any) error {
	var data []byte
	var err error
	if raw, ok := v.(json.RawMessage); ok {
		data, err = indentRaw(raw)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

// IndentRaw re-indents a raw JSON document for display.
func IndentRaw(raw json.RawMessage) string {
	data, err := indentRaw(raw)
	if err != nil {
		return string(raw)
	}
	return string(data)
}

// indentRaw keeps the service's key order, unlike a decode and re-encode.
func indentRaw(raw json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
