package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPaths(t *testing.T) {
	if got, want := CompletionPath("out"), filepath.Join("out", "output.json"); got != want {
		t.Errorf("CompletionPath = %q; want %q", got, want)
	}
	if got, want := ValidationPath("out", 250), filepath.Join("out", "validation_result_250bp.json"); got != want {
		t.Errorf("ValidationPath = %q; want %q", got, want)
	}
	if ValidationPath("out", 10) == ValidationPath("out", 20) {
		t.Error("different holdout sizes must not share a file")
	}
}

func TestWriteJSON_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "result.json")

	if err := WriteJSON(path, map[string]int{"a": 1}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "{\n  \"a\": 1\n}\n" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestWriteJSON_RawKeepsOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.json")
	raw := json.RawMessage(`{"sequence":"ACGT","elapsed_ms":3,"alpha":true}`)

	if err := WriteJSON(path, raw); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	data, _ := os.ReadFile(path)
	s := string(data)
	if strings.Index(s, "sequence") > strings.Index(s, "alpha") {
		t.Fatalf("key order not preserved: %s", s)
	}
	if !strings.Contains(s, "\n  \"elapsed_ms\": 3,") {
		t.Fatalf("raw JSON not indented: %s", s)
	}
}

func TestWriteJSON_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteJSON(path, []int{1, 2, 3}); err != nil {
		t.Fatalf("first WriteJSON: %v", err)
	}
	if err := WriteJSON(path, []int{4}); err != nil {
		t.Fatalf("second WriteJSON: %v", err)
	}

	data, _ := os.ReadFile(path)
	var got []int
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got) != 1 || got[0] != 4 {
		t.Fatalf("got %v; want [4]", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestWriteJSON_InvalidRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := WriteJSON(path, json.RawMessage(`{nope`)); err == nil {
		t.Fatal("expected error for invalid raw JSON")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("no file should be written, stat err = %v", err)
	}
}

func TestIndentRaw(t *testing.T) {
	if got := IndentRaw(json.RawMessage(`{"a":1}`)); got != "{\n  \"a\": 1\n}" {
		t.Errorf("IndentRaw = %q", got)
	}
	if got := IndentRaw(json.RawMessage(`not json`)); got != "not json" {
		t.Errorf("IndentRaw passthrough = %q", got)
	}
}
