package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecorder_Gather(t *testing.T) {
	r := New()
	r.ObserveGeneration("validate", "ok", 2*time.Second, 100)
	r.ObserveGeneration("validate", "remote_error", time.Second, 0)
	r.SetIdentity(62.5)

	families, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	byName := make(map[string]int)
	for _, f := range families {
		byName[f.GetName()] = len(f.GetMetric())
	}
	if byName["evoprobe_generation_requests_total"] != 2 {
		t.Errorf("expected 2 request series, got %d", byName["evoprobe_generation_requests_total"])
	}
	if byName["evoprobe_validation_identity_percent"] != 1 {
		t.Errorf("identity gauge missing: %v", byName)
	}
	if byName["evoprobe_generated_symbols_total"] != 1 {
		t.Errorf("expected 1 symbols series, got %d", byName["evoprobe_generated_symbols_total"])
	}

	for _, f := range families {
		if f.GetName() == "evoprobe_validation_identity_percent" {
			if got := f.GetMetric()[0].GetGauge().GetValue(); got != 62.5 {
				t.Errorf("identity = %v; want 62.5", got)
			}
		}
	}
}

func TestRecorder_WriteFile(t *testing.T) {
	r := New()
	r.ObserveGeneration("complete", "ok", time.Second, 100)

	path := filepath.Join(t.TempDir(), "evoprobe.prom")
	if err := r.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `evoprobe_generation_requests_total{kind="complete",outcome="ok"} 1`) {
		t.Fatalf("unexpected textfile content:\n%s", data)
	}
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	r.ObserveGeneration("complete", "ok", time.Second, 1)
	r.SetIdentity(1)
	if err := r.WriteFile("/nonexistent/x.prom"); err != nil {
		t.Fatalf("nil recorder WriteFile: %v", err)
	}
}
