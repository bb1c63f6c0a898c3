package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jxucoder/evoprobe/internal/config"
	"github.com/jxucoder/evoprobe/internal/mockapi"
	"github.com/jxucoder/evoprobe/internal/run"
	"github.com/jxucoder/evoprobe/pkg/generate"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// testEnv points every evoprobe setting at temporary directories and the
// given endpoint.
func testEnv(t *testing.T, endpoint string) (outDir string) {
	t.Helper()
	dir := t.TempDir()
	outDir = filepath.Join(dir, "out")
	t.Setenv(config.EnvAPIKey, "test-key")
	t.Setenv(config.EnvEndpoint, endpoint)
	t.Setenv(config.EnvOutputDir, outDir)
	t.Setenv(config.EnvDataDir, filepath.Join(dir, "data"))
	t.Setenv(config.EnvTopK, "")
	t.Setenv(config.EnvTimeout, "")
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvMetricsFile, "")
	return outDir
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

// executeWithInput is execute with stdin set to input.
func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()

	// Flag values survive between Execute calls.
	endpointFlag, outDirFlag, metricsFileFlag = "", "", ""
	verbose, noHistory = false, false
	completeNumTokens = run.DefaultNumTokens
	validateHoldout = run.DefaultHoldout
	runsLimit = 20

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFasta(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gene.fasta")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fasta: %v", err)
	}
	return path
}

func newMockServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(mockapi.NewRouter(mockapi.Options{Token: "test-key"}))
	t.Cleanup(srv.Close)
	return srv
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func TestValidateCommand(t *testing.T) {
	srv := newMockServer(t)
	outDir := testEnv(t, srv.URL+mockapi.GeneratePath)
	path := writeFasta(t, ">seq1 test\nACGTACGTACGTACGT\n")

	out, err := execute(t, "validate", "--fasta", path, "--holdout", "4")
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	for _, want := range []string{
		"Prompt length: 12",
		"Holdout length: 4",
		"Sequence identity: 100.00%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "validation_result_4bp.json")); err != nil {
		t.Errorf("result file: %v", err)
	}

	out, err = execute(t, "runs", "list")
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	if !strings.Contains(out, "validate") || !strings.Contains(out, "100.00%") {
		t.Errorf("runs list missing the validation run:\n%s", out)
	}
}

func TestCompleteCommand(t *testing.T) {
	srv := newMockServer(t)
	outDir := testEnv(t, srv.URL+mockapi.GeneratePath)
	path := writeFasta(t, ">seq1\nACGTACGT\n")

	out, err := execute(t, "complete", "--fasta", path, "--num-tokens", "8", "--no-history")
	if err != nil {
		t.Fatalf("complete: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ACGTACGTACGTACGT...") {
		t.Errorf("full sequence not printed:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "output.json")); err != nil {
		t.Errorf("output file: %v", err)
	}
}

func TestCompleteCommand_Unauthorized(t *testing.T) {
	srv := newMockServer(t)
	outDir := testEnv(t, srv.URL+mockapi.GeneratePath)
	t.Setenv(config.EnvAPIKey, "wrong")
	path := writeFasta(t, ">seq1\nACGT\n")

	_, err := execute(t, "complete", "--fasta", path, "--no-history")
	if generate.KindOf(err) != generate.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "output.json")); !os.IsNotExist(err) {
		t.Errorf("output file should not exist, stat err = %v", err)
	}
}

func TestCompleteCommand_StdinWithoutKey(t *testing.T) {
	outDir := testEnv(t, "http://127.0.0.1:0")
	t.Setenv(config.EnvAPIKey, "")

	out, err := executeWithInput(t, ">seq1\nACGT\n", "complete", "--fasta", "-", "--no-history")
	if !errors.Is(err, errStdinKey) {
		t.Fatalf("expected errStdinKey, got %v", err)
	}
	if strings.Contains(out, "Paste your API key") {
		t.Errorf("key prompt shown while stdin carries FASTA:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "output.json")); !os.IsNotExist(err) {
		t.Errorf("output file should not exist, stat err = %v", err)
	}
}

func TestCompleteCommand_NonPositiveNumTokens(t *testing.T) {
	srv := newMockServer(t)
	outDir := testEnv(t, srv.URL+mockapi.GeneratePath)
	path := writeFasta(t, ">seq1\nACGT\n")

	for _, n := range []string{"0", "-3"} {
		t.Run(n, func(t *testing.T) {
			_, err := execute(t, "complete", "--fasta", path, "--num-tokens="+n, "--no-history")
			if err == nil || !strings.Contains(err.Error(), "--num-tokens must be positive") {
				t.Fatalf("expected --num-tokens error, got %v", err)
			}
			if _, err := os.Stat(filepath.Join(outDir, "output.json")); !os.IsNotExist(err) {
				t.Errorf("output file should not exist, stat err = %v", err)
			}
		})
	}
}

func TestRunsShow_NotFound(t *testing.T) {
	testEnv(t, "http://127.0.0.1:0")
	if _, err := execute(t, "runs", "show", "missing"); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

// ---------------------------------------------------------------------------
// Error reporting
// ---------------------------------------------------------------------------

func TestReportError_HTTPStatus(t *testing.T) {
	var buf bytes.Buffer
	err := &generate.Error{Kind: generate.KindUnauthorized, Status: 401, Body: `{"detail":"denied"}`}
	reportError(&buf, err)

	out := buf.String()
	if !strings.Contains(out, "--- ERROR ---") {
		t.Errorf("missing banner:\n%s", out)
	}
	if !strings.Contains(out, "HTTP request failed: 401 Unauthorized") {
		t.Errorf("missing status line:\n%s", out)
	}
	if !strings.Contains(out, `Response body: {"detail":"denied"}`) {
		t.Errorf("missing body line:\n%s", out)
	}
}

func TestReportError_Kinds(t *testing.T) {
	tests := []struct {
		kind generate.Kind
		want string
	}{
		{generate.KindNotFound, "Could not read a sequence"},
		{generate.KindTransport, "Could not reach the generation service"},
		{generate.KindMalformedResponse, "Unexpected response"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			var buf bytes.Buffer
			reportError(&buf, &generate.Error{Kind: tt.kind, Err: errors.New("boom")})
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("got %q, want it to contain %q", buf.String(), tt.want)
			}
		})
	}

	var buf bytes.Buffer
	reportError(&buf, errors.New("plain"))
	if !strings.Contains(buf.String(), "Error: plain") {
		t.Errorf("got %q", buf.String())
	}
}

// ---------------------------------------------------------------------------
// Prompts and config
// ---------------------------------------------------------------------------

func TestPromptAPIKey(t *testing.T) {
	var out bytes.Buffer
	key, err := promptAPIKey(strings.NewReader("  nvapi-abc  \n"), &out)
	if err != nil {
		t.Fatalf("promptAPIKey: %v", err)
	}
	if key != "nvapi-abc" {
		t.Errorf("key = %q", key)
	}
	if !strings.Contains(out.String(), "Paste your API key") {
		t.Errorf("prompt not shown: %q", out.String())
	}

	if _, err := promptAPIKey(strings.NewReader("\n"), &out); err == nil {
		t.Error("expected error for empty key")
	}
	if _, err := promptAPIKey(strings.NewReader(""), &out); err == nil {
		t.Error("expected error at EOF")
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"short", "*****"},
		{"nvapi-1234567890", "nvap********7890"},
	}
	for _, tt := range tests {
		if got := maskSecret(tt.in); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfigSetAndShow(t *testing.T) {
	testEnv(t, "")
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvTopK, "8")

	var out bytes.Buffer
	if err := runConfigSet(&out, config.EnvAPIKey, "nvapi-1234567890"); err != nil {
		t.Fatalf("runConfigSet: %v", err)
	}
	if strings.Contains(out.String(), "1234567890") {
		t.Errorf("secret printed in clear: %q", out.String())
	}

	values, err := config.ReadFile(configFilePath())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if values[config.EnvAPIKey] != "nvapi-1234567890" {
		t.Errorf("stored key = %q", values[config.EnvAPIKey])
	}

	out.Reset()
	if err := runConfigShow(&out); err != nil {
		t.Fatalf("runConfigShow: %v", err)
	}
	show := out.String()
	if !strings.Contains(show, "nvap********7890 (from config file)") {
		t.Errorf("key line wrong:\n%s", show)
	}
	if !strings.Contains(show, "8 (from env)") {
		t.Errorf("top-k line wrong:\n%s", show)
	}

	if err := runConfigSet(&out, "NOT_A_KEY", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestConfigSetup(t *testing.T) {
	testEnv(t, "")
	t.Setenv(config.EnvAPIKey, "")

	var out bytes.Buffer
	in := strings.NewReader("bogus\nnvapi-abcdef\n")
	if err := runConfigSetup(in, &out); err != nil {
		t.Fatalf("runConfigSetup: %v", err)
	}
	if !strings.Contains(out.String(), `Expected a key starting with "nvapi-"`) {
		t.Errorf("bad prefix not rejected:\n%s", out.String())
	}
	values, err := config.ReadFile(configFilePath())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if values[config.EnvAPIKey] != "nvapi-abcdef" {
		t.Errorf("stored key = %q", values[config.EnvAPIKey])
	}
}
