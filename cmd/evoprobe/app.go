package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/jxucoder/evoprobe/internal/config"
	"github.com/jxucoder/evoprobe/internal/history"
	"github.com/jxucoder/evoprobe/internal/logging"
	"github.com/jxucoder/evoprobe/internal/metrics"
	"github.com/jxucoder/evoprobe/internal/run"
	"github.com/jxucoder/evoprobe/pkg/generate/nvcf"
)

// errStdinKey is returned when the FASTA input and the key prompt would both
// need stdin.
var errStdinKey = fmt.Errorf("%s must be set (env or `evoprobe config set`) when reading FASTA from stdin", config.EnvAPIKey)

// app bundles what a generation command needs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *history.Store // nil with --no-history or when the DB can't open
	metrics *metrics.Recorder
	runner  *run.Runner
}

// newApp loads configuration, applies flag overrides, resolves the API key
// (prompting on in if needed) and wires the runner. fastaPath is the input the
// command will read; "-" means stdin is taken and the key cannot be prompted for.
func newApp(in io.Reader, out io.Writer, fastaPath string, opts ...run.Option) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if endpointFlag != "" {
		cfg.Endpoint = endpointFlag
	}
	if outDirFlag != "" {
		cfg.OutputDir = outDirFlag
	}
	if metricsFileFlag != "" {
		cfg.MetricsFile = metricsFileFlag
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	logger, err := logging.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}

	if cfg.APIKey == "" {
		if fastaPath == "-" {
			return nil, errStdinKey
		}
		key, err := promptAPIKey(in, out)
		if err != nil {
			return nil, err
		}
		cfg.APIKey = key
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, metrics: metrics.New()}
	if !noHistory {
		store, err := history.NewStore(cfg.DatabasePath)
		if err != nil {
			logger.Warn("run history disabled", zap.String("path", cfg.DatabasePath), zap.Error(err))
		} else {
			a.store = store
		}
	}

	client := nvcf.New(cfg.APIKey, nvcf.WithEndpoint(cfg.Endpoint), nvcf.WithTimeout(cfg.Timeout))
	base := []run.Option{
		run.WithTopK(cfg.TopK),
		run.WithLogger(logger),
		run.WithMetrics(a.metrics),
	}
	if a.store != nil {
		base = append(base, run.WithHistory(a.store))
	}
	a.runner = run.New(client, cfg.OutputDir, append(base, opts...)...)

	logger.Debug("configuration loaded",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("output_dir", cfg.OutputDir),
		zap.Int("top_k", cfg.TopK),
		zap.Duration("timeout", cfg.Timeout),
	)
	return a, nil
}

// close flushes metrics and releases the history database.
func (a *app) close() {
	if err := a.metrics.WriteFile(a.cfg.MetricsFile); err != nil {
		a.logger.Warn("writing metrics file", zap.String("path", a.cfg.MetricsFile), zap.Error(err))
	}
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}

// promptAPIKey asks for the run key on the terminal.
func promptAPIKey(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprintf(out, "Paste your API key (Run Key) and press Enter: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading API key: %w", err)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return "", fmt.Errorf("%s is required", config.EnvAPIKey)
	}
	return key, nil
}
