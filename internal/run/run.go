// Package run implements the two evoprobe flows.
//
//  1. COMPLETE - send a FASTA sequence as a prompt and save the continuation
//  2. VALIDATE - hide the tail of a sequence, ask the model to predict it,
//     and score the prediction against the hidden tail
//
// Each flow makes exactly one generation call and writes one JSON file.
// Nothing is written when any step fails.
package run

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jxucoder/evoprobe/internal/history"
	"github.com/jxucoder/evoprobe/internal/metrics"
	"github.com/jxucoder/evoprobe/pkg/fasta"
	"github.com/jxucoder/evoprobe/pkg/generate"
)

// Defaults sent with every request.
const (
	DefaultNumTokens = 100
	DefaultTopK      = 4
	DefaultHoldout   = 100
)

// Runner executes completion and validation runs against a generate.Client.
type Runner struct {
	client    generate.Client
	outputDir string
	numTokens int
	topK      int
	history   *history.Store    // nil disables the run ledger
	metrics   *metrics.Recorder // nil disables metrics
	logger    *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithNumTokens sets how many symbols a completion run requests.
func WithNumTokens(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.numTokens = n
		}
	}
}

// WithTopK sets the sampling top-k.
func WithTopK(k int) Option {
	return func(r *Runner) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithHistory records every run in store.
func WithHistory(store *history.Store) Option {
	return func(r *Runner) { r.history = store }
}

// WithMetrics records generation calls in rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(r *Runner) { r.metrics = rec }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Runner that writes results into outputDir.
func New(client generate.Client, outputDir string, opts ...Option) *Runner {
	r := &Runner{
		client:    client,
		outputDir: outputDir,
		numTokens: DefaultNumTokens,
		topK:      DefaultTopK,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// readInput loads the first FASTA record. A missing file, a file without
// records, or a first record without symbols is reported as
// generate.KindNotFound.
func readInput(path string) (*fasta.Record, error) {
	rec, err := fasta.ReadFirst(path)
	if err != nil {
		if errors.Is(err, fasta.ErrNotFound) || errors.Is(err, fasta.ErrNoRecords) {
			return nil, &generate.Error{Kind: generate.KindNotFound, Err: err}
		}
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if rec.Seq == "" {
		return nil, &generate.Error{
			Kind: generate.KindNotFound,
			Err:  fmt.Errorf("%s: record %q: %w", path, rec.ID, fasta.ErrEmptySequence),
		}
	}
	return rec, nil
}

// call performs the single outbound call of a run and records metrics.
func (r *Runner) call(ctx context.Context, kind history.Kind, req generate.Request) (*generate.Response, error) {
	start := time.Now()
	resp, err := r.client.Generate(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		r.metrics.ObserveGeneration(string(kind), generate.KindOf(err).String(), elapsed, 0)
		return nil, err
	}
	r.metrics.ObserveGeneration(string(kind), "ok", elapsed, len(resp.Sequence))
	r.logger.Debug("generation finished",
		zap.String("kind", string(kind)),
		zap.Int("requested", req.NumTokens),
		zap.Int("generated", len(resp.Sequence)),
		zap.Duration("elapsed", elapsed),
	)
	if len(resp.Sequence) < req.NumTokens {
		r.logger.Warn("service returned fewer symbols than requested",
			zap.Int("requested", req.NumTokens),
			zap.Int("generated", len(resp.Sequence)),
		)
	}
	return resp, nil
}

// begin opens a history entry. History failures never fail the run.
func (r *Runner) begin(kind history.Kind, path string) *history.Run {
	entry := &history.Run{
		ID:         history.NewRunID(),
		Kind:       kind,
		SourceFile: path,
		Status:     history.StatusRunning,
		CreatedAt:  time.Now().UTC(),
	}
	if r.history != nil {
		if err := r.history.CreateRun(entry); err != nil {
			r.logger.Warn("recording run start", zap.String("run_id", entry.ID), zap.Error(err))
		}
	}
	return entry
}

// finish closes a history entry with the outcome of err.
func (r *Runner) finish(entry *history.Run, err error) {
	if err != nil {
		entry.Status = history.StatusError
		entry.Error = err.Error()
		r.logger.Error("run failed",
			zap.String("run_id", entry.ID),
			zap.String("kind", string(entry.Kind)),
			zap.String("error_kind", generate.KindOf(err).String()),
			zap.Error(err),
		)
	} else {
		entry.Status = history.StatusComplete
		r.logger.Info("run complete",
			zap.String("run_id", entry.ID),
			zap.String("kind", string(entry.Kind)),
			zap.String("output", entry.OutputPath),
		)
	}
	if r.history != nil {
		if herr := r.history.FinishRun(entry); herr != nil {
			r.logger.Warn("recording run outcome", zap.String("run_id", entry.ID), zap.Error(herr))
		}
	}
}
