package run

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/jxucoder/evoprobe/internal/history"
	"github.com/jxucoder/evoprobe/pkg/fasta"
	"github.com/jxucoder/evoprobe/pkg/generate"
	"github.com/jxucoder/evoprobe/pkg/output"
)

// CompletionResult is the outcome of a completion run.
type CompletionResult struct {
	RunID  string
	Record *fasta.Record
	// Generated is the continuation returned by the service.
	Generated string
	// Full is the input sequence followed by Generated.
	Full string
	// Raw is the complete response body, as written to OutputPath.
	Raw        json.RawMessage
	OutputPath string
}

// Complete sends the first sequence in path as a prompt and saves the raw
// response to <outputDir>/output.json.
func (r *Runner) Complete(ctx context.Context, path string) (res *CompletionResult, err error) {
	entry := r.begin(history.KindCompletion, path)
	defer func() { r.finish(entry, err) }()

	rec, err := readInput(path)
	if err != nil {
		return nil, err
	}
	entry.RecordID = rec.ID
	entry.SequenceLength = rec.Len()
	entry.PromptLength = rec.Len()
	r.logger.Info("sequence loaded",
		zap.String("run_id", entry.ID),
		zap.String("record", rec.ID),
		zap.Int("length", rec.Len()),
	)

	resp, err := r.call(ctx, history.KindCompletion, generate.Request{
		Sequence:  rec.Seq,
		NumTokens: r.numTokens,
		TopK:      r.topK,
	})
	if err != nil {
		return nil, err
	}
	entry.Generated = len(resp.Sequence)

	outPath := output.CompletionPath(r.outputDir)
	if err := output.WriteJSON(outPath, resp.Raw); err != nil {
		return nil, fmt.Errorf("saving completion: %w", err)
	}
	entry.OutputPath = outPath

	return &CompletionResult{
		RunID:      entry.ID,
		Record:     rec,
		Generated:  resp.Sequence,
		Full:       rec.Seq + resp.Sequence,
		Raw:        resp.Raw,
		OutputPath: outPath,
	}, nil
}
