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
	"github.com/jxucoder/evoprobe/pkg/sequence"
)

// ValidationResult is the persisted record of a validation run. It is
// written once and never modified.
type ValidationResult struct {
	SourceFile         string
	PromptLength       int
	HoldoutLength      int
	GroundTruth        string
	Generated          string
	IdentityPercentage float64
}

type validationJSON struct {
	PromptInfo struct {
		FastaFile    string `json:"fasta_file"`
		PromptLength int    `json:"prompt_length"`
		HoldoutSize  int    `json:"holdout_size"`
	} `json:"prompt_info"`
	GroundTruthSequence string `json:"ground_truth_sequence"`
	GeneratedSequence   string `json:"generated_sequence"`
	Comparison          struct {
		IdentityPercentage float64 `json:"identity_percentage"`
	} `json:"comparison"`
}

// MarshalJSON writes the nested result layout.
func (v ValidationResult) MarshalJSON() ([]byte, error) {
	var out validationJSON
	out.PromptInfo.FastaFile = v.SourceFile
	out.PromptInfo.PromptLength = v.PromptLength
	out.PromptInfo.HoldoutSize = v.HoldoutLength
	out.GroundTruthSequence = v.GroundTruth
	out.GeneratedSequence = v.Generated
	out.Comparison.IdentityPercentage = v.IdentityPercentage
	return json.Marshal(out)
}

// UnmarshalJSON reads the layout written by MarshalJSON.
func (v *ValidationResult) UnmarshalJSON(data []byte) error {
	var in validationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*v = ValidationResult{
		SourceFile:         in.PromptInfo.FastaFile,
		PromptLength:       in.PromptInfo.PromptLength,
		HoldoutLength:      in.PromptInfo.HoldoutSize,
		GroundTruth:        in.GroundTruthSequence,
		Generated:          in.GeneratedSequence,
		IdentityPercentage: in.Comparison.IdentityPercentage,
	}
	return nil
}

// ValidationReport is what Validate returns to the caller.
type ValidationReport struct {
	RunID      string
	Record     *fasta.Record
	Prompt     string
	Result     ValidationResult
	OutputPath string
}

// Validate hides the last holdout symbols of the first sequence in path,
// asks the service for exactly that many, and scores the prediction.
// The result is saved to <outputDir>/validation_result_<holdout>bp.json.
func (r *Runner) Validate(ctx context.Context, path string, holdout int) (rep *ValidationReport, err error) {
	entry := r.begin(history.KindValidation, path)
	defer func() { r.finish(entry, err) }()

	rec, err := readInput(path)
	if err != nil {
		return nil, err
	}
	entry.RecordID = rec.ID
	entry.SequenceLength = rec.Len()

	prompt, truth, err := sequence.Split(rec.Seq, holdout)
	if err != nil {
		return nil, err
	}
	entry.PromptLength = len(prompt)
	entry.HoldoutLength = len(truth)
	r.logger.Info("sequence split",
		zap.String("run_id", entry.ID),
		zap.String("record", rec.ID),
		zap.Int("prompt_length", len(prompt)),
		zap.Int("holdout", len(truth)),
	)

	resp, err := r.call(ctx, history.KindValidation, generate.Request{
		Sequence:  prompt,
		NumTokens: len(truth),
		TopK:      r.topK,
	})
	if err != nil {
		return nil, err
	}
	entry.Generated = len(resp.Sequence)

	identity := sequence.Identity(truth, resp.Sequence)
	entry.Identity = &identity
	r.metrics.SetIdentity(identity)

	result := ValidationResult{
		SourceFile:         path,
		PromptLength:       len(prompt),
		HoldoutLength:      len(truth),
		GroundTruth:        truth,
		Generated:          resp.Sequence,
		IdentityPercentage: identity,
	}

	outPath := output.ValidationPath(r.outputDir, holdout)
	if err := output.WriteJSON(outPath, result); err != nil {
		return nil, fmt.Errorf("saving validation result: %w", err)
	}
	entry.OutputPath = outPath

	return &ValidationReport{
		RunID:      entry.ID,
		Record:     rec,
		Prompt:     prompt,
		Result:     result,
		OutputPath: outPath,
	}, nil
}
