package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jxucoder/evoprobe/internal/run"
	"github.com/jxucoder/evoprobe/pkg/sequence"
)

var (
	validateFasta   string
	validateHoldout int
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Hide the tail of a sequence and score the model's prediction",
	Long: `Split the first sequence of a FASTA file into a prompt and a hidden tail of
--holdout nucleotides, ask the model to generate exactly that many, and report
the position-wise identity between the prediction and the real tail.

The result is saved to <out-dir>/validation_result_<holdout>bp.json.

  evoprobe validate --fasta gene.fasta --holdout 100`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateFasta, "fasta", "", "path to the input FASTA file (- for stdin)")
	validateCmd.Flags().IntVar(&validateHoldout, "holdout", run.DefaultHoldout, "number of trailing nucleotides to hide and predict")
	validateCmd.MarkFlagRequired("fasta")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	a, err := newApp(cmd.InOrStdin(), cmd.ErrOrStderr(), validateFasta)
	if err != nil {
		return err
	}
	defer a.close()

	rep, err := a.runner.Validate(cmd.Context(), validateFasta, validateHoldout)
	if err != nil {
		return err
	}
	res := rep.Result

	fmt.Fprintf(out, "Sequence read from file: %s (total length: %d)\n", rep.Record.ID, rep.Record.Len())
	fmt.Fprintf(out, "Prompt length: %d\n", res.PromptLength)
	fmt.Fprintf(out, "Holdout length: %d\n", res.HoldoutLength)
	fmt.Fprintf(out, "Prompt sent (last 60 nt): '...%s'\n", sequence.Tail(rep.Prompt, 60))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "--- Comparison ---")
	fmt.Fprintf(out, "Real sequence (hidden):   %s\n", res.GroundTruth)
	fmt.Fprintf(out, "Generated by Evo2:        %s\n", res.Generated)
	fmt.Fprintln(out, "---------------------------------")
	fmt.Fprintf(out, "Sequence identity: %.2f%%\n", res.IdentityPercentage)
	fmt.Fprintf(out, "\nValidation result saved to: %s (run %s)\n", rep.OutputPath, rep.RunID)
	return nil
}
