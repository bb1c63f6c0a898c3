package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jxucoder/evoprobe/internal/run"
	"github.com/jxucoder/evoprobe/pkg/output"
	"github.com/jxucoder/evoprobe/pkg/sequence"
)

var (
	completeFasta     string
	completeNumTokens int
)

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Continue the first sequence of a FASTA file",
	Long: `Send the first sequence of a FASTA file to the generation API and save the
raw response to <out-dir>/output.json.

  evoprobe complete --fasta gene.fasta`,
	Args: cobra.NoArgs,
	RunE: runComplete,
}

func init() {
	completeCmd.Flags().StringVar(&completeFasta, "fasta", "", "path to the input FASTA file (- for stdin)")
	completeCmd.Flags().IntVar(&completeNumTokens, "num-tokens", run.DefaultNumTokens, "number of nucleotides to generate")
	completeCmd.MarkFlagRequired("fasta")
	rootCmd.AddCommand(completeCmd)
}

func runComplete(cmd *cobra.Command, args []string) error {
	if completeNumTokens <= 0 {
		return fmt.Errorf("--num-tokens must be positive, got %d", completeNumTokens)
	}
	out := cmd.OutOrStdout()

	a, err := newApp(cmd.InOrStdin(), cmd.ErrOrStderr(), completeFasta, run.WithNumTokens(completeNumTokens))
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.runner.Complete(cmd.Context(), completeFasta)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Sequence read from file: %s (length: %d)\n", res.Record.ID, res.Record.Len())
	fmt.Fprintf(out, "Prompt sent (first 60 nt): '%s...'\n", sequence.Head(res.Record.Seq, 60))
	fmt.Fprintf(out, "Response saved to '%s'\n", res.OutputPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "--- API response ---")
	fmt.Fprintln(out, output.IndentRaw(res.Raw))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "--- Full sequence (prompt + generation) ---")
	fmt.Fprintln(out, sequence.Head(res.Full, 500)+"...")
	fmt.Fprintf(out, "\nRun %s complete.\n", res.RunID)
	return nil
}
