// evoprobe
//
// Sends DNA sequences from FASTA files to the Evo2 generation API.
// Continue a sequence, or hide its tail and score how well the model
// predicts it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jxucoder/evoprobe/pkg/generate"
)

var (
	version = "dev"

	endpointFlag    string
	outDirFlag      string
	metricsFileFlag string
	verbose         bool
	noHistory       bool
)

var rootCmd = &cobra.Command{
	Use:   "evoprobe",
	Short: "evoprobe - Evo2 sequence generation and holdout validation",
	Long: `evoprobe sends DNA sequences read from FASTA files to the Evo2 generation API.

  evoprobe complete --fasta gene.fasta                Continue a sequence by 100 nt
  evoprobe validate --fasta gene.fasta --holdout 50   Hide 50 nt and score the prediction
  evoprobe runs list                                  Show past runs
  evoprobe config set NVCF_RUN_KEY nvapi-...          Store the API key`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "generation endpoint URL (default from EVOPROBE_ENDPOINT)")
	rootCmd.PersistentFlags().StringVar(&outDirFlag, "out-dir", "", "directory for JSON results (default from EVOPROBE_OUTPUT_DIR or ../03_out)")
	rootCmd.PersistentFlags().StringVar(&metricsFileFlag, "metrics-file", "", "write Prometheus metrics to this file after the run")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "do not record the run in the history database")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err for a human. HTTP failures show the status and the
// response body.
func reportError(w io.Writer, err error) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "--- ERROR ---")

	var ge *generate.Error
	if errors.As(err, &ge) && ge.Status != 0 {
		fmt.Fprintf(w, "HTTP request failed: %d %s\n", ge.Status, http.StatusText(ge.Status))
		fmt.Fprintf(w, "Response body: %s\n", ge.Body)
		return
	}

	switch generate.KindOf(err) {
	case generate.KindNotFound:
		fmt.Fprintf(w, "Could not read a sequence: %v\n", err)
	case generate.KindTransport:
		fmt.Fprintf(w, "Could not reach the generation service: %v\n", err)
	case generate.KindMalformedResponse:
		fmt.Fprintf(w, "Unexpected response from the generation service: %v\n", err)
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}
