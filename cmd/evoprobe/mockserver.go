package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jxucoder/evoprobe/internal/logging"
	"github.com/jxucoder/evoprobe/internal/mockapi"
)

var (
	mockAddr      string
	mockToken     string
	mockMaxTokens int
)

var mockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Serve a local stand-in for the generation API",
	Long: `Start an HTTP server that speaks the generation API's wire format and
continues every prompt by repeating its last 8 nucleotides.

  evoprobe mock-server --addr :8089 --token test
  EVOPROBE_ENDPOINT=http://localhost:8089` + mockapi.GeneratePath + ` NVCF_RUN_KEY=test evoprobe complete --fasta gene.fasta`,
	Args: cobra.NoArgs,
	RunE: runMockServer,
}

func init() {
	mockServerCmd.Flags().StringVar(&mockAddr, "addr", ":8089", "listen address")
	mockServerCmd.Flags().StringVar(&mockToken, "token", "", "accepted bearer token (empty accepts any)")
	mockServerCmd.Flags().IntVar(&mockMaxTokens, "max-tokens", 0, "cap every continuation at this many nucleotides (0 for no cap)")
	rootCmd.AddCommand(mockServerCmd)
}

func runMockServer(cmd *cobra.Command, args []string) error {
	level := "info"
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("mock generation API listening",
		zap.String("addr", mockAddr),
		zap.String("path", mockapi.GeneratePath),
		zap.Bool("auth", mockToken != ""),
	)
	if err := mockapi.Serve(cmd.Context(), mockAddr, mockapi.Options{
		Token:     mockToken,
		MaxTokens: mockMaxTokens,
		Logger:    logger,
	}); err != nil {
		return fmt.Errorf("mock server: %w", err)
	}
	return nil
}
