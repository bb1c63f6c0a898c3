package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jxucoder/evoprobe/internal/config"
)

// configKey describes a single configuration value.
type configKey struct {
	Key    string
	Desc   string
	Secret bool
	Prefix string // expected prefix, empty = no check
}

// allConfigKeys lists every configurable value in display order.
var allConfigKeys = []configKey{
	{config.EnvAPIKey, "NVCF run key for the Evo2 API", true, "nvapi-"},
	{config.EnvEndpoint, "Generation endpoint URL", false, ""},
	{config.EnvOutputDir, "Directory for JSON results", false, ""},
	{config.EnvTopK, "Sampling top-k", false, ""},
	{config.EnvTimeout, "Per-request timeout (e.g. 5m)", false, ""},
	{config.EnvLogLevel, "Log level (debug, info, warn, error)", false, ""},
	{config.EnvMetricsFile, "Prometheus textfile output path", false, ""},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage evoprobe configuration",
	Long: `Manage evoprobe configuration.

Configuration is stored in <data-dir>/config.env (default ~/.evoprobe) and
can be overridden by environment variables.

  evoprobe config setup              Store the API key interactively
  evoprobe config set KEY VALUE      Set a single config value
  evoprobe config show               Show current configuration
  evoprobe config path               Print config file path`,
}

var configSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Store the API key interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigSetup(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a config value",
	Long: `Set a single configuration value. Example:
  evoprobe config set NVCF_RUN_KEY nvapi-xxxxxxxxxxxx`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display all configured values. Secrets are masked.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow(cmd.OutOrStdout())
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), configFilePath())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSetupCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func configFilePath() string {
	dataDir := os.Getenv(config.EnvDataDir)
	if dataDir == "" {
		dataDir = config.DefaultDataDir()
	}
	return config.FilePath(dataDir)
}

// effectiveValue returns the current value for a key, preferring env vars over config file.
func effectiveValue(key string, fileValues map[string]string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fileValues[key]
}

// maskSecret masks a secret string, showing only the first 4 and last 4 characters.
func maskSecret(s string) string {
	if len(s) <= 12 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}

func findKey(name string) (configKey, bool) {
	for _, ck := range allConfigKeys {
		if ck.Key == name {
			return ck, true
		}
	}
	return configKey{Key: name}, false
}

func runConfigSetup(in io.Reader, out io.Writer) error {
	path := configFilePath()
	fileValues, err := config.ReadFile(path)
	if err != nil {
		return err
	}
	ck, _ := findKey(config.EnvAPIKey)

	current := effectiveValue(ck.Key, fileValues)
	if current != "" {
		fmt.Fprintf(out, "%s is set (%s)\n", ck.Key, maskSecret(current))
	} else {
		fmt.Fprintf(out, "%s is not set\n", ck.Key)
	}

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "Paste your API key (Run Key), or Enter to keep: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return nil
			}
			return err
		}
		input := strings.TrimSpace(line)
		if input == "" {
			fmt.Fprintln(out, "Unchanged.")
			return nil
		}
		if !strings.HasPrefix(input, ck.Prefix) {
			fmt.Fprintf(out, "Expected a key starting with %q. Try again or press Enter to skip.\n", ck.Prefix)
			if err != nil {
				return nil
			}
			continue
		}
		fileValues[ck.Key] = input
		break
	}

	if err := config.WriteFile(path, fileValues); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved to %s\n", path)
	return nil
}

// runConfigSet sets a single key=value in the config file.
func runConfigSet(out io.Writer, key, value string) error {
	ck, known := findKey(key)
	if !known {
		return fmt.Errorf("unknown config key %q", key)
	}

	path := configFilePath()
	fileValues, err := config.ReadFile(path)
	if err != nil {
		return err
	}
	fileValues[key] = value
	if err := config.WriteFile(path, fileValues); err != nil {
		return err
	}

	if ck.Secret {
		value = maskSecret(value)
	}
	fmt.Fprintf(out, "Set %s = %s\n", key, value)
	return nil
}

// runConfigShow displays the current effective configuration.
func runConfigShow(out io.Writer) error {
	path := configFilePath()
	fileValues, err := config.ReadFile(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Config file: %s\n\n", path)
	for _, ck := range allConfigKeys {
		value := effectiveValue(ck.Key, fileValues)
		source := ""
		if os.Getenv(ck.Key) != "" {
			source = " (from env)"
		} else if fileValues[ck.Key] != "" {
			source = " (from config file)"
		}

		display := "(not set)"
		if value != "" {
			if ck.Secret {
				display = maskSecret(value)
			} else {
				display = value
			}
		}
		fmt.Fprintf(out, "  %-22s %s%s\n", ck.Key, display, source)
	}
	return nil
}
