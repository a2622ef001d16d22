package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/defconboard/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a DefconBoard configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  defconboard validate -c config.yaml
  defconboard validate --config /etc/defconboard/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// builds the SDK commands too, so URL and alias errors surface here
	commands, err := config.BuildCommands(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	source := "built-in"
	if len(cfg.Commands) > 0 {
		source = "configured"
	}
	extractor := cfg.Level.Type
	if extractor == "" {
		extractor = "default"
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:          %d\n", cfg.Port)
	fmt.Printf("  Poll interval: %s\n", cfg.PollInterval.Duration())
	fmt.Printf("  Timeout:       %s\n", cfg.Timeout.Duration())
	fmt.Printf("  Source:        %s\n", cfg.SourceURL)
	fmt.Printf("  Level:         %s\n", extractor)
	fmt.Printf("  Commands:      %d (%s)\n", len(commands), source)

	return nil
}
