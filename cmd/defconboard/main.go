// Package main is the entry point for the defconboard CLI.
//
// DefconBoard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	defconboard serve -c config.yaml    # Start the dashboard
//	defconboard check                   # Run one refresh and print it
//	defconboard validate -c config.yaml # Validate configuration
//	defconboard version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "defconboard",
	Short: "A DEFCON status page tracker",
	Long: `DefconBoard tracks the DEFCON level and per-command alert states
published on the raised-levels page of defconlevel.com.

It scrapes the page at a fixed interval, records which commands changed,
and serves a live dashboard with Server-Sent Events.

Quick start:
  1. Run: defconboard check
  2. Run: defconboard serve -c defconboard.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  poll_interval: 5m
  timeout: 10s`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this defconboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("defconboard %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
