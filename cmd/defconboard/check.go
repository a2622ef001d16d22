package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/defconboard"
	"github.com/jpalmerr/defconboard/config"
)

// checkCmd runs a single refresh cycle and prints the result.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch the source page once and print the result",
	Long: `Run one refresh cycle against the source page and print the DEFCON
level and every command's state. No server is started.

Without --config the built-in defaults are used.

Exit codes:
  0 - The page was fetched and parsed
  1 - The refresh failed (error details printed to stderr)

Example:
  defconboard check
  defconboard check -c config.yaml --json`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringP("config", "c", "", "path to config file")
	checkCmd.Flags().Bool("json", false, "print the snapshot as JSON")
}

// checkCommand is one row of check output.
type checkCommand struct {
	ID    string `json:"id"`
	State string `json:"state"`
	URL   string `json:"url"`
}

// checkResult is the JSON form of check output.
type checkResult struct {
	Updated     time.Time      `json:"updated"`
	DefconLevel *int           `json:"defcon_level"`
	Commands    []checkCommand `json:"commands"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	asJSON, _ := cmd.Flags().GetBool("json")

	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.Load(configFile)
	} else {
		cfg, err = config.Parse(nil)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// only warnings and errors, stdout is for the result
	board, err := newBoard(cfg, newLogger(os.Stderr, slog.LevelWarn))
	if err != nil {
		return err
	}

	snap, err := board.Refresh(cmd.Context())
	if err != nil {
		return err
	}

	result := toCheckResult(snap)
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return printCheck(os.Stdout, result)
}

func toCheckResult(snap defconboard.Snapshot) checkResult {
	result := checkResult{
		Updated:  snap.Updated(),
		Commands: make([]checkCommand, 0, len(snap.IDs())),
	}
	if level, ok := snap.Level(); ok {
		result.DefconLevel = &level
	}
	for _, id := range snap.IDs() {
		st, _ := snap.Command(id)
		result.Commands = append(result.Commands, checkCommand{
			ID:    id.String(),
			State: st.State.String(),
			URL:   st.URL,
		})
	}
	return result
}

func printCheck(w io.Writer, result checkResult) error {
	level := "unknown"
	if result.DefconLevel != nil {
		level = fmt.Sprintf("%d", *result.DefconLevel)
	}
	fmt.Fprintf(w, "DEFCON level: %s\n", level)
	fmt.Fprintf(w, "Updated:      %s\n\n", result.Updated.Format(time.RFC3339))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COMMAND\tSTATE\tURL")
	for _, c := range result.Commands {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.State, c.URL)
	}
	return tw.Flush()
}
