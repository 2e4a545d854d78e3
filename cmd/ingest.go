package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/iordanov05/AutoSMM/internal/snapshot"
)

var ingestFile string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a community snapshot",
	Long: `Ingest reads a community snapshot (community profile, posts, products
and services) from a JSON file, persists it for the given account and
rebuilds the community's retrieval index.

Use --file - to read the snapshot from stdin.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "-", "snapshot JSON file (- for stdin)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if flagAccount == 0 {
		return fmt.Errorf("--account is required")
	}

	raw, err := readInput(ingestFile)
	if err != nil {
		return err
	}

	var snap snapshot.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("parsing snapshot JSON: %w", err)
	}

	app, cleanup, err := setupApp(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := app.Pipeline.Ingest(cmd.Context(), flagAccount, snap)
	if err != nil {
		return fmt.Errorf("ingesting snapshot: %w", err)
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}
	return raw, nil
}
