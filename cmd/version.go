package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iordanov05/AutoSMM/internal/config"
)

// Version information, injected at build time via ldflags.
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion() error {
	fmt.Printf("AutoSMM %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Println("Configuration:")
	fmt.Printf("  Model: %s\n", cfg.ModelName)
	fmt.Printf("  Embedder: %s\n", cfg.EmbedderModel)
	fmt.Printf("  Temperature: %.2f\n", cfg.Temperature)
	fmt.Printf("  Max tokens: %d\n", cfg.MaxTokens)
	fmt.Printf("  Database: %s:%d/%s\n", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDBName)

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey != "" && len(geminiKey) >= 8 {
		fmt.Printf("  GEMINI_API_KEY: %s...%s (configured)\n",
			geminiKey[:4], geminiKey[len(geminiKey)-4:])
	} else {
		fmt.Println("  GEMINI_API_KEY: Not set")
		fmt.Println()
		fmt.Println("Hint: set the GEMINI_API_KEY environment variable")
		fmt.Println("  export GEMINI_API_KEY=your-api-key")
	}

	return nil
}
