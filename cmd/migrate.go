package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iordanov05/AutoSMM/db"
	"github.com/iordanov05/AutoSMM/internal/config"
	"github.com/iordanov05/AutoSMM/internal/log"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		logger := log.New(log.Config{Level: parseLevel(cfg.LogLevel), JSON: cfg.LogJSON})
		return db.Migrate(cfg.PostgresURL(), logger)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
