package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Produce a growth plan for a community",
	Long: `Plan audits the community's full dataset and delivers a strategic
growth plan: topics for the next month, posting cadence, formats and which
offers to push.`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	if flagCommunity == 0 {
		return fmt.Errorf("--community is required")
	}

	app, cleanup, err := setupApp(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := app.Engine.GrowthPlan(cmd.Context(), flagCommunity)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
