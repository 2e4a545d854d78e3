package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ideasCmd = &cobra.Command{
	Use:   "ideas",
	Short: "Propose five content ideas for a community",
	Long: `Ideas analyzes the community's full dataset (profile, posts with
engagement, products and services) and proposes five justified post topics,
each with a ready-to-publish draft.`,
	RunE: runIdeas,
}

func init() {
	rootCmd.AddCommand(ideasCmd)
}

func runIdeas(cmd *cobra.Command, _ []string) error {
	if flagCommunity == 0 {
		return fmt.Errorf("--community is required")
	}

	app, cleanup, err := setupApp(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := app.Engine.BrainstormIdeas(cmd.Context(), flagCommunity)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
