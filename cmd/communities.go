package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iordanov05/AutoSMM/internal/store"
)

var forgetCommunity int64

var communitiesCmd = &cobra.Command{
	Use:   "communities",
	Short: "List the account's synced communities",
	Long: `Communities lists every community the account has ingested, most
recently synced first. With --forget, the account's link to that community
is removed instead; a community no account references is deleted together
with its data and retrieval index.`,
	RunE: runCommunities,
}

func init() {
	communitiesCmd.Flags().Int64Var(&forgetCommunity, "forget", 0, "remove the account's link to this community id")
	rootCmd.AddCommand(communitiesCmd)
}

func runCommunities(cmd *cobra.Command, _ []string) error {
	if flagAccount == 0 {
		return fmt.Errorf("--account is required")
	}

	app, cleanup, err := setupApp(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	if forgetCommunity != 0 {
		if err := app.Store.RemoveMembership(cmd.Context(), flagAccount, forgetCommunity); err != nil {
			return err
		}
		// The collection follows the community row: drop it only once the
		// last membership is gone and the row has been reconciled away.
		if _, err := app.Store.Community(cmd.Context(), forgetCommunity); errors.Is(err, store.ErrNotFound) {
			if err := app.Index.Drop(cmd.Context(), forgetCommunity); err != nil {
				return err
			}
		}
		fmt.Printf("Removed community %d for account %d.\n", forgetCommunity, flagAccount)
		return nil
	}

	synced, err := app.Store.ListMemberships(cmd.Context(), flagAccount)
	if err != nil {
		return err
	}
	if len(synced) == 0 {
		fmt.Println("No synced communities.")
		return nil
	}

	for _, sc := range synced {
		fmt.Printf("%12d  %-40s  synced %s\n",
			sc.ID, sc.Name, sc.LastSyncedAt.Format(time.RFC3339))
	}
	return nil
}
