package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prisonfinance/ledgersync/internal/app"
)

func newMergeCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <removedPrisonNumber> <survivingPrisonNumber>",
		Short: "Fold a removed prisoner number into the surviving one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				result, err := a.Merge.MergeAccounts(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %d entries, reassigned %d accounts from %s to %s\n",
					result.MovedEntries, result.ReassignedAccount, args[0], args[1])
				return nil
			})
		},
	}
}
