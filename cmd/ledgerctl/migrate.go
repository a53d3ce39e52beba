package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prisonfinance/ledgersync/internal/app"
	"github.com/prisonfinance/ledgersync/internal/models"
	"github.com/prisonfinance/ledgersync/internal/services"
)

func readBalances(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return services.NewValidationHelper().ValidateStruct(v)
}

func newMigrateCmd(withApp appRunner) *cobra.Command {
	var file string

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Load legacy balances from a JSON file",
	}
	migrateCmd.PersistentFlags().StringVarP(&file, "file", "f", "", "JSON file with an accountBalances array")
	_ = migrateCmd.MarkPersistentFlagRequired("file")

	prisonerCmd := &cobra.Command{
		Use:   "prisoner <prisonNumber>",
		Short: "Migrate one prisoner's sub-account balances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req models.PrisonerBalancesRequest
			if err := readBalances(file, &req); err != nil {
				return err
			}
			return withApp(cmd, func(a *app.App) error {
				result, err := a.Migration.MigratePrisonerBalances(cmd.Context(), args[0], req)
				if result != nil {
					if perr := printJSON(cmd.OutOrStdout(), result); perr != nil {
						return perr
					}
				}
				return err
			})
		},
	}

	prisonCmd := &cobra.Command{
		Use:   "prison <prisonId>",
		Short: "Migrate one prison's general ledger balances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req models.GeneralLedgerBalancesRequest
			if err := readBalances(file, &req); err != nil {
				return err
			}
			return withApp(cmd, func(a *app.App) error {
				result, err := a.Migration.MigrateGeneralLedgerBalances(cmd.Context(), args[0], req)
				if result != nil {
					if perr := printJSON(cmd.OutOrStdout(), result); perr != nil {
						return perr
					}
				}
				return err
			})
		},
	}

	migrateCmd.AddCommand(prisonerCmd, prisonCmd)
	return migrateCmd
}
