package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prisonfinance/ledgersync/internal/app"
	"github.com/prisonfinance/ledgersync/internal/models"
)

func newReconcileCmd(withApp appRunner) *cobra.Command {
	var generalLedger, asJSON bool

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Report computed balances",
	}
	reconcileCmd.PersistentFlags().BoolVar(&generalLedger, "general-ledger", false, "Compare with the general ledger instead of listing local balances")
	reconcileCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print JSON")

	prisonerCmd := &cobra.Command{
		Use:   "prisoner <prisonNumber>",
		Short: "Balances of one prisoner per prison and account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				if generalLedger {
					report, err := a.Reconciliation.CompareWithGeneralLedger(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					if asJSON {
						return printJSON(cmd.OutOrStdout(), report)
					}
					printReport(cmd, report.Lines, report.Balanced)
					return nil
				}

				balances, err := a.Reconciliation.ReconcilePrisoner(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), balances)
				}
				out := cmd.OutOrStdout()
				if len(balances) == 0 {
					fmt.Fprintln(out, "No accounts found")
					return nil
				}
				fmt.Fprintf(out, "%-8s %-8s %15s %15s\n", "Prison", "Code", "Balance", "Hold")
				fmt.Fprintln(out, strings.Repeat("-", 49))
				for _, b := range balances {
					fmt.Fprintf(out, "%-8s %-8d %15s %15s\n", b.PrisonID, b.AccountCode, b.TotalBalance.StringFixed(2), b.HoldBalance.StringFixed(2))
				}
				return nil
			})
		},
	}

	prisonCmd := &cobra.Command{
		Use:   "prison <prisonId>",
		Short: "Balances of every account held at one prison",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				if generalLedger {
					report, err := a.Reconciliation.CompareGeneralLedgerForPrison(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					if asJSON {
						return printJSON(cmd.OutOrStdout(), report)
					}
					printReport(cmd, report.Lines, report.Balanced)
					return nil
				}

				balances, err := a.Reconciliation.ReconcilePrison(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), balances)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-8s %-30s %15s\n", "Code", "Name", "Balance")
				fmt.Fprintln(out, strings.Repeat("-", 55))
				for _, b := range balances {
					fmt.Fprintf(out, "%-8d %-30s %15s\n", b.AccountCode, b.Name[:min(30, len(b.Name))], b.Balance.StringFixed(2))
				}
				return nil
			})
		},
	}

	reconcileCmd.AddCommand(prisonerCmd, prisonCmd)
	return reconcileCmd
}

func printReport(cmd *cobra.Command, lines []models.ReconciliationLine, balanced bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-12s %15s %15s %15s\n", "Sub-account", "Local", "Remote", "Discrepancy")
	fmt.Fprintln(out, strings.Repeat("-", 60))
	for _, l := range lines {
		fmt.Fprintf(out, "%-12s %15d %15d %15d\n", l.SubAccountReference, l.LocalBalance, l.RemoteBalance, l.Discrepancy)
	}
	if balanced {
		fmt.Fprintln(out, "Balanced")
	} else {
		fmt.Fprintln(out, "DISCREPANCIES FOUND")
	}
}
