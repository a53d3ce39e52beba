package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prisonfinance/ledgersync/internal/app"
	"github.com/prisonfinance/ledgersync/internal/config"
)

type opener func(ctx context.Context, configPath string) (*app.App, error)

func loadConfig(configPath string) (*config.Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", configPath, err)
		}
	}
	return config.Load(v)
}

func openApp(ctx context.Context, configPath string) (*app.App, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	app.ConfigureLogging(cfg.LogLevel, "console", nil)
	return app.Open(ctx, cfg)
}

func newRootCmd(open opener) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operate the prisoner finance ledger",
		Long:          `Reconcile balances, load migrated balances and merge prisoner accounts against the ledger database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (yaml)")

	withApp := func(cmd *cobra.Command, fn func(a *app.App) error) error {
		a, err := open(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				log.Warn().Err(err).Msg("error closing connections")
			}
		}()
		return fn(a)
	}

	rootCmd.AddCommand(
		newReconcileCmd(withApp),
		newMigrateCmd(withApp),
		newMergeCmd(withApp),
		newConfigCmd(&configPath),
	)
	return rootCmd
}

type appRunner func(cmd *cobra.Command, fn func(a *app.App) error) error

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database:         %s@%s:%s/%s\n", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
			fmt.Fprintf(out, "Redis:            %s\n", cfg.Redis.Addr())
			fmt.Fprintf(out, "General ledger:   %s (enabled: %t)\n", cfg.GeneralLedger.URL, cfg.GeneralLedger.Enabled)
			fmt.Fprintf(out, "Legacy time zone: %s\n", cfg.Ledger.LegacyTimeZone)
			fmt.Fprintf(out, "Migration types:  %s\n", strings.Join(cfg.Ledger.MigrationTransactionTypes, ", "))
			fmt.Fprintf(out, "JWT secret:       %s\n", mask(cfg.JWT.SecretKey))
			return nil
		},
	}
}

// mask shows only the first and last four characters of a secret.
func mask(secret string) string {
	if len(secret) > 8 {
		return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
	}
	return strings.Repeat("*", len(secret))
}
