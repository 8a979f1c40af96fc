/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"modqueue/internal/bootstrap"
	"modqueue/internal/bootstrap/logging"
	"modqueue/internal/errs"
	"modqueue/internal/usecase/moderation"
)

// initDbCmd represents the initDb command
var initDbCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Initialize database schema",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *moderation.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		logging.Info(ctx, "start init-db")

		if err := app.InitSchema(ctx); err != nil {
			logging.Error(ctx, "initialize schema failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "initialize schema")
		}

		version, err := app.SchemaVersion(ctx)
		if err != nil {
			return errs.Wrap(err, "read schema version")
		}

		cursor, seeded, err := svc.SeedRelayCursor(ctx)
		if err != nil {
			return errs.Wrap(err, "seed relay cursor")
		}

		logging.Info(ctx, "init-db finished", slog.String("database_dsn", app.Config.Database.DSN), slog.String("schema_version", version))
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "database schema initialized: %s (schema v%s)\n", app.Config.Database.DSN, version); err != nil {
			return errs.Wrap(err, "write init-db output")
		}
		if seeded {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "relay cursor seeded at entry %d\n", cursor); err != nil {
				return errs.Wrap(err, "write init-db output")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(initDbCmd)
}
