package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"modqueue/internal/bootstrap"
	"modqueue/internal/bootstrap/logging"
	domainmoderation "modqueue/internal/domain/moderation"
	"modqueue/internal/errs"
	"modqueue/internal/usecase/moderation"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a record with its full audit history",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *moderation.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		recordID, _ := cmd.Flags().GetString("id")
		record, err := svc.GetRecord(ctx, recordID)
		if err != nil {
			logging.Error(ctx, "show record failed", slog.String("record_id", recordID), slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "show record")
		}
		if err := writeRecord(cmd.OutOrStdout(), record); err != nil {
			return errs.Wrap(err, "write record output")
		}

		if err := domainmoderation.VerifyHistory(record); err != nil {
			logging.Warn(ctx, "record history is inconsistent", slog.String("record_id", record.ID), slog.Any("err", errs.Loggable(err)))
			if _, werr := fmt.Fprintf(cmd.OutOrStdout(), "\nhistory check: %v\n", err); werr != nil {
				return errs.Wrap(werr, "write history check output")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().String("id", "", "Record id")
	_ = showCmd.MarkFlagRequired("id")
}
