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

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve a pending or appealed record",
	RunE:  runTransitionCommand(domainmoderation.ActionApprove),
}

var rejectCmd = &cobra.Command{
	Use:   "reject",
	Short: "Reject a pending or appealed record",
	RunE:  runTransitionCommand(domainmoderation.ActionReject),
}

var appealCmd = &cobra.Command{
	Use:   "appeal",
	Short: "Submit an appeal for a rejected record",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *moderation.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		recordID, _ := cmd.Flags().GetString("id")
		actor, _ := cmd.Flags().GetString("actor")
		reason, _ := cmd.Flags().GetString("reason")

		record, err := svc.SubmitAppeal(ctx, moderation.AppealInput{
			RecordID: recordID,
			ActorID:  actor,
			Reason:   reason,
		})
		if err != nil {
			logging.Error(ctx, "submit appeal failed", slog.String("record_id", recordID), slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "submit appeal")
		}
		return writeTransitionResult(cmd, record)
	}),
}

func init() {
	for _, c := range []*cobra.Command{approveCmd, rejectCmd} {
		rootCmd.AddCommand(c)
		c.Flags().String("id", "", "Record id")
		c.Flags().String("actor", "", "Moderator id")
		c.Flags().String("reason", "", "Reason recorded in the audit history")
		c.Flags().Bool("quick", false, "Use the policy quick reason when --reason is empty")
		_ = c.MarkFlagRequired("id")
		_ = c.MarkFlagRequired("actor")
	}

	rootCmd.AddCommand(appealCmd)
	appealCmd.Flags().String("id", "", "Record id")
	appealCmd.Flags().String("actor", "", "Appellant id")
	appealCmd.Flags().String("reason", "", "Appeal reason (default reason when empty)")
	_ = appealCmd.MarkFlagRequired("id")
	_ = appealCmd.MarkFlagRequired("actor")
}

func runTransitionCommand(action domainmoderation.Action) func(cmd *cobra.Command, args []string) error {
	return withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *moderation.Service) error {
		ctx := logging.WithAttrs(
			cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.String("action", string(action)),
		)

		recordID, _ := cmd.Flags().GetString("id")
		actor, _ := cmd.Flags().GetString("actor")
		reason, _ := cmd.Flags().GetString("reason")
		quick, _ := cmd.Flags().GetBool("quick")

		record, err := svc.ApplyTransition(ctx, moderation.TransitionInput{
			RecordID: recordID,
			Action:   action,
			ActorID:  actor,
			Reason:   reason,
			Quick:    quick,
		})
		if err != nil {
			logging.Error(ctx, "apply transition failed", slog.String("record_id", recordID), slog.Any("err", errs.Loggable(err)))
			return errs.Wrapf(err, "%s record", action)
		}
		return writeTransitionResult(cmd, record)
	})
}

func writeTransitionResult(cmd *cobra.Command, record domainmoderation.ContentRecord) error {
	entry, _ := record.LastEntry()
	if _, err := fmt.Fprintf(
		cmd.OutOrStdout(),
		"%s: %s -> %s (seq=%d reason=%q)\n",
		record.ID,
		entry.FromStatus,
		renderStatus(record.Status),
		entry.Seq,
		entry.Reason,
	); err != nil {
		return errs.Wrap(err, "write transition output")
	}
	return nil
}
