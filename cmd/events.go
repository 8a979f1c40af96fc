package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"modqueue/internal/bootstrap"
	"modqueue/internal/bootstrap/logging"
	"modqueue/internal/errs"
	"modqueue/internal/usecase/moderation"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Transition event commands",
}

var eventsRelayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Republish committed audit entries to the configured sinks",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *moderation.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		batch, _ := cmd.Flags().GetInt("batch")
		follow, _ := cmd.Flags().GetBool("follow")
		interval, _ := cmd.Flags().GetDuration("interval")

		if !follow {
			result, err := svc.RelayEvents(ctx, moderation.RelayInput{Batch: batch})
			if err != nil {
				logging.Error(ctx, "relay events failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "relay events")
			}
			return writeRelayResult(cmd, result)
		}

		if interval <= 0 {
			return errors.New("interval must be positive")
		}
		logging.Info(ctx, "relay follow started", slog.Duration("interval", interval))
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			result, err := svc.RelayEvents(ctx, moderation.RelayInput{Batch: batch})
			switch {
			case err != nil && errors.Is(err, context.Canceled):
				return nil
			case err != nil:
				// Keep following; the cursor still points at the undelivered entry.
				logging.Warn(ctx, "relay round failed", slog.Any("err", errs.Loggable(err)))
			case result.Delivered > 0:
				if err := writeRelayResult(cmd, result); err != nil {
					return err
				}
			}

			select {
			case <-ctx.Done():
				logging.Info(ctx, "relay follow stopped")
				return nil
			case <-ticker.C:
			}
		}
	}),
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsRelayCmd)

	eventsRelayCmd.Flags().Int("batch", 0, "Maximum entries per round (default: events.relay_batch)")
	eventsRelayCmd.Flags().Bool("follow", false, "Keep relaying until interrupted")
	eventsRelayCmd.Flags().Duration("interval", 2*time.Second, "Poll interval with --follow")
}

func writeRelayResult(cmd *cobra.Command, result moderation.RelayResult) error {
	if _, err := fmt.Fprintf(
		cmd.OutOrStdout(),
		"relayed: delivered=%d undelivered=%d cursor=%d\n",
		result.Delivered,
		result.Undelivered,
		result.Cursor,
	); err != nil {
		return errs.Wrap(err, "write relay output")
	}
	return nil
}
