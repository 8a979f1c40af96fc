package cmd

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"modqueue/internal/bootstrap"
	"modqueue/internal/bootstrap/logging"
	domainmoderation "modqueue/internal/domain/moderation"
	"modqueue/internal/errs"
	"modqueue/internal/usecase/moderation"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List records awaiting moderation in triage order",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *moderation.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		filter, err := queueFilterFromFlags(cmd)
		if err != nil {
			return err
		}
		withStats, _ := cmd.Flags().GetBool("stats")

		items, err := svc.ListQueue(ctx, filter)
		if err != nil {
			logging.Error(ctx, "list queue failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list queue")
		}
		if err := writeQueue(cmd.OutOrStdout(), items); err != nil {
			return errs.Wrap(err, "write queue output")
		}

		if !withStats {
			return nil
		}
		stats, err := svc.QueueStats(ctx)
		if err != nil {
			logging.Error(ctx, "queue stats failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "queue stats")
		}
		if err := writeStats(cmd.OutOrStdout(), stats); err != nil {
			return errs.Wrap(err, "write stats output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(queueCmd)

	queueCmd.Flags().String("status", "", "Filter by status (default: pending and appealed)")
	queueCmd.Flags().String("kind", "", "Filter by kind: post, comment or user")
	queueCmd.Flags().String("quality", "", "Filter by quality band: low, medium or high")
	queueCmd.Flags().String("spam", "", "Filter by spam band: low, medium or high")
	queueCmd.Flags().String("flag", "", "Filter by automated flag")
	queueCmd.Flags().Int("limit", 0, "Maximum rows (0 for all)")
	queueCmd.Flags().Bool("stats", false, "Print per-status counts after the list")
}

func queueFilterFromFlags(cmd *cobra.Command) (moderation.QueueFilter, error) {
	statusRaw, _ := cmd.Flags().GetString("status")
	kindRaw, _ := cmd.Flags().GetString("kind")
	qualityRaw, _ := cmd.Flags().GetString("quality")
	spamRaw, _ := cmd.Flags().GetString("spam")
	flag, _ := cmd.Flags().GetString("flag")
	limit, _ := cmd.Flags().GetInt("limit")

	return parseQueueFilter(statusRaw, kindRaw, qualityRaw, spamRaw, flag, limit)
}

// parseQueueFilter is shared by the CLI and the HTTP handler.
func parseQueueFilter(statusRaw, kindRaw, qualityRaw, spamRaw, flag string, limit int) (moderation.QueueFilter, error) {
	filter := moderation.QueueFilter{Flag: strings.TrimSpace(flag), Limit: limit}
	if strings.TrimSpace(statusRaw) != "" {
		status, err := domainmoderation.ParseStatus(statusRaw)
		if err != nil {
			return moderation.QueueFilter{}, err
		}
		filter.Status = status
	}
	if strings.TrimSpace(kindRaw) != "" {
		kind, err := domainmoderation.ParseKind(kindRaw)
		if err != nil {
			return moderation.QueueFilter{}, err
		}
		filter.Kind = kind
	}
	if strings.TrimSpace(qualityRaw) != "" {
		band, err := domainmoderation.ParseBand(qualityRaw)
		if err != nil {
			return moderation.QueueFilter{}, err
		}
		filter.QualityBand = band
	}
	if strings.TrimSpace(spamRaw) != "" {
		band, err := domainmoderation.ParseBand(spamRaw)
		if err != nil {
			return moderation.QueueFilter{}, err
		}
		filter.SpamBand = band
	}
	return filter, nil
}
