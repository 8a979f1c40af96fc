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

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Replace a record's quality and spam scores",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *moderation.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		recordID, _ := cmd.Flags().GetString("id")
		quality, _ := cmd.Flags().GetInt("quality")
		spam, _ := cmd.Flags().GetInt("spam")

		record, err := svc.Rescore(ctx, moderation.RescoreInput{
			RecordID:     recordID,
			QualityScore: quality,
			SpamScore:    spam,
		})
		if err != nil {
			logging.Error(ctx, "rescore record failed", slog.String("record_id", recordID), slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "rescore record")
		}

		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"%s: quality=%d (%s) spam=%d (%s)\n",
			record.ID,
			record.QualityScore,
			renderQualityBand(domainmoderation.QualityBand(record.QualityScore)),
			record.SpamScore,
			renderSpamBand(domainmoderation.SpamBand(record.SpamScore)),
		); err != nil {
			return errs.Wrap(err, "write rescore output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(rescoreCmd)

	rescoreCmd.Flags().String("id", "", "Record id")
	rescoreCmd.Flags().Int("quality", 0, "Quality score 0-100")
	rescoreCmd.Flags().Int("spam", 0, "Spam score 0-100")
	_ = rescoreCmd.MarkFlagRequired("id")
	_ = rescoreCmd.MarkFlagRequired("quality")
	_ = rescoreCmd.MarkFlagRequired("spam")
}
