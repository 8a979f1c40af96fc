package cmd

import (
	"bufio"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"modqueue/internal/bootstrap"
	"modqueue/internal/bootstrap/logging"
	domainmoderation "modqueue/internal/domain/moderation"
	"modqueue/internal/errs"
	"modqueue/internal/usecase/moderation"
)

var bulkCmd = &cobra.Command{
	Use:   "bulk",
	Short: "Apply one action to many records and report each outcome",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *moderation.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		actionRaw, _ := cmd.Flags().GetString("action")
		ids, _ := cmd.Flags().GetStringSlice("id")
		idsFile, _ := cmd.Flags().GetString("ids-file")
		actor, _ := cmd.Flags().GetString("actor")
		reason, _ := cmd.Flags().GetString("reason")
		quick, _ := cmd.Flags().GetBool("quick")

		action, err := domainmoderation.ParseAction(actionRaw)
		if err != nil {
			return err
		}
		if strings.TrimSpace(idsFile) != "" {
			fromFile, err := readIDsFile(idsFile)
			if err != nil {
				return err
			}
			ids = append(ids, fromFile...)
		}

		result, err := svc.ApplyBulk(ctx, moderation.BulkInput{
			RecordIDs: ids,
			Action:    action,
			ActorID:   actor,
			Reason:    reason,
			Quick:     quick,
		})
		if err != nil {
			logging.Error(ctx, "bulk action failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "apply bulk action")
		}
		if err := writeBulkResult(cmd.OutOrStdout(), result); err != nil {
			return errs.Wrap(err, "write bulk output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(bulkCmd)

	bulkCmd.Flags().String("action", "", "Action: approve, reject or appeal")
	bulkCmd.Flags().StringSlice("id", nil, "Record id (repeatable or comma separated)")
	bulkCmd.Flags().String("ids-file", "", "File with one record id per line")
	bulkCmd.Flags().String("actor", "", "Moderator id")
	bulkCmd.Flags().String("reason", "", "Reason recorded for every record")
	bulkCmd.Flags().Bool("quick", false, "Use the policy quick reason when --reason is empty")
	_ = bulkCmd.MarkFlagRequired("action")
	_ = bulkCmd.MarkFlagRequired("actor")
}

func readIDsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrapf(err, "open ids file %q", path)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrapf(err, "read ids file %q", path)
	}
	return ids, nil
}
