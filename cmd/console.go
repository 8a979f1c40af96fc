package cmd

import (
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"modqueue/internal/bootstrap"
	"modqueue/internal/bootstrap/logging"
	domainmoderation "modqueue/internal/domain/moderation"
	"modqueue/internal/errs"
	"modqueue/internal/usecase/moderation"
	"modqueue/internal/usecase/queueconsole"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive terminal console for working the moderation queue",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *moderation.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		actor, _ := cmd.Flags().GetString("actor")
		kindRaw, _ := cmd.Flags().GetString("kind")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")

		var kind domainmoderation.Kind
		if strings.TrimSpace(kindRaw) != "" {
			parsed, err := domainmoderation.ParseKind(kindRaw)
			if err != nil {
				return err
			}
			kind = parsed
		}

		model := queueconsole.NewQueueModel(ctx, svc, queueconsole.Options{
			Actor:           actor,
			Kind:            kind,
			RefreshInterval: refreshInterval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run queue console")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().String("actor", "", "Moderator id used for approve/reject from the console")
	consoleCmd.Flags().String("kind", "", "Only show one kind: post, comment or user")
	consoleCmd.Flags().Duration("refresh-interval", 5*time.Second, "Auto refresh interval")
}
