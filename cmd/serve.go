package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"modqueue/internal/bootstrap"
	"modqueue/internal/bootstrap/logging"
	"modqueue/internal/errs"
	"modqueue/internal/usecase/moderation"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the moderation HTTP API, live event stream and metrics",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *moderation.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		addr, _ := cmd.Flags().GetString("addr")
		addr = strings.TrimSpace(addr)
		if addr == "" {
			addr = app.Config.HTTP.Addr
		}

		routes := apiRoutes{Metrics: promhttp.Handler()}
		if app.Hub != nil {
			routes.Stream = app.Hub
		}
		server := &http.Server{
			Addr:              addr,
			Handler:           newModerationHandler(svc, routes),
			ReadHeaderTimeout: 10 * time.Second,
			// Requests keep the command's log attrs but outlive the signal so Shutdown can drain them.
			BaseContext: func(_ net.Listener) context.Context {
				return context.WithoutCancel(ctx)
			},
		}

		serveErr := make(chan error, 1)
		go func() {
			serveErr <- server.ListenAndServe()
		}()
		logging.Info(ctx, "moderation api started", slog.String("addr", addr))

		select {
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error(ctx, "moderation api failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "serve moderation api")
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Error(ctx, "moderation api shutdown failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "shutdown moderation api")
		}
		logging.Info(ctx, "moderation api stopped")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: http.addr from config)")
}
