package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexanderramin/timetree/internal/httpapi"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func (app *App) httpHandler() http.Handler {
	h := &httpapi.Handler{
		Tasks:            app.Tasks,
		Contributions:    app.Contributions,
		Sums:             app.Sums,
		Planner:          app.Planner,
		Reports:          app.Reports,
		Durations:        app.Durations,
		Collaborators:    app.Collaborators,
		MaxReportColumns: app.Config.ReportMaxColumns,
	}
	return httpapi.NewRouter(h, app.Config.CORSOrigins)
}

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Config.HTTPAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cmd, addr, app.httpHandler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to http_addr from config)")

	return cmd
}

// serve runs the server until ctx is cancelled, then drains it.
func serve(ctx context.Context, cmd *cobra.Command, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving API on http://%s/api\n", addr)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Server stopped")
		return nil
	})
	return g.Wait()
}
