package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/effort/internal/httpapi"
)

func (a *App) router() http.Handler {
	return httpapi.NewRouter(httpapi.Services{
		Session:   a.Sessions,
		Edit:      a.Edits,
		Reconcile: a.Reconcile,
		History:   a.History,
		Backup:    a.Backups,
		Query:     a.Query,
	}, httpapi.Options{
		AllowedOrigins: a.Config.HTTP.AllowedOrigins,
		Logger:         a.Logger,
		Metrics:        a.Metrics,
	})
}

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API for the grid UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Config.HTTP.Addr
			}
			server := &http.Server{
				Addr:         addr,
				Handler:      app.router(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				app.Logger.Info("server_start", "addr", addr, "dataset", app.Dataset.Path(), "mode", string(app.Isolator.Mode()))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			app.Logger.Info("server_stop")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
