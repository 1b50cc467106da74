package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/naka-gawa/github-dashboard/internal/gateway"
	"github.com/naka-gawa/github-dashboard/internal/server"
	"github.com/naka-gawa/github-dashboard/internal/usecase"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the dashboard JSON API over HTTP",
	Long: `Starts an HTTP server for the browser dashboard. The dashboard query string
is passed through unchanged:
  GET /api/config?repo=owner/name&username=user
  GET /api/activity?repo=owner/name&username=user&since=2026-10-01&until=2026-10-14`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		logger := newLogger(cmd)

		addr, _ := cmd.Flags().GetString("addr")
		origins, _ := cmd.Flags().GetStringSlice("allowed-origin")
		maxPages, _ := cmd.Flags().GetInt("max-pages")

		githubGateway, err := gateway.NewGitHubGateway(os.Getenv("GITHUB_TOKEN"), logger)
		if err != nil {
			return fmt.Errorf("failed to create GitHub gateway: %w", err)
		}
		srv := server.New(githubGateway, clockwork.NewRealClock(), logger, server.Options{
			AllowedOrigins: origins,
			MaxPages:       maxPages,
		})
		httpServer := &http.Server{
			Addr:              addr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Printf("Listening on %s\n", addr)
			errCh <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("failed to serve: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().StringSlice("allowed-origin", nil, "Origin allowed to call the API (repeatable, default any)")
	serveCmd.Flags().Int("max-pages", usecase.DefaultMaxPages, "Maximum pages fetched per event type")
}
