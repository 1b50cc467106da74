package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/jonboulle/clockwork"
	"github.com/naka-gawa/github-dashboard/internal/config"
	"github.com/naka-gawa/github-dashboard/internal/gateway"
	"github.com/naka-gawa/github-dashboard/internal/usecase"
	"github.com/spf13/cobra"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Fetches repository activity for a user and outputs it as JSON",
	Long: `Fetches commits, pull requests and pull request comments for a user in a
repository and prints them, with daily statistics, as JSON.

Parameters can be given as flags or as a dashboard query string:
  github-dashboard activity --query "repo=octo/hello&username=octocat&since=2026-10-01"
Explicit flags take precedence over --query.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		logger := newLogger(cmd)

		rawQuery, _ := cmd.Flags().GetString("query")
		query, err := config.ParseQuery(rawQuery)
		if err != nil {
			return fmt.Errorf("invalid --query: %w", err)
		}
		src := config.Sources{config.FlagSource{Flags: cmd.Flags(), Names: paramFlags}, query}
		cfg := config.Resolve(src, clockwork.NewRealClock())

		githubGateway, err := gateway.NewGitHubGateway(os.Getenv("GITHUB_TOKEN"), logger)
		if err != nil {
			return fmt.Errorf("failed to create GitHub gateway: %w", err)
		}
		maxPages, _ := cmd.Flags().GetInt("max-pages")
		dashboard := usecase.NewDashboard(githubGateway, logger, usecase.WithMaxPages(maxPages))

		dashboard.Load(ctx, cfg)
		if err := dashboard.Wait(ctx); err != nil {
			dashboard.Stop()
			return fmt.Errorf("failed to load activity: %w", err)
		}

		// Marshal the report into a pretty-printed JSON string.
		jsonData, err := json.MarshalIndent(dashboard.Report(cfg), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report to JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
		return nil
	},
}

// paramFlags maps dashboard parameters to flag names where they differ.
var paramFlags = map[string]string{
	config.ParamShowAvatarsAsPoints: "show-avatars-as-points",
}

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.Flags().StringP("repo", "r", "", "Target repository as owner/name")
	activityCmd.Flags().StringP("username", "u", "", "Target GitHub user name")
	activityCmd.Flags().String("since", "", "Start date (YYYY-MM-DD, default 14 days ago)")
	activityCmd.Flags().String("until", "", "End date (YYYY-MM-DD, default today)")
	activityCmd.Flags().Bool("show-avatars-as-points", false, "Render avatars instead of points in the dashboard")
	activityCmd.Flags().String("query", "", "Dashboard query string, e.g. repo=owner/name&username=user")
	activityCmd.Flags().Int("max-pages", usecase.DefaultMaxPages, "Maximum pages fetched per event type")
}
