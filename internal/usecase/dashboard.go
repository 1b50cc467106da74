package usecase

import (
	"context"
	"log"
	"sync"

	"github.com/naka-gawa/github-dashboard/internal/domain"
	"github.com/naka-gawa/github-dashboard/internal/gateway"
	"golang.org/x/sync/errgroup"
)

// Dashboard keeps the commit, pull request and comment accumulators for one
// viewer. The comment accumulator follows the pull request list: every time
// the pull requests change, comments are refetched for the new list.
type Dashboard struct {
	fetcher gateway.Fetcher
	logger  *log.Logger

	commits  *Accumulator
	pulls    *Accumulator
	comments *Accumulator

	// ctx and cfg of the last Load, read by the pull request observer.
	mu      sync.Mutex
	loadCtx context.Context
	cfg     domain.Config
}

// NewDashboard creates a Dashboard backed by fetcher.
func NewDashboard(fetcher gateway.Fetcher, logger *log.Logger, opts ...Option) *Dashboard {
	d := &Dashboard{
		fetcher: fetcher,
		logger:  logger,
	}
	base := append([]Option{WithLogger(logger)}, opts...)
	d.commits = NewAccumulator("commits", base...)
	d.comments = NewAccumulator("comments", base...)
	d.pulls = NewAccumulator("pull requests", append(base, WithObserver(d.pullsChanged))...)
	return d
}

// Load starts fetching for cfg. Accumulators whose inputs did not change keep
// their current cycle. Load must not be called concurrently with itself.
func (d *Dashboard) Load(ctx context.Context, cfg domain.Config) {
	d.logger.Printf("Usecase: loading dashboard for %s by %s (%s..%s)\n", cfg.Repo, cfg.Username, cfg.Since, cfg.Until)
	d.mu.Lock()
	d.loadCtx = ctx
	d.cfg = cfg
	d.mu.Unlock()

	d.commits.Start(ctx, EventPagination(cfg, d.fetcher.FetchCommits))
	d.pulls.Start(ctx, EventPagination(cfg, d.fetcher.FetchPullRequests))
}

func (d *Dashboard) pullsChanged(s domain.EventState) {
	numbers := make([]int, 0, len(s.Events))
	for _, pr := range s.Events {
		numbers = append(numbers, pr.Number)
	}
	d.mu.Lock()
	ctx, cfg := d.loadCtx, d.cfg
	d.mu.Unlock()
	if ctx == nil {
		return
	}
	d.comments.Start(ctx, CommentPagination(cfg, numbers, d.fetcher.FetchComments))
}

// Wait blocks until every accumulator has finished its current cycle.
func (d *Dashboard) Wait(ctx context.Context) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error { return d.commits.Wait(egCtx) })
	eg.Go(func() error {
		// The pull request cycle may restart comments until it is done.
		if err := d.pulls.Wait(egCtx); err != nil {
			return err
		}
		return d.comments.Wait(egCtx)
	})
	return eg.Wait()
}

// Stop cancels all in-flight cycles.
func (d *Dashboard) Stop() {
	d.commits.Stop()
	d.pulls.Stop()
	d.comments.Stop()
}

// Report snapshots the current state of the dashboard.
func (d *Dashboard) Report(cfg domain.Config) domain.Report {
	commits := d.commits.State()
	pulls := d.pulls.State()
	comments := d.comments.State()
	return domain.Report{
		Config:       cfg,
		Commits:      commits,
		PullRequests: pulls,
		Comments:     comments,
		Summaries: []domain.ActivitySummary{
			Summarize(domain.KindCommit, commits.Events, cfg.Since, cfg.Until),
			Summarize(domain.KindPullRequest, pulls.Events, cfg.Since, cfg.Until),
			Summarize(domain.KindComment, comments.Events, cfg.Since, cfg.Until),
		},
	}
}
