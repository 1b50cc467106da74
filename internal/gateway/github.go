// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/github-dashboard/internal/domain"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
)

// Fetcher defines the behavior of a gateway for fetching dashboard events from GitHub.
type Fetcher interface {
	FetchCommits(ctx context.Context, repo, username string, page int, since, until string) ([]domain.Event, error)
	FetchPullRequests(ctx context.Context, repo, username string, page int, since, until string) ([]domain.Event, error)
	// FetchComments returns the comments of pull request pr created within the date range.
	FetchComments(ctx context.Context, repo, username, since, until string, pr int) ([]domain.Event, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
}

// pullRequestCommentsQuery fetches the conversation comments of a single pull request.
type pullRequestCommentsQuery struct {
	Repository struct {
		PullRequest struct {
			Comments struct {
				PageInfo struct {
					HasNextPage bool
					EndCursor   githubv4.String
				}
				Nodes []struct {
					DatabaseID int `graphql:"databaseId"`
					Author     struct {
						Login     string
						AvatarURL string `graphql:"avatarUrl"`
					}
					BodyText  string
					URL       string `graphql:"url"`
					CreatedAt githubv4.DateTime
				}
			} `graphql:"comments(first: 100, after: $cursor)"`
		} `graphql:"pullRequest(number: $number)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// An empty token sends unauthenticated requests.
func NewGitHubGateway(token string, logger *log.Logger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	var transport http.RoundTripper = rateLimitWaiter
	if token != "" {
		transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		}
	}
	httpClient := &http.Client{Transport: transport}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

func (g *GitHubGateway) FetchCommits(ctx context.Context, repo, username string, page int, since, until string) ([]domain.Event, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}
	from, to, err := parseDateRange(since, until)
	if err != nil {
		return nil, err
	}
	g.logger.Printf("Fetching commits page %d for %s...\n", page, repo)
	opts := &github.CommitsListOptions{
		Author:      username,
		Since:       from,
		Until:       to,
		ListOptions: github.ListOptions{Page: page, PerPage: domain.PageSize},
	}
	commits, _, err := g.restClient.Repositories.ListCommits(ctx, owner, name, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits with REST API: %w", err)
	}
	events := make([]domain.Event, 0, len(commits))
	for _, c := range commits {
		event := domain.Event{
			ID:        c.GetSHA(),
			Kind:      domain.KindCommit,
			Author:    c.GetAuthor().GetLogin(),
			AvatarURL: c.GetAuthor().GetAvatarURL(),
			Title:     firstLine(c.GetCommit().GetMessage()),
			URL:       c.GetHTMLURL(),
			CreatedAt: c.GetCommit().GetAuthor().GetDate().Time,
		}
		if event.Author == "" {
			event.Author = c.GetCommit().GetAuthor().GetName()
		}
		events = append(events, event)
	}
	return events, nil
}

func (g *GitHubGateway) FetchPullRequests(ctx context.Context, repo, username string, page int, since, until string) ([]domain.Event, error) {
	if _, _, err := splitRepo(repo); err != nil {
		return nil, err
	}
	if _, _, err := parseDateRange(since, until); err != nil {
		return nil, err
	}
	g.logger.Printf("Fetching pull requests page %d for %s...\n", page, repo)
	// Note: search matches "created" against whole days, so the raw dates are used.
	query := fmt.Sprintf("repo:%s author:%s is:pr created:%s..%s", repo, username, since, until)
	opts := &github.SearchOptions{ListOptions: github.ListOptions{Page: page, PerPage: domain.PageSize}}
	result, _, err := g.restClient.Search.Issues(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search pull requests with REST API: %w", err)
	}
	events := make([]domain.Event, 0, len(result.Issues))
	for _, issue := range result.Issues {
		events = append(events, domain.Event{
			ID:        strconv.FormatInt(issue.GetID(), 10),
			Kind:      domain.KindPullRequest,
			Number:    issue.GetNumber(),
			Author:    issue.GetUser().GetLogin(),
			AvatarURL: issue.GetUser().GetAvatarURL(),
			Title:     issue.GetTitle(),
			URL:       issue.GetHTMLURL(),
			CreatedAt: issue.GetCreatedAt().Time,
		})
	}
	return events, nil
}

func (g *GitHubGateway) FetchComments(ctx context.Context, repo, username, since, until string, pr int) ([]domain.Event, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}
	from, to, err := parseDateRange(since, until)
	if err != nil {
		return nil, err
	}
	g.logger.Printf("Fetching comments of %s#%d...\n", repo, pr)
	// Note: username only scopes the pull requests; comments from every author are kept.
	variables := map[string]interface{}{
		"owner":  githubv4.String(owner),
		"name":   githubv4.String(name),
		"number": githubv4.Int(pr),
		"cursor": (*githubv4.String)(nil),
	}
	events := make([]domain.Event, 0)
	for {
		var q pullRequestCommentsQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to execute GraphQL query for comments: %w", err)
		}
		comments := q.Repository.PullRequest.Comments
		for _, node := range comments.Nodes {
			created := node.CreatedAt.Time
			if created.Before(from) || created.After(to) {
				continue
			}
			events = append(events, domain.Event{
				ID:        strconv.Itoa(node.DatabaseID),
				Kind:      domain.KindComment,
				Number:    pr,
				Author:    node.Author.Login,
				AvatarURL: node.Author.AvatarURL,
				Title:     firstLine(node.BodyText),
				URL:       node.URL,
				CreatedAt: created,
			})
		}
		if !comments.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(comments.PageInfo.EndCursor)
		g.logger.Printf("  Fetching next page of comments of %s#%d...\n", repo, pr)
	}
	return events, nil
}

// splitRepo splits "owner/name" into its parts.
func splitRepo(repo string) (string, string, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/name", repo)
	}
	return owner, name, nil
}

// parseDateRange parses YYYY-MM-DD dates. The end of the range is the last second of until.
func parseDateRange(since, until string) (time.Time, time.Time, error) {
	from, err := time.Parse(domain.DateLayout, since)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid since date %q: %w", since, err)
	}
	to, err := time.Parse(domain.DateLayout, until)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid until date %q: %w", until, err)
	}
	return from, to.Add(24*time.Hour - time.Second), nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
