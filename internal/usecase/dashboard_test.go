package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/naka-gawa/github-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pullRequests(numbers ...int) []domain.Event {
	events := make([]domain.Event, len(numbers))
	for i, n := range numbers {
		events[i] = domain.Event{ID: fmt.Sprintf("pr-%d", n), Kind: domain.KindPullRequest, Number: n}
	}
	return events
}

func TestDashboard_Load(t *testing.T) {
	testCases := []struct {
		name             string
		cfg              domain.Config
		setup            func(f *mockFetcher)
		expectedCommits  int
		expectedPulls    int
		expectedComments int
		expectedErrors   [3]string
	}{
		{
			name: "happy path - comments follow the pull request list",
			cfg:  testConfig,
			setup: func(f *mockFetcher) {
				f.On("FetchCommits", mock.Anything, "octo/hello", "octocat", 1, "2026-10-01", "2026-10-14").Return(makeEvents("c", 4), nil)
				f.On("FetchPullRequests", mock.Anything, "octo/hello", "octocat", 1, "2026-10-01", "2026-10-14").Return(pullRequests(7, 9), nil)
				f.On("FetchComments", mock.Anything, "octo/hello", "octocat", "2026-10-01", "2026-10-14", 7).Return(makeEvents("x", 2), nil)
				f.On("FetchComments", mock.Anything, "octo/hello", "octocat", "2026-10-01", "2026-10-14", 9).Return(makeEvents("y", 1), nil)
			},
			expectedCommits:  4,
			expectedPulls:    2,
			expectedComments: 3,
		},
		{
			name:           "missing params - nothing is fetched",
			cfg:            domain.Config{Since: "2026-10-01", Until: "2026-10-14"},
			setup:          func(f *mockFetcher) {},
			expectedErrors: [3]string{MissingParamsMessage, MissingParamsMessage, ""},
		},
		{
			name: "errors stay local to one accumulator",
			cfg:  testConfig,
			setup: func(f *mockFetcher) {
				f.On("FetchCommits", mock.Anything, mock.Anything, mock.Anything, 1, mock.Anything, mock.Anything).Return(nil, errors.New("commits down"))
				f.On("FetchPullRequests", mock.Anything, mock.Anything, mock.Anything, 1, mock.Anything, mock.Anything).Return(pullRequests(7), nil)
				f.On("FetchComments", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, 7).Return(nil, errors.New("comments down"))
			},
			expectedPulls:  1,
			expectedErrors: [3]string{"commits down", "", "comments down"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			fetcher := new(mockFetcher)
			tc.setup(fetcher)

			dashboard := NewDashboard(fetcher, log.New(io.Discard, "", 0))
			dashboard.Load(ctx, tc.cfg)
			require.NoError(t, dashboard.Wait(ctx))

			report := dashboard.Report(tc.cfg)
			assert.Equal(t, tc.cfg, report.Config)
			assert.Len(t, report.Commits.Events, tc.expectedCommits)
			assert.Len(t, report.PullRequests.Events, tc.expectedPulls)
			assert.Len(t, report.Comments.Events, tc.expectedComments)
			assert.Equal(t, tc.expectedErrors, [3]string{report.Commits.Error, report.PullRequests.Error, report.Comments.Error})
			assert.False(t, report.Commits.Loading || report.PullRequests.Loading || report.Comments.Loading)
			require.Len(t, report.Summaries, 3)
			assert.Equal(t, domain.KindComment, report.Summaries[2].Kind)
			fetcher.AssertExpectations(t)
		})
	}
}

func TestDashboard_CommentsCoverEveryPullRequestPage(t *testing.T) {
	ctx := context.Background()
	firstPage := make([]int, 30)
	for i := range firstPage {
		firstPage[i] = i + 1
	}

	fetcher := new(mockFetcher)
	fetcher.On("FetchCommits", mock.Anything, mock.Anything, mock.Anything, 1, mock.Anything, mock.Anything).Return([]domain.Event{}, nil)
	fetcher.On("FetchPullRequests", mock.Anything, mock.Anything, mock.Anything, 1, mock.Anything, mock.Anything).Return(pullRequests(firstPage...), nil)
	fetcher.On("FetchPullRequests", mock.Anything, mock.Anything, mock.Anything, 2, mock.Anything, mock.Anything).Return([]domain.Event{{ID: "last", Number: 31}}, nil)
	fetcher.On("FetchComments", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(makeEvents("x", 1), nil)

	dashboard := NewDashboard(fetcher, log.New(io.Discard, "", 0))
	dashboard.Load(ctx, testConfig)
	require.NoError(t, dashboard.Wait(ctx))

	report := dashboard.Report(testConfig)
	assert.Len(t, report.PullRequests.Events, 31)
	// Only the final list of 31 pull requests is reflected, once each.
	assert.Len(t, report.Comments.Events, 31)
	assert.Empty(t, report.Comments.Error)
}
