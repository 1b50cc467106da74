package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/naka-gawa/github-dashboard/internal/domain"
)

// FullPageSize is the GitHub page size the dashboard requests. A page of
// exactly this many events means there may be more.
const FullPageSize = domain.PageSize

// MissingParamsMessage is reported when repo or username is not configured.
const MissingParamsMessage = "Missing `repo` and/or `username` param. Please select them in the header dropdown"

// ErrMissingParams is returned by EventPagination's validation.
var ErrMissingParams = errors.New(MissingParamsMessage)

// PageFetcher fetches one numbered page of commits or pull requests.
type PageFetcher func(ctx context.Context, repo, username string, page int, since, until string) ([]domain.Event, error)

// CommentFetcher fetches the comments of one pull request.
type CommentFetcher func(ctx context.Context, repo, username, since, until string, pr int) ([]domain.Event, error)

// MergeFunc merges a freshly fetched page into the accumulated events.
// It returns the new sequence and how many events of page were kept.
type MergeFunc func(acc, page []domain.Event) ([]domain.Event, int)

// Pagination describes one sequential paginated fetch.
type Pagination struct {
	// Key identifies the inputs. Restarting with an equal key is a no-op.
	Key any
	// First is the index of the first fetch.
	First int
	// Validate, when set, runs before anything is fetched.
	Validate func() error
	// Pending reports whether there is something to fetch at index.
	Pending func(index int) bool
	Fetch   func(ctx context.Context, index int) ([]domain.Event, error)
	// Continue reports whether the page just merged calls for the next index.
	Continue func(page []domain.Event) bool
	Merge    MergeFunc
	// Bounded marks a pagination whose Pending walks a finite list. The
	// accumulator's page cap does not apply to it.
	Bounded bool
}

// DedupeByID appends the events of page whose ID is not in acc yet.
// The first instance of an ID wins, including within page itself.
func DedupeByID(acc, page []domain.Event) ([]domain.Event, int) {
	seen := make(map[string]struct{}, len(acc)+len(page))
	for _, e := range acc {
		seen[e.ID] = struct{}{}
	}
	merged := append(make([]domain.Event, 0, len(acc)+len(page)), acc...)
	added := 0
	for _, e := range page {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		merged = append(merged, e)
		added++
	}
	return merged, added
}

// AppendAll appends every event of page.
func AppendAll(acc, page []domain.Event) ([]domain.Event, int) {
	merged := append(make([]domain.Event, 0, len(acc)+len(page)), acc...)
	return append(merged, page...), len(page)
}

// EventPagination pages through commits or pull requests: page numbers start
// at 1, a full page asks for the next one, and events are deduplicated by ID.
func EventPagination(cfg domain.Config, fetch PageFetcher) Pagination {
	return Pagination{
		Key:   cfg.Key(),
		First: 1,
		Validate: func() error {
			if cfg.Repo == "" || cfg.Username == "" {
				return ErrMissingParams
			}
			return nil
		},
		Pending: func(int) bool { return true },
		Fetch: func(ctx context.Context, page int) ([]domain.Event, error) {
			return fetch(ctx, cfg.Repo, cfg.Username, page, cfg.Since, cfg.Until)
		},
		Continue: func(page []domain.Event) bool { return len(page) == FullPageSize },
		Merge:    DedupeByID,
	}
}

// commentKey identifies a comment fetch cycle. The parent list is folded into
// a string so the key stays comparable.
type commentKey struct {
	domain.ConfigKey
	Parents string
}

// CommentPagination walks parents in order, fetching the comments of each
// pull request and appending them all.
func CommentPagination(cfg domain.Config, parents []int, fetch CommentFetcher) Pagination {
	prs := append([]int(nil), parents...)
	return Pagination{
		Key:     commentKey{ConfigKey: cfg.Key(), Parents: fmt.Sprint(prs)},
		First:   0,
		Pending: func(index int) bool { return index < len(prs) },
		Fetch: func(ctx context.Context, index int) ([]domain.Event, error) {
			return fetch(ctx, cfg.Repo, cfg.Username, cfg.Since, cfg.Until, prs[index])
		},
		Continue: func([]domain.Event) bool { return true },
		Merge:    AppendAll,
		Bounded:  true,
	}
}
