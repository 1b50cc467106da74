// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// EventKind identifies which GitHub resource an Event was built from.
type EventKind string

const (
	KindCommit      EventKind = "commit"
	KindPullRequest EventKind = "pull_request"
	KindComment     EventKind = "comment"
)

// Event is a single commit, pull request or pull request comment.
// ID is unique per kind and is the only field the accumulators rely on.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	Number    int       `json:"number,omitempty"`
	Author    string    `json:"author"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Title     string    `json:"title,omitempty"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventState is the state of one accumulator: the events gathered so far,
// whether a request is in flight, and the error that ended the cycle, if any.
type EventState struct {
	Events  []Event `json:"events"`
	Loading bool    `json:"loading"`
	Error   string  `json:"error"`
}

// Clone returns a copy whose Events slice does not alias the receiver's.
func (s EventState) Clone() EventState {
	events := make([]Event, len(s.Events))
	copy(events, s.Events)
	s.Events = events
	return s
}

// PageSize is the number of events the GitHub API returns per full page.
const PageSize = 30
