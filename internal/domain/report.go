package domain

// ActivitySummary holds descriptive statistics of one kind of event over a date range.
type ActivitySummary struct {
	Kind         EventKind      `json:"kind"`
	Total        int            `json:"total"`
	Authors      int            `json:"authors"`
	Days         int            `json:"days"`
	MeanPerDay   float64        `json:"mean_per_day"`
	MedianPerDay float64        `json:"median_per_day"`
	MaxPerDay    float64        `json:"max_per_day"`
	PerDay       map[string]int `json:"per_day,omitempty"`
}

// Report is everything the dashboard renders for one Config.
type Report struct {
	Config       Config            `json:"config"`
	Commits      EventState        `json:"commits"`
	PullRequests EventState        `json:"pull_requests"`
	Comments     EventState        `json:"comments"`
	Summaries    []ActivitySummary `json:"summaries"`
}
