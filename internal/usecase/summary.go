package usecase

import (
	"time"

	"github.com/montanaflynn/stats"
	"github.com/naka-gawa/github-dashboard/internal/domain"
)

// MaxSummaryDays is the longest range Summarize breaks down per day.
const MaxSummaryDays = 366

// Summarize computes daily activity statistics for events between since and
// until (inclusive, YYYY-MM-DD). Days without events count as zero. When the
// range cannot be parsed, is inverted or spans more than MaxSummaryDays only
// Total and Authors are filled.
func Summarize(kind domain.EventKind, events []domain.Event, since, until string) domain.ActivitySummary {
	summary := domain.ActivitySummary{Kind: kind, Total: len(events)}

	authors := make(map[string]struct{})
	for _, e := range events {
		if e.Author != "" {
			authors[e.Author] = struct{}{}
		}
	}
	summary.Authors = len(authors)

	from, err := time.Parse(domain.DateLayout, since)
	if err != nil {
		return summary
	}
	to, err := time.Parse(domain.DateLayout, until)
	if err != nil || to.Before(from) {
		return summary
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > MaxSummaryDays {
		return summary
	}

	perDay := make(map[string]int)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		perDay[day.Format(domain.DateLayout)] = 0
	}
	for _, e := range events {
		key := e.CreatedAt.UTC().Format(domain.DateLayout)
		if _, ok := perDay[key]; ok {
			perDay[key]++
		}
	}

	counts := make(stats.Float64Data, 0, len(perDay))
	for _, n := range perDay {
		counts = append(counts, float64(n))
	}
	summary.Days = len(counts)
	summary.PerDay = perDay
	// counts is never empty here, so the stats calls cannot fail.
	summary.MeanPerDay, _ = stats.Mean(counts)
	summary.MedianPerDay, _ = stats.Median(counts)
	summary.MaxPerDay, _ = stats.Max(counts)
	return summary
}
