package campaign

import (
	"fmt"
	"sort"
)

// Options tunes a pipeline run.
type Options struct {
	// MinSessions excludes campaigns with fewer summed sessions. Zero disables it.
	MinSessions int64
	// LeaderboardSize caps every leaderboard. Zero means DefaultLeaderboardSize.
	LeaderboardSize int
}

// DefaultOptions keeps every campaign and uses ten-entry leaderboards.
func DefaultOptions() Options {
	return Options{LeaderboardSize: DefaultLeaderboardSize}
}

func (o Options) normalized() (Options, error) {
	if o.MinSessions < 0 {
		return o, fmt.Errorf("%w: min sessions must not be negative, got %d", ErrInvalidOptions, o.MinSessions)
	}
	if o.LeaderboardSize < 0 {
		return o, fmt.Errorf("%w: leaderboard size must not be negative, got %d", ErrInvalidOptions, o.LeaderboardSize)
	}
	if o.LeaderboardSize == 0 {
		o.LeaderboardSize = DefaultLeaderboardSize
	}
	return o, nil
}

// Aggregate runs the whole pipeline over decoded rows.
func Aggregate(rows []SessionRow, opts Options) (Report, error) {
	kept, dropped := FilterRows(rows)
	totals, err := GroupRows(kept)
	if err != nil {
		return Report{}, err
	}
	report, err := Summarize(totals, opts)
	if err != nil {
		return Report{}, err
	}
	report.Stats.RowsRead = len(rows)
	report.Stats.RowsDropped = dropped
	return report, nil
}

// Summarize derives, rounds, filters and ranks already grouped totals.
func Summarize(totals []CampaignTotals, opts Options) (Report, error) {
	opts, err := opts.normalized()
	if err != nil {
		return Report{}, err
	}

	ordered := make([]CampaignTotals, len(totals))
	copy(ordered, totals)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Campaign < ordered[j].Campaign
	})

	aggs := make([]CampaignAggregate, 0, len(ordered))
	for _, t := range ordered {
		aggs = append(aggs, Derive(t).Rounded())
	}

	kept, excluded := FilterMinSessions(aggs, opts.MinSessions)

	return Report{
		Summary:      SortBy(kept, MetricConversionRate),
		Leaderboards: BuildLeaderboards(kept, opts.LeaderboardSize),
		Stats: RunStats{
			Campaigns:         len(kept),
			CampaignsExcluded: excluded,
			MinSessions:       opts.MinSessions,
			LeaderboardSize:   opts.LeaderboardSize,
		},
	}, nil
}
