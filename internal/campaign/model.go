// Package campaign turns Shopify session exports into per-campaign performance
// tables: grouped funnel counts, conversion rates and top-N leaderboards.
//
// Every function in this package is pure. A report is recomputed from its input
// on every call and nothing is retained between calls.
package campaign

// SessionRow is one decoded line of a sessions export.
type SessionRow struct {
	Campaign        string
	Sessions        int64
	Conversions     int64
	AddToCart       int64
	ReachedCheckout int64
	TimeOnSite      float64
	// DurationMissing marks a blank duration cell; such rows do not take part
	// in the time-on-site mean.
	DurationMissing bool
}

// CampaignTotals holds the grouped sums for one campaign before any rate is derived.
type CampaignTotals struct {
	Campaign        string
	Sessions        int64
	Conversions     int64
	AddToCart       int64
	ReachedCheckout int64
	DurationSum     float64
	DurationCount   int64
}

// CampaignAggregate is one row of the summary table.
type CampaignAggregate struct {
	Campaign            string  `json:"campaign"`
	Sessions            int64   `json:"sessions"`
	Conversions         int64   `json:"conversions"`
	AddToCart           int64   `json:"add_to_cart"`
	ReachedCheckout     int64   `json:"reached_checkout"`
	TimeOnSite          float64 `json:"time_on_site"`
	ConversionRate      float64 `json:"conversion_rate"`
	AddToCartRate       float64 `json:"add_to_cart_rate"`
	ReachedCheckoutRate float64 `json:"reached_checkout_rate"`
}

// Leaderboard ranks campaigns by a single metric.
type Leaderboard struct {
	Metric  Metric             `json:"metric"`
	Label   string             `json:"label"`
	Entries []LeaderboardEntry `json:"entries"`
}

type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	Campaign string  `json:"campaign"`
	Sessions int64   `json:"sessions"`
	Value    float64 `json:"value"`
}

// RunStats describes how the input was reduced into the report.
type RunStats struct {
	RowsRead          int   `json:"rows_read"`
	RowsDropped       int   `json:"rows_dropped"`
	Campaigns         int   `json:"campaigns"`
	CampaignsExcluded int   `json:"campaigns_excluded"`
	MinSessions       int64 `json:"min_sessions"`
	LeaderboardSize   int   `json:"leaderboard_size"`
}

// Report is the complete output of one pipeline run.
type Report struct {
	Summary      []CampaignAggregate `json:"summary"`
	Leaderboards []Leaderboard       `json:"leaderboards"`
	Stats        RunStats            `json:"stats"`
}

// Empty reports whether no campaign survived filtering.
func (r Report) Empty() bool {
	return len(r.Summary) == 0
}

// Dataset is the decoded content of an export.
type Dataset struct {
	Rows        []SessionRow
	RowsRead    int
	RowsDropped int
}
