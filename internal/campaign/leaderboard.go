package campaign

// DefaultLeaderboardSize is the number of campaigns shown per leaderboard.
const DefaultLeaderboardSize = 10

// Metric names a sortable column of the summary table.
type Metric string

const (
	MetricConversions         Metric = "conversions"
	MetricAddToCart           Metric = "add_to_cart"
	MetricReachedCheckout     Metric = "reached_checkout"
	MetricConversionRate      Metric = "conversion_rate"
	MetricAddToCartRate       Metric = "add_to_cart_rate"
	MetricReachedCheckoutRate Metric = "reached_checkout_rate"
	MetricTimeOnSite          Metric = "time_on_site"
)

// LeaderboardMetrics lists the leaderboards of a report in display order.
var LeaderboardMetrics = []Metric{
	MetricConversions,
	MetricAddToCart,
	MetricReachedCheckout,
	MetricConversionRate,
	MetricAddToCartRate,
	MetricReachedCheckoutRate,
	MetricTimeOnSite,
}

var metricLabels = map[Metric]string{
	MetricConversions:         "Conversions",
	MetricAddToCart:           "Add to Carts",
	MetricReachedCheckout:     "Reached Checkout",
	MetricConversionRate:      "Conversion Rate (%)",
	MetricAddToCartRate:       "Add to Cart Rate (%)",
	MetricReachedCheckoutRate: "Reached Checkout Rate (%)",
	MetricTimeOnSite:          "Avg. Session Duration (s)",
}

// Label is the human-readable column title.
func (m Metric) Label() string {
	if l, ok := metricLabels[m]; ok {
		return l
	}
	return string(m)
}

// IsCount reports whether the metric is an integer sum rather than a rate or mean.
func (m Metric) IsCount() bool {
	return m == MetricConversions || m == MetricAddToCart || m == MetricReachedCheckout
}

// Value reads the metric column from an aggregate row.
func (a CampaignAggregate) Value(m Metric) float64 {
	switch m {
	case MetricConversions:
		return float64(a.Conversions)
	case MetricAddToCart:
		return float64(a.AddToCart)
	case MetricReachedCheckout:
		return float64(a.ReachedCheckout)
	case MetricConversionRate:
		return a.ConversionRate
	case MetricAddToCartRate:
		return a.AddToCartRate
	case MetricReachedCheckoutRate:
		return a.ReachedCheckoutRate
	case MetricTimeOnSite:
		return a.TimeOnSite
	default:
		return 0
	}
}

// BuildLeaderboards ranks aggs by every leaderboard metric and keeps the top
// size entries of each.
func BuildLeaderboards(aggs []CampaignAggregate, size int) []Leaderboard {
	boards := make([]Leaderboard, 0, len(LeaderboardMetrics))
	for _, m := range LeaderboardMetrics {
		boards = append(boards, buildLeaderboard(aggs, m, size))
	}
	return boards
}

func buildLeaderboard(aggs []CampaignAggregate, m Metric, size int) Leaderboard {
	ranked := SortBy(aggs, m)
	if len(ranked) > size {
		ranked = ranked[:size]
	}

	entries := make([]LeaderboardEntry, 0, len(ranked))
	for i, a := range ranked {
		entries = append(entries, LeaderboardEntry{
			Rank:     i + 1,
			Campaign: a.Campaign,
			Sessions: a.Sessions,
			Value:    a.Value(m),
		})
	}

	return Leaderboard{
		Metric:  m,
		Label:   m.Label(),
		Entries: entries,
	}
}
