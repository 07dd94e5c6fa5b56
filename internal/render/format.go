// Package render formats campaign reports for people: terminal tables for the
// CLI and the value formatting shared with the HTML templates.
package render

import (
	"strconv"

	"github.com/godilite/campaign-analyzer/internal/campaign"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// SummaryHeaders are the column titles of the summary table, in display order.
var SummaryHeaders = []string{
	"Campaign",
	"Sessions",
	"Conversions",
	"Add to Carts",
	"Reached Checkout",
	"Avg. Session Duration (s)",
	"Conversion Rate (%)",
	"Add to Cart Rate (%)",
	"Reached Checkout Rate (%)",
}

// SummaryRow formats one aggregate in SummaryHeaders order.
func SummaryRow(a campaign.CampaignAggregate) []string {
	return []string{
		a.Campaign,
		FormatCount(a.Sessions),
		FormatCount(a.Conversions),
		FormatCount(a.AddToCart),
		FormatCount(a.ReachedCheckout),
		FormatDecimal(a.TimeOnSite),
		FormatDecimal(a.ConversionRate),
		FormatDecimal(a.AddToCartRate),
		FormatDecimal(a.ReachedCheckoutRate),
	}
}

// FormatCount writes n with English thousands separators.
func FormatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatDecimal prints an already rounded value with exactly two decimals.
func FormatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FormatValue formats a leaderboard value: counts without decimals, rates and
// durations with two.
func FormatValue(m campaign.Metric, v float64) string {
	if m.IsCount() {
		return FormatCount(int64(v))
	}
	return FormatDecimal(v)
}
