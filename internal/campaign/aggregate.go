package campaign

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// FilterRows trims campaign labels and removes rows whose label is blank.
func FilterRows(rows []SessionRow) ([]SessionRow, int) {
	out := make([]SessionRow, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		if isMissing(r.Campaign) {
			dropped++
			continue
		}
		r.Campaign = strings.TrimSpace(r.Campaign)
		out = append(out, r)
	}
	return out, dropped
}

// GroupRows sums the funnel counts per campaign and accumulates the durations
// needed for an unweighted time-on-site mean. The result is ordered by
// campaign label. A sum that overflows int64 yields an *OverflowError.
func GroupRows(rows []SessionRow) ([]CampaignTotals, error) {
	groups := make(map[string]*CampaignTotals)
	for _, r := range rows {
		g, ok := groups[r.Campaign]
		if !ok {
			g = &CampaignTotals{Campaign: r.Campaign}
			groups[r.Campaign] = g
		}
		sums := []struct {
			total  *int64
			value  int64
			header string
		}{
			{&g.Sessions, r.Sessions, HeaderSessions},
			{&g.Conversions, r.Conversions, HeaderConversions},
			{&g.AddToCart, r.AddToCart, HeaderAddToCart},
			{&g.ReachedCheckout, r.ReachedCheckout, HeaderReachedCheckout},
		}
		for _, c := range sums {
			// Counts are non-negative, so only the upper bound can be crossed.
			if c.value > math.MaxInt64-*c.total {
				return nil, &OverflowError{Campaign: r.Campaign, Column: c.header}
			}
			*c.total += c.value
		}
		if !r.DurationMissing {
			g.DurationSum += r.TimeOnSite
			g.DurationCount++
		}
	}

	out := make([]CampaignTotals, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Campaign < out[j].Campaign
	})
	return out, nil
}

// Derive computes the mean duration and the three funnel rates for one group.
// Values are left unrounded; a group without sessions gets zero rates.
func Derive(t CampaignTotals) CampaignAggregate {
	agg := CampaignAggregate{
		Campaign:            t.Campaign,
		Sessions:            t.Sessions,
		Conversions:         t.Conversions,
		AddToCart:           t.AddToCart,
		ReachedCheckout:     t.ReachedCheckout,
		ConversionRate:      rate(t.Conversions, t.Sessions),
		AddToCartRate:       rate(t.AddToCart, t.Sessions),
		ReachedCheckoutRate: rate(t.ReachedCheckout, t.Sessions),
	}
	if t.DurationCount > 0 {
		agg.TimeOnSite = t.DurationSum / float64(t.DurationCount)
	}
	return agg
}

func rate(num, sessions int64) float64 {
	if sessions == 0 {
		return 0
	}
	return float64(num) / float64(sessions) * 100
}

// Rounded returns a copy with rates and time on site rounded to two decimals.
// Counts are exact and left untouched.
func (a CampaignAggregate) Rounded() CampaignAggregate {
	a.TimeOnSite = Round2(a.TimeOnSite)
	a.ConversionRate = Round2(a.ConversionRate)
	a.AddToCartRate = Round2(a.AddToCartRate)
	a.ReachedCheckoutRate = Round2(a.ReachedCheckoutRate)
	return a
}

// Round2 rounds half to even at two decimals. Non-finite input becomes 0.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).RoundBank(2).Float64()
	return f
}

// FilterMinSessions drops campaigns with fewer than threshold sessions.
// A threshold of zero keeps everything.
func FilterMinSessions(aggs []CampaignAggregate, threshold int64) ([]CampaignAggregate, int) {
	out := make([]CampaignAggregate, 0, len(aggs))
	for _, a := range aggs {
		if a.Sessions < threshold {
			continue
		}
		out = append(out, a)
	}
	return out, len(aggs) - len(out)
}

// SortBy returns a copy sorted by metric, highest first. Equal values keep
// their input order.
func SortBy(aggs []CampaignAggregate, m Metric) []CampaignAggregate {
	out := make([]CampaignAggregate, len(aggs))
	copy(out, aggs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value(m) > out[j].Value(m)
	})
	return out
}
