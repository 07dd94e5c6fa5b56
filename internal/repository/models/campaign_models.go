package models

// CampaignGroup is one row of the staged GROUP BY campaign query.
type CampaignGroup struct {
	Campaign        string
	Sessions        int64
	Conversions     int64
	AddToCart       int64
	ReachedCheckout int64
	DurationSum     float64
	DurationCount   int64
}
