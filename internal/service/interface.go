package service

import (
	"context"

	"github.com/godilite/campaign-analyzer/internal/campaign"
	"github.com/godilite/campaign-analyzer/internal/repository/models"
)

// SessionRepository defines the database operations used by the SQL grouper.
type SessionRepository interface {
	GroupSessions(ctx context.Context, rows []campaign.SessionRow) ([]models.CampaignGroup, error)
}

// Grouper sums session rows per campaign. Implementations must return one
// entry per distinct label.
type Grouper interface {
	Group(ctx context.Context, rows []campaign.SessionRow) ([]campaign.CampaignTotals, error)
}
