package mocks

import (
	"context"
	"errors"
	"io"

	"github.com/godilite/campaign-analyzer/internal/campaign"
	"github.com/godilite/campaign-analyzer/internal/repository/models"
)

// MockGrouper is a mock implementation of the Grouper interface
// for testing the service layer.
type MockGrouper struct {
	GroupFunc func(ctx context.Context, rows []campaign.SessionRow) ([]campaign.CampaignTotals, error)
}

// Group implements the Grouper interface
func (m *MockGrouper) Group(ctx context.Context, rows []campaign.SessionRow) ([]campaign.CampaignTotals, error) {
	if m.GroupFunc != nil {
		return m.GroupFunc(ctx, rows)
	}
	return nil, errors.New("GroupFunc not implemented")
}

// MockSessionRepository is a mock implementation of the SessionRepository interface.
type MockSessionRepository struct {
	GroupSessionsFunc func(ctx context.Context, rows []campaign.SessionRow) ([]models.CampaignGroup, error)
}

// GroupSessions implements the SessionRepository interface
func (m *MockSessionRepository) GroupSessions(ctx context.Context, rows []campaign.SessionRow) ([]models.CampaignGroup, error) {
	if m.GroupSessionsFunc != nil {
		return m.GroupSessionsFunc(ctx, rows)
	}
	return nil, errors.New("GroupSessionsFunc not implemented")
}

// MockAnalyzer is a mock implementation of the Analyzer interface.
type MockAnalyzer struct {
	AnalyzeFunc func(ctx context.Context, r io.Reader, opts campaign.Options) (campaign.Report, error)
}

// Analyze implements the Analyzer interface
func (m *MockAnalyzer) Analyze(ctx context.Context, r io.Reader, opts campaign.Options) (campaign.Report, error) {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, r, opts)
	}
	return campaign.Report{}, errors.New("AnalyzeFunc not implemented")
}
