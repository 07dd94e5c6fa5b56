package mocks

import (
	"context"
	"errors"

	"github.com/godilite/campaign-analyzer/internal/campaign"
)

// MockReportAnalyzer is a mock implementation of the ReportAnalyzer interface
// for testing the handler layer. It uses function-based mocking for flexibility.
type MockReportAnalyzer struct {
	AnalyzeBytesFunc func(ctx context.Context, content []byte, opts campaign.Options) (campaign.Report, error)
}

// AnalyzeBytes implements the ReportAnalyzer interface
func (m *MockReportAnalyzer) AnalyzeBytes(ctx context.Context, content []byte, opts campaign.Options) (campaign.Report, error) {
	if m.AnalyzeBytesFunc != nil {
		return m.AnalyzeBytesFunc(ctx, content, opts)
	}
	return campaign.Report{}, errors.New("AnalyzeBytesFunc not implemented")
}
