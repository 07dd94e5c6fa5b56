package web

import (
	"context"

	"github.com/godilite/campaign-analyzer/internal/campaign"
)

type ReportAnalyzer interface {
	AnalyzeBytes(ctx context.Context, content []byte, opts campaign.Options) (campaign.Report, error)
}
