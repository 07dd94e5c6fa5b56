package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/godilite/campaign-analyzer/internal/campaign"
	"go.uber.org/zap"
)

const (
	engineTimeout = 5 * time.Second
)

// AnalyzerService turns an uploaded export into a campaign report.
type AnalyzerService struct {
	grouper Grouper
	logger  *zap.Logger
}

// NewAnalyzerService creates a new AnalyzerService instance.
func NewAnalyzerService(grouper Grouper, logger *zap.Logger) *AnalyzerService {
	if grouper == nil {
		panic("grouper must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	return &AnalyzerService{
		grouper: grouper,
		logger:  logger.Named("analyzer"),
	}
}

var (
	ErrMalformedInput = errors.New("malformed input")
	ErrEngineFailure  = errors.New("aggregation engine failure")
	ErrInvalidOptions = campaign.ErrInvalidOptions
)

// Analyze decodes r and runs the campaign pipeline over it. An input whose
// rows are all dropped or filtered out produces an empty report, not an error.
func (s *AnalyzerService) Analyze(ctx context.Context, r io.Reader, opts campaign.Options) (campaign.Report, error) {
	started := time.Now()

	ds, err := campaign.ParseCSV(r)
	if err != nil {
		return campaign.Report{}, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}

	engineCtx, cancel := context.WithTimeout(ctx, engineTimeout)
	defer cancel()

	totals, err := s.grouper.Group(engineCtx, ds.Rows)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return campaign.Report{}, ctxErr
		}
		if errors.Is(err, campaign.ErrCountOverflow) {
			return campaign.Report{}, fmt.Errorf("%w: %w", ErrMalformedInput, err)
		}
		// The engine deadline stays in the chain so transports report a timeout.
		return campaign.Report{}, fmt.Errorf("%w: %w", ErrEngineFailure, err)
	}

	report, err := campaign.Summarize(totals, opts)
	if err != nil {
		return campaign.Report{}, err
	}
	report.Stats.RowsRead = ds.RowsRead
	report.Stats.RowsDropped = ds.RowsDropped

	s.logger.Info("analyzed campaign export",
		zap.Int("rows_read", report.Stats.RowsRead),
		zap.Int("rows_dropped", report.Stats.RowsDropped),
		zap.Int("campaigns", report.Stats.Campaigns),
		zap.Int("campaigns_excluded", report.Stats.CampaignsExcluded),
		zap.Int64("min_sessions", report.Stats.MinSessions),
		zap.Duration("elapsed", time.Since(started)))

	return report, nil
}

// UserMessage renders err as a single sentence suitable for the person who
// uploaded the file. Internal failures are not described.
func UserMessage(err error) string {
	var missing *campaign.MissingColumnsError
	var parse *campaign.ParseError
	var overflow *campaign.OverflowError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &missing):
		return fmt.Sprintf("The file is missing required columns: %s.", joinQuoted(missing.Columns))
	case errors.As(err, &overflow):
		return fmt.Sprintf("The file could not be analyzed: %s.", overflow.Error())
	case errors.As(err, &parse):
		return fmt.Sprintf("The file could not be read: %s.", parse.Error())
	case errors.Is(err, campaign.ErrEmptyInput):
		return "The file is empty; expected a header row followed by session rows."
	case errors.Is(err, ErrInvalidOptions):
		return fmt.Sprintf("Invalid settings: %s.", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return "The analysis took too long and was stopped."
	default:
		return "The file could not be analyzed because of an internal error."
	}
}

func joinQuoted(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%q", n)
	}
	return out
}
