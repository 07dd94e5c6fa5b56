package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/godilite/campaign-analyzer/internal/campaign"
	"github.com/godilite/campaign-analyzer/internal/service"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	defaultGRPCTimeout = 10 * time.Second

	fieldCSV         = "csv"
	fieldMinSessions = "min_sessions"
	fieldTop         = "top"
)

type GRPCHandlers struct {
	analyzer ReportAnalyzer
	defaults campaign.Options
	logger   *zap.Logger
}

// NewGRPCHandlers initializes the gRPC handlers. Requests that omit
// min_sessions or top fall back to defaults.
func NewGRPCHandlers(analyzer ReportAnalyzer, defaults campaign.Options, logger *zap.Logger) *GRPCHandlers {
	if analyzer == nil {
		panic("nil ReportAnalyzer provided to NewGRPCHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandlers{
		analyzer: analyzer,
		defaults: defaults,
		logger:   logger.Named("grpc-handler"),
	}
}

func (s *GRPCHandlers) parseAndValidate(req *structpb.Struct) (content []byte, opts campaign.Options, err error) {
	opts = s.defaults
	fields := req.GetFields()

	csvValue, ok := fields[fieldCSV]
	if !ok || csvValue.GetStringValue() == "" {
		err = status.Error(codes.InvalidArgument, "csv is required")
		return
	}
	content = []byte(csvValue.GetStringValue())

	if v, ok := fields[fieldMinSessions]; ok {
		var n int64
		if n, err = wholeNumber(fieldMinSessions, v); err != nil {
			return
		}
		opts.MinSessions = n
	}

	if v, ok := fields[fieldTop]; ok {
		var n int64
		if n, err = wholeNumber(fieldTop, v); err != nil {
			return
		}
		opts.LeaderboardSize = int(n)
	}

	return
}

func wholeNumber(name string, v *structpb.Value) (int64, error) {
	num, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", name)
	}
	f := num.NumberValue
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a non-negative whole number", name)
	}
	return int64(f), nil
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, service.ErrMalformedInput), errors.Is(err, service.ErrInvalidOptions):
		s.logger.Info("rejected upload", zap.String("op", op), zap.Error(err))
		return status.Error(codes.InvalidArgument, service.UserMessage(err))
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("analysis timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, service.UserMessage(err))
	case errors.Is(err, service.ErrEngineFailure):
		s.logger.Error("engine failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, "aggregation engine error")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed", op)
	}
}

// Analyze runs the campaign pipeline over the csv field of req and returns the
// report in the same shape as the JSON API.
func (s *GRPCHandlers) Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	content, opts, err := s.parseAndValidate(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	report, err := s.analyzer.AnalyzeBytes(ctx, content, opts)
	if err != nil {
		return nil, s.handleError(ctx, "Analyze", err)
	}

	resp, err := reportToStruct(report)
	if err != nil {
		s.logger.Error("encode report", zap.Error(err))
		return nil, status.Error(codes.Internal, "Analyze failed")
	}
	return resp, nil
}

func reportToStruct(report campaign.Report) (*structpb.Struct, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("convert report: %w", err)
	}
	return out, nil
}
