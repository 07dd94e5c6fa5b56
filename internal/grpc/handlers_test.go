package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/godilite/campaign-analyzer/internal/campaign"
	"github.com/godilite/campaign-analyzer/internal/grpc/mocks"
	"github.com/godilite/campaign-analyzer/internal/service"
	grpcsrv "github.com/godilite/campaign-analyzer/pkg/grpc/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const sampleCSV = "UTM campaign,Sessions,Sessions that completed checkout,Sessions with cart additions,Sessions that reached checkout,Average session duration\n" +
	"A,100,10,40,60,30.0\n" +
	"A,50,5,10,20,10.0\n" +
	"B,10,1,2,3,5.0\n"

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

// TestNewGRPCHandlers tests the constructor
func TestNewGRPCHandlers(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		analyzer := &mocks.MockReportAnalyzer{}
		defaults := campaign.Options{MinSessions: 50}

		handlers := NewGRPCHandlers(analyzer, defaults, zap.NewNop())

		assert.NotNil(t, handlers)
		assert.Equal(t, analyzer, handlers.analyzer)
		assert.Equal(t, defaults, handlers.defaults)
		assert.NotNil(t, handlers.logger)
	})

	t.Run("nil analyzer panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewGRPCHandlers(nil, campaign.Options{}, zap.NewNop())
		})
	})

	t.Run("nil logger is tolerated", func(t *testing.T) {
		handlers := NewGRPCHandlers(&mocks.MockReportAnalyzer{}, campaign.Options{}, nil)

		assert.NotNil(t, handlers.logger)
	})
}

// TestRequestValidation tests request validation through the actual handler method
func TestRequestValidation(t *testing.T) {
	var got campaign.Options
	analyzer := &mocks.MockReportAnalyzer{
		AnalyzeBytesFunc: func(ctx context.Context, content []byte, opts campaign.Options) (campaign.Report, error) {
			got = opts
			return campaign.Report{}, nil
		},
	}
	handlers := NewGRPCHandlers(analyzer, campaign.Options{MinSessions: 50, LeaderboardSize: 10}, zap.NewNop())

	t.Run("defaults apply when fields are absent", func(t *testing.T) {
		_, err := handlers.Analyze(context.Background(), mustStruct(t, map[string]any{"csv": sampleCSV}))

		require.NoError(t, err)
		assert.Equal(t, campaign.Options{MinSessions: 50, LeaderboardSize: 10}, got)
	})

	t.Run("explicit zero disables the filter", func(t *testing.T) {
		_, err := handlers.Analyze(context.Background(), mustStruct(t, map[string]any{"csv": sampleCSV, "min_sessions": 0, "top": 3}))

		require.NoError(t, err)
		assert.Equal(t, campaign.Options{MinSessions: 0, LeaderboardSize: 3}, got)
	})

	invalid := []struct {
		name string
		req  map[string]any
	}{
		{"missing csv", map[string]any{}},
		{"empty csv", map[string]any{"csv": ""}},
		{"csv not a string", map[string]any{"csv": 12}},
		{"negative min sessions", map[string]any{"csv": sampleCSV, "min_sessions": -1}},
		{"fractional top", map[string]any{"csv": sampleCSV, "top": 2.5}},
		{"string top", map[string]any{"csv": sampleCSV, "top": "ten"}},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := handlers.Analyze(context.Background(), mustStruct(t, tc.req))

			assert.Nil(t, resp)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

// TestHandleError tests error mapping
func TestHandleError(t *testing.T) {
	handlers := NewGRPCHandlers(&mocks.MockReportAnalyzer{}, campaign.Options{}, zap.NewNop())

	t.Run("context canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := handlers.handleError(ctx, "Analyze", context.Canceled)

		assert.Equal(t, codes.Canceled, status.Code(err))
	})

	t.Run("context deadline exceeded", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()

		err := handlers.handleError(ctx, "Analyze", context.DeadlineExceeded)

		assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
	})

	t.Run("malformed header keeps the user message", func(t *testing.T) {
		cause := fmt.Errorf("%w: %w", service.ErrMalformedInput, &campaign.MissingColumnsError{Columns: []string{"Sessions"}})

		err := handlers.handleError(context.Background(), "Analyze", cause)

		st, _ := status.FromError(err)
		assert.Equal(t, codes.InvalidArgument, st.Code())
		assert.Contains(t, st.Message(), `"Sessions"`)
	})

	t.Run("invalid options", func(t *testing.T) {
		err := handlers.handleError(context.Background(), "Analyze", fmt.Errorf("%w: bad", service.ErrInvalidOptions))

		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("engine failure hides details", func(t *testing.T) {
		err := handlers.handleError(context.Background(), "Analyze", fmt.Errorf("%w: disk full", service.ErrEngineFailure))

		st, _ := status.FromError(err)
		assert.Equal(t, codes.Internal, st.Code())
		assert.NotContains(t, st.Message(), "disk full")
	})

	t.Run("engine deadline with live request", func(t *testing.T) {
		cause := fmt.Errorf("%w: %w", service.ErrEngineFailure, context.DeadlineExceeded)

		err := handlers.handleError(context.Background(), "Analyze", cause)

		assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
	})

	t.Run("unknown error", func(t *testing.T) {
		err := handlers.handleError(context.Background(), "Analyze", errors.New("boom"))

		assert.Equal(t, codes.Internal, status.Code(err))
	})
}

func TestAnalyze(t *testing.T) {
	t.Run("report is returned as a struct", func(t *testing.T) {
		analyzer := &mocks.MockReportAnalyzer{
			AnalyzeBytesFunc: func(ctx context.Context, content []byte, opts campaign.Options) (campaign.Report, error) {
				assert.Equal(t, sampleCSV, string(content))
				return campaign.Report{
					Summary: []campaign.CampaignAggregate{{Campaign: "A", Sessions: 150, ConversionRate: 10}},
					Stats:   campaign.RunStats{Campaigns: 1},
				}, nil
			},
		}
		handlers := NewGRPCHandlers(analyzer, campaign.Options{}, zap.NewNop())

		resp, err := handlers.Analyze(context.Background(), mustStruct(t, map[string]any{"csv": sampleCSV}))

		require.NoError(t, err)
		summary := resp.GetFields()["summary"].GetListValue().GetValues()
		require.Len(t, summary, 1)
		row := summary[0].GetStructValue().GetFields()
		assert.Equal(t, "A", row["campaign"].GetStringValue())
		assert.Equal(t, float64(150), row["sessions"].GetNumberValue())
		assert.Equal(t, float64(10), row["conversion_rate"].GetNumberValue())
		assert.Equal(t, float64(1), resp.GetFields()["stats"].GetStructValue().GetFields()["campaigns"].GetNumberValue())
	})

	t.Run("service error handling", func(t *testing.T) {
		analyzer := &mocks.MockReportAnalyzer{
			AnalyzeBytesFunc: func(ctx context.Context, content []byte, opts campaign.Options) (campaign.Report, error) {
				return campaign.Report{}, fmt.Errorf("%w: locked", service.ErrEngineFailure)
			},
		}
		handlers := NewGRPCHandlers(analyzer, campaign.Options{}, zap.NewNop())

		resp, err := handlers.Analyze(context.Background(), mustStruct(t, map[string]any{"csv": sampleCSV}))

		assert.Nil(t, resp)
		assert.Equal(t, codes.Internal, status.Code(err))
	})
}

// TestServiceOverNetwork registers the handlers on a real server and calls
// them through a client connection.
func TestServiceOverNetwork(t *testing.T) {
	logger := zaptest.NewLogger(t)
	svc := service.NewAnalyzerService(service.MemoryGrouper{}, logger)
	handlers := NewGRPCHandlers(service.NewCachingAnalyzer(svc, nil, logger, time.Minute), campaign.Options{MinSessions: 50}, logger)

	server, err := grpcsrv.New(grpcsrv.WithPort(0), grpcsrv.WithLogger(logger), grpcsrv.WithLogging(true))
	require.NoError(t, err)
	RegisterCampaignAnalyzerServer(server, handlers)
	server.Start()
	t.Cleanup(func() { _ = server.Shutdown(context.Background()) })

	conn, err := grpclib.NewClient(fmt.Sprintf("localhost:%d", server.Addr().(*net.TCPAddr).Port), grpclib.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("health", func(t *testing.T) {
		resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})

		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	})

	t.Run("analyze", func(t *testing.T) {
		client := NewCampaignAnalyzerClient(conn)

		resp, err := client.Analyze(ctx, mustStruct(t, map[string]any{"csv": sampleCSV}))

		require.NoError(t, err)
		summary := resp.GetFields()["summary"].GetListValue().GetValues()
		require.Len(t, summary, 1)
		row := summary[0].GetStructValue().GetFields()
		assert.Equal(t, "A", row["campaign"].GetStringValue())
		assert.Equal(t, 33.33, row["add_to_cart_rate"].GetNumberValue())
		assert.Equal(t, 53.33, row["reached_checkout_rate"].GetNumberValue())
		assert.Len(t, resp.GetFields()["leaderboards"].GetListValue().GetValues(), 7)
	})

	t.Run("malformed upload", func(t *testing.T) {
		client := NewCampaignAnalyzerClient(conn)

		_, err := client.Analyze(ctx, mustStruct(t, map[string]any{"csv": "UTM campaign\nA\n"}))

		st, _ := status.FromError(err)
		assert.Equal(t, codes.InvalidArgument, st.Code())
		assert.Contains(t, st.Message(), "missing required columns")
	})
}
