package app

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/godilite/campaign-analyzer/internal/config"
	handler "github.com/godilite/campaign-analyzer/internal/grpc"
	"github.com/godilite/campaign-analyzer/internal/service"
	"github.com/godilite/campaign-analyzer/internal/web"
	"github.com/godilite/campaign-analyzer/pkg/cache"
	grpcsrv "github.com/godilite/campaign-analyzer/pkg/grpc/server"

	"go.uber.org/zap"
)

const (
	shutdownTimeout   = 10 * time.Second
	grpcEnvelopeBytes = 1 << 20
)

type App struct {
	logger     *zap.Logger
	dbPool     *sql.DB
	cache      cache.Cacher
	grpcServer *grpcsrv.Server
	httpServer *web.Server
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	grouper, dbPool, err := service.NewGrouper(ctx, cfg.AggregationEngine, cfg.SQLiteDSN, logger)
	if err != nil {
		return nil, err
	}

	var cacheClient cache.Cacher = cache.Noop{}
	if cfg.RedisAddr != "" {
		redisCache, err := cache.New(ctx,
			cache.WithAddress(cfg.RedisAddr),
			cache.WithPassword(cfg.RedisPassword),
			cache.WithDB(cfg.RedisDB),
			cache.WithKeyPrefix(cfg.RedisKeyPrefix),
		)
		if err != nil {
			closePool(dbPool)
			return nil, fmt.Errorf("cache init failed: %w", err)
		}
		cacheClient = redisCache
		logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("Result cache disabled")
	}

	analyzerService := service.NewAnalyzerService(grouper, logger)
	analyzer := service.NewCachingAnalyzer(analyzerService, cacheClient, logger, cfg.CacheTTL)

	grpcHandlers := handler.NewGRPCHandlers(analyzer, cfg.Options(), logger)

	grpcServer, err := grpcsrv.New(
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(true),
		// Headroom for the request envelope around the CSV text.
		grpcsrv.WithMaxMessageBytes(int(cfg.MaxUploadBytes)+grpcEnvelopeBytes),
	)
	if err != nil {
		_ = cacheClient.Close()
		closePool(dbPool)
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	handler.RegisterCampaignAnalyzerServer(grpcServer, grpcHandlers)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	httpHandlers := web.NewHandlers(analyzer, cfg.Options(), cfg.MaxUploadBytes, logger)
	httpServer, err := web.NewServer(cfg.HTTPPort, web.NewRouter(httpHandlers, logger), logger)
	if err != nil {
		_ = grpcServer.Shutdown(ctx)
		_ = cacheClient.Close()
		closePool(dbPool)
		return nil, fmt.Errorf("failed to create HTTP server: %w", err)
	}

	return &App{
		logger:     logger,
		dbPool:     dbPool,
		cache:      cacheClient,
		grpcServer: grpcServer,
		httpServer: httpServer,
	}, nil
}

func closePool(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}

func (a *App) HTTPAddr() net.Addr { return a.httpServer.Addr() }
func (a *App) GRPCAddr() net.Addr { return a.grpcServer.Addr() }

// Run starts both servers and blocks until ctx is canceled or a shutdown
// signal is received.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application starting")

	a.grpcServer.Start()
	a.httpServer.Start()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	a.logger.Info("application shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP shutdown error", zap.Error(err))
		shutdownErr = err
	}
	if err := a.grpcServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("gRPC shutdown error", zap.Error(err))
		shutdownErr = err
	}

	if err := a.cache.Close(); err != nil {
		a.logger.Error("cache shutdown error", zap.Error(err))
	}
	if a.dbPool != nil {
		if err := a.dbPool.Close(); err != nil {
			a.logger.Error("database shutdown error", zap.Error(err))
		}
	}

	if shutdownErr == nil {
		a.logger.Info("graceful shutdown completed successfully")
	}

	_ = a.logger.Sync()
	return shutdownErr
}
