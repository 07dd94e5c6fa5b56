package service

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"time"

	"github.com/godilite/campaign-analyzer/internal/campaign"
	"github.com/godilite/campaign-analyzer/internal/repository"
	dbbuilder "github.com/godilite/campaign-analyzer/pkg/database"
	"go.uber.org/zap"
)

const (
	EngineMemory = "memory"
	EngineSQLite = "sqlite"

	// DefaultSQLiteDSN keeps the staging database private to the process.
	DefaultSQLiteDSN = ":memory:"
)

// MemoryGrouper groups rows in process.
type MemoryGrouper struct{}

func (MemoryGrouper) Group(ctx context.Context, rows []campaign.SessionRow) ([]campaign.CampaignTotals, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return campaign.GroupRows(rows)
}

// SQLGrouper delegates grouping to a SessionRepository.
type SQLGrouper struct {
	repo SessionRepository
}

func NewSQLGrouper(repo SessionRepository) *SQLGrouper {
	if repo == nil {
		panic("repository must not be nil")
	}
	return &SQLGrouper{repo: repo}
}

func (g *SQLGrouper) Group(ctx context.Context, rows []campaign.SessionRow) ([]campaign.CampaignTotals, error) {
	groups, err := g.repo.GroupSessions(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("group sessions: %w", err)
	}

	totals := make([]campaign.CampaignTotals, len(groups))
	for i, grp := range groups {
		totals[i] = campaign.CampaignTotals{
			Campaign:        grp.Campaign,
			Sessions:        grp.Sessions,
			Conversions:     grp.Conversions,
			AddToCart:       grp.AddToCart,
			ReachedCheckout: grp.ReachedCheckout,
			DurationSum:     grp.DurationSum,
			DurationCount:   grp.DurationCount,
		}
	}
	return totals, nil
}

// NewGrouper returns the grouping engine named by engine. The SQLite engine
// stages rows in dsn, or in a private in-memory database when dsn is empty,
// and also returns its pool, which the caller must close. The sqlite3 driver
// must be registered by the binary.
func NewGrouper(ctx context.Context, engine, dsn string, logger *zap.Logger) (Grouper, *sql.DB, error) {
	switch engine {
	case EngineSQLite:
		if dsn == "" {
			dsn = DefaultSQLiteDSN
		}
		// Staging tables are TEMP, so file databases can serve one request
		// per connection without writer contention.
		conns := runtime.NumCPU()
		dbPool, err := dbbuilder.New(ctx,
			dbbuilder.WithDriver("sqlite3"),
			dbbuilder.WithDataSource(dsn),
			dbbuilder.WithMaxOpenConns(conns),
			dbbuilder.WithMaxIdleConns(conns),
			dbbuilder.WithConnMaxLifetime(30*time.Minute),
			dbbuilder.WithRetry(3, 200*time.Millisecond),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("database init failed: %w", err)
		}
		logger.Info("SQLite staging engine initialized",
			zap.Bool("in_memory", dbbuilder.IsInMemory(dsn)),
			zap.Int("max_open_conns", dbPool.Stats().MaxOpenConnections))
		return NewSQLGrouper(repository.NewSessionRepository(dbPool)), dbPool, nil
	case EngineMemory, "":
		return MemoryGrouper{}, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown aggregation engine %q", engine)
	}
}
