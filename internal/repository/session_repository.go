package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/godilite/campaign-analyzer/internal/campaign"
	"github.com/godilite/campaign-analyzer/internal/repository/models"
)

const (
	createStagingTable = `
		CREATE TEMP TABLE IF NOT EXISTS staged_sessions (
			campaign         TEXT    NOT NULL,
			sessions         INTEGER NOT NULL,
			conversions      INTEGER NOT NULL,
			add_to_cart      INTEGER NOT NULL,
			reached_checkout INTEGER NOT NULL,
			time_on_site     REAL
		)
	`

	clearStagingTable = `DELETE FROM staged_sessions`

	insertStagedSession = `
		INSERT INTO staged_sessions (campaign, sessions, conversions, add_to_cart, reached_checkout, time_on_site)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	groupStagedSessions = `
		SELECT
			campaign,
			SUM(sessions)         AS sessions,
			SUM(conversions)      AS conversions,
			SUM(add_to_cart)      AS add_to_cart,
			SUM(reached_checkout) AS reached_checkout,
			COALESCE(SUM(time_on_site), 0.0) AS duration_sum,
			COUNT(time_on_site)   AS duration_count
		FROM staged_sessions
		GROUP BY campaign
		ORDER BY campaign
	`
)

// SessionRepository groups session rows inside SQLite. Rows are staged in a
// temporary table within a transaction that is always rolled back, so nothing
// outlives a call.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// GroupSessions stages rows and aggregates them per campaign, ordered by label.
// NULL durations are skipped by the sum and the count.
func (s *SessionRepository) GroupSessions(ctx context.Context, rows []campaign.SessionRow) ([]models.CampaignGroup, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin GroupSessions: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createStagingTable); err != nil {
		return nil, fmt.Errorf("create staging table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearStagingTable); err != nil {
		return nil, fmt.Errorf("clear staging table: %w", err)
	}

	if err := stage(ctx, tx, rows); err != nil {
		return nil, err
	}

	result, err := tx.QueryContext(ctx, groupStagedSessions)
	if err != nil {
		return nil, fmt.Errorf("query GroupSessions: %w", sumError(err))
	}
	defer result.Close()

	groups := make([]models.CampaignGroup, 0)
	for result.Next() {
		var g models.CampaignGroup
		if err := result.Scan(&g.Campaign, &g.Sessions, &g.Conversions, &g.AddToCart, &g.ReachedCheckout, &g.DurationSum, &g.DurationCount); err != nil {
			return nil, fmt.Errorf("scan GroupSessions row: %w", err)
		}
		groups = append(groups, g)
	}

	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("iterate GroupSessions: %w", sumError(err))
	}
	return groups, nil
}

// sumError reports SQLite's SUM overflow as the same error the in-process
// grouping returns. SQLite does not say which group overflowed.
func sumError(err error) error {
	if strings.Contains(err.Error(), "integer overflow") {
		return fmt.Errorf("%w: %v", &campaign.OverflowError{}, err)
	}
	return err
}

func stage(ctx context.Context, tx *sql.Tx, rows []campaign.SessionRow) error {
	stmt, err := tx.PrepareContext(ctx, insertStagedSession)
	if err != nil {
		return fmt.Errorf("prepare staged insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		var duration sql.NullFloat64
		if !r.DurationMissing {
			duration = sql.NullFloat64{Float64: r.TimeOnSite, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, r.Campaign, r.Sessions, r.Conversions, r.AddToCart, r.ReachedCheckout, duration); err != nil {
			return fmt.Errorf("stage row %d: %w", i, err)
		}
	}
	return nil
}
