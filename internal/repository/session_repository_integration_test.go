package repository_test

import (
	"context"
	"database/sql"
	"math"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godilite/campaign-analyzer/internal/campaign"
	"github.com/godilite/campaign-analyzer/internal/repository"
	"github.com/godilite/campaign-analyzer/internal/repository/models"
	dbbuilder "github.com/godilite/campaign-analyzer/pkg/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := dbbuilder.New(context.Background(),
		dbbuilder.WithDriver("sqlite3"),
		dbbuilder.WithDataSource(":memory:"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestGroupSessions(t *testing.T) {
	ctx := context.Background()

	t.Run("groups and orders by campaign", func(t *testing.T) {
		repo := repository.NewSessionRepository(setupTestDB(t))

		groups, err := repo.GroupSessions(ctx, []campaign.SessionRow{
			{Campaign: "B", Sessions: 10, Conversions: 1, AddToCart: 2, ReachedCheckout: 3, TimeOnSite: 5.0},
			{Campaign: "A", Sessions: 100, Conversions: 10, AddToCart: 40, ReachedCheckout: 60, TimeOnSite: 30.0},
			{Campaign: "A", Sessions: 50, Conversions: 5, AddToCart: 10, ReachedCheckout: 20, TimeOnSite: 10.0},
		})

		require.NoError(t, err)
		require.Len(t, groups, 2)
		assert.Equal(t, models.CampaignGroup{
			Campaign:        "A",
			Sessions:        150,
			Conversions:     15,
			AddToCart:       50,
			ReachedCheckout: 80,
			DurationSum:     40.0,
			DurationCount:   2,
		}, groups[0])
		assert.Equal(t, "B", groups[1].Campaign)
		assert.Equal(t, int64(10), groups[1].Sessions)
	})

	t.Run("missing durations are not counted", func(t *testing.T) {
		repo := repository.NewSessionRepository(setupTestDB(t))

		groups, err := repo.GroupSessions(ctx, []campaign.SessionRow{
			{Campaign: "a", Sessions: 1, TimeOnSite: 12},
			{Campaign: "a", Sessions: 1, DurationMissing: true},
			{Campaign: "b", Sessions: 1, DurationMissing: true},
		})

		require.NoError(t, err)
		require.Len(t, groups, 2)
		assert.Equal(t, 12.0, groups[0].DurationSum)
		assert.Equal(t, int64(1), groups[0].DurationCount)
		assert.Equal(t, 0.0, groups[1].DurationSum)
		assert.Equal(t, int64(0), groups[1].DurationCount)
	})

	t.Run("overflowing sum is reported", func(t *testing.T) {
		repo := repository.NewSessionRepository(setupTestDB(t))

		_, err := repo.GroupSessions(ctx, []campaign.SessionRow{
			{Campaign: "A", Sessions: math.MaxInt64},
			{Campaign: "A", Sessions: 1},
		})

		assert.ErrorIs(t, err, campaign.ErrCountOverflow)
		assert.ErrorIs(t, err, campaign.ErrMalformedRow)
	})

	t.Run("no rows", func(t *testing.T) {
		repo := repository.NewSessionRepository(setupTestDB(t))

		groups, err := repo.GroupSessions(ctx, nil)

		require.NoError(t, err)
		assert.Empty(t, groups)
	})

	t.Run("calls do not share state", func(t *testing.T) {
		repo := repository.NewSessionRepository(setupTestDB(t))

		_, err := repo.GroupSessions(ctx, []campaign.SessionRow{{Campaign: "first", Sessions: 1}})
		require.NoError(t, err)

		groups, err := repo.GroupSessions(ctx, []campaign.SessionRow{{Campaign: "second", Sessions: 2}})
		require.NoError(t, err)

		require.Len(t, groups, 1)
		assert.Equal(t, "second", groups[0].Campaign)
	})

	t.Run("concurrent calls are isolated", func(t *testing.T) {
		repo := repository.NewSessionRepository(setupTestDB(t))

		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(n int64) {
				defer wg.Done()
				groups, err := repo.GroupSessions(ctx, []campaign.SessionRow{{Campaign: "c", Sessions: n}})
				if err != nil {
					errs <- err
					return
				}
				if len(groups) != 1 || groups[0].Sessions != n {
					errs <- assert.AnError
				}
			}(int64(i + 1))
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			assert.NoError(t, err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		repo := repository.NewSessionRepository(setupTestDB(t))
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := repo.GroupSessions(cctx, []campaign.SessionRow{{Campaign: "a", Sessions: 1}})

		assert.Error(t, err)
	})
}
