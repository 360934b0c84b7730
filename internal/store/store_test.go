package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/halq/internal/contracts"
	"github.com/wonny/halq/pkg/config"
	"github.com/wonny/halq/pkg/database"
	"github.com/wonny/halq/pkg/logger"
)

func setupStore(t *testing.T) (*Store, context.Context) {
	t.Helper()

	// Skip if running in CI without database
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	log := logger.New(cfg)

	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return New(db.Pool, log), context.Background()
}

func testCorp(stock, name string, p contracts.Period) *contracts.Corp {
	c := contracts.NewCorp(name, stock, contracts.MarketKOSPI, p.Year, p.Quarter)
	sales := int64(1000)
	profit := int64(100)
	c.Sales = &sales
	c.Profit = &profit
	return c
}

func TestStore_RebuildAndInsert(t *testing.T) {
	s, ctx := setupStore(t)

	require.NoError(t, s.Rebuild(ctx))

	exists, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, s.RequireExists(ctx))

	p := contracts.Period{Year: 2021, Quarter: 1}
	corps := []*contracts.Corp{
		testCorp("005930", "삼성전자", p),
		testCorp("000660", "SK하이닉스", p),
	}
	require.NoError(t, s.InsertPeriod(ctx, corps))

	periods, err := s.Periods(ctx)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, p, periods[0])

	loaded, err := s.LoadPeriod(ctx, p)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	// Ordered by stock code.
	assert.Equal(t, "000660", loaded[0].Stock)
	assert.Equal(t, "005930", loaded[1].Stock)
	require.NotNil(t, loaded[1].Sales)
	assert.Equal(t, int64(1000), *loaded[1].Sales)
	assert.Nil(t, loaded[1].Assets)
}

func TestStore_DuplicateKeyRejected(t *testing.T) {
	s, ctx := setupStore(t)

	require.NoError(t, s.Rebuild(ctx))

	p := contracts.Period{Year: 2021, Quarter: 2}
	require.NoError(t, s.InsertPeriod(ctx, []*contracts.Corp{testCorp("005930", "삼성전자", p)}))

	err := s.InsertPeriod(ctx, []*contracts.Corp{testCorp("005930", "삼성전자", p)})
	assert.Error(t, err)
}

func TestStore_UpdateDerivedRoundTrip(t *testing.T) {
	s, ctx := setupStore(t)

	require.NoError(t, s.Rebuild(ctx))

	p := contracts.Period{Year: 2021, Quarter: 3}
	c := testCorp("005930", "삼성전자", p)
	require.NoError(t, s.InsertPeriod(ctx, []*contracts.Corp{c}))

	mcap := int64(400_000)
	per := 4.0
	iper := 0.25
	c.MarketCap = &mcap
	c.PER = &per
	c.IPER = &iper
	require.NoError(t, s.UpdateDerived(ctx, []*contracts.Corp{c}))

	got, err := s.Get(ctx, p, "005930")
	require.NoError(t, err)
	require.NotNil(t, got.MarketCap)
	assert.Equal(t, int64(400_000), *got.MarketCap)
	require.NotNil(t, got.PER)
	assert.InDelta(t, 4.0, *got.PER, 1e-9)

	_, err = s.Get(ctx, p, "999999")
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
}

func TestStore_RequireExistsMissing(t *testing.T) {
	s, ctx := setupStore(t)

	_, err := s.pool.Exec(ctx, `DROP TABLE IF EXISTS krx`)
	require.NoError(t, err)

	err = s.RequireExists(ctx)
	assert.True(t, errors.Is(err, ErrStoreMissing))
}
