package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func daysAhead(n int) *time.Time {
	d := truncateToDay(time.Now()).AddDate(0, 0, n)
	return &d
}

func TestAggregatorSnapshot(t *testing.T) {
	f := newFixture(t)
	f.seedBatch(10, daysAhead(90), time.Now())
	f.seedBatch(5, daysAhead(30), time.Now())
	f.seedBatch(0, daysAhead(7), time.Now())

	agg := NewAggregator(f.repo)
	snap, err := agg.Snapshot(context.Background(), f.businessID, f.productID, 20)
	require.NoError(t, err)

	require.EqualValues(t, 15, snap.TotalStock)
	require.Equal(t, 2, snap.BatchCount, "empty batches do not count")
	require.True(t, snap.LowStock)
	require.True(t, decimal.NewFromInt(150).Equal(snap.StockValue))
	require.NotNil(t, snap.NearestExpiry)
	require.Equal(t, *daysAhead(30), *snap.NearestExpiry,
		"nearest expiry skips batches without stock")
}

func TestAggregatorNearestExpirySkipsExpiredStock(t *testing.T) {
	f := newFixture(t)
	f.seedBatch(8, daysAhead(-30), time.Now())
	f.seedBatch(12, daysAhead(60), time.Now())

	agg := NewAggregator(f.repo)
	snap, err := agg.Snapshot(context.Background(), f.businessID, f.productID, 0)
	require.NoError(t, err)

	require.EqualValues(t, 20, snap.TotalStock, "expired stock still counts toward the total")
	require.NotNil(t, snap.NearestExpiry)
	require.Equal(t, *daysAhead(60), *snap.NearestExpiry,
		"a batch already past its date is not the nearest expiry")

	only := newFixture(t)
	only.seedBatch(8, daysAhead(-30), time.Now())
	snap, err = NewAggregator(only.repo).Snapshot(context.Background(), only.businessID, only.productID, 0)
	require.NoError(t, err)
	require.Nil(t, snap.NearestExpiry, "nothing upcoming when every dated batch is expired")
}

func TestAggregatorLowStockBoundary(t *testing.T) {
	f := newFixture(t)
	f.seedBatch(10, nil, time.Now())

	agg := NewAggregator(f.repo)

	low, err := agg.IsLowStock(context.Background(), f.businessID, f.productID, 10)
	require.NoError(t, err)
	require.True(t, low, "total equal to the threshold counts as low")

	low, err = agg.IsLowStock(context.Background(), f.businessID, f.productID, 9)
	require.NoError(t, err)
	require.False(t, low)
}

func TestAggregatorEmptyProduct(t *testing.T) {
	f := newFixture(t)

	agg := NewAggregator(f.repo)
	snap, err := agg.Snapshot(context.Background(), f.businessID, f.productID, 0)
	require.NoError(t, err)

	require.EqualValues(t, 0, snap.TotalStock)
	require.Equal(t, 0, snap.BatchCount)
	require.True(t, snap.LowStock)
	require.Nil(t, snap.NearestExpiry)
	require.True(t, snap.StockValue.IsZero())
}
