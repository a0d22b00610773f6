package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise/internal/business"
)

type stubRepo struct {
	totals    StockTotals
	movements MovementTotals
	calls     int
}

func (s *stubRepo) StockTotals(ctx context.Context, businessID uuid.UUID, expiringDays int) (StockTotals, error) {
	s.calls++
	return s.totals, nil
}

func (s *stubRepo) LowStockProducts(ctx context.Context, businessID uuid.UUID) ([]LowStockRow, error) {
	return nil, nil
}

func (s *stubRepo) ExpiryAlerts(ctx context.Context, businessID uuid.UUID, days int) ([]ExpiryAlertRow, error) {
	return nil, nil
}

func (s *stubRepo) MovementTotals(ctx context.Context, businessID uuid.UUID, productID *uuid.UUID, from, to time.Time) (MovementTotals, error) {
	return s.movements, nil
}

func (s *stubRepo) LowStockAcrossBusinesses(ctx context.Context, limit int) ([]LowStockRow, error) {
	return nil, nil
}

type stubBusinesses struct {
	kind business.Type
}

func (s *stubBusinesses) Get(ctx context.Context, businessID uuid.UUID) (business.Business, error) {
	return business.Business{ID: businessID, Name: "Test", Type: s.kind}, nil
}

func TestSummaryHeadlinePerBusinessType(t *testing.T) {
	totals := StockTotals{
		TotalProducts:     1234,
		ActiveProducts:    1200,
		ItemsInStock:      56789,
		StockValue:        decimal.NewFromInt(987654),
		LowStockCount:     17,
		ExpiringSoonCount: 9,
		ExpiredCount:      2,
	}

	cases := []struct {
		kind  business.Type
		focus string
	}{
		{business.TypePharmacy, "expiry"},
		{business.TypeRetail, "low_stock"},
		{business.TypeWarehouse, "value"},
		{business.TypeDistributor, "volume"},
		{business.TypeOther, "general"},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			service := NewService(&stubRepo{totals: totals}, &stubBusinesses{kind: tc.kind}, nil, 30, nil)
			summary, err := service.Summary(context.Background(), uuid.New())
			require.NoError(t, err)
			require.Equal(t, tc.kind, summary.BusinessType)
			require.Equal(t, tc.focus, summary.Headline.Focus)
			require.NotEmpty(t, summary.Headline.Figures)
		})
	}
}

func TestSummaryHeadlineFormatsNumbers(t *testing.T) {
	totals := StockTotals{ItemsInStock: 56789, ExpiringSoonCount: 9, ExpiredCount: 2}
	service := NewService(&stubRepo{totals: totals}, &stubBusinesses{kind: business.TypePharmacy}, nil, 30, nil)

	summary, err := service.Summary(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Equal(t, "56,789", summary.Headline.Figures["stock_units"])
}

func TestSummaryUsesCache(t *testing.T) {
	repo := &stubRepo{totals: StockTotals{TotalProducts: 5}}
	cache := newTestCache(t)
	service := NewService(repo, &stubBusinesses{kind: business.TypeOther}, cache, 30, nil)
	businessID := uuid.New()

	_, err := service.Summary(context.Background(), businessID)
	require.NoError(t, err)
	_, err = service.Summary(context.Background(), businessID)
	require.NoError(t, err)
	require.Equal(t, 1, repo.calls, "second read is served from cache")

	require.NoError(t, cache.Bump(context.Background(), businessID))
	_, err = service.Summary(context.Background(), businessID)
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls, "bump forces a recompute")
}

func TestMovementsNetChange(t *testing.T) {
	repo := &stubRepo{movements: MovementTotals{
		InwardUnits:     100,
		OutwardUnits:    40,
		AdjustmentNet:   -5,
		NetChange:       55,
		OutwardByReason: map[string]int64{"sale": 30, "damage": 10},
	}}
	service := NewService(repo, &stubBusinesses{kind: business.TypeOther}, nil, 30, nil)

	report, err := service.Movements(context.Background(), uuid.New(), nil, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.EqualValues(t, 55, report.Totals.NetChange)
	require.EqualValues(t, 30, report.Totals.OutwardByReason["sale"])
}
