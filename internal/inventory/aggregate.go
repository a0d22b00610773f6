package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockSnapshot is the derived product-level view over batch state.
type StockSnapshot struct {
	ProductID     uuid.UUID       `json:"product_id"`
	TotalStock    int64           `json:"total_stock"`
	BatchCount    int             `json:"batch_count"`
	LowStock      bool            `json:"low_stock"`
	StockValue    decimal.Decimal `json:"stock_value"`
	NearestExpiry *time.Time      `json:"nearest_expiry,omitempty"`
}

// Aggregator derives product-level stock figures from live batch state. It
// never caches: readers under the mutation path's isolation always see the
// committed truth.
type Aggregator struct {
	repo Repository
}

// NewAggregator constructs an Aggregator over the inventory repository.
func NewAggregator(repo Repository) *Aggregator {
	return &Aggregator{repo: repo}
}

// TotalStock sums batch quantities for the product.
func (a *Aggregator) TotalStock(ctx context.Context, businessID, productID uuid.UUID) (int64, error) {
	return a.repo.TotalStock(ctx, businessID, productID)
}

// IsLowStock reports whether the product total is at or below its threshold.
func (a *Aggregator) IsLowStock(ctx context.Context, businessID, productID uuid.UUID, minStock int64) (bool, error) {
	total, err := a.repo.TotalStock(ctx, businessID, productID)
	if err != nil {
		return false, err
	}
	return total <= minStock, nil
}

// Snapshot assembles the full derived view for one product.
func (a *Aggregator) Snapshot(ctx context.Context, businessID, productID uuid.UUID, minStock int64) (StockSnapshot, error) {
	total, err := a.repo.TotalStock(ctx, businessID, productID)
	if err != nil {
		return StockSnapshot{}, err
	}
	count, err := a.repo.BatchCount(ctx, businessID, productID)
	if err != nil {
		return StockSnapshot{}, err
	}
	value, err := a.repo.StockValue(ctx, businessID, productID)
	if err != nil {
		return StockSnapshot{}, err
	}
	expiry, err := a.repo.NearestExpiry(ctx, businessID, productID)
	if err != nil {
		return StockSnapshot{}, err
	}
	return StockSnapshot{
		ProductID:     productID,
		TotalStock:    total,
		BatchCount:    count,
		LowStock:      total <= minStock,
		StockValue:    value,
		NearestExpiry: expiry,
	}, nil
}
