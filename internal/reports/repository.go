package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockTotals aggregates product and batch counters for the summary report.
type StockTotals struct {
	TotalProducts     int64           `json:"total_products"`
	ActiveProducts    int64           `json:"active_products"`
	ItemsInStock      int64           `json:"items_in_stock"`
	StockValue        decimal.Decimal `json:"stock_value"`
	LowStockCount     int64           `json:"low_stock_count"`
	ExpiringSoonCount int64           `json:"expiring_soon_count"`
	ExpiredCount      int64           `json:"expired_count"`
}

// LowStockRow is one product at or below its threshold.
type LowStockRow struct {
	ProductID  uuid.UUID `json:"product_id"`
	Name       string    `json:"name"`
	SKU        string    `json:"sku"`
	MinStock   int64     `json:"min_stock"`
	TotalStock int64     `json:"total_stock"`
}

// ExpiryAlertRow is one stocked batch approaching expiry.
type ExpiryAlertRow struct {
	BatchID     uuid.UUID `json:"batch_id"`
	BatchNumber string    `json:"batch_number"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Location    string    `json:"location"`
	ExpiryDate  time.Time `json:"expiry_date"`
	Quantity    int64     `json:"quantity"`
	DaysLeft    int       `json:"days_left"`
}

// MovementTotals aggregates ledger activity over a window. Record-only
// initial entries are excluded: they document starting stock, not activity.
type MovementTotals struct {
	InwardUnits     int64            `json:"inward_units"`
	OutwardUnits    int64            `json:"outward_units"`
	AdjustmentNet   int64            `json:"adjustment_net"`
	NetChange       int64            `json:"net_change"`
	OutwardByReason map[string]int64 `json:"outward_by_reason"`
}

// Repository runs the read-only report queries.
type Repository interface {
	StockTotals(ctx context.Context, businessID uuid.UUID, expiringDays int) (StockTotals, error)
	LowStockProducts(ctx context.Context, businessID uuid.UUID) ([]LowStockRow, error)
	ExpiryAlerts(ctx context.Context, businessID uuid.UUID, days int) ([]ExpiryAlertRow, error)
	MovementTotals(ctx context.Context, businessID uuid.UUID, productID *uuid.UUID, from, to time.Time) (MovementTotals, error)
	// LowStockAcrossBusinesses feeds the background scan; it ignores tenant
	// scope deliberately.
	LowStockAcrossBusinesses(ctx context.Context, limit int) ([]LowStockRow, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a PostgreSQL-backed repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) StockTotals(ctx context.Context, businessID uuid.UUID, expiringDays int) (StockTotals, error) {
	var totals StockTotals
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(DISTINCT p.id),
			COUNT(DISTINCT p.id) FILTER (WHERE p.is_active),
			COALESCE(SUM(b.quantity), 0),
			COALESCE(SUM(b.quantity * b.cost_price), 0),
			COALESCE(COUNT(DISTINCT b.id) FILTER (
				WHERE b.quantity > 0 AND b.expiry_date IS NOT NULL
					AND b.expiry_date <= CURRENT_DATE + $2::int
					AND b.expiry_date >= CURRENT_DATE), 0),
			COALESCE(COUNT(DISTINCT b.id) FILTER (
				WHERE b.quantity > 0 AND b.expiry_date IS NOT NULL
					AND b.expiry_date < CURRENT_DATE), 0)
		FROM products p
		LEFT JOIN batches b ON b.product_id = p.id
		WHERE p.business_id = $1`, businessID, expiringDays).
		Scan(&totals.TotalProducts, &totals.ActiveProducts, &totals.ItemsInStock,
			&totals.StockValue, &totals.ExpiringSoonCount, &totals.ExpiredCount)
	if err != nil {
		return StockTotals{}, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM (
			SELECT p.id
			FROM products p
			LEFT JOIN batches b ON b.product_id = p.id
			WHERE p.business_id = $1 AND p.is_active
			GROUP BY p.id, p.min_stock
			HAVING COALESCE(SUM(b.quantity), 0) <= p.min_stock
		) low`, businessID).Scan(&totals.LowStockCount)
	if err != nil {
		return StockTotals{}, err
	}
	return totals, nil
}

func (r *PGRepository) LowStockProducts(ctx context.Context, businessID uuid.UUID) ([]LowStockRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.name, p.sku, p.min_stock, COALESCE(SUM(b.quantity), 0) AS total
		FROM products p
		LEFT JOIN batches b ON b.product_id = p.id
		WHERE p.business_id = $1 AND p.is_active
		GROUP BY p.id, p.name, p.sku, p.min_stock
		HAVING COALESCE(SUM(b.quantity), 0) <= p.min_stock
		ORDER BY total ASC, p.name ASC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LowStockRow, 0)
	for rows.Next() {
		var row LowStockRow
		if err := rows.Scan(&row.ProductID, &row.Name, &row.SKU, &row.MinStock, &row.TotalStock); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PGRepository) LowStockAcrossBusinesses(ctx context.Context, limit int) ([]LowStockRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.name, p.sku, p.min_stock, COALESCE(SUM(b.quantity), 0) AS total
		FROM products p
		LEFT JOIN batches b ON b.product_id = p.id
		WHERE p.is_active
		GROUP BY p.id, p.name, p.sku, p.min_stock
		HAVING COALESCE(SUM(b.quantity), 0) <= p.min_stock
		ORDER BY total ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LowStockRow, 0)
	for rows.Next() {
		var row LowStockRow
		if err := rows.Scan(&row.ProductID, &row.Name, &row.SKU, &row.MinStock, &row.TotalStock); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PGRepository) ExpiryAlerts(ctx context.Context, businessID uuid.UUID, days int) ([]ExpiryAlertRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.batch_number, p.id, p.name, l.name,
			b.expiry_date, b.quantity, (b.expiry_date - CURRENT_DATE) AS days_left
		FROM batches b
		JOIN products p ON p.id = b.product_id
		JOIN locations l ON l.id = b.location_id
		WHERE p.business_id = $1 AND b.quantity > 0
			AND b.expiry_date >= CURRENT_DATE
			AND b.expiry_date <= CURRENT_DATE + $2::int
		ORDER BY b.expiry_date ASC, b.created_at ASC`, businessID, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ExpiryAlertRow, 0)
	for rows.Next() {
		var row ExpiryAlertRow
		if err := rows.Scan(&row.BatchID, &row.BatchNumber, &row.ProductID, &row.ProductName,
			&row.Location, &row.ExpiryDate, &row.Quantity, &row.DaysLeft); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PGRepository) MovementTotals(ctx context.Context, businessID uuid.UUID, productID *uuid.UUID, from, to time.Time) (MovementTotals, error) {
	query := `
		SELECT t.tx_type, t.reason, SUM(t.quantity)
		FROM inventory_transactions t
		JOIN batches b ON b.id = t.batch_id
		JOIN products p ON p.id = b.product_id
		WHERE p.business_id = $1 AND NOT t.is_initial`
	args := []any{businessID}

	if productID != nil {
		args = append(args, *productID)
		query += fmt.Sprintf(" AND b.product_id = $%d", len(args))
	}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND t.created_at >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND t.created_at < $%d", len(args))
	}
	query += ` GROUP BY t.tx_type, t.reason`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return MovementTotals{}, err
	}
	defer rows.Close()

	totals := MovementTotals{OutwardByReason: make(map[string]int64)}
	for rows.Next() {
		var txType, reason string
		var sum int64
		if err := rows.Scan(&txType, &reason, &sum); err != nil {
			return MovementTotals{}, err
		}
		switch txType {
		case "IN":
			totals.InwardUnits += sum
		case "OUT":
			totals.OutwardUnits += sum
			totals.OutwardByReason[reason] += sum
		case "ADJUST":
			totals.AdjustmentNet += sum
		}
	}
	if err := rows.Err(); err != nil {
		return MovementTotals{}, err
	}
	totals.NetChange = totals.InwardUnits - totals.OutwardUnits + totals.AdjustmentNet
	return totals, nil
}
