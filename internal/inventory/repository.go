package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shelfwise/shelfwise/internal/platform/db"
	"github.com/shelfwise/shelfwise/internal/shared"
)

// TxRepository is the write surface available inside a movement transaction.
// Batch lookups lock the selected rows until the transaction finishes.
type TxRepository interface {
	GetBatchForUpdate(ctx context.Context, businessID, batchID uuid.UUID) (Batch, error)
	// ListProductBatchesForUpdate returns all batches of the product holding
	// stock, ordered earliest-expiry first with undated batches last, and
	// locks them.
	ListProductBatchesForUpdate(ctx context.Context, businessID, productID uuid.UUID) ([]Batch, error)
	InsertBatch(ctx context.Context, b Batch) error
	InsertTransaction(ctx context.Context, t Transaction) error
	UpdateBatchQuantity(ctx context.Context, batchID uuid.UUID, quantity int64, updatedAt time.Time) error
}

// Repository is the inventory persistence port.
type Repository interface {
	// WithTx runs fn inside a single storage transaction. Everything fn
	// writes becomes visible atomically or not at all.
	WithTx(ctx context.Context, fn func(ctx context.Context, txRepo TxRepository) error) error

	GetBatch(ctx context.Context, businessID, batchID uuid.UUID) (Batch, error)
	ListBatches(ctx context.Context, filter BatchFilter) ([]Batch, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)

	TotalStock(ctx context.Context, businessID, productID uuid.UUID) (int64, error)
	BatchCount(ctx context.Context, businessID, productID uuid.UUID) (int, error)
	StockValue(ctx context.Context, businessID, productID uuid.UUID) (decimal.Decimal, error)
	NearestExpiry(ctx context.Context, businessID, productID uuid.UUID) (*time.Time, error)

	// UnsyncedTransactions returns the oldest ledger entries not yet pushed
	// to the external sync endpoint.
	UnsyncedTransactions(ctx context.Context, limit int) ([]Transaction, error)
	MarkSynced(ctx context.Context, ids []uuid.UUID, at time.Time) error
	// ExpiringSoon returns stocked batches across all businesses whose expiry
	// falls within the window starting today.
	ExpiringSoon(ctx context.Context, withinDays, limit int) ([]Batch, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a PostgreSQL-backed repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const batchColumns = `b.id, b.product_id, b.location_id, b.batch_number,
	b.expiry_date, b.manufacture_date, b.quantity, b.cost_price, b.sell_price,
	b.created_at, b.updated_at`

const transactionColumns = `t.id, t.batch_id, t.user_id, t.tx_type, t.quantity,
	t.reason, t.reference, t.notes, t.is_initial, t.created_at, t.synced_at`

// fefoOrder sorts earliest expiry first, undated batches last, with creation
// time as the tiebreak.
const fefoOrder = `ORDER BY b.expiry_date ASC NULLS LAST, b.created_at ASC`

func (r *PGRepository) WithTx(ctx context.Context, fn func(ctx context.Context, txRepo TxRepository) error) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx})
	})
	return translateErr(err)
}

func (r *PGRepository) GetBatch(ctx context.Context, businessID, batchID uuid.UUID) (Batch, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+batchColumns+`
		FROM batches b
		JOIN products p ON p.id = b.product_id
		WHERE b.id = $1 AND p.business_id = $2`, batchID, businessID)
	return scanBatch(row)
}

func (r *PGRepository) ListBatches(ctx context.Context, filter BatchFilter) ([]Batch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM batches b
		JOIN products p ON p.id = b.product_id
		WHERE p.business_id = $1`
	args := []any{filter.BusinessID}

	if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		query += fmt.Sprintf(" AND b.product_id = $%d", len(args))
	}
	if filter.LocationID != nil {
		args = append(args, *filter.LocationID)
		query += fmt.Sprintf(" AND b.location_id = $%d", len(args))
	}
	if filter.ExpiringWithinDays != nil {
		args = append(args, *filter.ExpiringWithinDays)
		query += fmt.Sprintf(` AND b.quantity > 0 AND b.expiry_date IS NOT NULL
			AND b.expiry_date >= CURRENT_DATE
			AND b.expiry_date <= CURRENT_DATE + $%d::int`, len(args))
	}

	query += " " + fefoOrder
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()
	return collectBatches(rows)
}

func (r *PGRepository) ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM inventory_transactions t
		JOIN batches b ON b.id = t.batch_id
		JOIN products p ON p.id = b.product_id
		WHERE p.business_id = $1`
	args := []any{filter.BusinessID}

	if filter.BatchID != nil {
		args = append(args, *filter.BatchID)
		query += fmt.Sprintf(" AND t.batch_id = $%d", len(args))
	}
	if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		query += fmt.Sprintf(" AND b.product_id = $%d", len(args))
	}
	if filter.Type != nil {
		args = append(args, string(*filter.Type))
		query += fmt.Sprintf(" AND t.tx_type = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND t.created_at >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND t.created_at < $%d", len(args))
	}

	query += " ORDER BY t.created_at DESC, t.id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *PGRepository) TotalStock(ctx context.Context, businessID, productID uuid.UUID) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(b.quantity), 0)
		FROM batches b
		JOIN products p ON p.id = b.product_id
		WHERE p.business_id = $1 AND b.product_id = $2`, businessID, productID).Scan(&total)
	return total, translateErr(err)
}

func (r *PGRepository) BatchCount(ctx context.Context, businessID, productID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM batches b
		JOIN products p ON p.id = b.product_id
		WHERE p.business_id = $1 AND b.product_id = $2 AND b.quantity > 0`, businessID, productID).Scan(&count)
	return count, translateErr(err)
}

func (r *PGRepository) StockValue(ctx context.Context, businessID, productID uuid.UUID) (decimal.Decimal, error) {
	var value decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(b.quantity * b.cost_price), 0)
		FROM batches b
		JOIN products p ON p.id = b.product_id
		WHERE p.business_id = $1 AND b.product_id = $2`, businessID, productID).Scan(&value)
	return value, translateErr(err)
}

func (r *PGRepository) NearestExpiry(ctx context.Context, businessID, productID uuid.UUID) (*time.Time, error) {
	var expiry *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT MIN(b.expiry_date)
		FROM batches b
		JOIN products p ON p.id = b.product_id
		WHERE p.business_id = $1 AND b.product_id = $2
			AND b.quantity > 0 AND b.expiry_date >= CURRENT_DATE`, businessID, productID).Scan(&expiry)
	return expiry, translateErr(err)
}

func (r *PGRepository) UnsyncedTransactions(ctx context.Context, limit int) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM inventory_transactions t
		WHERE t.synced_at IS NULL
		ORDER BY t.created_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *PGRepository) MarkSynced(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE inventory_transactions
		SET synced_at = $1
		WHERE id = ANY($2)`, at, ids)
	return translateErr(err)
}

func (r *PGRepository) ExpiringSoon(ctx context.Context, withinDays, limit int) ([]Batch, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+batchColumns+`
		FROM batches b
		WHERE b.quantity > 0 AND b.expiry_date >= CURRENT_DATE
			AND b.expiry_date <= CURRENT_DATE + $1::int
		ORDER BY b.expiry_date ASC
		LIMIT $2`, withinDays, limit)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()
	return collectBatches(rows)
}

type pgTxRepository struct {
	tx pgx.Tx
}

func (r *pgTxRepository) GetBatchForUpdate(ctx context.Context, businessID, batchID uuid.UUID) (Batch, error) {
	row := r.tx.QueryRow(ctx, `
		SELECT `+batchColumns+`
		FROM batches b
		JOIN products p ON p.id = b.product_id
		WHERE b.id = $1 AND p.business_id = $2
		FOR UPDATE OF b`, batchID, businessID)
	return scanBatch(row)
}

func (r *pgTxRepository) ListProductBatchesForUpdate(ctx context.Context, businessID, productID uuid.UUID) ([]Batch, error) {
	rows, err := r.tx.Query(ctx, `
		SELECT `+batchColumns+`
		FROM batches b
		JOIN products p ON p.id = b.product_id
		WHERE b.product_id = $1 AND p.business_id = $2 AND b.quantity > 0
		`+fefoOrder+`
		FOR UPDATE OF b`, productID, businessID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()
	return collectBatches(rows)
}

func (r *pgTxRepository) InsertBatch(ctx context.Context, b Batch) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO batches (id, product_id, location_id, batch_number,
			expiry_date, manufacture_date, quantity, cost_price, sell_price,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.ProductID, b.LocationID, b.BatchNumber,
		b.ExpiryDate, b.ManufactureDate, b.Quantity, b.CostPrice, b.SellPrice,
		b.CreatedAt, b.UpdatedAt)
	return translateErr(err)
}

func (r *pgTxRepository) InsertTransaction(ctx context.Context, t Transaction) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO inventory_transactions (id, batch_id, user_id, tx_type,
			quantity, reason, reference, notes, is_initial, created_at, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.BatchID, t.UserID, string(t.Type),
		t.Quantity, string(t.Reason), t.Reference, t.Notes, t.Initial, t.CreatedAt, t.SyncedAt)
	return translateErr(err)
}

func (r *pgTxRepository) UpdateBatchQuantity(ctx context.Context, batchID uuid.UUID, quantity int64, updatedAt time.Time) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE batches SET quantity = $1, updated_at = $2 WHERE id = $3`,
		quantity, updatedAt, batchID)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanBatch(row pgx.Row) (Batch, error) {
	var b Batch
	err := row.Scan(&b.ID, &b.ProductID, &b.LocationID, &b.BatchNumber,
		&b.ExpiryDate, &b.ManufactureDate, &b.Quantity, &b.CostPrice, &b.SellPrice,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return Batch{}, translateErr(err)
	}
	return b, nil
}

func collectBatches(rows pgx.Rows) ([]Batch, error) {
	batches := make([]Batch, 0)
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, translateErr(rows.Err())
}

func collectTransactions(rows pgx.Rows) ([]Transaction, error) {
	entries := make([]Transaction, 0)
	for rows.Next() {
		var t Transaction
		var txType, reason string
		err := rows.Scan(&t.ID, &t.BatchID, &t.UserID, &txType, &t.Quantity,
			&reason, &t.Reference, &t.Notes, &t.Initial, &t.CreatedAt, &t.SyncedAt)
		if err != nil {
			return nil, translateErr(err)
		}
		t.Type = TxType(txType)
		t.Reason = Reason(reason)
		entries = append(entries, t)
	}
	return entries, translateErr(rows.Err())
}

// translateErr maps storage errors to domain errors. Serialization failures,
// deadlocks and lock timeouts surface as ErrTransient so callers can retry
// the whole operation.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%w: %s", ErrTransient, pgErr.Code)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}
