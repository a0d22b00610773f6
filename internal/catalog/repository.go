package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfwise/shelfwise/internal/platform/httpx"
	"github.com/shelfwise/shelfwise/internal/shared"
)

// Repository is the catalog persistence port.
type Repository interface {
	CreateCategory(ctx context.Context, c Category) error
	GetCategory(ctx context.Context, businessID, id uuid.UUID) (Category, error)
	ListCategories(ctx context.Context, businessID uuid.UUID) ([]Category, error)
	UpdateCategory(ctx context.Context, c Category) error
	DeleteCategory(ctx context.Context, businessID, id uuid.UUID) error

	CreateProduct(ctx context.Context, p Product) error
	GetProduct(ctx context.Context, businessID, id uuid.UUID) (Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, businessID, id uuid.UUID) error
}

// ErrProductInUse indicates batches still reference the product.
var ErrProductInUse = errors.New("catalog: product holds batches")

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a PostgreSQL-backed repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const categoryColumns = `id, business_id, parent_id, name, description, created_at, updated_at`

const productColumns = `id, business_id, category_id, name, sku, barcode,
	description, unit, min_stock, is_active, created_at, updated_at`

func (r *PGRepository) CreateCategory(ctx context.Context, c Category) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO categories (`+categoryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.BusinessID, c.ParentID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt)
	return mapCatalogErr(err)
}

func (r *PGRepository) GetCategory(ctx context.Context, businessID, id uuid.UUID) (Category, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+categoryColumns+`
		FROM categories WHERE id = $1 AND business_id = $2`, id, businessID)
	var c Category
	err := row.Scan(&c.ID, &c.BusinessID, &c.ParentID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Category{}, mapCatalogErr(err)
	}
	return c, nil
}

func (r *PGRepository) ListCategories(ctx context.Context, businessID uuid.UUID) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+categoryColumns+`
		FROM categories WHERE business_id = $1 ORDER BY name ASC`, businessID)
	if err != nil {
		return nil, mapCatalogErr(err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.BusinessID, &c.ParentID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, mapCatalogErr(err)
		}
		categories = append(categories, c)
	}
	return categories, mapCatalogErr(rows.Err())
}

func (r *PGRepository) UpdateCategory(ctx context.Context, c Category) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE categories SET parent_id = $1, name = $2, description = $3, updated_at = $4
		WHERE id = $5 AND business_id = $6`,
		c.ParentID, c.Name, c.Description, time.Now().UTC(), c.ID, c.BusinessID)
	if err != nil {
		return mapCatalogErr(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) DeleteCategory(ctx context.Context, businessID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM categories WHERE id = $1 AND business_id = $2`, id, businessID)
	if err != nil {
		return mapCatalogErr(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) CreateProduct(ctx context.Context, p Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.BusinessID, p.CategoryID, p.Name, p.SKU, p.Barcode,
		p.Description, p.Unit, p.MinStock, p.IsActive, p.CreatedAt, p.UpdatedAt)
	return mapCatalogErr(err)
}

func (r *PGRepository) GetProduct(ctx context.Context, businessID, id uuid.UUID) (Product, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products WHERE id = $1 AND business_id = $2`, id, businessID)
	return scanProduct(row)
}

func (r *PGRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products WHERE business_id = $1`
	args := []any{filter.BusinessID}

	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%", filter.Search)
		query += fmt.Sprintf(" AND (name ILIKE $%d OR sku ILIKE $%d OR barcode = $%d)",
			len(args)-1, len(args)-1, len(args))
	}
	if filter.ActiveOnly {
		query += " AND is_active"
	}
	query += " ORDER BY name ASC"
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
		return nil, mapCatalogErr(err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, mapCatalogErr(rows.Err())
}

func (r *PGRepository) UpdateProduct(ctx context.Context, p Product) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET category_id = $1, name = $2, sku = $3, barcode = $4,
			description = $5, unit = $6, min_stock = $7, is_active = $8,
			updated_at = $9
		WHERE id = $10 AND business_id = $11`,
		p.CategoryID, p.Name, p.SKU, p.Barcode, p.Description, p.Unit,
		p.MinStock, p.IsActive, time.Now().UTC(), p.ID, p.BusinessID)
	if err != nil {
		return mapCatalogErr(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) DeleteProduct(ctx context.Context, businessID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM products WHERE id = $1 AND business_id = $2`, id, businessID)
	if err != nil {
		return mapCatalogErr(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.BusinessID, &p.CategoryID, &p.Name, &p.SKU, &p.Barcode,
		&p.Description, &p.Unit, &p.MinStock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, mapCatalogErr(err)
	}
	return p, nil
}

func mapCatalogErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return httpx.ErrDuplicate
		case "23503":
			return ErrProductInUse
		}
	}
	return err
}
