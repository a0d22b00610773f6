package business

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfwise/shelfwise/internal/platform/db"
	"github.com/shelfwise/shelfwise/internal/platform/httpx"
	"github.com/shelfwise/shelfwise/internal/shared"
)

// Repository is the business persistence port.
type Repository interface {
	GetBusiness(ctx context.Context, id uuid.UUID) (Business, error)
	UpdateBusiness(ctx context.Context, b Business) error

	CreateLocation(ctx context.Context, loc Location) error
	GetLocation(ctx context.Context, businessID, id uuid.UUID) (Location, error)
	ListLocations(ctx context.Context, businessID uuid.UUID) ([]Location, error)
	UpdateLocation(ctx context.Context, loc Location) error
	DeleteLocation(ctx context.Context, businessID, id uuid.UUID) error
	DefaultLocation(ctx context.Context, businessID uuid.UUID) (Location, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a PostgreSQL-backed repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const locationColumns = `id, business_id, name, address, is_default, created_at, updated_at`

func (r *PGRepository) GetBusiness(ctx context.Context, id uuid.UUID) (Business, error) {
	var b Business
	var kind string
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, business_type, created_at, updated_at
		FROM businesses WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &kind, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return Business{}, mapErr(err)
	}
	b.Type = Type(kind)
	return b, nil
}

func (r *PGRepository) UpdateBusiness(ctx context.Context, b Business) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE businesses SET name = $1, business_type = $2, updated_at = $3
		WHERE id = $4`, b.Name, string(b.Type), time.Now().UTC(), b.ID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CreateLocation inserts the location. When it is flagged default, the
// previous default of the business is cleared in the same transaction.
func (r *PGRepository) CreateLocation(ctx context.Context, loc Location) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if loc.IsDefault {
			if _, err := tx.Exec(ctx, `
				UPDATE locations SET is_default = FALSE
				WHERE business_id = $1 AND is_default`, loc.BusinessID); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO locations (`+locationColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			loc.ID, loc.BusinessID, loc.Name, loc.Address, loc.IsDefault,
			loc.CreatedAt, loc.UpdatedAt)
		return err
	})
	return mapErr(err)
}

func (r *PGRepository) GetLocation(ctx context.Context, businessID, id uuid.UUID) (Location, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+locationColumns+`
		FROM locations WHERE id = $1 AND business_id = $2`, id, businessID)
	return scanLocation(row)
}

func (r *PGRepository) ListLocations(ctx context.Context, businessID uuid.UUID) ([]Location, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+locationColumns+`
		FROM locations WHERE business_id = $1
		ORDER BY is_default DESC, name ASC`, businessID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	locations := make([]Location, 0)
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, mapErr(rows.Err())
}

func (r *PGRepository) UpdateLocation(ctx context.Context, loc Location) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if loc.IsDefault {
			if _, err := tx.Exec(ctx, `
				UPDATE locations SET is_default = FALSE
				WHERE business_id = $1 AND is_default AND id <> $2`,
				loc.BusinessID, loc.ID); err != nil {
				return err
			}
		}
		tag, err := tx.Exec(ctx, `
			UPDATE locations SET name = $1, address = $2, is_default = $3, updated_at = $4
			WHERE id = $5 AND business_id = $6`,
			loc.Name, loc.Address, loc.IsDefault, time.Now().UTC(), loc.ID, loc.BusinessID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
	return mapErr(err)
}

func (r *PGRepository) DeleteLocation(ctx context.Context, businessID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM locations WHERE id = $1 AND business_id = $2`, id, businessID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) DefaultLocation(ctx context.Context, businessID uuid.UUID) (Location, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+locationColumns+`
		FROM locations WHERE business_id = $1 AND is_default`, businessID)
	return scanLocation(row)
}

func scanLocation(row pgx.Row) (Location, error) {
	var loc Location
	err := row.Scan(&loc.ID, &loc.BusinessID, &loc.Name, &loc.Address,
		&loc.IsDefault, &loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		return Location{}, mapErr(err)
	}
	return loc, nil
}

func mapErr(err error) error {
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
			return ErrLocationInUse
		}
	}
	return err
}
