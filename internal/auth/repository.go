package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfwise/shelfwise/internal/business"
	"github.com/shelfwise/shelfwise/internal/platform/db"
	"github.com/shelfwise/shelfwise/internal/shared"
)

// Repository is the auth persistence port.
type Repository interface {
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
	// CreateBusinessWithOwner writes the business, the optional default
	// location and the owner account in one transaction.
	CreateBusinessWithOwner(ctx context.Context, b business.Business, loc *business.Location, owner User) error
	CreateUser(ctx context.Context, u User) error
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a PostgreSQL-backed repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, business_id, email, name, password_hash, role, is_active, created_at`

func (r *PGRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

func (r *PGRepository) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *PGRepository) CreateBusinessWithOwner(ctx context.Context, b business.Business, loc *business.Location, owner User) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO businesses (id, name, business_type, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)`,
			b.ID, b.Name, string(b.Type), b.CreatedAt, b.UpdatedAt); err != nil {
			return err
		}
		if loc != nil {
			if _, err := tx.Exec(ctx, `
				INSERT INTO locations (id, business_id, name, address, is_default, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				loc.ID, loc.BusinessID, loc.Name, loc.Address, loc.IsDefault,
				loc.CreatedAt, loc.UpdatedAt); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO users (`+userColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			owner.ID, owner.BusinessID, owner.Email, owner.Name,
			owner.PasswordHash, string(owner.Role), owner.IsActive, owner.CreatedAt)
		return err
	})
	return mapAuthErr(err)
}

func (r *PGRepository) CreateUser(ctx context.Context, u User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.BusinessID, u.Email, u.Name, u.PasswordHash,
		string(u.Role), u.IsActive, u.CreatedAt)
	return mapAuthErr(err)
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.BusinessID, &u.Email, &u.Name,
		&u.PasswordHash, &role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	u.Role = shared.Role(role)
	return u, nil
}

func mapAuthErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}
