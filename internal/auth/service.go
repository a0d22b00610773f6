package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/shelfwise/shelfwise/internal/business"
	"github.com/shelfwise/shelfwise/internal/platform/httpx"
	"github.com/shelfwise/shelfwise/internal/shared"
)

// dummyHash keeps login timing flat when the email is unknown.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("shelfwise-dummy"), bcrypt.DefaultCost)

// Service implements authentication and registration.
type Service struct {
	repo Repository
}

// NewService constructs the auth service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Login verifies the credentials and returns the account. Inactive accounts
// fail the same way as wrong passwords.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return User{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Register creates a business and its owner account atomically. The default
// location is provisioned only when the input opts in.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	kind := business.Type(input.BusinessType)
	if !kind.Valid() {
		return User{}, fmt.Errorf("%w: unknown business type %q", httpx.ErrValidation, input.BusinessType)
	}
	if len(input.Password) < 8 {
		return User{}, fmt.Errorf("%w: password must be at least 8 characters", httpx.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("auth: hash password: %w", err)
	}

	now := time.Now().UTC()
	b := business.Business{
		ID:        uuid.New(),
		Name:      input.BusinessName,
		Type:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var loc *business.Location
	if input.CreateDefaultLocation {
		loc = &business.Location{
			ID:         uuid.New(),
			BusinessID: b.ID,
			Name:       business.DefaultLocationName,
			IsDefault:  true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}

	owner := User{
		ID:           uuid.New(),
		BusinessID:   b.ID,
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Name:         input.OwnerName,
		PasswordHash: string(hash),
		Role:         shared.RoleOwner,
		IsActive:     true,
		CreatedAt:    now,
	}

	if err := s.repo.CreateBusinessWithOwner(ctx, b, loc, owner); err != nil {
		return User{}, err
	}
	return owner, nil
}

// GetUser loads an account by ID.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	return s.repo.GetUserByID(ctx, id)
}
