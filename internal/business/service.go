package business

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise/shelfwise/internal/platform/httpx"
	"github.com/shelfwise/shelfwise/internal/shared"
)

// Service exposes business and location operations.
type Service struct {
	repo Repository
}

// NewService constructs the business service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the caller's business.
func (s *Service) Get(ctx context.Context, businessID uuid.UUID) (Business, error) {
	return s.repo.GetBusiness(ctx, businessID)
}

// Update renames or recategorizes the business.
func (s *Service) Update(ctx context.Context, businessID uuid.UUID, name string, kind Type) (Business, error) {
	if !kind.Valid() {
		return Business{}, fmt.Errorf("%w: unknown business type %q", httpx.ErrValidation, kind)
	}
	b, err := s.repo.GetBusiness(ctx, businessID)
	if err != nil {
		return Business{}, err
	}
	b.Name = name
	b.Type = kind
	if err := s.repo.UpdateBusiness(ctx, b); err != nil {
		return Business{}, err
	}
	return s.repo.GetBusiness(ctx, businessID)
}

// CreateLocationInput describes a new location.
type CreateLocationInput struct {
	BusinessID uuid.UUID
	Name       string
	Address    string
	IsDefault  bool
}

// CreateLocation adds a location. Marking it default demotes the previous
// default atomically.
func (s *Service) CreateLocation(ctx context.Context, input CreateLocationInput) (Location, error) {
	now := time.Now().UTC()
	loc := Location{
		ID:         uuid.New(),
		BusinessID: input.BusinessID,
		Name:       input.Name,
		Address:    input.Address,
		IsDefault:  input.IsDefault,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateLocation(ctx, loc); err != nil {
		return Location{}, err
	}
	return loc, nil
}

// GetLocation returns one location within the business scope.
func (s *Service) GetLocation(ctx context.Context, businessID, locationID uuid.UUID) (Location, error) {
	return s.repo.GetLocation(ctx, businessID, locationID)
}

// ListLocations returns the business locations, default first.
func (s *Service) ListLocations(ctx context.Context, businessID uuid.UUID) ([]Location, error) {
	return s.repo.ListLocations(ctx, businessID)
}

// UpdateLocation edits a location in place.
func (s *Service) UpdateLocation(ctx context.Context, loc Location) (Location, error) {
	if err := s.repo.UpdateLocation(ctx, loc); err != nil {
		return Location{}, err
	}
	return s.repo.GetLocation(ctx, loc.BusinessID, loc.ID)
}

// DeleteLocation removes an empty location.
func (s *Service) DeleteLocation(ctx context.Context, businessID, locationID uuid.UUID) error {
	return s.repo.DeleteLocation(ctx, businessID, locationID)
}

// DefaultLocation returns the business default location when one exists.
func (s *Service) DefaultLocation(ctx context.Context, businessID uuid.UUID) (Location, error) {
	return s.repo.DefaultLocation(ctx, businessID)
}

// EnsureDefaultLocation provisions the stock default location when the
// business has none yet. Callers opt in explicitly; nothing is created as a
// side effect of other operations.
func (s *Service) EnsureDefaultLocation(ctx context.Context, businessID uuid.UUID) (Location, error) {
	existing, err := s.repo.DefaultLocation(ctx, businessID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return Location{}, err
	}
	return s.CreateLocation(ctx, CreateLocationInput{
		BusinessID: businessID,
		Name:       DefaultLocationName,
		IsDefault:  true,
	})
}
