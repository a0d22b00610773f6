package business

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise/internal/shared"
)

type memoryRepo struct {
	mu         sync.Mutex
	businesses map[uuid.UUID]Business
	locations  map[uuid.UUID]Location
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		businesses: make(map[uuid.UUID]Business),
		locations:  make(map[uuid.UUID]Location),
	}
}

func (m *memoryRepo) GetBusiness(ctx context.Context, id uuid.UUID) (Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.businesses[id]
	if !ok {
		return Business{}, shared.ErrNotFound
	}
	return b, nil
}

func (m *memoryRepo) UpdateBusiness(ctx context.Context, b Business) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.businesses[b.ID]; !ok {
		return shared.ErrNotFound
	}
	m.businesses[b.ID] = b
	return nil
}

func (m *memoryRepo) CreateLocation(ctx context.Context, loc Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if loc.IsDefault {
		m.clearDefault(loc.BusinessID, loc.ID)
	}
	m.locations[loc.ID] = loc
	return nil
}

func (m *memoryRepo) clearDefault(businessID, except uuid.UUID) {
	for id, other := range m.locations {
		if other.BusinessID == businessID && other.IsDefault && id != except {
			other.IsDefault = false
			m.locations[id] = other
		}
	}
}

func (m *memoryRepo) GetLocation(ctx context.Context, businessID, id uuid.UUID) (Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loc, ok := m.locations[id]
	if !ok || loc.BusinessID != businessID {
		return Location{}, shared.ErrNotFound
	}
	return loc, nil
}

func (m *memoryRepo) ListLocations(ctx context.Context, businessID uuid.UUID) ([]Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Location, 0)
	for _, loc := range m.locations {
		if loc.BusinessID == businessID {
			out = append(out, loc)
		}
	}
	return out, nil
}

func (m *memoryRepo) UpdateLocation(ctx context.Context, loc Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.locations[loc.ID]
	if !ok || existing.BusinessID != loc.BusinessID {
		return shared.ErrNotFound
	}
	if loc.IsDefault {
		m.clearDefault(loc.BusinessID, loc.ID)
	}
	loc.CreatedAt = existing.CreatedAt
	m.locations[loc.ID] = loc
	return nil
}

func (m *memoryRepo) DeleteLocation(ctx context.Context, businessID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	loc, ok := m.locations[id]
	if !ok || loc.BusinessID != businessID {
		return shared.ErrNotFound
	}
	delete(m.locations, id)
	return nil
}

func (m *memoryRepo) DefaultLocation(ctx context.Context, businessID uuid.UUID) (Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, loc := range m.locations {
		if loc.BusinessID == businessID && loc.IsDefault {
			return loc, nil
		}
	}
	return Location{}, shared.ErrNotFound
}

func seedBusiness(repo *memoryRepo) uuid.UUID {
	id := uuid.New()
	repo.businesses[id] = Business{ID: id, Name: "Corner Pharmacy", Type: TypePharmacy, CreatedAt: time.Now()}
	return id
}

func TestCreateLocationDemotesPreviousDefault(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo)
	businessID := seedBusiness(repo)

	first, err := service.CreateLocation(context.Background(), CreateLocationInput{
		BusinessID: businessID, Name: "Back Room", IsDefault: true,
	})
	require.NoError(t, err)

	second, err := service.CreateLocation(context.Background(), CreateLocationInput{
		BusinessID: businessID, Name: "Front Shelf", IsDefault: true,
	})
	require.NoError(t, err)

	got, err := service.DefaultLocation(context.Background(), businessID)
	require.NoError(t, err)
	require.Equal(t, second.ID, got.ID)

	demoted, err := service.GetLocation(context.Background(), businessID, first.ID)
	require.NoError(t, err)
	require.False(t, demoted.IsDefault)
}

func TestEnsureDefaultLocationIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo)
	businessID := seedBusiness(repo)

	first, err := service.EnsureDefaultLocation(context.Background(), businessID)
	require.NoError(t, err)
	require.Equal(t, DefaultLocationName, first.Name)
	require.True(t, first.IsDefault)

	again, err := service.EnsureDefaultLocation(context.Background(), businessID)
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID, "no second default is provisioned")
}

func TestUpdateBusinessRejectsUnknownType(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo)
	businessID := seedBusiness(repo)

	_, err := service.Update(context.Background(), businessID, "Renamed", Type("bakery"))
	require.Error(t, err)

	b, err := service.Get(context.Background(), businessID)
	require.NoError(t, err)
	require.Equal(t, TypePharmacy, b.Type)
}

func TestLocationScopedToBusiness(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo)
	businessID := seedBusiness(repo)

	loc, err := service.CreateLocation(context.Background(), CreateLocationInput{
		BusinessID: businessID, Name: "Cold Storage",
	})
	require.NoError(t, err)

	_, err = service.GetLocation(context.Background(), uuid.New(), loc.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
