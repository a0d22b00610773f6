package catalog

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise/internal/shared"
)

type memoryRepo struct {
	mu         sync.Mutex
	categories map[uuid.UUID]Category
	products   map[uuid.UUID]Product
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		categories: make(map[uuid.UUID]Category),
		products:   make(map[uuid.UUID]Product),
	}
}

func (m *memoryRepo) CreateCategory(ctx context.Context, c Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = c
	return nil
}

func (m *memoryRepo) GetCategory(ctx context.Context, businessID, id uuid.UUID) (Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.BusinessID != businessID {
		return Category{}, shared.ErrNotFound
	}
	return c, nil
}

func (m *memoryRepo) ListCategories(ctx context.Context, businessID uuid.UUID) ([]Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Category, 0)
	for _, c := range m.categories {
		if c.BusinessID == businessID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryRepo) UpdateCategory(ctx context.Context, c Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.categories[c.ID]
	if !ok || existing.BusinessID != c.BusinessID {
		return shared.ErrNotFound
	}
	c.CreatedAt = existing.CreatedAt
	m.categories[c.ID] = c
	return nil
}

func (m *memoryRepo) DeleteCategory(ctx context.Context, businessID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.BusinessID != businessID {
		return shared.ErrNotFound
	}
	delete(m.categories, id)
	for pid, p := range m.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
			m.products[pid] = p
		}
	}
	return nil
}

func (m *memoryRepo) CreateProduct(ctx context.Context, p Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
	return nil
}

func (m *memoryRepo) GetProduct(ctx context.Context, businessID, id uuid.UUID) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.BusinessID != businessID {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Product, 0)
	for _, p := range m.products {
		if p.BusinessID != filter.BusinessID {
			continue
		}
		if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
			continue
		}
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(p.Name), needle) &&
				!strings.Contains(strings.ToLower(p.SKU), needle) &&
				p.Barcode != filter.Search {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryRepo) UpdateProduct(ctx context.Context, p Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.products[p.ID]
	if !ok || existing.BusinessID != p.BusinessID {
		return shared.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	m.products[p.ID] = p
	return nil
}

func (m *memoryRepo) DeleteProduct(ctx context.Context, businessID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.BusinessID != businessID {
		return shared.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func TestCreateProductValidatesCategoryScope(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo)
	businessID := uuid.New()

	foreign, err := service.CreateCategory(context.Background(), CreateCategoryInput{
		BusinessID: uuid.New(), Name: "Painkillers",
	})
	require.NoError(t, err)

	_, err = service.CreateProduct(context.Background(), CreateProductInput{
		BusinessID: businessID,
		CategoryID: &foreign.ID,
		Name:       "Ibuprofen 200mg",
		SKU:        "IBU-200",
	})
	require.ErrorIs(t, err, shared.ErrNotFound, "category of another business is invisible")
}

func TestCreateProductDefaults(t *testing.T) {
	service := NewService(newMemoryRepo())
	businessID := uuid.New()

	p, err := service.CreateProduct(context.Background(), CreateProductInput{
		BusinessID: businessID,
		Name:       "  Ibuprofen 200mg ",
		SKU:        "IBU-200",
		MinStock:   10,
	})
	require.NoError(t, err)
	require.True(t, p.IsActive)
	require.Equal(t, "Ibuprofen 200mg", p.Name, "names are trimmed")
	require.EqualValues(t, 10, p.MinStock)
}

func TestListProductsFilters(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo)
	businessID := uuid.New()

	active, err := service.CreateProduct(context.Background(), CreateProductInput{
		BusinessID: businessID, Name: "Ibuprofen", SKU: "IBU-200",
	})
	require.NoError(t, err)

	retired, err := service.CreateProduct(context.Background(), CreateProductInput{
		BusinessID: businessID, Name: "Aspirin", SKU: "ASP-100",
	})
	require.NoError(t, err)
	retired.IsActive = false
	_, err = service.UpdateProduct(context.Background(), retired)
	require.NoError(t, err)

	got, err := service.ListProducts(context.Background(), ProductFilter{
		BusinessID: businessID, ActiveOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, active.ID, got[0].ID)

	got, err = service.ListProducts(context.Background(), ProductFilter{
		BusinessID: businessID, Search: "asp",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, retired.ID, got[0].ID)
}

func TestBarcodeLookup(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo)
	businessID := uuid.New()

	scanned, err := service.CreateProduct(context.Background(), CreateProductInput{
		BusinessID: businessID, Name: "Vitamin C", SKU: "VIT-C", Barcode: "5012345678900",
	})
	require.NoError(t, err)
	_, err = service.CreateProduct(context.Background(), CreateProductInput{
		BusinessID: businessID, Name: "Vitamin D", SKU: "VIT-D", Barcode: "5098765432100",
	})
	require.NoError(t, err)

	got, err := service.ListProducts(context.Background(), ProductFilter{
		BusinessID: businessID, Search: "5012345678900",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, scanned.ID, got[0].ID)
}

func TestCategoryParentMustBeInScope(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo)
	businessID := uuid.New()

	foreign, err := service.CreateCategory(context.Background(), CreateCategoryInput{
		BusinessID: uuid.New(), Name: "Elsewhere",
	})
	require.NoError(t, err)

	_, err = service.CreateCategory(context.Background(), CreateCategoryInput{
		BusinessID: businessID, ParentID: &foreign.ID, Name: "Orphan",
	})
	require.ErrorIs(t, err, shared.ErrNotFound)

	parent, err := service.CreateCategory(context.Background(), CreateCategoryInput{
		BusinessID: businessID, Name: "Medicines",
	})
	require.NoError(t, err)
	child, err := service.CreateCategory(context.Background(), CreateCategoryInput{
		BusinessID: businessID, ParentID: &parent.ID, Name: "Painkillers",
	})
	require.NoError(t, err)
	require.Equal(t, parent.ID, *child.ParentID)

	parent.ParentID = &parent.ID
	_, err = service.UpdateCategory(context.Background(), parent)
	require.Error(t, err, "a category cannot parent itself")
}

func TestDeleteCategoryDetachesProducts(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo)
	businessID := uuid.New()

	c, err := service.CreateCategory(context.Background(), CreateCategoryInput{
		BusinessID: businessID, Name: "Vitamins",
	})
	require.NoError(t, err)

	p, err := service.CreateProduct(context.Background(), CreateProductInput{
		BusinessID: businessID, CategoryID: &c.ID, Name: "Vitamin C", SKU: "VIT-C",
	})
	require.NoError(t, err)

	require.NoError(t, service.DeleteCategory(context.Background(), businessID, c.ID))

	got, err := service.GetProduct(context.Background(), businessID, p.ID)
	require.NoError(t, err)
	require.Nil(t, got.CategoryID)
}
