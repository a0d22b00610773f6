package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise/shelfwise/internal/platform/httpx"
)

// Service exposes catalog operations.
type Service struct {
	repo Repository
}

// NewService constructs the catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateCategoryInput describes a new category.
type CreateCategoryInput struct {
	BusinessID  uuid.UUID
	ParentID    *uuid.UUID
	Name        string
	Description string
}

// CreateCategory adds a category.
func (s *Service) CreateCategory(ctx context.Context, input CreateCategoryInput) (Category, error) {
	if input.ParentID != nil {
		if _, err := s.repo.GetCategory(ctx, input.BusinessID, *input.ParentID); err != nil {
			return Category{}, err
		}
	}
	now := time.Now().UTC()
	c := Category{
		ID:          uuid.New(),
		BusinessID:  input.BusinessID,
		ParentID:    input.ParentID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return Category{}, err
	}
	return c, nil
}

// GetCategory returns one category within the business scope.
func (s *Service) GetCategory(ctx context.Context, businessID, id uuid.UUID) (Category, error) {
	return s.repo.GetCategory(ctx, businessID, id)
}

// ListCategories returns the business categories by name.
func (s *Service) ListCategories(ctx context.Context, businessID uuid.UUID) ([]Category, error) {
	return s.repo.ListCategories(ctx, businessID)
}

// UpdateCategory edits a category.
func (s *Service) UpdateCategory(ctx context.Context, c Category) (Category, error) {
	if c.ParentID != nil {
		if *c.ParentID == c.ID {
			return Category{}, fmt.Errorf("%w: category cannot be its own parent", httpx.ErrValidation)
		}
		if _, err := s.repo.GetCategory(ctx, c.BusinessID, *c.ParentID); err != nil {
			return Category{}, err
		}
	}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return Category{}, err
	}
	return s.repo.GetCategory(ctx, c.BusinessID, c.ID)
}

// DeleteCategory removes a category; products keep a null category.
func (s *Service) DeleteCategory(ctx context.Context, businessID, id uuid.UUID) error {
	return s.repo.DeleteCategory(ctx, businessID, id)
}

// CreateProductInput describes a new product.
type CreateProductInput struct {
	BusinessID  uuid.UUID
	CategoryID  *uuid.UUID
	Name        string
	SKU         string
	Barcode     string
	Description string
	Unit        string
	MinStock    int64
}

// CreateProduct adds a product.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (Product, error) {
	if input.CategoryID != nil {
		if _, err := s.repo.GetCategory(ctx, input.BusinessID, *input.CategoryID); err != nil {
			return Product{}, err
		}
	}
	now := time.Now().UTC()
	p := Product{
		ID:          uuid.New(),
		BusinessID:  input.BusinessID,
		CategoryID:  input.CategoryID,
		Name:        strings.TrimSpace(input.Name),
		SKU:         strings.TrimSpace(input.SKU),
		Barcode:     strings.TrimSpace(input.Barcode),
		Description: input.Description,
		Unit:        input.Unit,
		MinStock:    input.MinStock,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// GetProduct returns one product within the business scope.
func (s *Service) GetProduct(ctx context.Context, businessID, id uuid.UUID) (Product, error) {
	return s.repo.GetProduct(ctx, businessID, id)
}

// ListProducts returns products matching the filter.
func (s *Service) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	return s.repo.ListProducts(ctx, filter)
}

// UpdateProduct edits a product.
func (s *Service) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	if p.CategoryID != nil {
		if _, err := s.repo.GetCategory(ctx, p.BusinessID, *p.CategoryID); err != nil {
			return Product{}, err
		}
	}
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return Product{}, err
	}
	return s.repo.GetProduct(ctx, p.BusinessID, p.ID)
}

// DeleteProduct removes a product without batches.
func (s *Service) DeleteProduct(ctx context.Context, businessID, id uuid.UUID) error {
	return s.repo.DeleteProduct(ctx, businessID, id)
}
