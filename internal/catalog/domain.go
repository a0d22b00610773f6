package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products within a business.
type Category struct {
	ID          uuid.UUID
	BusinessID  uuid.UUID
	ParentID    *uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Product is a sellable item. Stock is never stored here; it is derived from
// the product's batches.
type Product struct {
	ID          uuid.UUID
	BusinessID  uuid.UUID
	CategoryID  *uuid.UUID
	Name        string
	SKU         string
	Barcode     string
	Description string
	Unit        string
	// MinStock is the low-stock threshold: the product counts as low when
	// its batch total is at or below this value.
	MinStock  int64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	BusinessID uuid.UUID
	CategoryID *uuid.UUID
	Search     string
	ActiveOnly bool
	Limit      int
	Offset     int
}
