package business

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type categorizes a business. Reports pick their headline figures per type.
type Type string

const (
	TypePharmacy    Type = "pharmacy"
	TypeRetail      Type = "retail"
	TypeWarehouse   Type = "warehouse"
	TypeDistributor Type = "distributor"
	TypeOther       Type = "other"
)

// Valid reports whether the type is one of the known categories.
func (t Type) Valid() bool {
	switch t {
	case TypePharmacy, TypeRetail, TypeWarehouse, TypeDistributor, TypeOther:
		return true
	}
	return false
}

// Business is the tenant boundary. Every product, location and user hangs
// off exactly one business.
type Business struct {
	ID        uuid.UUID
	Name      string
	Type      Type
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location is a physical place within a business holding batches. At most
// one location per business is the default.
type Location struct {
	ID         uuid.UUID
	BusinessID uuid.UUID
	Name       string
	Address    string
	IsDefault  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DefaultLocationName is used when a business opts into a provisioned
// default location.
const DefaultLocationName = "Main Warehouse"

// ErrLocationInUse indicates batches still reference the location.
var ErrLocationInUse = errors.New("business: location holds batches")
