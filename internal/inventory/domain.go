package inventory

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TxType enumerates supported stock movements.
type TxType string

const (
	// TxTypeIn represents an inbound movement.
	TxTypeIn TxType = "IN"
	// TxTypeOut represents an outbound movement.
	TxTypeOut TxType = "OUT"
	// TxTypeAdjust indicates a signed manual correction.
	TxTypeAdjust TxType = "ADJUST"
)

// Valid reports whether the movement type is known.
func (t TxType) Valid() bool {
	switch t {
	case TxTypeIn, TxTypeOut, TxTypeAdjust:
		return true
	}
	return false
}

// Reason is the cause code attached to a ledger entry. Inward and outward
// entries accept free-form reasons; adjustments and FEFO allocations require
// one of the enumerated codes.
type Reason string

const (
	ReasonPurchase   Reason = "purchase"
	ReasonSale       Reason = "sale"
	ReasonReturn     Reason = "return"
	ReasonDamage     Reason = "damage"
	ReasonExpired    Reason = "expired"
	ReasonAdjustment Reason = "adjustment"
	ReasonTransfer   Reason = "transfer"
	ReasonSample     Reason = "sample"
	ReasonOther      Reason = "other"
)

// Enumerated reports whether the reason is one of the known codes.
func (r Reason) Enumerated() bool {
	switch r {
	case ReasonPurchase, ReasonSale, ReasonReturn, ReasonDamage, ReasonExpired,
		ReasonAdjustment, ReasonTransfer, ReasonSample, ReasonOther:
		return true
	}
	return false
}

// Batch is a physical lot of a product at a location. Quantity is mutated
// only by the service's movement path, never directly.
type Batch struct {
	ID              uuid.UUID
	ProductID       uuid.UUID
	LocationID      uuid.UUID
	BatchNumber     string
	ExpiryDate      *time.Time
	ManufactureDate *time.Time
	Quantity        int64
	CostPrice       decimal.Decimal
	SellPrice       decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StockValue returns quantity times cost price.
func (b Batch) StockValue() decimal.Decimal {
	return b.CostPrice.Mul(decimal.NewFromInt(b.Quantity))
}

// Expired reports whether the batch expiry lies strictly before today.
// Batches without an expiry date never expire.
func (b Batch) Expired(today time.Time) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return b.ExpiryDate.Before(truncateToDay(today))
}

// DaysUntilExpiry returns the number of days until expiry. The second
// return is false when the batch carries no expiry date.
func (b Batch) DaysUntilExpiry(today time.Time) (int, bool) {
	if b.ExpiryDate == nil {
		return 0, false
	}
	return int(b.ExpiryDate.Sub(truncateToDay(today)).Hours() / 24), true
}

// Transaction is one immutable ledger entry referencing exactly one batch.
// Corrections are made by appending ADJUST entries, never by editing history.
type Transaction struct {
	ID        uuid.UUID
	BatchID   uuid.UUID
	UserID    *uuid.UUID
	Type      TxType
	Quantity  int64
	Reason    Reason
	Reference string
	Notes     string
	// Initial marks the record-only entry written at batch creation whose
	// quantity is already reflected in batch state. Replaying the ledger
	// must skip initial entries to avoid double-counting.
	Initial   bool
	CreatedAt time.Time
	SyncedAt  *time.Time
}

// Delta returns the signed effect of the entry on batch quantity.
// IN adds, OUT subtracts, ADJUST carries its own sign.
func (t Transaction) Delta() int64 {
	switch t.Type {
	case TxTypeIn:
		return t.Quantity
	case TxTypeOut:
		return -t.Quantity
	default:
		return t.Quantity
	}
}

// MovementInput describes a single-batch movement request.
type MovementInput struct {
	BusinessID uuid.UUID
	BatchID    uuid.UUID
	UserID     uuid.UUID
	Type       TxType
	Quantity   int64
	Reason     Reason
	Reference  string
	Notes      string
}

// CreateBatchInput describes a batch created with starting stock.
type CreateBatchInput struct {
	BusinessID      uuid.UUID
	ProductID       uuid.UUID
	LocationID      uuid.UUID
	UserID          uuid.UUID
	BatchNumber     string
	ExpiryDate      *time.Time
	ManufactureDate *time.Time
	Quantity        int64
	CostPrice       decimal.Decimal
	SellPrice       decimal.Decimal
}

// AllocationInput describes a product-level FEFO outward request.
type AllocationInput struct {
	BusinessID uuid.UUID
	ProductID  uuid.UUID
	UserID     uuid.UUID
	Quantity   int64
	Reason     Reason
	Reference  string
	Notes      string
}

// AllocationResult reports the outcome of a FEFO allocation.
type AllocationResult struct {
	Transactions    []Transaction
	TotalDeducted   int64
	BatchesAffected int
}

// BatchFilter narrows batch listings. All listings are tenant scoped.
type BatchFilter struct {
	BusinessID uuid.UUID
	ProductID  *uuid.UUID
	LocationID *uuid.UUID
	// ExpiringWithinDays keeps batches with stock whose expiry falls within
	// the window starting today.
	ExpiringWithinDays *int
	Limit              int
	Offset             int
}

// TransactionFilter narrows ledger listings.
type TransactionFilter struct {
	BusinessID uuid.UUID
	BatchID    *uuid.UUID
	ProductID  *uuid.UUID
	Type       *TxType
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

var (
	// ErrInsufficientStock is returned when a deduction would drive a batch
	// quantity, or the product total for FEFO requests, below zero.
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	// ErrInvalidQuantity indicates a non-positive quantity where a positive
	// one is required, or a zero adjustment.
	ErrInvalidQuantity = errors.New("inventory: invalid quantity")
	// ErrReasonRequired indicates a missing or unknown enumerated reason.
	ErrReasonRequired = errors.New("inventory: enumerated reason required")
	// ErrTransient indicates store-level contention or timeout; the whole
	// operation is safe to retry.
	ErrTransient = errors.New("inventory: transient storage conflict")
)

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
