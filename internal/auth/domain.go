package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise/shelfwise/internal/shared"
)

// User is an account belonging to exactly one business.
type User struct {
	ID           uuid.UUID
	BusinessID   uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         shared.Role
	IsActive     bool
	CreatedAt    time.Time
}

// RegisterInput creates a business together with its owner account.
type RegisterInput struct {
	BusinessName string
	BusinessType string
	OwnerName    string
	Email        string
	Password     string
	// CreateDefaultLocation provisions a "Main Warehouse" default location
	// alongside the business. Off unless the caller opts in.
	CreateDefaultLocation bool
}

// ErrEmailTaken indicates the email is already registered.
var ErrEmailTaken = errors.New("auth: email already registered")
