package shared

import (
	"context"

	"github.com/google/uuid"
)

// Identity carries the authenticated caller and its tenant scope. Every
// module reachable behind the auth middleware trusts this scope and filters
// its queries by BusinessID.
type Identity struct {
	UserID     uuid.UUID
	BusinessID uuid.UUID
	Role       Role
}

// Role enumerates user roles within a business.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// CanManage reports whether the role may change master data.
func (r Role) CanManage() bool {
	return r == RoleOwner || r == RoleManager
}

type sessionContextKey struct{}

type identityContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithIdentity stores the resolved identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
