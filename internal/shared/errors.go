package shared

import "errors"

var (
	// ErrNotFound indicates the requested resource does not exist or is
	// outside the caller's business scope.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden indicates the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")
)
