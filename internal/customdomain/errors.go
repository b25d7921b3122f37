package customdomain

import "errors"

var (
	// ErrNotFound is returned when the domain record does not exist
	ErrNotFound = errors.New("custom domain not found")

	// ErrDomainTaken is returned when the domain is already registered,
	// by any user
	ErrDomainTaken = errors.New("domain is already taken")

	// ErrInvalidDomain is returned when the hostname fails normalization
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrPreconditionFailed is returned when an operation requires the
	// domain to be fully verified and active first
	ErrPreconditionFailed = errors.New("domain is not verified and active")
)
