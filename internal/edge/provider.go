package edge

import (
	"context"
	"errors"
)

// Provider-native SSL statuses for a custom hostname. The verification
// engine maps these onto the domain record's ssl_status.
const (
	StatusInitializing       = "initializing"
	StatusPendingValidation  = "pending_validation"
	StatusPendingIssuance    = "pending_issuance"
	StatusPendingDeployment  = "pending_deployment"
	StatusActive             = "active"
	StatusValidationTimedOut = "validation_timed_out"
	StatusDeleted            = "deleted"
)

// ErrHostnameNotFound is returned when the provider no longer knows the hostname
var ErrHostnameNotFound = errors.New("custom hostname not found")

// ValidationRecord is a TLS validation challenge the user must publish
type ValidationRecord struct {
	TXTName  string
	TXTValue string
}

// HostnameStatus is the provider's report for a provisioned hostname
type HostnameStatus struct {
	SSLStatus         string
	ValidationRecords []ValidationRecord
	Errors            []string
}

// Provider binds custom hostnames to the platform edge and manages their
// TLS certificates. Polling only; the provider pushes nothing.
type Provider interface {
	// CreateHostname registers the hostname with the edge. Idempotent:
	// calling twice for the same domain returns the existing id.
	CreateHostname(ctx context.Context, domain string) (string, error)
	// HostnameStatus fetches the current TLS provisioning state.
	HostnameStatus(ctx context.Context, providerHostnameID string) (*HostnameStatus, error)
}
