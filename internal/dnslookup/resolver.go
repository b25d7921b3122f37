package dnslookup

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

const lookupTimeout = 5 * time.Second

// Resolver performs the DNS lookups used during ownership verification.
// Implementations must treat NXDOMAIN as an empty result, not an error.
type Resolver interface {
	// LookupTXT returns the observed TXT record values for host, or empty
	// when the name does not exist.
	LookupTXT(ctx context.Context, host string) ([]string, error)
	// LookupCNAME returns the canonical target for host, or "" when the
	// name does not exist or has no CNAME.
	LookupCNAME(ctx context.Context, host string) (string, error)
}

// NetResolver resolves against the system DNS via net.Resolver.
// Every lookup is bounded by a deadline so a slow resolver degrades to a
// recorded error instead of hanging a verification call.
type NetResolver struct {
	resolver *net.Resolver
}

// NewNetResolver creates a system-DNS backed resolver
func NewNetResolver() *NetResolver {
	return &NetResolver{resolver: net.DefaultResolver}
}

// LookupTXT implements Resolver
func (r *NetResolver) LookupTXT(ctx context.Context, host string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	records, err := r.resolver.LookupTXT(ctx, host)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return records, nil
}

// LookupCNAME implements Resolver
func (r *NetResolver) LookupCNAME(ctx context.Context, host string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	target, err := r.resolver.LookupCNAME(ctx, host)
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return strings.ToLower(strings.TrimSuffix(target, ".")), nil
}

func isNotFound(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound
	}
	return false
}
