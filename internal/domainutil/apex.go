package domainutil

import (
	"fmt"
	"net"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"
)

// Normalize canonicalizes a hostname for storage and comparison.
// Rules:
//   - lowercase
//   - trim whitespace
//   - strip trailing dot
//   - strip port (example.com:443)
//   - reject IPs (v4/v6)
//   - reject empty strings / invalid characters
func Normalize(host string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("domain must not be empty")
	}

	host = strings.ToLower(host)
	host = strings.TrimSuffix(host, ".")

	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "" {
		return "", fmt.Errorf("domain must not be empty after normalization")
	}

	if net.ParseIP(host) != nil {
		return "", fmt.Errorf("IP address is not allowed as domain: %s", host)
	}
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		inner := host[1 : len(host)-1]
		if net.ParseIP(inner) != nil {
			return "", fmt.Errorf("IP address is not allowed as domain: %s", host)
		}
	}

	// Only a-z 0-9 . - allowed
	for i := 0; i < len(host); {
		r, size := utf8.DecodeRuneInString(host[i:])
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '-') {
			return "", fmt.Errorf("domain contains invalid character: %c in %s", r, host)
		}
		i += size
	}

	if strings.HasPrefix(host, ".") || strings.HasPrefix(host, "-") {
		return "", fmt.Errorf("domain must not start with '.' or '-': %s", host)
	}
	if !strings.Contains(host, ".") {
		return "", fmt.Errorf("domain must contain at least one dot: %s", host)
	}

	return host, nil
}

// EffectiveApex computes the registrable base domain (eTLD+1) via the PSL.
// Examples:
//   - www.example.com -> example.com
//   - a.b.example.co.uk -> example.co.uk
//   - example.com -> example.com
//
// Nothing else in the project may split labels to compute the apex; always
// call this function.
func EffectiveApex(domain string) (string, error) {
	normalized, err := Normalize(domain)
	if err != nil {
		return "", fmt.Errorf("normalize failed for %s: %w", domain, err)
	}

	apex, err := publicsuffix.EffectiveTLDPlusOne(normalized)
	if err != nil {
		return "", fmt.Errorf("PSL lookup failed for %s: %w", domain, err)
	}

	return apex, nil
}

// SubdomainLabel extracts the host label a user must create at their DNS
// provider, relative to the registrable base domain.
//
// Examples:
//   - "links.example.com"     -> "links"
//   - "app.links.example.com" -> "app.links"
//   - "example.com"           -> "@" (the apex itself)
func SubdomainLabel(domain string) (string, error) {
	normalized, err := Normalize(domain)
	if err != nil {
		return "", err
	}

	apex, err := EffectiveApex(normalized)
	if err != nil {
		return "", err
	}

	if normalized == apex {
		return "@", nil
	}

	suffix := "." + apex
	if strings.HasSuffix(normalized, suffix) {
		return strings.TrimSuffix(normalized, suffix), nil
	}

	// Fallback: the full domain
	return normalized, nil
}
