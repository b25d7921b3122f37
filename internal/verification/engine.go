package verification

import (
	"strings"

	"linkhub/internal/edge"
	"linkhub/internal/model"
)

// Action signals a side effect the caller must perform after an evaluation
type Action int

const (
	ActionNone Action = iota
	// ActionCreateHostname means both DNS challenges passed and the domain
	// must now be registered with the edge provider.
	ActionCreateHostname
)

// DNSObservation is a snapshot of the challenge records a resolver observed.
// The engine does no I/O; callers perform the lookups.
type DNSObservation struct {
	TXTValues   []string
	CNAMETarget string
}

// EdgeReport is the provisioning provider's view of a custom hostname
type EdgeReport struct {
	// SSLStatus is the provider-native status string (edge.Status*)
	SSLStatus         string
	ValidationRecords []edge.ValidationRecord
	Errors            []string
}

// EvaluateDNS applies the dns_verification phase rules to a domain record
// and returns the updated record plus any required side effect.
//
// Verification flags are sticky: once a challenge has been observed, a later
// observation that misses it (DNS propagation gaps, flaky resolvers) does not
// reset the flag. The phase only ever moves forward.
func EvaluateDNS(d model.CustomDomain, obs DNSObservation, expectedCNAME string) (model.CustomDomain, Action) {
	if d.VerificationPhase != model.PhaseDNSVerification {
		return d, ActionNone
	}

	for _, txt := range obs.TXTValues {
		if strings.TrimSpace(txt) == d.OwnershipTXTValue {
			d.OwnershipTXTVerified = true
			break
		}
	}

	if cnameMatches(obs.CNAMETarget, expectedCNAME) {
		d.CNAMEVerified = true
	}

	if d.OwnershipTXTVerified && d.CNAMEVerified {
		d.VerificationPhase = model.PhaseEdgeSSL
		return d, ActionCreateHostname
	}

	return d, ActionNone
}

// EvaluateEdge applies the edge_ssl phase rules given the provider's report.
//
// On provider-reported failure the record stays in edge_ssl so the next poll
// retries. Ownership, once verified, is never regressed automatically.
func EvaluateEdge(d model.CustomDomain, rep EdgeReport) model.CustomDomain {
	if d.VerificationPhase != model.PhaseEdgeSSL {
		return d
	}

	switch {
	case rep.SSLStatus == edge.StatusActive:
		d.SSLStatus = model.SSLStatusActive
		d.OwnershipStatus = model.OwnershipStatusVerified
		d.SetValidationErrors(nil)

	case len(rep.Errors) > 0 || isFailedStatus(rep.SSLStatus):
		d.SSLStatus = model.SSLStatusFailed
		errs := rep.Errors
		if len(errs) == 0 {
			errs = []string{"provider reported ssl status: " + rep.SSLStatus}
		}
		d.SetValidationErrors(errs)

	default:
		d.SSLStatus = model.SSLStatusPendingValidation
		if len(rep.ValidationRecords) > 0 {
			d.SSLTXTName = rep.ValidationRecords[0].TXTName
			d.SSLTXTValue = rep.ValidationRecords[0].TXTValue
		}
		d.SetValidationErrors(nil)
	}

	return d
}

// cnameMatches compares an observed CNAME target against the expected edge
// target, ignoring case and trailing dots
func cnameMatches(observed, expected string) bool {
	observed = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(observed), "."))
	expected = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(expected), "."))
	return observed != "" && observed == expected
}

func isFailedStatus(status string) bool {
	switch status {
	case edge.StatusValidationTimedOut, edge.StatusDeleted:
		return true
	}
	return false
}
