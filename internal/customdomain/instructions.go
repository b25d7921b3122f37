package customdomain

import (
	"linkhub/internal/domainutil"
	"linkhub/internal/model"
)

// DNSInstruction describes one record the user must create at their DNS
// provider
type DNSInstruction struct {
	Type    string `json:"type"`
	Host    string `json:"host"`
	Value   string `json:"value"`
	Purpose string `json:"purpose"`
}

// SetupInstructions lists the challenge records for the domain's current
// verification phase. Records is nil once the domain is fully active.
type SetupInstructions struct {
	Phase   model.VerificationPhase `json:"phase"`
	Records []DNSInstruction        `json:"records"`
}

// SetupInstructions derives the DNS records the user must publish next.
//
// Host labels are relative to the registrable base domain:
// "links.example.com" yields "links", "app.links.example.com" yields
// "app.links", and the apex itself yields "@".
func (s *Service) SetupInstructions(id int) (*SetupInstructions, error) {
	d, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	instructions := &SetupInstructions{Phase: d.VerificationPhase}

	// Nothing left to publish once the domain is live
	if d.OwnershipStatus == model.OwnershipStatusVerified && d.SSLStatus == model.SSLStatusActive {
		return instructions, nil
	}

	switch d.VerificationPhase {
	case model.PhaseDNSVerification:
		label, err := domainutil.SubdomainLabel(d.Domain)
		if err != nil {
			label = d.Domain
		}

		txtHost := ownershipTXTPrefix
		if label != "@" {
			txtHost = ownershipTXTPrefix + "." + label
		}

		instructions.Records = []DNSInstruction{
			{
				Type:    "TXT",
				Host:    txtHost,
				Value:   d.OwnershipTXTValue,
				Purpose: "ownership verification",
			},
			{
				Type:    "CNAME",
				Host:    label,
				Value:   s.cnameTarget,
				Purpose: "edge routing",
			},
		}

	case model.PhaseEdgeSSL:
		if d.SSLTXTName != "" {
			instructions.Records = []DNSInstruction{
				{
					Type:    "TXT",
					Host:    d.SSLTXTName,
					Value:   d.SSLTXTValue,
					Purpose: "tls certificate validation",
				},
			}
		}
	}

	return instructions, nil
}
