package domains

import (
	"linkhub/internal/customdomain"
	"linkhub/internal/model"
)

// CreateDomainRequest represents the request body for registering a domain
type CreateDomainRequest struct {
	Domain string `json:"domain" binding:"required"`
}

// DomainIDRequest represents a request addressing one domain by id
type DomainIDRequest struct {
	ID int `json:"id" binding:"required"`
}

// DomainResponse represents a custom domain in API responses
type DomainResponse struct {
	ID                int      `json:"id"`
	Domain            string   `json:"domain"`
	OwnershipStatus   string   `json:"ownershipStatus"`
	SSLStatus         string   `json:"sslStatus"`
	VerificationPhase string   `json:"verificationPhase"`
	OwnershipVerified bool     `json:"ownershipTxtVerified"`
	CNAMEVerified     bool     `json:"cnameVerified"`
	ValidationErrors  []string `json:"validationErrors"`
	IsDefault         bool     `json:"isDefault"`
	IsEnabled         bool     `json:"isEnabled"`
	CreatedAt         string   `json:"createdAt"`
}

// InstructionsResponse represents the DNS records a user must publish
type InstructionsResponse struct {
	Phase   string                        `json:"phase"`
	Records []customdomain.DNSInstruction `json:"records"`
}

func toDomainResponse(d *model.CustomDomain) DomainResponse {
	return DomainResponse{
		ID:                d.ID,
		Domain:            d.Domain,
		OwnershipStatus:   string(d.OwnershipStatus),
		SSLStatus:         string(d.SSLStatus),
		VerificationPhase: string(d.VerificationPhase),
		OwnershipVerified: d.OwnershipTXTVerified,
		CNAMEVerified:     d.CNAMEVerified,
		ValidationErrors:  d.ValidationErrorList(),
		IsDefault:         d.IsDefault,
		IsEnabled:         d.IsEnabled,
		CreatedAt:         d.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toDomainResponses(ds []model.CustomDomain) []DomainResponse {
	out := make([]DomainResponse, 0, len(ds))
	for i := range ds {
		out = append(out, toDomainResponse(&ds[i]))
	}
	return out
}
