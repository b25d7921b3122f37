package model

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// OwnershipStatus represents whether domain ownership has been proven
type OwnershipStatus string

const (
	OwnershipStatusPending  OwnershipStatus = "pending"
	OwnershipStatusVerified OwnershipStatus = "verified"
)

// SSLStatus represents the TLS provisioning state reported for a hostname
type SSLStatus string

const (
	SSLStatusInitializing      SSLStatus = "initializing"
	SSLStatusPendingValidation SSLStatus = "pending_validation"
	SSLStatusActive            SSLStatus = "active"
	SSLStatusFailed            SSLStatus = "failed"
)

// VerificationPhase represents the current stage of the two-stage
// domain activation protocol
type VerificationPhase string

const (
	PhaseDNSVerification VerificationPhase = "dns_verification"
	PhaseEdgeSSL         VerificationPhase = "edge_ssl"
)

// CustomDomain represents a user-owned custom domain and its verification state
type CustomDomain struct {
	BaseModel
	Domain               string            `gorm:"type:varchar(255);uniqueIndex;not null" json:"domain"` // stored lowercase, unique across all users
	UserID               int               `gorm:"not null;index" json:"userId"`
	OwnershipStatus      OwnershipStatus   `gorm:"type:varchar(20);not null;default:pending" json:"ownershipStatus"`
	SSLStatus            SSLStatus         `gorm:"type:varchar(20);not null;default:initializing" json:"sslStatus"`
	VerificationPhase    VerificationPhase `gorm:"type:varchar(20);not null;default:dns_verification" json:"verificationPhase"`
	OwnershipTXTVerified bool              `gorm:"not null;default:false" json:"ownershipTxtVerified"`
	CNAMEVerified        bool              `gorm:"not null;default:false" json:"cnameVerified"`
	ProviderHostnameID   string            `gorm:"type:varchar(128);index" json:"-"` // edge provider hostname id, not exposed in API
	OwnershipTXTName     string            `gorm:"type:varchar(255)" json:"ownershipTxtName"`
	OwnershipTXTValue    string            `gorm:"type:varchar(255)" json:"ownershipTxtValue"`
	SSLTXTName           string            `gorm:"type:varchar(255)" json:"sslTxtName"`
	SSLTXTValue          string            `gorm:"type:varchar(255)" json:"sslTxtValue"`
	ValidationErrors     datatypes.JSON    `gorm:"type:json" json:"validationErrors"`
	IsDefault            bool              `gorm:"not null;default:false" json:"isDefault"`
	IsEnabled            bool              `gorm:"not null;default:true" json:"isEnabled"`
}

// TableName specifies the table name for CustomDomain model
func (CustomDomain) TableName() string {
	return "custom_domains"
}

// SetValidationErrors stores the last-seen resolver/provider error strings.
// Passing an empty slice clears the column.
func (d *CustomDomain) SetValidationErrors(errs []string) {
	if len(errs) == 0 {
		d.ValidationErrors = nil
		return
	}
	data, err := json.Marshal(errs)
	if err != nil {
		return
	}
	d.ValidationErrors = datatypes.JSON(data)
}

// ValidationErrorList decodes the stored error strings, nil when none
func (d *CustomDomain) ValidationErrorList() []string {
	if len(d.ValidationErrors) == 0 {
		return nil
	}
	var errs []string
	if err := json.Unmarshal(d.ValidationErrors, &errs); err != nil {
		return nil
	}
	return errs
}
