package customdomain

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"linkhub/internal/dnslookup"
	"linkhub/internal/domainutil"
	"linkhub/internal/edge"
	"linkhub/internal/model"
	"linkhub/internal/verification"
)

// ownershipTXTPrefix is the label prepended to the domain for the ownership
// TXT challenge record
const ownershipTXTPrefix = "_linkhub-challenge"

// Service orchestrates the custom domain lifecycle: creation, the two-phase
// verification protocol, default selection and billing-driven enable/disable.
type Service struct {
	db          *gorm.DB
	resolver    dnslookup.Resolver
	provider    edge.Provider
	logger      *logrus.Entry
	cnameTarget string
}

// NewService creates a new custom domain service. cnameTarget is the edge
// hostname users must point their CNAME at.
func NewService(db *gorm.DB, resolver dnslookup.Resolver, provider edge.Provider, logger *logrus.Entry, cnameTarget string) *Service {
	return &Service{
		db:          db,
		resolver:    resolver,
		provider:    provider,
		logger:      logger.WithField("component", "customdomain"),
		cnameTarget: cnameTarget,
	}
}

// Create registers a new custom domain for a user in phase dns_verification
// and hands back the record carrying its ownership TXT challenge.
func (s *Service) Create(userID int, rawDomain string) (*model.CustomDomain, error) {
	domain, err := domainutil.Normalize(rawDomain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDomain, err)
	}

	var count int64
	if err := s.db.Model(&model.CustomDomain{}).Where("domain = ?", domain).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDomainTaken
	}

	d := model.CustomDomain{
		Domain:            domain,
		UserID:            userID,
		OwnershipStatus:   model.OwnershipStatusPending,
		SSLStatus:         model.SSLStatusInitializing,
		VerificationPhase: model.PhaseDNSVerification,
		OwnershipTXTName:  ownershipTXTPrefix + "." + domain,
		OwnershipTXTValue: uuid.NewString(),
		IsEnabled:         true,
	}

	if err := s.db.Create(&d).Error; err != nil {
		return nil, err
	}

	s.logger.Infof("Created custom domain %s (id=%d, user=%d)", d.Domain, d.ID, d.UserID)
	return &d, nil
}

// Get loads a domain record by id
func (s *Service) Get(id int) (*model.CustomDomain, error) {
	var d model.CustomDomain
	if err := s.db.First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// ListByUser returns all domains owned by a user, newest first
func (s *Service) ListByUser(userID int) ([]model.CustomDomain, error) {
	var domains []model.CustomDomain
	err := s.db.Where("user_id = ?", userID).Order("id DESC").Find(&domains).Error
	return domains, err
}

// Verify runs one verification poll for the domain and persists the result.
//
// Idempotent: calling it before the user has published the challenge records
// simply re-persists the current state. Resolver and provider failures are
// recorded into validation_errors instead of being returned, so a transient
// outage degrades to "still pending" rather than an API error.
func (s *Service) Verify(ctx context.Context, id int) (*model.CustomDomain, error) {
	d, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	switch d.VerificationPhase {
	case model.PhaseDNSVerification:
		s.verifyDNSPhase(ctx, d)
	case model.PhaseEdgeSSL:
		s.verifyEdgePhase(ctx, d)
	}

	if err := s.db.Save(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// verifyDNSPhase polls the ownership TXT and CNAME challenges and feeds the
// observation to the verification engine
func (s *Service) verifyDNSPhase(ctx context.Context, d *model.CustomDomain) {
	var lookupErrs []string

	txts, err := s.resolver.LookupTXT(ctx, d.OwnershipTXTName)
	if err != nil {
		s.logger.Warnf("Domain %d: TXT lookup failed: %v", d.ID, err)
		lookupErrs = append(lookupErrs, fmt.Sprintf("TXT lookup failed: %v", err))
	}

	cname, err := s.resolver.LookupCNAME(ctx, d.Domain)
	if err != nil {
		s.logger.Warnf("Domain %d: CNAME lookup failed: %v", d.ID, err)
		lookupErrs = append(lookupErrs, fmt.Sprintf("CNAME lookup failed: %v", err))
	}

	obs := verification.DNSObservation{TXTValues: txts, CNAMETarget: cname}
	updated, action := verification.EvaluateDNS(*d, obs, s.cnameTarget)
	*d = updated

	if action == verification.ActionCreateHostname {
		s.requestHostname(ctx, d, &lookupErrs)
	}

	d.SetValidationErrors(lookupErrs)
}

// verifyEdgePhase polls the edge provider for TLS provisioning progress
func (s *Service) verifyEdgePhase(ctx context.Context, d *model.CustomDomain) {
	// Hostname creation failed on an earlier poll; retry it first
	if d.ProviderHostnameID == "" {
		var errs []string
		s.requestHostname(ctx, d, &errs)
		d.SetValidationErrors(errs)
		return
	}

	status, err := s.provider.HostnameStatus(ctx, d.ProviderHostnameID)
	if err != nil {
		s.logger.Warnf("Domain %d: hostname status failed: %v", d.ID, err)
		if errors.Is(err, edge.ErrHostnameNotFound) {
			// The provider lost the hostname; re-create it on the next poll
			d.ProviderHostnameID = ""
		}
		d.SetValidationErrors([]string{fmt.Sprintf("hostname status failed: %v", err)})
		return
	}

	*d = verification.EvaluateEdge(*d, verification.EdgeReport{
		SSLStatus:         status.SSLStatus,
		ValidationRecords: status.ValidationRecords,
		Errors:            status.Errors,
	})
}

// requestHostname registers the domain with the edge provider and stores the
// returned hostname id. Failures are appended to errs; the next poll retries.
func (s *Service) requestHostname(ctx context.Context, d *model.CustomDomain, errs *[]string) {
	hostnameID, err := s.provider.CreateHostname(ctx, d.Domain)
	if err != nil {
		s.logger.Warnf("Domain %d: hostname creation failed: %v", d.ID, err)
		*errs = append(*errs, fmt.Sprintf("hostname creation failed: %v", err))
		return
	}

	d.ProviderHostnameID = hostnameID
	d.SSLStatus = model.SSLStatusPendingValidation
	s.logger.Infof("Domain %d: edge hostname created (provider_hostname_id=%s)", d.ID, hostnameID)
}

// SetDefault marks a domain as the user's default. Fails with
// ErrPreconditionFailed unless the domain is verified and its certificate is
// active. The previous default is cleared in the same transaction.
func (s *Service) SetDefault(id int) (*model.CustomDomain, error) {
	d, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if d.SSLStatus != model.SSLStatusActive || d.OwnershipStatus != model.OwnershipStatusVerified {
		return nil, ErrPreconditionFailed
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.CustomDomain{}).
			Where("user_id = ? AND id <> ?", d.UserID, d.ID).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&model.CustomDomain{}).
			Where("id = ?", d.ID).
			Update("is_default", true).Error
	})
	if err != nil {
		return nil, err
	}

	d.IsDefault = true
	return d, nil
}

// DisableAllByUser disables every domain owned by the user. Used exclusively
// by the grace-period pipeline.
func (s *Service) DisableAllByUser(userID int) error {
	return s.db.Model(&model.CustomDomain{}).
		Where("user_id = ?", userID).
		Update("is_enabled", false).Error
}

// EnableAllByUser re-enables every domain owned by the user
func (s *Service) EnableAllByUser(userID int) error {
	return s.db.Model(&model.CustomDomain{}).
		Where("user_id = ?", userID).
		Update("is_enabled", true).Error
}

// Delete removes a domain record. If it was the default no replacement is
// selected.
func (s *Service) Delete(id int) error {
	result := s.db.Delete(&model.CustomDomain{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
