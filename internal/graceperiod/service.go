package graceperiod

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"linkhub/internal/customdomain"
	"linkhub/internal/model"
)

// DefaultDays is how long canceled users keep their custom domains active.
// A single named value: the emailed copy and the deadline computation must
// never disagree.
const DefaultDays = 7

// Service manages grace periods: the bounded window between a subscription
// cancellation and the disabling of the user's custom domains.
type Service struct {
	db      *gorm.DB
	domains *customdomain.Service
	logger  *logrus.Entry
	days    int
}

// NewService creates a grace period service. days <= 0 falls back to
// DefaultDays.
func NewService(db *gorm.DB, domains *customdomain.Service, logger *logrus.Entry, days int) *Service {
	if days <= 0 {
		days = DefaultDays
	}
	return &Service{
		db:      db,
		domains: domains,
		logger:  logger.WithField("component", "graceperiod"),
		days:    days,
	}
}

// Days returns the configured grace period length
func (s *Service) Days() int {
	return s.days
}

// CreateOrReplace starts a grace period for the user and returns its
// deadline. Any existing record for the user is superseded, not merged:
// it is deleted and a fresh one created with a fresh deadline.
func (s *Service) CreateOrReplace(userID int, email, firstName string) (time.Time, error) {
	endsAt := time.Now().Add(time.Duration(s.days) * 24 * time.Hour)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.GracePeriod{}).Error; err != nil {
			return err
		}
		gp := model.GracePeriod{
			UserID:            userID,
			Email:             email,
			FirstName:         firstName,
			GracePeriodEndsAt: endsAt,
		}
		return tx.Create(&gp).Error
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to create grace period for user %d: %w", userID, err)
	}

	s.logger.Infof("Grace period for user %d ends at %s", userID, endsAt.Format(time.RFC3339))
	return endsAt, nil
}

// Clear deletes the user's grace period, pending or not. No-op when none
// exists. Called on subscription reactivation.
func (s *Service) Clear(userID int) error {
	return s.db.Where("user_id = ?", userID).Delete(&model.GracePeriod{}).Error
}

// HasPending reports whether the user currently has an unprocessed grace
// period
func (s *Service) HasPending(userID int) (bool, error) {
	var count int64
	err := s.db.Model(&model.GracePeriod{}).
		Where("user_id = ? AND processed_at IS NULL", userID).
		Count(&count).Error
	return count > 0, err
}

// DuePending returns unprocessed grace periods whose deadline has passed
func (s *Service) DuePending(limit int) ([]model.GracePeriod, error) {
	var records []model.GracePeriod
	err := s.db.
		Where("grace_period_ends_at <= ? AND processed_at IS NULL", time.Now()).
		Limit(limit).
		Find(&records).Error
	return records, err
}

// DisableDomainsAndMarkProcessed disables every domain the user owns, then
// marks the grace period processed. The two steps are not atomic across
// failure; the method is safe to re-invoke and the record is only marked
// once the disable succeeded. The record is never deleted here so the row
// remains as an audit trail.
func (s *Service) DisableDomainsAndMarkProcessed(gp *model.GracePeriod) error {
	if err := s.domains.DisableAllByUser(gp.UserID); err != nil {
		return fmt.Errorf("failed to disable domains for user %d: %w", gp.UserID, err)
	}

	now := time.Now()
	result := s.db.Model(&model.GracePeriod{}).
		Where("id = ? AND processed_at IS NULL", gp.ID).
		Update("processed_at", &now)
	if result.Error != nil {
		return fmt.Errorf("failed to mark grace period %d processed: %w", gp.ID, result.Error)
	}

	gp.ProcessedAt = &now
	s.logger.Infof("Grace period %d processed: domains disabled for user %d", gp.ID, gp.UserID)
	return nil
}
