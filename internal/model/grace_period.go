package model

import "time"

// GracePeriod represents a pending domain-disable deadline created when a
// user's subscription is canceled. The expiry scheduler marks it processed
// instead of deleting it, so the row doubles as an audit trail.
type GracePeriod struct {
	BaseModel
	UserID            int        `gorm:"uniqueIndex;not null" json:"userId"` // at most one record per user
	Email             string     `gorm:"type:varchar(255);not null" json:"email"`
	FirstName         string     `gorm:"type:varchar(100)" json:"firstName"`
	GracePeriodEndsAt time.Time  `gorm:"not null;index" json:"gracePeriodEndsAt"`
	ProcessedAt       *time.Time `gorm:"index" json:"processedAt"` // null = pending
}

// TableName specifies the table name for GracePeriod model
func (GracePeriod) TableName() string {
	return "grace_periods"
}

// Pending reports whether the record has not been processed yet
func (g *GracePeriod) Pending() bool {
	return g.ProcessedAt == nil
}

// Due reports whether the deadline has passed at the given instant
func (g *GracePeriod) Due(now time.Time) bool {
	return !g.GracePeriodEndsAt.After(now)
}
