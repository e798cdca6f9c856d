package models

import "time"

// VipToken is a single-use redemption code granting timed channel access.
type VipToken struct {
	Token        string    `gorm:"type:text;primaryKey"`    // Opaque unique identifier.
	CreatedAt    time.Time `gorm:"not null;autoCreateTime"` // Issuance timestamp.
	Used         bool      `gorm:"not null;default:false"`  // Set exactly once, on redemption.
	DurationDays int       `gorm:"not null;default:30"`     // Subscription length copied from the rate at issuance.
}
