package models

import "time"

// VipRate is a named (duration, cost) template used when issuing tokens.
// Issued tokens copy the duration, so deleting a rate never affects them.
type VipRate struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`     // Primary key.
	Name      string    `gorm:"type:text;not null"`           // Display name.
	Days      int       `gorm:"not null"`                     // Subscription length in days.
	Cost      float64   `gorm:"type:decimal(20,10);not null"` // Price metadata; never collected here.
	IsActive  bool      `gorm:"not null;default:true"`        // Whether the rate is offered.
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`      // Creation timestamp.
}
