package models

import "time"

// FreeChannelRequest is a pending free-channel join request. A user may hold
// several pending rows when requested at different times; the composite key
// (user_id, requested_at) identifies each one.
type FreeChannelRequest struct {
	UserID      int64     `gorm:"primaryKey;autoIncrement:false"` // Telegram user id.
	Username    string    `gorm:"type:text"`                      // Telegram username at request time.
	RequestedAt time.Time `gorm:"primaryKey"`                     // Request timestamp.
	Processed   bool      `gorm:"not null;default:false"`         // Set by the approval sweep, one-way.
}
