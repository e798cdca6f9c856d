package models

import "time"

// Channel type values.
const (
	// ChannelFree is the delay-gated public channel.
	ChannelFree = "free"
	// ChannelVip is the subscriber-only channel.
	ChannelVip = "vip"
)

// Channel is a registered Telegram channel the bot posts to.
type Channel struct {
	ChannelID   int64     `gorm:"primaryKey"`               // Telegram chat id.
	ChannelName string    `gorm:"type:text"`                // Channel title.
	ChannelType string    `gorm:"type:text;not null;index"` // ChannelFree or ChannelVip.
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"`  // Registration timestamp.
	IsActive    bool      `gorm:"not null;default:true"`    // At most one active channel per type.
}
