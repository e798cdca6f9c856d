package models

import (
	"encoding/json"
	"time"
)

// Setting stores a key/value configuration entry in the database.
type Setting struct {
	Key       string          `gorm:"type:varchar(255);primaryKey"`                      // Configuration key.
	Value     json.RawMessage `gorm:"type:jsonb"`                                        // JSON-encoded value.
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime;default:CURRENT_TIMESTAMP"` // Last update timestamp.
}

// Well-known setting keys.
const (
	// SettingFreeChannelDelay holds the free-channel approval delay in seconds.
	SettingFreeChannelDelay = "free_channel_delay"
)

// DefaultFreeChannelDelaySeconds is seeded at migration time.
const DefaultFreeChannelDelaySeconds = 60
