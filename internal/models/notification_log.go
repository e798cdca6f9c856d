package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification kinds recorded in the log.
const (
	// NotifyKindReminder is a renewal reminder direct message.
	NotifyKindReminder = "reminder"
	// NotifyKindChannelPost is a post to a registered channel.
	NotifyKindChannelPost = "channel_post"
	// NotifyKindFreeAccess is a free-channel access grant.
	NotifyKindFreeAccess = "free_access"
)

// NotificationLog records the typed outcome of a single send attempt.
// Failures are dropped, not retried; the log is the only trace they leave.
type NotificationLog struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement"` // Primary key.
	Kind      string         `gorm:"type:text;not null;index"` // One of the NotifyKind constants.
	Target    int64          `gorm:"not null"`                 // Destination chat or user id.
	OK        bool           `gorm:"not null"`                 // Whether delivery succeeded.
	Reason    string         `gorm:"type:text"`                // Failure reason, empty on success.
	Payload   datatypes.JSON `gorm:"type:jsonb"`               // Message summary for auditing.
	CreatedAt time.Time      `gorm:"not null;autoCreateTime"`  // Attempt timestamp.
}
