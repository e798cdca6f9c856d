package models

import "time"

// VIP user status values.
const (
	// StatusActive marks a user with a running subscription.
	StatusActive = "active"
	// StatusExpired marks a user whose subscription end has passed.
	StatusExpired = "expired"
)

// VipUser is a registered VIP member. Redemption fully overwrites the row,
// so re-redeeming resets the subscription instead of accumulating time.
type VipUser struct {
	UserID          int64     `gorm:"primaryKey"`                        // Telegram user id.
	Username        string    `gorm:"type:text"`                         // Telegram username at redemption time.
	JoinedAt        time.Time `gorm:"not null;autoCreateTime"`           // First registration timestamp.
	SubscriptionEnd time.Time `gorm:"not null;index"`                    // Subscription expiry.
	Status          string    `gorm:"type:text;not null;default:active"` // StatusActive or StatusExpired.
}
