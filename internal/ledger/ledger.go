// Package ledger owns the subscription lifecycle: VIP token issuance and
// redemption, member expiry, rate plans, and the channel registry.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/canalvip/vipbot/internal/models"
	"github.com/canalvip/vipbot/internal/notify"
)

// DefaultDurationDays is the subscription length used when a token is issued
// without a rate.
const DefaultDurationDays = 30

// Ledger coordinates all subscription state. It holds no entity state itself;
// every operation re-fetches from the store.
type Ledger struct {
	db       *gorm.DB
	notifier notify.Notifier
	recorder *notify.Recorder
}

// New constructs a Ledger. notifier may be nil when no outbound delivery is
// wired (sends then fail soft).
func New(conn *gorm.DB, notifier notify.Notifier, recorder *notify.Recorder) *Ledger {
	if conn == nil {
		return nil
	}
	return &Ledger{db: conn, notifier: notifier, recorder: recorder}
}

// IssueToken creates a fresh unused token. durationDays falls back to
// DefaultDurationDays when non-positive.
func (l *Ledger) IssueToken(ctx context.Context, durationDays int) (models.VipToken, error) {
	if l == nil || l.db == nil {
		return models.VipToken{}, errors.New("ledger: not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if durationDays <= 0 {
		durationDays = DefaultDurationDays
	}

	row := models.VipToken{
		Token:        uuid.NewString(),
		DurationDays: durationDays,
	}
	if errCreate := l.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		return models.VipToken{}, fmt.Errorf("ledger: issue token: %w", errCreate)
	}
	return row, nil
}

// RedeemToken registers or fully overwrites the VIP user and marks the token
// used, as one transaction. Redeeming the same token twice fails with
// ErrInvalidToken; re-redeeming a different valid token resets the user's
// subscription end instead of extending it.
func (l *Ledger) RedeemToken(ctx context.Context, token string, userID int64, username string) (models.VipUser, error) {
	if l == nil || l.db == nil {
		return models.VipUser{}, errors.New("ledger: not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var user models.VipUser
	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.VipToken
		errFind := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("token = ? AND used = ?", token, false).
			First(&row).Error
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		if errFind != nil {
			return fmt.Errorf("ledger: query token: %w", errFind)
		}

		days := row.DurationDays
		if days <= 0 {
			days = DefaultDurationDays
		}
		now := time.Now().UTC()
		user = models.VipUser{
			UserID:          userID,
			Username:        username,
			JoinedAt:        now,
			SubscriptionEnd: now.AddDate(0, 0, days),
			Status:          models.StatusActive,
		}
		if errUpsert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).Create(&user).Error; errUpsert != nil {
			return fmt.Errorf("ledger: upsert user: %w", errUpsert)
		}

		if errUpdate := tx.Model(&models.VipToken{}).
			Where("token = ?", token).
			Update("used", true).Error; errUpdate != nil {
			return fmt.Errorf("ledger: mark token used: %w", errUpdate)
		}
		return nil
	})
	if errTx != nil {
		return models.VipUser{}, errTx
	}
	return user, nil
}

// ListUsers returns all VIP users, soonest-expiring first.
func (l *Ledger) ListUsers(ctx context.Context) ([]models.VipUser, error) {
	if l == nil || l.db == nil {
		return nil, errors.New("ledger: not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var rows []models.VipUser
	if errFind := l.db.WithContext(ctx).
		Order("subscription_end ASC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("ledger: list users: %w", errFind)
	}
	return rows, nil
}

// ListExpiringWithin returns active users whose subscription ends inside
// [now, now+window], both bounds inclusive.
func (l *Ledger) ListExpiringWithin(ctx context.Context, window time.Duration) ([]models.VipUser, error) {
	if l == nil || l.db == nil {
		return nil, errors.New("ledger: not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC()
	var rows []models.VipUser
	if errFind := l.db.WithContext(ctx).
		Where("status = ? AND subscription_end >= ? AND subscription_end <= ?",
			models.StatusActive, now, now.Add(window)).
		Order("subscription_end ASC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("ledger: list expiring: %w", errFind)
	}
	return rows, nil
}

// SweepExpired marks active users whose subscription end has passed as
// expired and returns how many rows changed. Repeated calls are no-ops until
// more subscriptions lapse.
func (l *Ledger) SweepExpired(ctx context.Context) (int64, error) {
	if l == nil || l.db == nil {
		return 0, errors.New("ledger: not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	res := l.db.WithContext(ctx).
		Model(&models.VipUser{}).
		Where("status = ? AND subscription_end < ?", models.StatusActive, time.Now().UTC()).
		Update("status", models.StatusExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("ledger: sweep expired: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SendToChannel posts to the active channel of the given type. The send is a
// fire-and-forget side effect: a delivery failure is logged and recorded but
// never rolls back ledger state and is never retried.
func (l *Ledger) SendToChannel(ctx context.Context, channelType, text string, attachment *notify.Attachment, protected bool) (notify.Result, error) {
	if l == nil || l.db == nil {
		return notify.Result{}, errors.New("ledger: not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	channel, errLookup := l.LookupChannel(ctx, channelType)
	if errors.Is(errLookup, ErrNotFound) {
		return notify.Result{}, ErrChannelNotConfigured
	}
	if errLookup != nil {
		return notify.Result{}, errLookup
	}

	res := notify.Result{Kind: models.NotifyKindChannelPost, Target: channel.ChannelID, Reason: "no notifier configured"}
	if l.notifier != nil {
		res = l.notifier.PostToChannel(ctx, channel.ChannelID, notify.Message{
			Text:       text,
			Attachment: attachment,
			Protected:  protected,
		})
	}
	if l.recorder != nil {
		l.recorder.Record(ctx, res, map[string]any{"channel_type": channelType, "text": text})
	}
	if !res.OK {
		log.Warnf("ledger: channel post failed (channel=%d reason=%s)", channel.ChannelID, res.Reason)
	}
	return res, nil
}
