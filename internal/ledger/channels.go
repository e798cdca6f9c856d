package ledger

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/canalvip/vipbot/internal/models"
)

// UpsertChannel registers a channel or fully replaces the row for its id.
// The new channel becomes the active one for its type: any other active
// channel of the same type is deactivated in the same transaction, so a
// lookup never has to pick between rows.
func (l *Ledger) UpsertChannel(ctx context.Context, channelID int64, name, channelType string) (models.Channel, error) {
	if l == nil || l.db == nil {
		return models.Channel{}, errors.New("ledger: not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if channelType != models.ChannelFree && channelType != models.ChannelVip {
		return models.Channel{}, fmt.Errorf("%w: unknown channel type %q", ErrValidation, channelType)
	}

	row := models.Channel{
		ChannelID:   channelID,
		ChannelName: name,
		ChannelType: channelType,
		IsActive:    true,
	}
	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errDeactivate := tx.Model(&models.Channel{}).
			Where("channel_type = ? AND channel_id <> ? AND is_active = ?", channelType, channelID, true).
			Update("is_active", false).Error; errDeactivate != nil {
			return fmt.Errorf("ledger: deactivate siblings: %w", errDeactivate)
		}
		if errUpsert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "channel_id"}},
			UpdateAll: true,
		}).Create(&row).Error; errUpsert != nil {
			return fmt.Errorf("ledger: upsert channel: %w", errUpsert)
		}
		return nil
	})
	if errTx != nil {
		return models.Channel{}, errTx
	}
	return row, nil
}

// LookupChannel returns the active channel of the given type or ErrNotFound.
func (l *Ledger) LookupChannel(ctx context.Context, channelType string) (models.Channel, error) {
	if l == nil || l.db == nil {
		return models.Channel{}, errors.New("ledger: not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var row models.Channel
	errFind := l.db.WithContext(ctx).
		Where("channel_type = ? AND is_active = ?", channelType, true).
		First(&row).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return models.Channel{}, ErrNotFound
	}
	if errFind != nil {
		return models.Channel{}, fmt.Errorf("ledger: lookup channel: %w", errFind)
	}
	return row, nil
}

// ListChannels returns all registered channels ordered by type.
func (l *Ledger) ListChannels(ctx context.Context) ([]models.Channel, error) {
	if l == nil || l.db == nil {
		return nil, errors.New("ledger: not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var rows []models.Channel
	if errFind := l.db.WithContext(ctx).
		Order("channel_type ASC, channel_id ASC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("ledger: list channels: %w", errFind)
	}
	return rows, nil
}

// DeleteChannel removes a channel registration.
func (l *Ledger) DeleteChannel(ctx context.Context, channelID int64) error {
	if l == nil || l.db == nil {
		return errors.New("ledger: not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if errDelete := l.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Delete(&models.Channel{}).Error; errDelete != nil {
		return fmt.Errorf("ledger: delete channel: %w", errDelete)
	}
	return nil
}

// SetChannelActive toggles a channel. Activation deactivates any other active
// channel of the same type first, keeping the one-active-per-type invariant.
func (l *Ledger) SetChannelActive(ctx context.Context, channelID int64, active bool) error {
	if l == nil || l.db == nil {
		return errors.New("ledger: not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Channel
		errFind := tx.Where("channel_id = ?", channelID).First(&row).Error
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if errFind != nil {
			return fmt.Errorf("ledger: query channel: %w", errFind)
		}

		if active {
			if errDeactivate := tx.Model(&models.Channel{}).
				Where("channel_type = ? AND channel_id <> ? AND is_active = ?", row.ChannelType, channelID, true).
				Update("is_active", false).Error; errDeactivate != nil {
				return fmt.Errorf("ledger: deactivate siblings: %w", errDeactivate)
			}
		}
		if errUpdate := tx.Model(&row).Update("is_active", active).Error; errUpdate != nil {
			return fmt.Errorf("ledger: set channel active: %w", errUpdate)
		}
		return nil
	})
}
