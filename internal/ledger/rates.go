package ledger

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/canalvip/vipbot/internal/models"
)

// RateUpdate carries the fields to change on a rate. Nil fields are left
// untouched.
type RateUpdate struct {
	Name *string
	Days *int
	Cost *float64
}

// CreateRate registers a new rate plan, active by default. Non-positive days
// or cost fail with ErrValidation.
func (l *Ledger) CreateRate(ctx context.Context, name string, days int, cost float64) (models.VipRate, error) {
	if l == nil || l.db == nil {
		return models.VipRate{}, errors.New("ledger: not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if days <= 0 {
		return models.VipRate{}, fmt.Errorf("%w: duration must be positive", ErrValidation)
	}
	if cost <= 0 {
		return models.VipRate{}, fmt.Errorf("%w: cost must be positive", ErrValidation)
	}

	row := models.VipRate{
		Name:     name,
		Days:     days,
		Cost:     cost,
		IsActive: true,
	}
	if errCreate := l.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		return models.VipRate{}, fmt.Errorf("ledger: create rate: %w", errCreate)
	}
	return row, nil
}

// GetRate returns a rate by id or ErrNotFound.
func (l *Ledger) GetRate(ctx context.Context, id uint64) (models.VipRate, error) {
	if l == nil || l.db == nil {
		return models.VipRate{}, errors.New("ledger: not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var row models.VipRate
	errFind := l.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return models.VipRate{}, ErrNotFound
	}
	if errFind != nil {
		return models.VipRate{}, fmt.Errorf("ledger: get rate: %w", errFind)
	}
	return row, nil
}

// ListRates returns all rates, oldest first.
func (l *Ledger) ListRates(ctx context.Context) ([]models.VipRate, error) {
	if l == nil || l.db == nil {
		return nil, errors.New("ledger: not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var rows []models.VipRate
	if errFind := l.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("ledger: list rates: %w", errFind)
	}
	return rows, nil
}

// UpdateRate merges the supplied fields into an existing rate. A missing id
// fails with ErrNotFound; non-positive days or cost with ErrValidation.
func (l *Ledger) UpdateRate(ctx context.Context, id uint64, update RateUpdate) (models.VipRate, error) {
	if l == nil || l.db == nil {
		return models.VipRate{}, errors.New("ledger: not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	changes := map[string]any{}
	if update.Name != nil {
		changes["name"] = *update.Name
	}
	if update.Days != nil {
		if *update.Days <= 0 {
			return models.VipRate{}, fmt.Errorf("%w: duration must be positive", ErrValidation)
		}
		changes["days"] = *update.Days
	}
	if update.Cost != nil {
		if *update.Cost <= 0 {
			return models.VipRate{}, fmt.Errorf("%w: cost must be positive", ErrValidation)
		}
		changes["cost"] = *update.Cost
	}

	var row models.VipRate
	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		errFind := tx.Where("id = ?", id).First(&row).Error
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if errFind != nil {
			return fmt.Errorf("ledger: query rate: %w", errFind)
		}
		if len(changes) == 0 {
			return nil
		}
		if errUpdate := tx.Model(&row).Updates(changes).Error; errUpdate != nil {
			return fmt.Errorf("ledger: update rate: %w", errUpdate)
		}
		return nil
	})
	if errTx != nil {
		return models.VipRate{}, errTx
	}
	return row, nil
}

// DeleteRate removes a rate unconditionally. Tokens already issued from it
// keep their copied duration.
func (l *Ledger) DeleteRate(ctx context.Context, id uint64) error {
	if l == nil || l.db == nil {
		return errors.New("ledger: not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if errDelete := l.db.WithContext(ctx).Where("id = ?", id).Delete(&models.VipRate{}).Error; errDelete != nil {
		return fmt.Errorf("ledger: delete rate: %w", errDelete)
	}
	return nil
}

// SetRateActive toggles whether a rate is offered.
func (l *Ledger) SetRateActive(ctx context.Context, id uint64, active bool) error {
	if l == nil || l.db == nil {
		return errors.New("ledger: not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	res := l.db.WithContext(ctx).
		Model(&models.VipRate{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return fmt.Errorf("ledger: set rate active: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
