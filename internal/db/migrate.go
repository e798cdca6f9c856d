package db

import (
	"encoding/json"
	"fmt"

	"github.com/canalvip/vipbot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migrate creates or updates the schema and seeds required settings.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errMigrate := conn.AutoMigrate(
		&models.Setting{},
		&models.VipToken{},
		&models.VipUser{},
		&models.VipRate{},
		&models.Channel{},
		&models.FreeChannelRequest{},
		&models.NotificationLog{},
	); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}
	return seedDefaults(conn)
}

// seedDefaults inserts default settings, leaving existing values untouched.
func seedDefaults(conn *gorm.DB) error {
	value, errMarshal := json.Marshal(models.DefaultFreeChannelDelaySeconds)
	if errMarshal != nil {
		return fmt.Errorf("db: seed defaults: %w", errMarshal)
	}
	row := models.Setting{
		Key:   models.SettingFreeChannelDelay,
		Value: value,
	}
	if errCreate := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; errCreate != nil {
		return fmt.Errorf("db: seed defaults: %w", errCreate)
	}
	return nil
}
