package settings

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/canalvip/vipbot/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupSettingsDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:settings_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(&models.Setting{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func TestGetIntMissingKeyReturnsFallback(t *testing.T) {
	conn := setupSettingsDB(t)
	if got := GetInt(context.Background(), conn, "free_channel_delay", 60); got != 60 {
		t.Fatalf("expected fallback 60, got %d", got)
	}
}

func TestSetIntThenGetInt(t *testing.T) {
	conn := setupSettingsDB(t)
	if errSet := SetInt(context.Background(), conn, "free_channel_delay", 120); errSet != nil {
		t.Fatalf("set: %v", errSet)
	}
	if got := GetInt(context.Background(), conn, "free_channel_delay", 60); got != 120 {
		t.Fatalf("expected 120, got %d", got)
	}
}

func TestSetIntOverwritesExistingValue(t *testing.T) {
	conn := setupSettingsDB(t)
	if errSet := SetInt(context.Background(), conn, "free_channel_delay", 30); errSet != nil {
		t.Fatalf("set: %v", errSet)
	}
	if errSet := SetInt(context.Background(), conn, "free_channel_delay", 90); errSet != nil {
		t.Fatalf("second set: %v", errSet)
	}
	if got := GetInt(context.Background(), conn, "free_channel_delay", 60); got != 90 {
		t.Fatalf("expected 90, got %d", got)
	}
}

func TestSetIntAcceptsNonPositiveValues(t *testing.T) {
	conn := setupSettingsDB(t)
	for _, value := range []int{0, -15} {
		if errSet := SetInt(context.Background(), conn, "free_channel_delay", value); errSet != nil {
			t.Fatalf("set %d: %v", value, errSet)
		}
		if got := GetInt(context.Background(), conn, "free_channel_delay", 60); got != value {
			t.Fatalf("expected %d, got %d", value, got)
		}
	}
}

func TestGetIntToleratesLegacyEncodings(t *testing.T) {
	conn := setupSettingsDB(t)
	cases := map[string]string{
		"plain":   "45",
		"quoted":  `"45"`,
		"wrapped": `{"value": 45}`,
	}
	for name, raw := range cases {
		row := models.Setting{Key: name, Value: []byte(raw)}
		if errCreate := conn.Create(&row).Error; errCreate != nil {
			t.Fatalf("create %s: %v", name, errCreate)
		}
		if got := GetInt(context.Background(), conn, name, 0); got != 45 {
			t.Fatalf("%s: expected 45, got %d", name, got)
		}
	}
}
