// Package settings reads and writes database-backed configuration values.
// Values live in the settings table as JSON; reads always hit the database,
// so sweeps observe admin changes on their next tick without a reload step.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/canalvip/vipbot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetInt returns the integer value stored under key, or fallback when the key
// is absent or unparsable.
func GetInt(ctx context.Context, conn *gorm.DB, key string, fallback int) int {
	if conn == nil {
		return fallback
	}
	if ctx == nil {
		ctx = context.Background()
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}

	var row models.Setting
	errFind := conn.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errFind != nil {
		return fallback
	}
	if parsed, ok := parseInt(row.Value); ok {
		return parsed
	}
	return fallback
}

// SetInt stores an integer value under key, inserting or updating the row.
func SetInt(ctx context.Context, conn *gorm.DB, key string, value int) error {
	if conn == nil {
		return errors.New("settings: nil db")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("settings: empty key")
	}

	encoded, errMarshal := json.Marshal(value)
	if errMarshal != nil {
		return fmt.Errorf("settings: encode %s: %w", key, errMarshal)
	}
	row := models.Setting{Key: key, Value: encoded}
	return conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
}

// parseInt decodes an integer from a raw JSON setting value. Plain numbers,
// numeric strings, and {"value": ...} wrappers are all accepted.
func parseInt(raw json.RawMessage) (int, bool) {
	raw = bytesTrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	var n int
	if errUnmarshal := json.Unmarshal(raw, &n); errUnmarshal == nil {
		return n, true
	}
	var f float64
	if errUnmarshal := json.Unmarshal(raw, &f); errUnmarshal == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		if f != math.Trunc(f) {
			return 0, false
		}
		return int(f), true
	}
	var s string
	if errUnmarshal := json.Unmarshal(raw, &s); errUnmarshal == nil {
		parsed, errParse := strconv.Atoi(strings.TrimSpace(s))
		if errParse == nil {
			return parsed, true
		}
	}
	var wrapper struct {
		Value json.RawMessage `json:"value"`
	}
	if errUnmarshal := json.Unmarshal(raw, &wrapper); errUnmarshal == nil && len(wrapper.Value) > 0 {
		return parseInt(wrapper.Value)
	}
	return 0, false
}

func bytesTrimSpace(input []byte) []byte {
	if len(input) == 0 {
		return nil
	}
	start := 0
	end := len(input)
	for start < end {
		if input[start] > ' ' {
			break
		}
		start++
	}
	for end > start {
		if input[end-1] > ' ' {
			break
		}
		end--
	}
	return input[start:end]
}
