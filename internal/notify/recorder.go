package notify

import (
	"context"
	"encoding/json"

	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/canalvip/vipbot/internal/models"
)

// Recorder persists send attempts to the notification log. Logging failures
// are themselves fail-soft; a full log table must never block a sweep.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder constructs a Recorder.
func NewRecorder(conn *gorm.DB) *Recorder {
	if conn == nil {
		return nil
	}
	return &Recorder{db: conn}
}

// Record writes a single attempt outcome. payload is an optional message
// summary stored as JSON for auditing.
func (r *Recorder) Record(ctx context.Context, res Result, payload any) {
	if r == nil || r.db == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var data datatypes.JSON
	if payload != nil {
		encoded, errMarshal := json.Marshal(payload)
		if errMarshal == nil {
			data = datatypes.JSON(encoded)
		}
	}

	row := models.NotificationLog{
		Kind:    res.Kind,
		Target:  res.Target,
		OK:      res.OK,
		Reason:  res.Reason,
		Payload: data,
	}
	if errCreate := r.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		log.WithError(errCreate).Warn("notify recorder: write log failed")
	}
}

// Recent returns the newest log entries, most recent first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]models.NotificationLog, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 20
	}

	var rows []models.NotificationLog
	errFind := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if errFind != nil {
		return nil, errFind
	}
	return rows, nil
}
