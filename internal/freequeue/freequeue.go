// Package freequeue manages free-channel join requests. Requests sit in a
// database-backed queue until a configurable delay elapses, then an approval
// sweep grants access. The delay is read from the settings table on every
// pass, so admin changes apply to the very next tick.
package freequeue

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/canalvip/vipbot/internal/models"
	"github.com/canalvip/vipbot/internal/notify"
	"github.com/canalvip/vipbot/internal/settings"
)

// Queue stores and approves free-channel join requests.
type Queue struct {
	db       *gorm.DB
	notifier notify.Notifier
	recorder *notify.Recorder
}

// New constructs a queue over the given database connection.
func New(conn *gorm.DB, notifier notify.Notifier, recorder *notify.Recorder) *Queue {
	return &Queue{db: conn, notifier: notifier, recorder: recorder}
}

// Enqueue records a new join request timestamped now. Repeat requests from
// the same user are stored as separate rows; each waits out its own delay.
func (q *Queue) Enqueue(ctx context.Context, userID int64, username string) (*models.FreeChannelRequest, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("freequeue: nil queue")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	row := models.FreeChannelRequest{
		UserID:      userID,
		Username:    username,
		RequestedAt: time.Now().UTC(),
	}
	if errCreate := q.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		return nil, fmt.Errorf("freequeue: enqueue user %d: %w", userID, errCreate)
	}
	log.Debugf("freequeue: queued request (user=%d username=%s)", userID, username)
	return &row, nil
}

// ListPending returns unprocessed requests, oldest first.
func (q *Queue) ListPending(ctx context.Context) ([]models.FreeChannelRequest, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("freequeue: nil queue")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var rows []models.FreeChannelRequest
	errFind := q.db.WithContext(ctx).
		Where("processed = ?", false).
		Order("requested_at ASC").
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("freequeue: list pending: %w", errFind)
	}
	return rows, nil
}

// CountPending returns the number of unprocessed requests.
func (q *Queue) CountPending(ctx context.Context) (int64, error) {
	if q == nil || q.db == nil {
		return 0, errors.New("freequeue: nil queue")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var count int64
	errCount := q.db.WithContext(ctx).
		Model(&models.FreeChannelRequest{}).
		Where("processed = ?", false).
		Count(&count).Error
	if errCount != nil {
		return 0, fmt.Errorf("freequeue: count pending: %w", errCount)
	}
	return count, nil
}

// Delay returns the configured approval delay in seconds. Missing or broken
// settings fall back to the default; non-positive stored values are returned
// as-is and mean immediate approval.
func (q *Queue) Delay(ctx context.Context) int {
	if q == nil || q.db == nil {
		return models.DefaultFreeChannelDelaySeconds
	}
	return settings.GetInt(ctx, q.db, models.SettingFreeChannelDelay, models.DefaultFreeChannelDelaySeconds)
}

// SetDelay stores a new approval delay in seconds.
func (q *Queue) SetDelay(ctx context.Context, seconds int) error {
	if q == nil || q.db == nil {
		return errors.New("freequeue: nil queue")
	}
	return settings.SetInt(ctx, q.db, models.SettingFreeChannelDelay, seconds)
}

// ApproveDue runs a single approval pass: every pending request whose delay
// has elapsed is granted access and marked processed. A failed grant is
// recorded but the request still transitions, so the sweep never retries a
// dead chat forever. Returns the delivery results of this pass.
func (q *Queue) ApproveDue(ctx context.Context) []notify.Result {
	if q == nil || q.db == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	delay := q.Delay(ctx)
	cutoff := time.Now().UTC()
	if delay > 0 {
		cutoff = cutoff.Add(-time.Duration(delay) * time.Second)
	}

	var due []models.FreeChannelRequest
	errFind := q.db.WithContext(ctx).
		Where("processed = ? AND requested_at <= ?", false, cutoff).
		Order("requested_at ASC").
		Find(&due).Error
	if errFind != nil {
		log.WithError(errFind).Warn("freequeue: list due requests failed")
		return nil
	}

	results := make([]notify.Result, 0, len(due))
	for _, req := range due {
		res := q.approve(ctx, req)
		results = append(results, res)
	}
	if len(results) > 0 {
		granted := 0
		for _, res := range results {
			if res.OK {
				granted++
			}
		}
		log.Infof("freequeue: approved %d requests (%d grants delivered)", len(results), granted)
	}
	return results
}

func (q *Queue) approve(ctx context.Context, req models.FreeChannelRequest) notify.Result {
	res := notify.Result{Kind: models.NotifyKindFreeAccess, Target: req.UserID, Reason: "no notifier configured"}
	if q.notifier != nil {
		res = q.notifier.GrantFreeAccess(ctx, req.UserID, req.Username)
	}
	if q.recorder != nil {
		q.recorder.Record(ctx, res, map[string]any{
			"username":     req.Username,
			"requested_at": req.RequestedAt,
		})
	}
	if !res.OK {
		log.Warnf("freequeue: grant failed (user=%d reason=%s)", req.UserID, res.Reason)
	}

	errMark := q.db.WithContext(ctx).
		Model(&models.FreeChannelRequest{}).
		Where("user_id = ? AND requested_at = ?", req.UserID, req.RequestedAt).
		Update("processed", true).Error
	if errMark != nil {
		log.WithError(errMark).Warnf("freequeue: mark processed failed (user=%d)", req.UserID)
	}
	return res
}
