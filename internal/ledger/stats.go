package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/canalvip/vipbot/internal/models"
)

// Stats is a point-in-time summary of the ledger tables.
type Stats struct {
	ActiveMembers  int64 `json:"active_members"`
	ExpiredMembers int64 `json:"expired_members"`
	UnusedTokens   int64 `json:"unused_tokens"`
	Channels       int64 `json:"channels"`
	Rates          int64 `json:"rates"`
}

// CollectStats counts members, tokens, channels, and rates.
func (l *Ledger) CollectStats(ctx context.Context) (*Stats, error) {
	if l == nil || l.db == nil {
		return nil, errors.New("ledger: nil ledger")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var stats Stats
	counts := []struct {
		dest  *int64
		model any
		query string
		args  []any
	}{
		{&stats.ActiveMembers, &models.VipUser{}, "status = ?", []any{models.StatusActive}},
		{&stats.ExpiredMembers, &models.VipUser{}, "status = ?", []any{models.StatusExpired}},
		{&stats.UnusedTokens, &models.VipToken{}, "used = ?", []any{false}},
		{&stats.Channels, &models.Channel{}, "", nil},
		{&stats.Rates, &models.VipRate{}, "", nil},
	}
	for _, c := range counts {
		tx := l.db.WithContext(ctx).Model(c.model)
		if c.query != "" {
			tx = tx.Where(c.query, c.args...)
		}
		if errCount := tx.Count(c.dest).Error; errCount != nil {
			return nil, fmt.Errorf("ledger: collect stats: %w", errCount)
		}
	}
	return &stats, nil
}

// RecentNotifications returns the newest notification log entries, most
// recent first. Returns nil when no recorder is wired.
func (l *Ledger) RecentNotifications(ctx context.Context, limit int) ([]models.NotificationLog, error) {
	if l == nil || l.recorder == nil {
		return nil, nil
	}
	return l.recorder.Recent(ctx, limit)
}
