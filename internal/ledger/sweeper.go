package ledger

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/canalvip/vipbot/internal/notify"
)

const (
	defaultReminderInterval = time.Hour
	// reminderWindow is how far ahead of expiry users are warned.
	reminderWindow = 24 * time.Hour
)

// ReminderSweeper periodically warns soon-to-expire users and then expires
// lapsed subscriptions. A delivery failure for one user never blocks the
// rest, and never prevents the expiry pass.
type ReminderSweeper struct {
	ledger   *Ledger
	interval time.Duration
}

// NewReminderSweeper constructs a reminder sweeper. interval falls back to
// one hour when non-positive.
func NewReminderSweeper(ledger *Ledger, interval time.Duration) *ReminderSweeper {
	if ledger == nil {
		return nil
	}
	if interval <= 0 {
		interval = defaultReminderInterval
	}
	return &ReminderSweeper{ledger: ledger, interval: interval}
}

// Start launches the sweep loop in a background goroutine. Cancelling the
// context prevents the next tick; a running sweep finishes its work.
func (s *ReminderSweeper) Start(ctx context.Context) {
	if s == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go s.run(ctx)
	log.Infof("reminder sweeper started (interval=%s)", s.interval)
}

func (s *ReminderSweeper) run(ctx context.Context) {
	for {
		if ctx != nil && ctx.Err() != nil {
			return
		}
		s.SweepOnce(ctx)
		if ctx != nil && ctx.Err() != nil {
			return
		}
		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return
		case <-timer.C:
		}
	}
}

// SweepOnce runs a single reminder-and-expiry pass and returns the aggregated
// delivery results.
func (s *ReminderSweeper) SweepOnce(ctx context.Context) []notify.Result {
	if s == nil || s.ledger == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	expiring, errList := s.ledger.ListExpiringWithin(ctx, reminderWindow)
	if errList != nil {
		log.WithError(errList).Warn("reminder sweeper: list expiring failed")
	}

	results := make([]notify.Result, 0, len(expiring))
	sent := 0
	for _, user := range expiring {
		res := s.remind(ctx, user.UserID, user.Username, user.SubscriptionEnd)
		results = append(results, res)
		if res.OK {
			sent++
		}
	}
	if len(results) > 0 {
		log.Infof("reminder sweeper: sent %d/%d reminders", sent, len(results))
	}

	expired, errSweep := s.ledger.SweepExpired(ctx)
	if errSweep != nil {
		log.WithError(errSweep).Warn("reminder sweeper: expiry sweep failed")
		return results
	}
	if expired > 0 {
		log.Infof("reminder sweeper: expired %d subscriptions", expired)
	}
	return results
}

func (s *ReminderSweeper) remind(ctx context.Context, userID int64, username string, end time.Time) notify.Result {
	text := fmt.Sprintf(
		"¡Recordatorio! Tu suscripción VIP expira en menos de 24 horas.\nFecha de expiración: %s\n\nRenueva tu suscripción para mantener el acceso al canal VIP.",
		end.Format("2006-01-02 15:04"),
	)

	res := notify.Result{Target: userID, Reason: "no notifier configured"}
	if s.ledger.notifier != nil {
		res = s.ledger.notifier.SendDirect(ctx, userID, text)
	}
	if s.ledger.recorder != nil {
		s.ledger.recorder.Record(ctx, res, map[string]any{"username": username, "subscription_end": end})
	}
	if !res.OK {
		log.Warnf("reminder sweeper: reminder failed (user=%d reason=%s)", userID, res.Reason)
	}
	return res
}
