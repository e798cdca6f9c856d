package freequeue

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// defaultApprovalInterval is how often the approval sweep runs. Short on
// purpose: the configured delay is the user-facing wait, the tick only
// bounds how late past-due requests are noticed.
const defaultApprovalInterval = 10 * time.Second

// ApprovalSweeper drives the approval pass on a fixed tick.
type ApprovalSweeper struct {
	queue    *Queue
	interval time.Duration
}

// NewApprovalSweeper constructs an approval sweeper. interval falls back to
// ten seconds when non-positive.
func NewApprovalSweeper(queue *Queue, interval time.Duration) *ApprovalSweeper {
	if queue == nil {
		return nil
	}
	if interval <= 0 {
		interval = defaultApprovalInterval
	}
	return &ApprovalSweeper{queue: queue, interval: interval}
}

// Start launches the sweep loop in a background goroutine. Cancelling the
// context prevents the next tick; a running pass finishes its work.
func (s *ApprovalSweeper) Start(ctx context.Context) {
	if s == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go s.run(ctx)
	log.Infof("approval sweeper started (interval=%s)", s.interval)
}

func (s *ApprovalSweeper) run(ctx context.Context) {
	for {
		if ctx != nil && ctx.Err() != nil {
			return
		}
		s.queue.ApproveDue(ctx)
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
