package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/canalvip/vipbot/internal/models"
)

func TestSweepOnceRemindsAndExpires(t *testing.T) {
	ledger, notifier, conn := setupLedger(t)
	ctx := context.Background()

	now := time.Now().UTC()
	rows := []models.VipUser{
		{UserID: 1, Username: "expiring", SubscriptionEnd: now.Add(12 * time.Hour), Status: models.StatusActive},
		{UserID: 2, Username: "lapsed", SubscriptionEnd: now.Add(-time.Hour), Status: models.StatusActive},
		{UserID: 3, Username: "healthy", SubscriptionEnd: now.AddDate(0, 0, 20), Status: models.StatusActive},
	}
	for i := range rows {
		if errCreate := conn.Create(&rows[i]).Error; errCreate != nil {
			t.Fatalf("create: %v", errCreate)
		}
	}

	sweeper := NewReminderSweeper(ledger, time.Hour)
	results := sweeper.SweepOnce(ctx)

	if len(results) != 1 || results[0].Target != 1 || !results[0].OK {
		t.Fatalf("expected one successful reminder for user 1, got %+v", results)
	}
	if len(notifier.direct) != 1 {
		t.Fatalf("expected one direct message, got %d", len(notifier.direct))
	}

	var lapsed models.VipUser
	if errFind := conn.Where("user_id = ?", int64(2)).First(&lapsed).Error; errFind != nil {
		t.Fatalf("find lapsed: %v", errFind)
	}
	if lapsed.Status != models.StatusExpired {
		t.Fatalf("expiry sweep did not run, status=%s", lapsed.Status)
	}
}

func TestSweepOnceIsolatesPerUserFailures(t *testing.T) {
	ledger, notifier, conn := setupLedger(t)
	ctx := context.Background()

	now := time.Now().UTC()
	rows := []models.VipUser{
		{UserID: 1, Username: "first", SubscriptionEnd: now.Add(6 * time.Hour), Status: models.StatusActive},
		{UserID: 2, Username: "unreachable", SubscriptionEnd: now.Add(8 * time.Hour), Status: models.StatusActive},
		{UserID: 3, Username: "third", SubscriptionEnd: now.Add(10 * time.Hour), Status: models.StatusActive},
		{UserID: 4, Username: "lapsed", SubscriptionEnd: now.Add(-time.Minute), Status: models.StatusActive},
	}
	for i := range rows {
		if errCreate := conn.Create(&rows[i]).Error; errCreate != nil {
			t.Fatalf("create: %v", errCreate)
		}
	}
	notifier.failFor[2] = true

	sweeper := NewReminderSweeper(ledger, time.Hour)
	results := sweeper.SweepOnce(ctx)

	if len(results) != 3 {
		t.Fatalf("expected three reminder attempts, got %d", len(results))
	}
	ok := 0
	for _, res := range results {
		if res.OK {
			ok++
		}
	}
	if ok != 2 {
		t.Fatalf("expected two successful deliveries, got %d", ok)
	}

	// The failed delivery must not block the expiry pass.
	var lapsed models.VipUser
	if errFind := conn.Where("user_id = ?", int64(4)).First(&lapsed).Error; errFind != nil {
		t.Fatalf("find lapsed: %v", errFind)
	}
	if lapsed.Status != models.StatusExpired {
		t.Fatalf("expiry sweep blocked by reminder failure, status=%s", lapsed.Status)
	}
}
