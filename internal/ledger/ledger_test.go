package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/canalvip/vipbot/internal/db"
	"github.com/canalvip/vipbot/internal/models"
	"github.com/canalvip/vipbot/internal/notify"
)

// fakeNotifier records send attempts and can be told to fail per target.
type fakeNotifier struct {
	mu      sync.Mutex
	direct  []notify.Result
	posts   []notify.Message
	grants  []int64
	failFor map[int64]bool
}

func (f *fakeNotifier) SendDirect(ctx context.Context, userID int64, text string) notify.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := notify.Result{Kind: models.NotifyKindReminder, Target: userID, OK: true}
	if f.failFor[userID] {
		res.OK = false
		res.Reason = "delivery refused"
	}
	f.direct = append(f.direct, res)
	return res
}

func (f *fakeNotifier) PostToChannel(ctx context.Context, channelID int64, msg notify.Message) notify.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := notify.Result{Kind: models.NotifyKindChannelPost, Target: channelID, OK: true}
	if f.failFor[channelID] {
		res.OK = false
		res.Reason = "delivery refused"
	}
	f.posts = append(f.posts, msg)
	return res
}

func (f *fakeNotifier) GrantFreeAccess(ctx context.Context, userID int64, username string) notify.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grants = append(f.grants, userID)
	return notify.Result{Kind: models.NotifyKindFreeAccess, Target: userID, OK: true}
}

func setupLedger(t *testing.T) (*Ledger, *fakeNotifier, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	notifier := &fakeNotifier{failFor: map[int64]bool{}}
	return New(conn, notifier, notify.NewRecorder(conn)), notifier, conn
}

func TestIssueTokenDefaultsDuration(t *testing.T) {
	ledger, _, _ := setupLedger(t)

	token, errIssue := ledger.IssueToken(context.Background(), 0)
	if errIssue != nil {
		t.Fatalf("issue: %v", errIssue)
	}
	if token.DurationDays != DefaultDurationDays {
		t.Fatalf("expected default duration %d, got %d", DefaultDurationDays, token.DurationDays)
	}
	if token.Used {
		t.Fatalf("fresh token must be unused")
	}
	if token.Token == "" {
		t.Fatalf("token identifier must not be empty")
	}
}

func TestIssueTokensAreUnique(t *testing.T) {
	ledger, _, _ := setupLedger(t)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		token, errIssue := ledger.IssueToken(context.Background(), 7)
		if errIssue != nil {
			t.Fatalf("issue %d: %v", i, errIssue)
		}
		if seen[token.Token] {
			t.Fatalf("duplicate token %s", token.Token)
		}
		seen[token.Token] = true
	}
}

func TestRedeemTokenOnceThenInvalid(t *testing.T) {
	ledger, _, _ := setupLedger(t)
	ctx := context.Background()

	token, errIssue := ledger.IssueToken(ctx, 7)
	if errIssue != nil {
		t.Fatalf("issue: %v", errIssue)
	}

	before := time.Now().UTC()
	user, errRedeem := ledger.RedeemToken(ctx, token.Token, 42, "alice")
	if errRedeem != nil {
		t.Fatalf("redeem: %v", errRedeem)
	}
	if user.Status != models.StatusActive {
		t.Fatalf("expected active status, got %s", user.Status)
	}
	want := before.AddDate(0, 0, 7)
	if diff := user.SubscriptionEnd.Sub(want); diff < -time.Second || diff > 2*time.Second {
		t.Fatalf("subscription end off by %s", diff)
	}

	if _, errAgain := ledger.RedeemToken(ctx, token.Token, 42, "alice"); !errors.Is(errAgain, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken on second redeem, got %v", errAgain)
	}
}

func TestRedeemUnknownToken(t *testing.T) {
	ledger, _, _ := setupLedger(t)

	if _, errRedeem := ledger.RedeemToken(context.Background(), "no-such-token", 1, "bob"); !errors.Is(errRedeem, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", errRedeem)
	}
}

func TestRedeemSecondTokenResetsSubscription(t *testing.T) {
	ledger, _, _ := setupLedger(t)
	ctx := context.Background()

	long, errIssue := ledger.IssueToken(ctx, 30)
	if errIssue != nil {
		t.Fatalf("issue: %v", errIssue)
	}
	short, errIssue := ledger.IssueToken(ctx, 7)
	if errIssue != nil {
		t.Fatalf("issue: %v", errIssue)
	}

	if _, errRedeem := ledger.RedeemToken(ctx, long.Token, 42, "alice"); errRedeem != nil {
		t.Fatalf("redeem long: %v", errRedeem)
	}
	user, errRedeem := ledger.RedeemToken(ctx, short.Token, 42, "alice")
	if errRedeem != nil {
		t.Fatalf("redeem short: %v", errRedeem)
	}

	// Last write wins: the 7-day token replaces the 30-day end, no accumulation.
	want := time.Now().UTC().AddDate(0, 0, 7)
	if diff := user.SubscriptionEnd.Sub(want); diff < -2*time.Second || diff > 2*time.Second {
		t.Fatalf("expected reset to 7 days, off by %s", diff)
	}

	users, errList := ledger.ListUsers(ctx)
	if errList != nil {
		t.Fatalf("list users: %v", errList)
	}
	if len(users) != 1 {
		t.Fatalf("expected one user row, got %d", len(users))
	}
}

func TestListUsersOrderedBySubscriptionEnd(t *testing.T) {
	ledger, _, conn := setupLedger(t)
	ctx := context.Background()

	now := time.Now().UTC()
	rows := []models.VipUser{
		{UserID: 1, Username: "late", SubscriptionEnd: now.AddDate(0, 0, 20), Status: models.StatusActive},
		{UserID: 2, Username: "soon", SubscriptionEnd: now.AddDate(0, 0, 2), Status: models.StatusActive},
		{UserID: 3, Username: "mid", SubscriptionEnd: now.AddDate(0, 0, 10), Status: models.StatusActive},
	}
	for i := range rows {
		if errCreate := conn.Create(&rows[i]).Error; errCreate != nil {
			t.Fatalf("create: %v", errCreate)
		}
	}

	users, errList := ledger.ListUsers(ctx)
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(users) != 3 || users[0].Username != "soon" || users[1].Username != "mid" || users[2].Username != "late" {
		t.Fatalf("unexpected order: %+v", users)
	}
}

func TestListExpiringWithinWindow(t *testing.T) {
	ledger, _, conn := setupLedger(t)
	ctx := context.Background()

	now := time.Now().UTC()
	rows := []models.VipUser{
		{UserID: 1, Username: "inside", SubscriptionEnd: now.Add(23 * time.Hour), Status: models.StatusActive},
		{UserID: 2, Username: "outside", SubscriptionEnd: now.Add(25 * time.Hour), Status: models.StatusActive},
		{UserID: 3, Username: "past", SubscriptionEnd: now.Add(-time.Hour), Status: models.StatusActive},
		{UserID: 4, Username: "expired", SubscriptionEnd: now.Add(12 * time.Hour), Status: models.StatusExpired},
	}
	for i := range rows {
		if errCreate := conn.Create(&rows[i]).Error; errCreate != nil {
			t.Fatalf("create: %v", errCreate)
		}
	}

	expiring, errList := ledger.ListExpiringWithin(ctx, 24*time.Hour)
	if errList != nil {
		t.Fatalf("list expiring: %v", errList)
	}
	if len(expiring) != 1 || expiring[0].Username != "inside" {
		t.Fatalf("expected only the in-window active user, got %+v", expiring)
	}
}

func TestSweepExpiredIsIdempotent(t *testing.T) {
	ledger, _, conn := setupLedger(t)
	ctx := context.Background()

	row := models.VipUser{
		UserID:          42,
		Username:        "alice",
		SubscriptionEnd: time.Now().UTC().Add(-time.Hour),
		Status:          models.StatusActive,
	}
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	affected, errSweep := ledger.SweepExpired(ctx)
	if errSweep != nil {
		t.Fatalf("sweep: %v", errSweep)
	}
	if affected != 1 {
		t.Fatalf("expected 1 expired row, got %d", affected)
	}

	var updated models.VipUser
	if errFind := conn.Where("user_id = ?", int64(42)).First(&updated).Error; errFind != nil {
		t.Fatalf("find: %v", errFind)
	}
	if updated.Status != models.StatusExpired {
		t.Fatalf("expected expired status, got %s", updated.Status)
	}

	// The expired row must drop out of the reminder query.
	expiring, errList := ledger.ListExpiringWithin(ctx, 24*time.Hour)
	if errList != nil {
		t.Fatalf("list expiring: %v", errList)
	}
	if len(expiring) != 0 {
		t.Fatalf("expired user still listed as expiring: %+v", expiring)
	}

	again, errSweep := ledger.SweepExpired(ctx)
	if errSweep != nil {
		t.Fatalf("second sweep: %v", errSweep)
	}
	if again != 0 {
		t.Fatalf("second sweep should be a no-op, affected %d", again)
	}
}
