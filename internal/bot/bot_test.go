package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"github.com/canalvip/vipbot/internal/db"
	"github.com/canalvip/vipbot/internal/freequeue"
	"github.com/canalvip/vipbot/internal/ledger"
	"github.com/canalvip/vipbot/internal/models"
	"github.com/canalvip/vipbot/internal/notify"
)

const testAdminID int64 = 99

// fakeSender captures outbound Telegram API calls.
type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
	acks int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// lastText extracts the text of the most recent send or edit.
func (f *fakeSender) lastText(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatalf("nothing was sent")
	}
	switch c := f.sent[len(f.sent)-1].(type) {
	case tgbotapi.MessageConfig:
		return c.Text
	case tgbotapi.EditMessageTextConfig:
		return c.Text
	default:
		t.Fatalf("unexpected chattable %T", c)
		return ""
	}
}

func setupBot(t *testing.T) (*Bot, *fakeSender, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:bot_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	recorder := notify.NewRecorder(conn)
	fake := &fakeSender{}
	b := &Bot{
		client:   fake,
		ledger:   ledger.New(conn, nil, recorder),
		queue:    freequeue.New(conn, nil, recorder),
		adminID:  testAdminID,
		username: "canalvip_test_bot",
		states:   newStateStore(),
	}
	return b, fake, conn
}

func userMessage(userID int64, username, text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, UserName: username},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		cmdLen := len(text)
		if idx := strings.Index(text, " "); idx > 0 {
			cmdLen = idx
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}}
	}
	return msg
}

func adminCallback(data string) *tgbotapi.CallbackQuery {
	return callbackFrom(testAdminID, data)
}

func callbackFrom(userID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cb",
		From: &tgbotapi.User{ID: userID, UserName: "someone"},
		Message: &tgbotapi.Message{
			MessageID: 10,
			Chat:      &tgbotapi.Chat{ID: userID},
		},
		Data: data,
	}
}

func TestStartWithTokenRedeems(t *testing.T) {
	b, fake, conn := setupBot(t)
	ctx := context.Background()

	token, errIssue := b.ledger.IssueToken(ctx, 7)
	if errIssue != nil {
		t.Fatalf("issue: %v", errIssue)
	}

	b.handleMessage(ctx, userMessage(42, "alice", "/start "+token.Token))
	if got := fake.lastText(t); !strings.Contains(got, "Felicidades") || !strings.Contains(got, "7 días") {
		t.Fatalf("unexpected redemption reply: %q", got)
	}

	var user models.VipUser
	if errFind := conn.Where("user_id = ?", int64(42)).First(&user).Error; errFind != nil {
		t.Fatalf("user not registered: %v", errFind)
	}
	if user.Status != models.StatusActive {
		t.Fatalf("expected active user, got %s", user.Status)
	}

	b.handleMessage(ctx, userMessage(42, "alice", "/start "+token.Token))
	if got := fake.lastText(t); !strings.Contains(got, "Token inválido") {
		t.Fatalf("expected invalid-token reply, got %q", got)
	}
}

func TestStartAdminShowsPanel(t *testing.T) {
	b, fake, _ := setupBot(t)

	b.handleMessage(context.Background(), userMessage(testAdminID, "admin", "/start"))
	if got := fake.lastText(t); !strings.Contains(got, "Panel de Administración") {
		t.Fatalf("expected admin panel, got %q", got)
	}
}

func TestStartNonAdminShowsWelcome(t *testing.T) {
	b, fake, _ := setupBot(t)

	b.handleMessage(context.Background(), userMessage(7, "bob", "/start"))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(fake.sent))
	}
	msg, ok := fake.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("expected MessageConfig, got %T", fake.sent[0])
	}
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(markup.InlineKeyboard) != 1 {
		t.Fatalf("expected welcome keyboard, got %+v", msg.ReplyMarkup)
	}
	button := markup.InlineKeyboard[0][0]
	if button.CallbackData == nil || *button.CallbackData != cbRequestFreeAccess {
		t.Fatalf("expected free-access button, got %+v", button)
	}
}

func TestAdminMenuNavigation(t *testing.T) {
	b, fake, _ := setupBot(t)
	ctx := context.Background()

	rate, errCreate := b.ledger.CreateRate(ctx, "1 Mes", 30, 20)
	if errCreate != nil {
		t.Fatalf("create rate: %v", errCreate)
	}
	if _, errUpsert := b.ledger.UpsertChannel(ctx, -100555, "Canal Libre", models.ChannelFree); errUpsert != nil {
		t.Fatalf("upsert channel: %v", errUpsert)
	}

	screens := []struct {
		data string
		want string
	}{
		{cbAdminPanel, "Panel de Administración"},
		{cbSystemConfig, "Configuración del Sistema"},
		{cbConfigDelay, "Delay actual: 60 segundos"},
		{cbManageChannels, "Gestión de Canales"},
		{cbToggleChannels, "Gestionar Estado Canales"},
		{cbVipManagement, "Gestión VIP"},
		{cbManageRates, "Gestión de Tarifas VIP"},
		{cbSelectRateDuration, "Crear Tarifa - Paso 1"},
		{cbViewRates, "Tarifas VIP Configuradas"},
		{fmt.Sprintf("%s%d", cbEditRatePrefix, rate.ID), "Editar Tarifa: 1 Mes"},
		{fmt.Sprintf("%s%d", cbChangeRateDurationPrefix, rate.ID), "Cambiar Duración"},
		{cbGenerateVipToken, "Generar Token VIP"},
		{cbStatistics, "Estadísticas del Sistema"},
	}
	for _, screen := range screens {
		b.handleCallback(ctx, adminCallback(screen.data))
		if got := fake.lastText(t); !strings.Contains(got, screen.want) {
			t.Fatalf("callback %s: expected %q in %q", screen.data, screen.want, got)
		}
	}
}

func TestFreeRequestCallbackEnqueues(t *testing.T) {
	b, fake, _ := setupBot(t)
	ctx := context.Background()

	b.handleCallback(ctx, callbackFrom(7, cbRequestFreeAccess))
	if got := fake.lastText(t); !strings.Contains(got, "solicitud ha sido registrada") {
		t.Fatalf("unexpected acknowledgment: %q", got)
	}

	pending, errList := b.queue.ListPending(ctx)
	if errList != nil {
		t.Fatalf("list pending: %v", errList)
	}
	if len(pending) != 1 || pending[0].UserID != 7 {
		t.Fatalf("request not queued: %+v", pending)
	}
}

func TestNonAdminCallbackDenied(t *testing.T) {
	b, fake, _ := setupBot(t)

	b.handleCallback(context.Background(), callbackFrom(7, cbVipManagement))
	if got := fake.lastText(t); !strings.Contains(got, "No tienes permisos") {
		t.Fatalf("expected denial, got %q", got)
	}
}

func TestRateCreationWizard(t *testing.T) {
	b, fake, _ := setupBot(t)
	ctx := context.Background()

	b.handleCallback(ctx, adminCallback(cbRateDurationPrefix+"7"))
	if state := b.states.get(testAdminID); state.Phase != phaseAwaitingRateCost || state.DraftDays != 7 {
		t.Fatalf("wizard not armed: %+v", state)
	}

	b.handleMessage(ctx, userMessage(testAdminID, "admin", "10.50"))
	if state := b.states.get(testAdminID); state.Phase != phaseAwaitingRateName || state.DraftCost != 10.50 {
		t.Fatalf("cost not captured: %+v", state)
	}
	if got := fake.lastText(t); !strings.Contains(got, "1 Semana") {
		t.Fatalf("expected auto-name summary, got %q", got)
	}

	b.handleMessage(ctx, userMessage(testAdminID, "admin", "no"))
	if state := b.states.get(testAdminID); state.Phase != phaseIdle {
		t.Fatalf("state not reset after creation: %+v", state)
	}

	rates, errList := b.ledger.ListRates(ctx)
	if errList != nil {
		t.Fatalf("list rates: %v", errList)
	}
	if len(rates) != 1 || rates[0].Name != "1 Semana" || rates[0].Days != 7 || rates[0].Cost != 10.50 {
		t.Fatalf("unexpected rate: %+v", rates)
	}
}

func TestRateWizardRejectsBadCost(t *testing.T) {
	b, fake, _ := setupBot(t)
	ctx := context.Background()

	b.handleCallback(ctx, adminCallback(cbRateDurationPrefix+"30"))
	b.handleMessage(ctx, userMessage(testAdminID, "admin", "gratis"))

	if got := fake.lastText(t); !strings.Contains(got, "precio válido") {
		t.Fatalf("expected validation message, got %q", got)
	}
	if state := b.states.get(testAdminID); state.Phase != phaseAwaitingRateCost {
		t.Fatalf("bad input must keep the cost phase, got %+v", state)
	}
}

func TestRateCostEditFlow(t *testing.T) {
	b, fake, _ := setupBot(t)
	ctx := context.Background()

	rate, errCreate := b.ledger.CreateRate(ctx, "1 Mes", 30, 20)
	if errCreate != nil {
		t.Fatalf("create rate: %v", errCreate)
	}

	b.handleCallback(ctx, adminCallback(fmt.Sprintf("%s%d", cbChangeRateCostPrefix, rate.ID)))
	if state := b.states.get(testAdminID); state.Phase != phaseAwaitingRateCostEdit || state.RateID != rate.ID {
		t.Fatalf("edit phase not armed: %+v", state)
	}

	b.handleMessage(ctx, userMessage(testAdminID, "admin", "15.00"))
	if got := fake.lastText(t); !strings.Contains(got, "Costo Actualizado") {
		t.Fatalf("unexpected reply: %q", got)
	}

	updated, errGet := b.ledger.GetRate(ctx, rate.ID)
	if errGet != nil {
		t.Fatalf("get rate: %v", errGet)
	}
	if updated.Cost != 15.00 {
		t.Fatalf("cost not updated: %v", updated.Cost)
	}
}

func TestChannelRegistrationFromForward(t *testing.T) {
	b, fake, _ := setupBot(t)
	ctx := context.Background()

	b.handleCallback(ctx, adminCallback(cbAddVipChannel))
	if state := b.states.get(testAdminID); state.Phase != phaseAwaitingChannel || state.ChannelType != models.ChannelVip {
		t.Fatalf("channel phase not armed: %+v", state)
	}

	msg := userMessage(testAdminID, "admin", "")
	msg.ForwardFromChat = &tgbotapi.Chat{ID: -100555, Title: "Canal Premium"}
	b.handleMessage(ctx, msg)

	if got := fake.lastText(t); !strings.Contains(got, "Canal VIP Configurado") {
		t.Fatalf("unexpected confirmation: %q", got)
	}
	if state := b.states.get(testAdminID); state.Phase != phaseIdle {
		t.Fatalf("state not reset: %+v", state)
	}

	channel, errLookup := b.ledger.LookupChannel(ctx, models.ChannelVip)
	if errLookup != nil {
		t.Fatalf("channel not registered: %v", errLookup)
	}
	if channel.ChannelID != -100555 || channel.ChannelName != "Canal Premium" {
		t.Fatalf("unexpected channel: %+v", channel)
	}
}

func TestForwardFromUserRejected(t *testing.T) {
	b, fake, _ := setupBot(t)
	ctx := context.Background()

	b.handleCallback(ctx, adminCallback(cbAddFreeChannel))

	msg := userMessage(testAdminID, "admin", "")
	msg.ForwardFrom = &tgbotapi.User{ID: 123}
	b.handleMessage(ctx, msg)

	if got := fake.lastText(t); !strings.Contains(got, "No se pudo detectar el canal") {
		t.Fatalf("expected detection error, got %q", got)
	}
}

func TestSetDelayCallback(t *testing.T) {
	b, fake, _ := setupBot(t)
	ctx := context.Background()

	b.handleCallback(ctx, adminCallback(cbSetDelayPrefix+"300"))
	if got := fake.lastText(t); !strings.Contains(got, "300 segundos") {
		t.Fatalf("unexpected confirmation: %q", got)
	}
	if got := b.queue.Delay(ctx); got != 300 {
		t.Fatalf("delay not stored, got %d", got)
	}
}

func TestGenerateTokenForRate(t *testing.T) {
	b, fake, conn := setupBot(t)
	ctx := context.Background()

	rate, errCreate := b.ledger.CreateRate(ctx, "2 Semanas", 14, 15)
	if errCreate != nil {
		t.Fatalf("create rate: %v", errCreate)
	}

	b.handleCallback(ctx, adminCallback(fmt.Sprintf("%s%d", cbGenerateTokenRatePrefix, rate.ID)))
	got := fake.lastText(t)
	if !strings.Contains(got, "Token VIP Generado") || !strings.Contains(got, "https://t.me/canalvip_test_bot?start=") {
		t.Fatalf("unexpected token screen: %q", got)
	}

	var tokens []models.VipToken
	if errFind := conn.Find(&tokens).Error; errFind != nil {
		t.Fatalf("find tokens: %v", errFind)
	}
	if len(tokens) != 1 || tokens[0].DurationDays != 14 || tokens[0].Used {
		t.Fatalf("unexpected token row: %+v", tokens)
	}
}

func TestGenerateTokenInactiveRateRejected(t *testing.T) {
	b, fake, _ := setupBot(t)
	ctx := context.Background()

	rate, errCreate := b.ledger.CreateRate(ctx, "1 Mes", 30, 20)
	if errCreate != nil {
		t.Fatalf("create rate: %v", errCreate)
	}
	if errSet := b.ledger.SetRateActive(ctx, rate.ID, false); errSet != nil {
		t.Fatalf("deactivate: %v", errSet)
	}

	b.handleCallback(ctx, adminCallback(fmt.Sprintf("%s%d", cbGenerateTokenRatePrefix, rate.ID)))
	if got := fake.lastText(t); !strings.Contains(got, "no está activa") {
		t.Fatalf("expected inactive-rate error, got %q", got)
	}
}
