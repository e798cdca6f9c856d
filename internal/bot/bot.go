// Package bot runs the Telegram front end: token redemption via /start, the
// free-channel request button, and the inline-keyboard admin panel.
package bot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/canalvip/vipbot/internal/freequeue"
	"github.com/canalvip/vipbot/internal/ledger"
)

// sender is the slice of the Telegram client the handlers need.
// *tgbotapi.BotAPI satisfies it.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot wires Telegram updates to the ledger and the free-access queue. All
// admin mutations flow through the inline menu; regular users only see the
// redemption flow and the free-channel request button.
type Bot struct {
	api      *tgbotapi.BotAPI
	client   sender
	ledger   *ledger.Ledger
	queue    *freequeue.Queue
	adminID  int64
	username string
	states   *stateStore
}

// New constructs a Bot. adminID is the only Telegram user allowed into the
// admin panel.
func New(api *tgbotapi.BotAPI, lg *ledger.Ledger, queue *freequeue.Queue, adminID int64) *Bot {
	b := &Bot{
		api:     api,
		client:  api,
		ledger:  lg,
		queue:   queue,
		adminID: adminID,
		states:  newStateStore(),
	}
	if api != nil {
		b.username = api.Self.UserName
	}
	return b
}

// Run long-polls for updates until the context is cancelled. It blocks the
// calling goroutine.
func (b *Bot) Run(ctx context.Context) error {
	if b == nil || b.api == nil {
		return errors.New("bot: not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := b.api.GetUpdatesChan(cfg)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	log.Infof("bot started (username=%s)", b.username)
	for update := range updates {
		if ctx.Err() != nil {
			break
		}
		b.handleUpdate(ctx, update)
	}
	return ctx.Err()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	switch {
	case msg.IsCommand() && msg.Command() == "start":
		b.handleStart(ctx, msg)
	case msg.ForwardFromChat != nil || msg.ForwardFrom != nil:
		b.handleForwarded(ctx, msg)
	case msg.Text != "":
		b.handleTextInput(ctx, msg)
	}
}

// handleStart serves /start. With a token argument it runs the redemption
// flow; bare /start opens the admin panel for the admin and the welcome
// screen for everyone else.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	token := strings.TrimSpace(msg.CommandArguments())
	if token != "" {
		b.redeem(ctx, msg, token)
		return
	}

	if msg.From.ID == b.adminID {
		title, markup := menuAdminPanel()
		b.replyWithMarkup(msg.Chat.ID, title, markup)
		return
	}

	b.replyWithMarkup(msg.Chat.ID,
		"¡Bienvenido! 👋\n\nPulsa el botón para solicitar acceso al canal gratuito.",
		welcomeKeyboard(),
	)
}

func (b *Bot) redeem(ctx context.Context, msg *tgbotapi.Message, token string) {
	username := msg.From.UserName
	if username == "" {
		username = fmt.Sprintf("ID: %d", msg.From.ID)
	}

	user, errRedeem := b.ledger.RedeemToken(ctx, token, msg.From.ID, username)
	if errors.Is(errRedeem, ledger.ErrInvalidToken) {
		b.reply(msg.Chat.ID, "Token inválido o ya utilizado.")
		return
	}
	if errRedeem != nil {
		log.WithError(errRedeem).Error("bot: token redemption failed")
		b.reply(msg.Chat.ID, "Ocurrió un error procesando tu token. Inténtalo de nuevo más tarde.")
		return
	}

	days := int(math.Round(user.SubscriptionEnd.Sub(user.JoinedAt).Hours() / 24))
	b.reply(msg.Chat.ID, fmt.Sprintf(
		"¡Felicidades! Has sido registrado como usuario VIP.\n"+
			"Tu suscripción es válida por %d días.\n\n"+
			"Recibirás un recordatorio un día antes de que expire tu suscripción.",
		days,
	))
	log.Infof("bot: token redeemed (user=%d days=%d)", user.UserID, days)
}

// handleForwarded registers a channel from a forwarded message when the
// admin is in the awaiting-channel phase. Forwards from anyone else, or
// outside that phase, are ignored.
func (b *Bot) handleForwarded(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From.ID != b.adminID {
		return
	}
	state := b.states.get(msg.From.ID)
	if state.Phase != phaseAwaitingChannel {
		return
	}

	if msg.ForwardFromChat == nil {
		text, markup := buildSimpleMessage(
			"❌ Error",
			"No se pudo detectar el canal. Asegúrate de reenviar un mensaje del canal, no de un usuario.",
			cbManageChannels,
		)
		b.replyWithMarkup(msg.Chat.ID, text, markup)
		return
	}

	channel := msg.ForwardFromChat
	registered, errUpsert := b.ledger.UpsertChannel(ctx, channel.ID, channel.Title, state.ChannelType)
	if errUpsert != nil {
		log.WithError(errUpsert).Error("bot: channel registration failed")
		b.reply(msg.Chat.ID, "No se pudo registrar el canal. Inténtalo de nuevo.")
		return
	}
	b.states.reset(msg.From.ID)

	text, markup := buildSimpleMessage(
		fmt.Sprintf("✅ Canal %s Configurado", strings.ToUpper(registered.ChannelType)),
		fmt.Sprintf("<b>Nombre:</b> %s\n<b>ID:</b> <code>%d</code>\n<b>Tipo:</b> %s\n\nEl canal ha sido registrado en el sistema.",
			registered.ChannelName, registered.ChannelID, registered.ChannelType),
		cbManageChannels,
	)
	b.replyWithMarkup(msg.Chat.ID, text, markup)
	log.Infof("bot: channel registered (id=%d type=%s)", registered.ChannelID, registered.ChannelType)
}

// handleTextInput feeds free text into the admin conversation state machine.
func (b *Bot) handleTextInput(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From.ID != b.adminID {
		return
	}
	input := strings.TrimSpace(msg.Text)
	if input == "" {
		return
	}

	state := b.states.get(msg.From.ID)
	switch state.Phase {
	case phaseAwaitingRateCost:
		b.handleRateCostInput(msg, state, input)
	case phaseAwaitingRateName:
		b.handleRateNameInput(ctx, msg, state, input)
	case phaseAwaitingRateNameEdit:
		b.handleRateNameEdit(ctx, msg, state, input)
	case phaseAwaitingRateCostEdit:
		b.handleRateCostEdit(ctx, msg, state, input)
	case phaseIdle, phaseAwaitingChannel:
		// Free text means nothing here.
	}
}

func (b *Bot) handleRateCostInput(msg *tgbotapi.Message, state inputState, input string) {
	cost, errParse := parseCost(input)
	if errParse != nil {
		text, markup := buildSimpleMessage("❌ Error", "Por favor ingresa un precio válido (ejemplo: 10.50)", cbSelectRateDuration)
		b.replyWithMarkup(msg.Chat.ID, text, markup)
		return
	}

	state.DraftCost = cost
	state.DraftName = autoRateName(state.DraftDays)
	state.Phase = phaseAwaitingRateName
	b.states.set(msg.From.ID, state)

	text, markup := buildSimpleMessage(
		"💰 Crear Tarifa - Paso 3",
		fmt.Sprintf("<b>Resumen de la tarifa:</b>\n• Nombre: %s\n• Duración: %d días\n• Costo: $%.2f\n\n"+
			"¿Deseas cambiar el nombre de la tarifa?\n"+
			"<i>Envía un mensaje con el nuevo nombre o escribe 'no' para usar el nombre automático</i>",
			state.DraftName, state.DraftDays, cost),
		cbSelectRateDuration,
	)
	b.replyWithMarkup(msg.Chat.ID, text, markup)
}

func (b *Bot) handleRateNameInput(ctx context.Context, msg *tgbotapi.Message, state inputState, input string) {
	name := state.DraftName
	if !strings.EqualFold(input, "no") {
		name = input
	}

	rate, errCreate := b.ledger.CreateRate(ctx, name, state.DraftDays, state.DraftCost)
	if errCreate != nil {
		log.WithError(errCreate).Error("bot: rate creation failed")
		b.reply(msg.Chat.ID, "No se pudo crear la tarifa. Inténtalo de nuevo.")
		return
	}
	b.states.reset(msg.From.ID)

	text, markup := buildSimpleMessage(
		"✅ Tarifa Creada",
		fmt.Sprintf("<b>Tarifa VIP creada exitosamente:</b>\n• Nombre: %s\n• Duración: %d días\n• Costo: $%.2f\n\n"+
			"La tarifa está ahora disponible en el sistema.",
			rate.Name, rate.Days, rate.Cost),
		cbManageRates,
	)
	b.replyWithMarkup(msg.Chat.ID, text, markup)
}

func (b *Bot) handleRateNameEdit(ctx context.Context, msg *tgbotapi.Message, state inputState, input string) {
	if _, errUpdate := b.ledger.UpdateRate(ctx, state.RateID, ledger.RateUpdate{Name: &input}); errUpdate != nil {
		b.replyRateUpdateError(msg.Chat.ID, state.RateID, errUpdate)
		return
	}
	b.states.reset(msg.From.ID)

	text, markup := buildSimpleMessage(
		"✅ Nombre Actualizado",
		fmt.Sprintf("El nombre de la tarifa ha sido cambiado a: <b>%s</b>", input),
		fmt.Sprintf("%s%d", cbEditRatePrefix, state.RateID),
	)
	b.replyWithMarkup(msg.Chat.ID, text, markup)
}

func (b *Bot) handleRateCostEdit(ctx context.Context, msg *tgbotapi.Message, state inputState, input string) {
	cost, errParse := parseCost(input)
	if errParse != nil {
		text, markup := buildSimpleMessage(
			"❌ Error",
			"Por favor ingresa un precio válido (ejemplo: 10.50)",
			fmt.Sprintf("%s%d", cbEditRatePrefix, state.RateID),
		)
		b.replyWithMarkup(msg.Chat.ID, text, markup)
		return
	}

	if _, errUpdate := b.ledger.UpdateRate(ctx, state.RateID, ledger.RateUpdate{Cost: &cost}); errUpdate != nil {
		b.replyRateUpdateError(msg.Chat.ID, state.RateID, errUpdate)
		return
	}
	b.states.reset(msg.From.ID)

	text, markup := buildSimpleMessage(
		"✅ Costo Actualizado",
		fmt.Sprintf("El costo de la tarifa ha sido cambiado a: <b>$%.2f</b>", cost),
		fmt.Sprintf("%s%d", cbEditRatePrefix, state.RateID),
	)
	b.replyWithMarkup(msg.Chat.ID, text, markup)
}

func (b *Bot) replyRateUpdateError(chatID int64, rateID uint64, errUpdate error) {
	if errors.Is(errUpdate, ledger.ErrNotFound) {
		text, markup := buildSimpleMessage("❌ Error", "La tarifa no existe.", cbViewRates)
		b.replyWithMarkup(chatID, text, markup)
		return
	}
	log.WithError(errUpdate).Errorf("bot: rate update failed (rate=%d)", rateID)
	b.reply(chatID, "No se pudo actualizar la tarifa. Inténtalo de nuevo.")
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, errSend := b.client.Send(msg); errSend != nil {
		log.WithError(errSend).Warn("bot: send message failed")
	}
}

func (b *Bot) replyWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if len(markup.InlineKeyboard) > 0 {
		msg.ReplyMarkup = markup
	}
	if _, errSend := b.client.Send(msg); errSend != nil {
		log.WithError(errSend).Warn("bot: send message failed")
	}
}

// edit rewrites the message the callback came from; the admin panel lives on
// a single message.
func (b *Bot) edit(cq *tgbotapi.CallbackQuery, text string, markup tgbotapi.InlineKeyboardMarkup) {
	if cq.Message == nil {
		return
	}
	var c tgbotapi.Chattable
	if len(markup.InlineKeyboard) > 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(cq.Message.Chat.ID, cq.Message.MessageID, text, markup)
		edit.ParseMode = tgbotapi.ModeHTML
		c = edit
	} else {
		edit := tgbotapi.NewEditMessageText(cq.Message.Chat.ID, cq.Message.MessageID, text)
		edit.ParseMode = tgbotapi.ModeHTML
		c = edit
	}
	if _, errSend := b.client.Send(c); errSend != nil {
		log.WithError(errSend).Warn("bot: edit message failed")
	}
}

func (b *Bot) ack(cq *tgbotapi.CallbackQuery) {
	if _, errAck := b.client.Request(tgbotapi.NewCallback(cq.ID, "")); errAck != nil {
		log.WithError(errAck).Debug("bot: callback ack failed")
	}
}

// parseCost parses a user-entered price. It must be a positive number.
func parseCost(input string) (float64, error) {
	cost, errParse := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if errParse != nil {
		return 0, errParse
	}
	if cost <= 0 {
		return 0, errors.New("bot: cost must be positive")
	}
	return cost, nil
}

// autoRateName suggests a display name for the common duration presets.
func autoRateName(days int) string {
	switch days {
	case 1:
		return "1 Día"
	case 7:
		return "1 Semana"
	case 14:
		return "2 Semanas"
	case 30:
		return "1 Mes"
	default:
		return fmt.Sprintf("%d Días", days)
	}
}
