package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/canalvip/vipbot/internal/ledger"
	"github.com/canalvip/vipbot/internal/models"
)

// Callback data values of the inline menus. Prefixed entries carry an id or
// value suffix.
const (
	cbAdminPanel         = "admin_panel"
	cbSystemConfig       = "system_config"
	cbAdvancedConfig     = "advanced_config"
	cbConfigDelay        = "config_delay"
	cbManageChannels     = "manage_channels"
	cbAddFreeChannel     = "add_free_channel"
	cbAddVipChannel      = "add_vip_channel"
	cbViewChannels       = "view_channels"
	cbToggleChannels     = "toggle_channels"
	cbVipManagement      = "vip_management"
	cbManageRates        = "manage_rates"
	cbSelectRateDuration = "select_rate_duration"
	cbViewRates          = "view_rates"
	cbGenerateVipToken   = "generate_vip_token"
	cbViewVipUsers       = "view_vip_users"
	cbStatistics         = "statistics"
	cbGeneralStats       = "general_stats"
	cbActivityReports    = "activity_reports"
	cbRequestFreeAccess  = "request_free_access"

	cbSetDelayPrefix             = "set_delay_"
	cbRateDurationPrefix         = "rate_duration_"
	cbEditRatePrefix             = "edit_rate_"
	cbChangeRateNamePrefix       = "change_rate_name_"
	cbChangeRateDurationPrefix   = "change_rate_duration_"
	cbChangeRateCostPrefix       = "change_rate_cost_"
	cbSetRateDurationPrefix      = "set_rate_duration_"
	cbToggleRateStatusPrefix     = "toggle_rate_status_"
	cbDeleteRatePrefix           = "delete_rate_"
	cbConfirmDeleteRatePrefix    = "confirm_delete_rate_"
	cbGenerateTokenRatePrefix    = "generate_token_rate_"
	cbToggleChannelPrefix        = "toggle_channel_"
	cbDeleteChannelPrefix        = "delete_channel_"
	cbConfirmDeleteChannelPrefix = "confirm_delete_channel_"
)

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.From == nil || cq.Data == "" {
		return
	}
	b.ack(cq)

	if cq.Data == cbRequestFreeAccess {
		b.handleFreeRequest(ctx, cq)
		return
	}
	if cq.From.ID != b.adminID {
		b.edit(cq, "No tienes permisos de administrador.", tgbotapi.InlineKeyboardMarkup{})
		return
	}

	switch cq.Data {
	case cbAdminPanel:
		title, markup := menuAdminPanel()
		b.edit(cq, title, markup)
	case cbSystemConfig:
		title, markup := menuSystemConfig()
		b.edit(cq, title, markup)
	case cbAdvancedConfig:
		b.showAdvancedConfig(ctx, cq)
	case cbConfigDelay:
		title, markup := menuConfigDelay(b.queue.Delay(ctx))
		b.edit(cq, title, markup)
	case cbManageChannels:
		b.showManageChannels(ctx, cq)
	case cbAddFreeChannel:
		b.promptChannel(cq, models.ChannelFree)
	case cbAddVipChannel:
		b.promptChannel(cq, models.ChannelVip)
	case cbViewChannels:
		b.showChannels(ctx, cq)
	case cbToggleChannels:
		b.showToggleChannels(ctx, cq)
	case cbVipManagement:
		title, markup := menuVipManagement()
		b.edit(cq, title, markup)
	case cbManageRates:
		title, markup := menuManageRates()
		b.edit(cq, title, markup)
	case cbSelectRateDuration:
		title, markup := menuSelectRateDuration()
		b.edit(cq, title, markup)
	case cbViewRates:
		b.showRates(ctx, cq)
	case cbGenerateVipToken:
		b.showGenerateToken(ctx, cq)
	case cbViewVipUsers:
		b.showVipUsers(ctx, cq)
	case cbStatistics:
		title, markup := menuStatistics()
		b.edit(cq, title, markup)
	case cbGeneralStats:
		b.showGeneralStats(ctx, cq)
	case cbActivityReports:
		b.showActivityReports(ctx, cq)
	default:
		b.handlePrefixedCallback(ctx, cq)
	}
}

func (b *Bot) handlePrefixedCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	data := cq.Data
	switch {
	case strings.HasPrefix(data, cbSetDelayPrefix):
		b.setDelay(ctx, cq, strings.TrimPrefix(data, cbSetDelayPrefix))
	case strings.HasPrefix(data, cbRateDurationPrefix):
		b.startRateWizard(cq, strings.TrimPrefix(data, cbRateDurationPrefix))
	case strings.HasPrefix(data, cbSetRateDurationPrefix):
		b.setRateDuration(ctx, cq, strings.TrimPrefix(data, cbSetRateDurationPrefix))
	case strings.HasPrefix(data, cbChangeRateNamePrefix):
		b.promptRateEdit(cq, strings.TrimPrefix(data, cbChangeRateNamePrefix), phaseAwaitingRateNameEdit)
	case strings.HasPrefix(data, cbChangeRateDurationPrefix):
		b.showRateDurationEdit(cq, strings.TrimPrefix(data, cbChangeRateDurationPrefix))
	case strings.HasPrefix(data, cbChangeRateCostPrefix):
		b.promptRateEdit(cq, strings.TrimPrefix(data, cbChangeRateCostPrefix), phaseAwaitingRateCostEdit)
	case strings.HasPrefix(data, cbToggleRateStatusPrefix):
		b.toggleRateStatus(ctx, cq, strings.TrimPrefix(data, cbToggleRateStatusPrefix))
	case strings.HasPrefix(data, cbConfirmDeleteRatePrefix):
		b.confirmDeleteRate(ctx, cq, strings.TrimPrefix(data, cbConfirmDeleteRatePrefix))
	case strings.HasPrefix(data, cbDeleteRatePrefix):
		b.promptDeleteRate(ctx, cq, strings.TrimPrefix(data, cbDeleteRatePrefix))
	case strings.HasPrefix(data, cbEditRatePrefix):
		b.showEditRate(ctx, cq, strings.TrimPrefix(data, cbEditRatePrefix))
	case strings.HasPrefix(data, cbGenerateTokenRatePrefix):
		b.generateTokenForRate(ctx, cq, strings.TrimPrefix(data, cbGenerateTokenRatePrefix))
	case strings.HasPrefix(data, cbToggleChannelPrefix):
		b.toggleChannel(ctx, cq, strings.TrimPrefix(data, cbToggleChannelPrefix))
	case strings.HasPrefix(data, cbConfirmDeleteChannelPrefix):
		b.confirmDeleteChannel(ctx, cq, strings.TrimPrefix(data, cbConfirmDeleteChannelPrefix))
	case strings.HasPrefix(data, cbDeleteChannelPrefix):
		b.promptDeleteChannel(ctx, cq, strings.TrimPrefix(data, cbDeleteChannelPrefix))
	default:
		log.Debugf("bot: unknown callback %q", data)
	}
}

// handleFreeRequest queues a free-channel join request for any user. Access
// is granted later by the approval sweep.
func (b *Bot) handleFreeRequest(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	username := cq.From.UserName
	if username == "" {
		username = fmt.Sprintf("ID: %d", cq.From.ID)
	}

	if _, errEnqueue := b.queue.Enqueue(ctx, cq.From.ID, username); errEnqueue != nil {
		log.WithError(errEnqueue).Error("bot: free request enqueue failed")
		b.edit(cq, "No se pudo registrar tu solicitud. Inténtalo de nuevo.", tgbotapi.InlineKeyboardMarkup{})
		return
	}
	b.edit(cq,
		"✅ Tu solicitud ha sido registrada.\n\nRecibirás el acceso al canal gratuito en unos momentos.",
		tgbotapi.InlineKeyboardMarkup{},
	)
}

func (b *Bot) setDelay(ctx context.Context, cq *tgbotapi.CallbackQuery, raw string) {
	seconds, errParse := strconv.Atoi(raw)
	if errParse != nil {
		return
	}
	if errSet := b.queue.SetDelay(ctx, seconds); errSet != nil {
		log.WithError(errSet).Error("bot: set delay failed")
		b.edit(cq, "No se pudo guardar la configuración.", tgbotapi.InlineKeyboardMarkup{})
		return
	}
	text, markup := buildSimpleMessage(
		"✅ Configuración Actualizada",
		fmt.Sprintf("El delay del canal gratuito ha sido configurado a %d segundos.", seconds),
		cbSystemConfig,
	)
	b.edit(cq, text, markup)
}

func (b *Bot) showAdvancedConfig(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	text, markup := buildSimpleMessage(
		"🔧 Configuración Avanzada",
		fmt.Sprintf("Delay del canal gratuito: %d segundos\n\nNo hay más opciones avanzadas disponibles.", b.queue.Delay(ctx)),
		cbSystemConfig,
	)
	b.edit(cq, text, markup)
}

func (b *Bot) showManageChannels(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	channels, errList := b.ledger.ListChannels(ctx)
	if errList != nil {
		log.WithError(errList).Error("bot: list channels failed")
	}
	title, markup := menuManageChannels(channels)
	b.edit(cq, title, markup)
}

// promptChannel asks the admin to forward a message from the target channel
// and arms the awaiting-channel phase.
func (b *Bot) promptChannel(cq *tgbotapi.CallbackQuery, channelType string) {
	label := "Gratuito"
	if channelType == models.ChannelVip {
		label = "VIP"
	}
	text, markup := buildSimpleMessage(
		fmt.Sprintf("➕ Agregar Canal %s", label),
		fmt.Sprintf("Para configurar el canal %s:\n"+
			"1. Agrega el bot como administrador al canal\n"+
			"2. Reenvía un mensaje del canal al bot\n"+
			"3. El bot detectará automáticamente el ID del canal\n\n"+
			"<i>Reenvía ahora un mensaje del canal %s...</i>",
			strings.ToLower(label), strings.ToLower(label)),
		cbManageChannels,
	)
	b.edit(cq, text, markup)
	b.states.set(cq.From.ID, inputState{Phase: phaseAwaitingChannel, ChannelType: channelType})
}

func (b *Bot) showChannels(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	channels, errList := b.ledger.ListChannels(ctx)
	if errList != nil {
		log.WithError(errList).Error("bot: list channels failed")
		return
	}
	if len(channels) == 0 {
		text, markup := buildSimpleMessage("📋 Canales Configurados", "No hay canales configurados.", cbManageChannels)
		b.edit(cq, text, markup)
		return
	}

	var sb strings.Builder
	for _, channel := range channels {
		sb.WriteString(fmt.Sprintf("<b>%s</b>\nID: <code>%d</code>\nTipo: %s\nEstado: %s\n\n",
			channel.ChannelName, channel.ChannelID, strings.ToUpper(channel.ChannelType), channelStatus(channel.IsActive)))
	}
	text, markup := buildSimpleMessage("📋 Canales Configurados", sb.String(), cbManageChannels)
	b.edit(cq, text, markup)
}

func (b *Bot) showToggleChannels(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	channels, errList := b.ledger.ListChannels(ctx)
	if errList != nil {
		log.WithError(errList).Error("bot: list channels failed")
		return
	}
	title, markup := menuToggleChannels(channels)
	b.edit(cq, title, markup)
}

func (b *Bot) toggleChannel(ctx context.Context, cq *tgbotapi.CallbackQuery, raw string) {
	channelID, errParse := strconv.ParseInt(raw, 10, 64)
	if errParse != nil {
		return
	}

	channels, errList := b.ledger.ListChannels(ctx)
	if errList != nil {
		log.WithError(errList).Error("bot: list channels failed")
		return
	}
	var target *models.Channel
	for i := range channels {
		if channels[i].ChannelID == channelID {
			target = &channels[i]
			break
		}
	}
	if target == nil {
		text, markup := buildSimpleMessage("❌ Error", "El canal no existe.", cbToggleChannels)
		b.edit(cq, text, markup)
		return
	}

	if errSet := b.ledger.SetChannelActive(ctx, channelID, !target.IsActive); errSet != nil {
		log.WithError(errSet).Error("bot: toggle channel failed")
		b.edit(cq, "No se pudo cambiar el estado del canal.", tgbotapi.InlineKeyboardMarkup{})
		return
	}

	action := "activado"
	if target.IsActive {
		action = "desactivado"
	}
	text, markup := buildSimpleMessage(
		"✅ Estado Actualizado",
		fmt.Sprintf("El canal <b>%s</b> ha sido %s.", target.ChannelName, action),
		cbToggleChannels,
	)
	b.edit(cq, text, markup)
}

func (b *Bot) promptDeleteChannel(ctx context.Context, cq *tgbotapi.CallbackQuery, raw string) {
	channelID, errParse := strconv.ParseInt(raw, 10, 64)
	if errParse != nil {
		return
	}
	text, markup := buildConfirmation(
		"🗑️ Eliminar Canal",
		fmt.Sprintf("¿Estás seguro de que deseas eliminar el canal <code>%d</code>?\n\n<b>Esta acción no se puede deshacer.</b>", channelID),
		fmt.Sprintf("%s%d", cbConfirmDeleteChannelPrefix, channelID),
		cbToggleChannels,
	)
	b.edit(cq, text, markup)
}

func (b *Bot) confirmDeleteChannel(ctx context.Context, cq *tgbotapi.CallbackQuery, raw string) {
	channelID, errParse := strconv.ParseInt(raw, 10, 64)
	if errParse != nil {
		return
	}
	if errDelete := b.ledger.DeleteChannel(ctx, channelID); errDelete != nil {
		log.WithError(errDelete).Error("bot: delete channel failed")
		b.edit(cq, "No se pudo eliminar el canal.", tgbotapi.InlineKeyboardMarkup{})
		return
	}
	text, markup := buildSimpleMessage(
		"✅ Canal Eliminado",
		fmt.Sprintf("El canal <code>%d</code> ha sido eliminado del sistema.", channelID),
		cbManageChannels,
	)
	b.edit(cq, text, markup)
}

// startRateWizard arms step 2 of the rate creation wizard with the chosen
// duration preset.
func (b *Bot) startRateWizard(cq *tgbotapi.CallbackQuery, raw string) {
	days, errParse := strconv.Atoi(raw)
	if errParse != nil || days <= 0 {
		return
	}
	b.states.set(cq.From.ID, inputState{Phase: phaseAwaitingRateCost, DraftDays: days})

	text, markup := buildSimpleMessage(
		"💰 Crear Tarifa - Paso 2",
		fmt.Sprintf("Duración seleccionada: %d días\n\nAhora ingresa el costo de la tarifa:\n<i>Envía un mensaje con el precio (ejemplo: 10.50)</i>", days),
		cbSelectRateDuration,
	)
	b.edit(cq, text, markup)
}

func (b *Bot) showRates(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	rates, errList := b.ledger.ListRates(ctx)
	if errList != nil {
		log.WithError(errList).Error("bot: list rates failed")
		return
	}
	title, markup := menuViewRates(rates)
	b.edit(cq, title, markup)
}

func (b *Bot) showEditRate(ctx context.Context, cq *tgbotapi.CallbackQuery, raw string) {
	rate, ok := b.lookupRate(ctx, cq, raw)
	if !ok {
		return
	}
	title, markup := menuEditRate(rate)
	b.edit(cq, title, markup)
}

// promptRateEdit arms a free-text edit phase for the given rate.
func (b *Bot) promptRateEdit(cq *tgbotapi.CallbackQuery, raw string, editPhase phase) {
	rateID, errParse := strconv.ParseUint(raw, 10, 64)
	if errParse != nil {
		return
	}
	b.states.set(cq.From.ID, inputState{Phase: editPhase, RateID: rateID})

	title, prompt := "✏️ Cambiar Nombre", "Envía el nuevo nombre para la tarifa:"
	if editPhase == phaseAwaitingRateCostEdit {
		title, prompt = "💰 Cambiar Costo", "Envía el nuevo costo para la tarifa (ejemplo: 10.50):"
	}
	text, markup := buildSimpleMessage(title, prompt, fmt.Sprintf("%s%d", cbEditRatePrefix, rateID))
	b.edit(cq, text, markup)
}

func (b *Bot) showRateDurationEdit(cq *tgbotapi.CallbackQuery, raw string) {
	rateID, errParse := strconv.ParseUint(raw, 10, 64)
	if errParse != nil {
		return
	}
	title, markup := menuEditRateDuration(rateID)
	b.edit(cq, title, markup)
}

// setRateDuration parses "<rateID>_<days>" and applies the new duration.
func (b *Bot) setRateDuration(ctx context.Context, cq *tgbotapi.CallbackQuery, raw string) {
	idPart, daysPart, found := strings.Cut(raw, "_")
	if !found {
		return
	}
	rateID, errID := strconv.ParseUint(idPart, 10, 64)
	days, errDays := strconv.Atoi(daysPart)
	if errID != nil || errDays != nil {
		return
	}

	if _, errUpdate := b.ledger.UpdateRate(ctx, rateID, ledger.RateUpdate{Days: &days}); errUpdate != nil {
		if errors.Is(errUpdate, ledger.ErrNotFound) {
			text, markup := buildSimpleMessage("❌ Error", "La tarifa no existe.", cbViewRates)
			b.edit(cq, text, markup)
			return
		}
		log.WithError(errUpdate).Error("bot: rate duration update failed")
		b.edit(cq, "No se pudo actualizar la tarifa.", tgbotapi.InlineKeyboardMarkup{})
		return
	}

	text, markup := buildSimpleMessage(
		"✅ Duración Actualizada",
		fmt.Sprintf("La duración de la tarifa ha sido cambiada a <b>%d días</b>.", days),
		fmt.Sprintf("%s%d", cbEditRatePrefix, rateID),
	)
	b.edit(cq, text, markup)
}

func (b *Bot) toggleRateStatus(ctx context.Context, cq *tgbotapi.CallbackQuery, raw string) {
	rate, ok := b.lookupRate(ctx, cq, raw)
	if !ok {
		return
	}

	if errSet := b.ledger.SetRateActive(ctx, rate.ID, !rate.IsActive); errSet != nil {
		log.WithError(errSet).Error("bot: toggle rate failed")
		b.edit(cq, "No se pudo cambiar el estado de la tarifa.", tgbotapi.InlineKeyboardMarkup{})
		return
	}

	action := "activada"
	if rate.IsActive {
		action = "desactivada"
	}
	text, markup := buildSimpleMessage(
		"✅ Estado Actualizado",
		fmt.Sprintf("La tarifa <b>%s</b> ha sido %s.", rate.Name, action),
		cbViewRates,
	)
	b.edit(cq, text, markup)
}

func (b *Bot) promptDeleteRate(ctx context.Context, cq *tgbotapi.CallbackQuery, raw string) {
	rate, ok := b.lookupRate(ctx, cq, raw)
	if !ok {
		return
	}
	text, markup := buildConfirmation(
		"🗑️ Eliminar Tarifa",
		fmt.Sprintf("¿Estás seguro de que deseas eliminar la tarifa <b>%s</b>?\n• Duración: %d días\n• Costo: $%.2f\n\n<b>Esta acción no se puede deshacer.</b>",
			rate.Name, rate.Days, rate.Cost),
		fmt.Sprintf("%s%d", cbConfirmDeleteRatePrefix, rate.ID),
		fmt.Sprintf("%s%d", cbEditRatePrefix, rate.ID),
	)
	b.edit(cq, text, markup)
}

func (b *Bot) confirmDeleteRate(ctx context.Context, cq *tgbotapi.CallbackQuery, raw string) {
	rate, ok := b.lookupRate(ctx, cq, raw)
	if !ok {
		return
	}
	if errDelete := b.ledger.DeleteRate(ctx, rate.ID); errDelete != nil {
		log.WithError(errDelete).Error("bot: delete rate failed")
		b.edit(cq, "No se pudo eliminar la tarifa.", tgbotapi.InlineKeyboardMarkup{})
		return
	}
	text, markup := buildSimpleMessage(
		"✅ Tarifa Eliminada",
		fmt.Sprintf("La tarifa <b>%s</b> ha sido eliminada del sistema.", rate.Name),
		cbViewRates,
	)
	b.edit(cq, text, markup)
}

func (b *Bot) showGenerateToken(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	rates, errList := b.ledger.ListRates(ctx)
	if errList != nil {
		log.WithError(errList).Error("bot: list rates failed")
		return
	}
	title, markup := menuGenerateToken(rates)
	b.edit(cq, title, markup)
}

func (b *Bot) generateTokenForRate(ctx context.Context, cq *tgbotapi.CallbackQuery, raw string) {
	rateID, errParse := strconv.ParseUint(raw, 10, 64)
	if errParse != nil {
		return
	}
	rate, errGet := b.ledger.GetRate(ctx, rateID)
	if errors.Is(errGet, ledger.ErrNotFound) {
		text, markup := buildSimpleMessage("❌ Error", "La tarifa seleccionada no existe.", cbGenerateVipToken)
		b.edit(cq, text, markup)
		return
	}
	if errGet != nil {
		log.WithError(errGet).Error("bot: get rate failed")
		return
	}
	if !rate.IsActive {
		text, markup := buildSimpleMessage("❌ Error", "La tarifa seleccionada no está activa.", cbGenerateVipToken)
		b.edit(cq, text, markup)
		return
	}

	token, errIssue := b.ledger.IssueToken(ctx, rate.Days)
	if errIssue != nil {
		log.WithError(errIssue).Error("bot: issue token failed")
		b.edit(cq, "No se pudo generar el token. Inténtalo de nuevo.", tgbotapi.InlineKeyboardMarkup{})
		return
	}

	inviteLink := fmt.Sprintf("Token: %s", token.Token)
	if b.username != "" {
		inviteLink = fmt.Sprintf("https://t.me/%s?start=%s", b.username, token.Token)
	}

	var sb strings.Builder
	sb.WriteString("🎫 <b>Token VIP Generado</b>\n\n")
	sb.WriteString(fmt.Sprintf("📋 <b>Tarifa:</b> %s\n", rate.Name))
	sb.WriteString(fmt.Sprintf("⏱️ <b>Duración:</b> %d días\n", rate.Days))
	sb.WriteString(fmt.Sprintf("💰 <b>Costo:</b> $%.2f\n\n", rate.Cost))
	sb.WriteString(fmt.Sprintf("🔑 <b>Token:</b>\n<code>%s</code>\n\n", token.Token))
	sb.WriteString(fmt.Sprintf("🔗 <b>Enlace de invitación:</b>\n<code>%s</code>\n\n", inviteLink))
	sb.WriteString("📝 <b>Instrucciones:</b>\n")
	sb.WriteString("• Comparte el enlace con el usuario VIP\n")
	sb.WriteString(fmt.Sprintf("• El token otorga %d días de suscripción\n", rate.Days))
	sb.WriteString("• Se activa al primer uso\n\n")
	sb.WriteString("⚠️ <i>Guarda este token en un lugar seguro</i>")

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔄 Generar Otro Token", cbGenerateVipToken)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("← Volver al Menú VIP", cbVipManagement)),
	)
	b.edit(cq, sb.String(), markup)
	log.Infof("bot: token issued (rate=%d days=%d)", rate.ID, rate.Days)
}

func (b *Bot) showVipUsers(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	users, errList := b.ledger.ListUsers(ctx)
	if errList != nil {
		log.WithError(errList).Error("bot: list users failed")
		return
	}
	if len(users) == 0 {
		text, markup := buildSimpleMessage("👥 Usuarios VIP", "No hay usuarios VIP registrados.", cbVipManagement)
		b.edit(cq, text, markup)
		return
	}

	var sb strings.Builder
	for _, user := range users {
		name := user.Username
		if name == "" {
			name = fmt.Sprintf("ID: %d", user.UserID)
		}
		sb.WriteString(fmt.Sprintf("👤 %s\n   Estado: %s\n   Vence: %s\n\n",
			name, user.Status, user.SubscriptionEnd.Format("2006-01-02 15:04")))
	}
	text, markup := buildSimpleMessage("👥 Usuarios VIP", sb.String(), cbVipManagement)
	b.edit(cq, text, markup)
}

func (b *Bot) showGeneralStats(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	stats, errStats := b.ledger.CollectStats(ctx)
	if errStats != nil {
		log.WithError(errStats).Error("bot: collect stats failed")
		return
	}
	pending, errPending := b.queue.CountPending(ctx)
	if errPending != nil {
		log.WithError(errPending).Warn("bot: count pending failed")
	}

	body := fmt.Sprintf(
		"👑 Usuarios VIP activos: %d\n"+
			"⏳ Suscripciones expiradas: %d\n"+
			"🎫 Tokens sin usar: %d\n"+
			"📊 Canales configurados: %d\n"+
			"💰 Tarifas configuradas: %d\n"+
			"🔓 Solicitudes pendientes: %d",
		stats.ActiveMembers, stats.ExpiredMembers, stats.UnusedTokens, stats.Channels, stats.Rates, pending,
	)
	text, markup := buildSimpleMessage("📊 Estadísticas Generales", body, cbStatistics)
	b.edit(cq, text, markup)
}

func (b *Bot) showActivityReports(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	entries, errRecent := b.ledger.RecentNotifications(ctx, 15)
	if errRecent != nil {
		log.WithError(errRecent).Error("bot: recent notifications failed")
		return
	}
	if len(entries) == 0 {
		text, markup := buildSimpleMessage("📈 Reportes de Actividad", "No hay actividad registrada.", cbStatistics)
		b.edit(cq, text, markup)
		return
	}

	var sb strings.Builder
	for _, entry := range entries {
		outcome := "✅"
		if !entry.OK {
			outcome = fmt.Sprintf("❌ (%s)", entry.Reason)
		}
		sb.WriteString(fmt.Sprintf("%s <b>%s</b> → <code>%d</code> %s\n",
			entry.CreatedAt.Format("01-02 15:04"), entry.Kind, entry.Target, outcome))
	}
	text, markup := buildSimpleMessage("📈 Reportes de Actividad", sb.String(), cbStatistics)
	b.edit(cq, text, markup)
}

// lookupRate parses a rate id suffix and fetches the rate, rendering the
// standard not-found screen on failure.
func (b *Bot) lookupRate(ctx context.Context, cq *tgbotapi.CallbackQuery, raw string) (models.VipRate, bool) {
	rateID, errParse := strconv.ParseUint(raw, 10, 64)
	if errParse != nil {
		return models.VipRate{}, false
	}
	rate, errGet := b.ledger.GetRate(ctx, rateID)
	if errors.Is(errGet, ledger.ErrNotFound) {
		text, markup := buildSimpleMessage("❌ Error", "La tarifa no existe.", cbViewRates)
		b.edit(cq, text, markup)
		return models.VipRate{}, false
	}
	if errGet != nil {
		log.WithError(errGet).Error("bot: get rate failed")
		return models.VipRate{}, false
	}
	return rate, true
}
