package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/canalvip/vipbot/internal/models"
)

const backLabel = "← Volver"

type menuOption struct {
	label string
	data  string
}

// buildMenu renders a title plus one button per row, with an optional back
// button. Every admin screen edits the same message, so navigation stays on
// a single chat bubble.
func buildMenu(title string, options []menuOption, back string) (string, tgbotapi.InlineKeyboardMarkup) {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options)+1)
	for _, opt := range options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(opt.label, opt.data),
		))
	}
	if back != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(backLabel, back),
		))
	}
	return title, tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildSimpleMessage renders a bold title, a body, and an optional back
// button.
func buildSimpleMessage(title, message, back string) (string, tgbotapi.InlineKeyboardMarkup) {
	text := fmt.Sprintf("<b>%s</b>\n\n%s", title, message)
	if back == "" {
		return text, tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(backLabel, back)),
	)
	return text, markup
}

// buildConfirmation renders a confirm/cancel prompt.
func buildConfirmation(title, message, confirmData, cancelData string) (string, tgbotapi.InlineKeyboardMarkup) {
	text := fmt.Sprintf("<b>%s</b>\n\n%s", title, message)
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Confirmar", confirmData)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❌ Cancelar", cancelData)),
	)
	return text, markup
}

func menuAdminPanel() (string, tgbotapi.InlineKeyboardMarkup) {
	return buildMenu(
		"<b>Panel de Administración</b>\n\nSelecciona una opción:",
		[]menuOption{
			{"⚙️ Configurar Sistema", cbSystemConfig},
			{"📊 Gestionar Canales", cbManageChannels},
			{"👑 Gestión VIP", cbVipManagement},
			{"📈 Estadísticas", cbStatistics},
		},
		"",
	)
}

func menuSystemConfig() (string, tgbotapi.InlineKeyboardMarkup) {
	return buildMenu(
		"<b>Configuración del Sistema</b>\n\nSelecciona una opción:",
		[]menuOption{
			{"⏱️ Configurar Delay Canal Gratuito", cbConfigDelay},
			{"🔧 Configuración Avanzada", cbAdvancedConfig},
		},
		cbAdminPanel,
	)
}

func menuConfigDelay(currentDelay int) (string, tgbotapi.InlineKeyboardMarkup) {
	title := fmt.Sprintf(
		"<b>Configurar Delay del Canal Gratuito</b>\n\nDelay actual: %d segundos\n\nSelecciona el tiempo de espera:",
		currentDelay,
	)
	return buildMenu(
		title,
		[]menuOption{
			{"30 segundos", cbSetDelayPrefix + "30"},
			{"1 minuto", cbSetDelayPrefix + "60"},
			{"5 minutos", cbSetDelayPrefix + "300"},
			{"10 minutos", cbSetDelayPrefix + "600"},
		},
		cbSystemConfig,
	)
}

func menuManageChannels(channels []models.Channel) (string, tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString("<b>Gestión de Canales</b>\n")
	if len(channels) > 0 {
		sb.WriteString("\n<b>Canales Configurados:</b>\n")
		for _, channel := range channels {
			sb.WriteString(fmt.Sprintf("• %s (%s) - %s\n",
				channel.ChannelName, strings.ToUpper(channel.ChannelType), channelStatus(channel.IsActive)))
		}
	}
	sb.WriteString("\nSelecciona una opción:")
	return buildMenu(
		sb.String(),
		[]menuOption{
			{"➕ Agregar Canal Gratuito", cbAddFreeChannel},
			{"➕ Agregar Canal VIP", cbAddVipChannel},
			{"📋 Ver Canales Configurados", cbViewChannels},
			{"🔄 Gestionar Estado Canales", cbToggleChannels},
		},
		cbAdminPanel,
	)
}

// menuToggleChannels lists every channel with a toggle and a delete button
// side by side.
func menuToggleChannels(channels []models.Channel) (string, tgbotapi.InlineKeyboardMarkup) {
	if len(channels) == 0 {
		return buildSimpleMessage("🔄 Gestionar Estado Canales", "No hay canales configurados.", cbManageChannels)
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(channels)+1)
	for _, channel := range channels {
		label := fmt.Sprintf("%s %s (%s)", statusDot(channel.IsActive), channel.ChannelName, strings.ToUpper(channel.ChannelType))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d", cbToggleChannelPrefix, channel.ChannelID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑️", fmt.Sprintf("%s%d", cbDeleteChannelPrefix, channel.ChannelID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(backLabel, cbManageChannels),
	))
	title := "<b>🔄 Gestionar Estado Canales</b>\n\nPulsa un canal para activarlo o desactivarlo:"
	return title, tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func menuVipManagement() (string, tgbotapi.InlineKeyboardMarkup) {
	return buildMenu(
		"<b>Gestión VIP</b>\n\nSelecciona una opción:",
		[]menuOption{
			{"💰 Gestionar Tarifas", cbManageRates},
			{"🎫 Generar Token VIP", cbGenerateVipToken},
			{"👥 Ver Usuarios VIP", cbViewVipUsers},
			{"📊 Estadísticas VIP", cbGeneralStats},
		},
		cbAdminPanel,
	)
}

func menuManageRates() (string, tgbotapi.InlineKeyboardMarkup) {
	return buildMenu(
		"<b>Gestión de Tarifas VIP</b>\n\nSelecciona una opción:",
		[]menuOption{
			{"➕ Crear Nueva Tarifa", cbSelectRateDuration},
			{"📋 Ver Tarifas Configuradas", cbViewRates},
		},
		cbVipManagement,
	)
}

func menuSelectRateDuration() (string, tgbotapi.InlineKeyboardMarkup) {
	return buildMenu(
		"<b>Crear Tarifa - Paso 1</b>\n\nSelecciona la duración de la suscripción:",
		[]menuOption{
			{"1 día", cbRateDurationPrefix + "1"},
			{"1 semana (7 días)", cbRateDurationPrefix + "7"},
			{"2 semanas (14 días)", cbRateDurationPrefix + "14"},
			{"1 mes (30 días)", cbRateDurationPrefix + "30"},
		},
		cbManageRates,
	)
}

// menuEditRateDuration reuses the duration presets for an existing rate.
func menuEditRateDuration(rateID uint64) (string, tgbotapi.InlineKeyboardMarkup) {
	prefix := fmt.Sprintf("%s%d_", cbSetRateDurationPrefix, rateID)
	return buildMenu(
		"<b>⏱️ Cambiar Duración</b>\n\nSelecciona la nueva duración:",
		[]menuOption{
			{"1 día", prefix + "1"},
			{"1 semana (7 días)", prefix + "7"},
			{"2 semanas (14 días)", prefix + "14"},
			{"1 mes (30 días)", prefix + "30"},
		},
		fmt.Sprintf("%s%d", cbEditRatePrefix, rateID),
	)
}

func menuViewRates(rates []models.VipRate) (string, tgbotapi.InlineKeyboardMarkup) {
	if len(rates) == 0 {
		return buildMenu(
			"<b>Tarifas VIP Configuradas</b>\n\nNo hay tarifas configuradas.\n\nSelecciona una opción:",
			[]menuOption{{"➕ Crear Nueva Tarifa", cbSelectRateDuration}},
			cbManageRates,
		)
	}

	options := make([]menuOption, 0, len(rates)+1)
	for _, rate := range rates {
		label := fmt.Sprintf("%s %s - %dd - $%.2f", statusDot(rate.IsActive), rate.Name, rate.Days, rate.Cost)
		options = append(options, menuOption{label, fmt.Sprintf("%s%d", cbEditRatePrefix, rate.ID)})
	}
	options = append(options, menuOption{"➕ Crear Nueva Tarifa", cbSelectRateDuration})
	return buildMenu(
		"<b>Tarifas VIP Configuradas</b>\n\nSelecciona una tarifa para gestionarla:",
		options,
		cbManageRates,
	)
}

func menuEditRate(rate models.VipRate) (string, tgbotapi.InlineKeyboardMarkup) {
	status := "Activa"
	if !rate.IsActive {
		status = "Inactiva"
	}
	title := fmt.Sprintf(
		"<b>Editar Tarifa: %s</b>\n\n• Duración: %d días\n• Costo: $%.2f\n• Estado: %s\n\nSelecciona una acción:",
		rate.Name, rate.Days, rate.Cost, status,
	)
	id := rate.ID
	return buildMenu(
		title,
		[]menuOption{
			{"✏️ Cambiar Nombre", fmt.Sprintf("%s%d", cbChangeRateNamePrefix, id)},
			{"⏱️ Cambiar Duración", fmt.Sprintf("%s%d", cbChangeRateDurationPrefix, id)},
			{"💰 Cambiar Costo", fmt.Sprintf("%s%d", cbChangeRateCostPrefix, id)},
			{"🔄 Cambiar Estado", fmt.Sprintf("%s%d", cbToggleRateStatusPrefix, id)},
			{"🗑️ Eliminar Tarifa", fmt.Sprintf("%s%d", cbDeleteRatePrefix, id)},
		},
		cbViewRates,
	)
}

func menuGenerateToken(rates []models.VipRate) (string, tgbotapi.InlineKeyboardMarkup) {
	active := make([]models.VipRate, 0, len(rates))
	for _, rate := range rates {
		if rate.IsActive {
			active = append(active, rate)
		}
	}
	if len(active) == 0 {
		return buildSimpleMessage(
			"🎫 Generar Token VIP",
			"❌ No hay tarifas configuradas.\n\nPara generar tokens VIP, primero debes crear tarifas en el menú de gestión de tarifas.",
			cbVipManagement,
		)
	}

	var sb strings.Builder
	sb.WriteString("<b>🎫 Generar Token VIP</b>\n\nSelecciona la tarifa para el token:\n\n")
	for _, rate := range active {
		sb.WriteString(fmt.Sprintf("• <b>%s</b> - %d días - $%.2f\n", rate.Name, rate.Days, rate.Cost))
	}
	sb.WriteString("\nSelecciona una tarifa:")

	options := make([]menuOption, 0, len(active))
	for _, rate := range active {
		label := fmt.Sprintf("🎫 %s - %dd - $%.2f", rate.Name, rate.Days, rate.Cost)
		options = append(options, menuOption{label, fmt.Sprintf("%s%d", cbGenerateTokenRatePrefix, rate.ID)})
	}
	return buildMenu(sb.String(), options, cbVipManagement)
}

func menuStatistics() (string, tgbotapi.InlineKeyboardMarkup) {
	return buildMenu(
		"<b>Estadísticas del Sistema</b>\n\nSelecciona una opción:",
		[]menuOption{
			{"📊 Estadísticas Generales", cbGeneralStats},
			{"📈 Reportes de Actividad", cbActivityReports},
		},
		cbAdminPanel,
	)
}

func welcomeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔓 Solicitar Acceso Gratuito", cbRequestFreeAccess),
		),
	)
}

func channelStatus(active bool) string {
	if active {
		return "🟢 Activo"
	}
	return "🔴 Inactivo"
}

func statusDot(active bool) string {
	if active {
		return "🟢"
	}
	return "🔴"
}
