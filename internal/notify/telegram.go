package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/canalvip/vipbot/internal/models"
)

// TelegramNotifier sends messages through the Telegram Bot API.
type TelegramNotifier struct {
	api *tgbotapi.BotAPI
}

// NewTelegramNotifier constructs a TelegramNotifier.
func NewTelegramNotifier(api *tgbotapi.BotAPI) *TelegramNotifier {
	if api == nil {
		return nil
	}
	return &TelegramNotifier{api: api}
}

// SendDirect delivers a direct message to a user.
func (n *TelegramNotifier) SendDirect(ctx context.Context, userID int64, text string) Result {
	res := Result{Kind: models.NotifyKindReminder, Target: userID}
	if n == nil || n.api == nil {
		res.Reason = "notifier not initialized"
		return res
	}

	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, errSend := n.api.Send(msg); errSend != nil {
		res.Reason = errSend.Error()
		return res
	}
	res.OK = true
	return res
}

// PostToChannel posts text and optional media to a channel. The attachment
// kind picks the upload method; anything unrecognized goes out as a document.
// The request goes through the raw params path so protect_content can be set
// on every method.
func (n *TelegramNotifier) PostToChannel(ctx context.Context, channelID int64, msg Message) Result {
	res := Result{Kind: models.NotifyKindChannelPost, Target: channelID}
	if n == nil || n.api == nil {
		res.Reason = "notifier not initialized"
		return res
	}

	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", channelID)
	params.AddBool("protect_content", msg.Protected)

	endpoint := "sendMessage"
	if msg.Attachment == nil {
		params["text"] = msg.Text
		params.AddNonEmpty("parse_mode", tgbotapi.ModeHTML)
	} else {
		field := "document"
		switch msg.Attachment.Kind {
		case KindPhoto:
			endpoint, field = "sendPhoto", "photo"
		case KindVideo:
			endpoint, field = "sendVideo", "video"
		default:
			endpoint = "sendDocument"
		}
		params[field] = msg.Attachment.FileRef
		params.AddNonEmpty("caption", msg.Text)
	}

	if _, errSend := n.api.MakeRequest(endpoint, params); errSend != nil {
		res.Reason = errSend.Error()
		return res
	}
	res.OK = true
	return res
}

// GrantFreeAccess notifies a user that their free-channel request cleared the
// delay. The Bot API offers no direct membership grant without a stored invite
// link, so the grant is delivered as a direct message.
func (n *TelegramNotifier) GrantFreeAccess(ctx context.Context, userID int64, username string) Result {
	res := Result{Kind: models.NotifyKindFreeAccess, Target: userID}
	if n == nil || n.api == nil {
		res.Reason = "notifier not initialized"
		return res
	}

	text := fmt.Sprintf("✅ %s, tu solicitud de acceso al canal gratuito ha sido aprobada.", username)
	msg := tgbotapi.NewMessage(userID, text)
	if _, errSend := n.api.Send(msg); errSend != nil {
		res.Reason = errSend.Error()
		return res
	}
	res.OK = true
	return res
}
