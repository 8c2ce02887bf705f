package logger

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the part of *tgbotapi.BotAPI used for outgoing messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier доставляет критические уведомления админу в Telegram
type Notifier struct {
	bot     Sender
	adminID int64
	log     *zap.Logger
}

func NewNotifier(bot Sender, adminID int64, log *zap.Logger) *Notifier {
	return &Notifier{bot: bot, adminID: adminID, log: log}
}

// NotifyAdmin отправляет критическое уведомление админу. Без бота только пишет в лог.
func (n *Notifier) NotifyAdmin(msg string) {
	if n == nil {
		return
	}
	n.log.Warn("admin_alert", zap.String("message", msg))
	if n.bot == nil || n.adminID == 0 {
		return
	}
	if _, err := n.bot.Send(tgbotapi.NewMessage(n.adminID, "[ALERT] "+msg)); err != nil {
		n.log.Error("failed to notify admin", zap.Error(err))
	}
}

// NotifyOnPanic ловит панику, логирует и уведомляет
func (n *Notifier) NotifyOnPanic(where string) {
	if r := recover(); r != nil {
		n.NotifyAdmin("Panic in " + where + ": " + toString(r))
	}
}

func toString(v interface{}) string {
	switch e := v.(type) {
	case string:
		return e
	case error:
		return e.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}
