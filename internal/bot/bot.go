// Package bot — Telegram-интерфейс магазина: приём апдейтов, меню, каталог и оплата через оркестратор.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"GameStore-Telegram-bot/internal/checkout"
	"GameStore-Telegram-bot/internal/db"
	"GameStore-Telegram-bot/internal/i18n"
	"GameStore-Telegram-bot/internal/logger"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// Store — пользователи и карточки товаров
type Store interface {
	UpsertTelegramUser(ctx context.Context, u db.TelegramUser) (db.TelegramUser, error)
	GetLanguage(ctx context.Context, telegramID int64) (string, error)
	SetLanguage(ctx context.Context, telegramID int64, language string) error
	GetProduct(ctx context.Context, id uint) (db.Product, error)
}

// AdminHandler обрабатывает команды /admin_*
type AdminHandler interface {
	IsAdmin(telegramID int64) bool
	Handle(ctx context.Context, msg *tgbotapi.Message)
}

type Bot struct {
	api     API
	store   Store
	orch    *checkout.Orchestrator
	admin   AdminHandler
	limiter *RateLimiter
	alerts  *logger.Notifier
	log     *zap.Logger
}

func New(api API, store Store, orch *checkout.Orchestrator, adminID int64, alerts *logger.Notifier, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		api:     api,
		store:   store,
		orch:    orch,
		limiter: NewRateLimiter(adminID),
		alerts:  alerts,
		log:     log,
	}
}

// SetAdmin подключает обработчик админ-команд. Он создаётся после бота,
// потому что сам рассылает уведомления через него.
func (b *Bot) SetAdmin(h AdminHandler) {
	b.admin = h
}

// KeyDelivered сообщает покупателю ключ, выданный фоновой сверкой или админом
func (b *Bot) KeyDelivered(ctx context.Context, telegramUserID int64, order db.Order) {
	lang := b.language(ctx, telegramUserID)
	b.send(telegramUserID, reply{text: renderKeyDelivered(lang, order), markup: backToMenuKeyboard(lang)})
}

// PaymentExpired сообщает, что окно оплаты закрылось
func (b *Bot) PaymentExpired(ctx context.Context, telegramUserID int64) {
	lang := b.language(ctx, telegramUserID)
	b.send(telegramUserID, reply{text: i18n.T(lang, i18n.PaymentExpired), markup: backToMenuKeyboard(lang)})
}

func (b *Bot) language(ctx context.Context, telegramUserID int64) string {
	lang, err := b.store.GetLanguage(ctx, telegramUserID)
	if err != nil {
		b.log.Warn("failed to load language", zap.Int64("telegram_user_id", telegramUserID), zap.Error(err))
		return i18n.Default
	}
	return lang
}

func (b *Bot) send(chatID int64, r reply) {
	msg := tgbotapi.NewMessage(chatID, r.text)
	msg.ParseMode = tgbotapi.ModeHTML
	if r.markup != nil {
		msg.ReplyMarkup = *r.markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
