package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"GameStore-Telegram-bot/internal/checkout"
	"GameStore-Telegram-bot/internal/db"
	"GameStore-Telegram-bot/internal/i18n"
)

// HandleUpdate обрабатывает одно сообщение или нажатие кнопки
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer b.alerts.NotifyOnPanic("HandleUpdate")

	from := sender(update)
	if from == nil || from.IsBot {
		return
	}
	// Пользователь создаётся/обновляется при любом апдейте
	lang := b.touchUser(ctx, from)

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery, lang)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message, lang)
	}
}

func sender(update tgbotapi.Update) *tgbotapi.User {
	switch {
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From
	case update.Message != nil:
		return update.Message.From
	}
	return nil
}

func (b *Bot) touchUser(ctx context.Context, from *tgbotapi.User) string {
	u, err := b.store.UpsertTelegramUser(ctx, db.TelegramUser{
		TelegramID:      from.ID,
		Username:        from.UserName,
		FirstName:       from.FirstName,
		LastName:        from.LastName,
		LastInteraction: time.Now(),
		Language:        i18n.Normalize(from.LanguageCode),
	})
	if err != nil {
		b.log.Warn("failed to upsert user", zap.Int64("telegram_user_id", from.ID), zap.Error(err))
		return i18n.Normalize(from.LanguageCode)
	}
	return u.Language
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message, lang string) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	cmd := msg.Command()

	if strings.HasPrefix(cmd, "admin") {
		if b.admin != nil && b.admin.IsAdmin(userID) {
			b.admin.Handle(ctx, msg)
			return
		}
		b.send(chatID, reply{text: i18n.T(lang, i18n.Help)})
		return
	}

	if cmd != "" && b.limiter.IsLimited(userID, "/"+cmd) {
		b.send(chatID, reply{text: i18n.T(lang, i18n.TooManyRequests)})
		return
	}

	customer := checkout.TelegramCustomer(userID)
	switch cmd {
	case "start":
		b.mainMenu(ctx, chatID, customer, lang)
	case "catalog":
		b.send(chatID, renderView(lang, b.orch.Browse(ctx, customer)))
	case "account":
		b.account(ctx, chatID, userID, lang)
	case "support":
		b.send(chatID, renderSupport(lang))
	case "language":
		b.send(chatID, renderLanguageMenu(lang))
	default:
		b.send(chatID, reply{text: i18n.T(lang, i18n.Help), markup: mainMenuKeyboard(lang)})
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery, lang string) {
	// Снимаем "часики" с кнопки сразу
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.log.Debug("failed to answer callback", zap.Error(err))
	}

	userID := cq.From.ID
	chatID := userID
	if cq.Message != nil && cq.Message.Chat != nil {
		chatID = cq.Message.Chat.ID
	}

	act, ok := parseCallback(cq.Data)
	if !ok {
		b.log.Warn("unknown callback", zap.Int64("telegram_user_id", userID), zap.String("data", cq.Data))
		b.send(chatID, renderMenu(lang))
		return
	}
	if b.limiter.IsLimited(userID, act.name) {
		b.send(chatID, reply{text: i18n.T(lang, i18n.TooManyRequests)})
		return
	}

	customer := checkout.TelegramCustomer(userID)
	switch act.name {
	case actMainMenu:
		b.mainMenu(ctx, chatID, customer, lang)
	case actCatalog:
		b.send(chatID, renderView(lang, b.orch.Browse(ctx, customer)))
	case actAccount:
		b.account(ctx, chatID, userID, lang)
	case actSupport:
		b.send(chatID, renderSupport(lang))
	case actLanguageMenu:
		b.send(chatID, renderLanguageMenu(lang))
	case actSetLang:
		b.setLanguage(ctx, chatID, userID, act.lang, lang)
	case actCategory:
		b.send(chatID, renderView(lang, b.orch.Category(ctx, customer, act.id, act.page)))
	case actProduct:
		b.product(ctx, chatID, act.id, lang)
	case actBuy:
		b.send(chatID, renderView(lang, b.orch.SelectProduct(ctx, customer, act.id)))
	case actPay:
		b.send(chatID, renderView(lang, b.orch.SelectPaymentMethod(ctx, customer, act.id, act.subtype)))
	case actConfirm:
		b.send(chatID, renderView(lang, b.orch.ConfirmPayment(ctx, customer)))
	case actCancel:
		b.send(chatID, renderView(lang, b.orch.Cancel(ctx, customer)))
	}
}

// mainMenu сбрасывает незавершённый выбор и показывает приветствие.
// Во время оплаты сессию не трогаем и сообщаем об этом.
func (b *Bot) mainMenu(ctx context.Context, chatID int64, customer checkout.Customer, lang string) {
	v := b.orch.Browse(ctx, customer)
	if v.Failed() {
		b.send(chatID, renderView(lang, v))
		return
	}
	b.send(chatID, renderMenu(lang))
}

func (b *Bot) account(ctx context.Context, chatID, userID int64, lang string) {
	acc, err := b.orch.AccountView(ctx, userID)
	if err != nil {
		b.log.Error("failed to load account", zap.Int64("telegram_user_id", userID), zap.Error(err))
		b.send(chatID, reply{text: i18n.T(lang, i18n.Error), markup: backToMenuKeyboard(lang)})
		return
	}
	b.send(chatID, renderAccount(lang, acc))
}

func (b *Bot) product(ctx context.Context, chatID int64, productID uint, lang string) {
	p, err := b.store.GetProduct(ctx, productID)
	if errors.Is(err, db.ErrNotFound) {
		b.send(chatID, reply{text: i18n.T(lang, i18n.ProductNotFound), markup: backToMenuKeyboard(lang)})
		return
	}
	if err != nil {
		b.log.Error("failed to load product", zap.Uint("product_id", productID), zap.Error(err))
		b.send(chatID, reply{text: i18n.T(lang, i18n.Error), markup: backToMenuKeyboard(lang)})
		return
	}
	b.send(chatID, renderProduct(lang, p))
}

func (b *Bot) setLanguage(ctx context.Context, chatID, userID int64, requested, current string) {
	supported := false
	for _, l := range i18n.Supported {
		if l == requested {
			supported = true
		}
	}
	if !supported {
		b.send(chatID, renderLanguageMenu(current))
		return
	}
	if err := b.store.SetLanguage(ctx, userID, requested); err != nil {
		b.log.Error("failed to set language", zap.Int64("telegram_user_id", userID), zap.Error(err))
		b.send(chatID, reply{text: i18n.T(current, i18n.Error), markup: backToMenuKeyboard(current)})
		return
	}
	b.send(chatID, reply{text: i18n.T(requested, i18n.LanguageSet)})
	b.send(chatID, renderMenu(requested))
}
