// Package admin — команды администратора магазина в Telegram и резервные копии БД.
package admin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"GameStore-Telegram-bot/internal/checkout"
	"GameStore-Telegram-bot/internal/db"
	"GameStore-Telegram-bot/internal/logger"
)

const listLimit = 20

type Handler struct {
	api        logger.Sender
	store      *db.Storage
	reconciler *checkout.Reconciler
	buyers     checkout.Buyers
	backups    *Backups
	adminID    int64
	log        *zap.Logger
	now        func() time.Time
}

func NewHandler(api logger.Sender, store *db.Storage, reconciler *checkout.Reconciler, buyers checkout.Buyers,
	backups *Backups, adminID int64, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		api:        api,
		store:      store,
		reconciler: reconciler,
		buyers:     buyers,
		backups:    backups,
		adminID:    adminID,
		log:        log,
		now:        time.Now,
	}
}

func (h *Handler) IsAdmin(userID int64) bool {
	return h.adminID != 0 && userID == h.adminID
}

// Handle выполняет /admin_* команду. Сообщения не от админа игнорируются.
func (h *Handler) Handle(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.From == nil || !h.IsAdmin(msg.From.ID) {
		return
	}
	cmd := msg.Command()
	args := strings.Fields(msg.CommandArguments())
	chatID := msg.Chat.ID

	switch cmd {
	case "admin_stats":
		h.handleStats(ctx, chatID)
	case "admin_orders":
		h.handleOrders(ctx, chatID)
	case "admin_order":
		h.handleOrder(ctx, chatID, args)
	case "admin_deliver":
		h.handleDeliver(ctx, chatID, args)
	case "admin_stock":
		h.handleStock(ctx, chatID, args)
	case "admin_issues":
		h.handleIssues(ctx, chatID)
	case "admin_reconcile":
		h.handleReconcile(ctx, chatID)
	case "admin_backup":
		h.handleBackup(ctx, chatID)
	case "admin_restore":
		h.handleRestore(ctx, chatID, args)
	default:
		h.handleHelp(chatID)
	}
	logger.LogAdminAction(h.log, msg.From.ID, cmd, msg.Text)
}

func (h *Handler) reply(chatID int64, text string) {
	if _, err := h.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.log.Warn("failed to send admin reply", zap.Error(err))
	}
}

func replyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/admin_stats"),
			tgbotapi.NewKeyboardButton("/admin_orders"),
			tgbotapi.NewKeyboardButton("/admin_issues"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/admin_reconcile"),
			tgbotapi.NewKeyboardButton("/admin_backup"),
		),
	)
}

func (h *Handler) handleHelp(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, strings.Join([]string{
		"Команды администратора:",
		"/admin_stats - статистика",
		"/admin_orders - последние заказы",
		"/admin_order <id> - заказ",
		"/admin_deliver <id> - выдать ключ вручную",
		"/admin_stock <product_id> <n> - остаток товара",
		"/admin_issues - заказы к возврату",
		"/admin_reconcile - повторить выдачу оплаченных заказов",
		"/admin_backup - резервная копия БД",
		"/admin_restore <file> - восстановить БД",
	}, "\n"))
	msg.ReplyMarkup = replyKeyboard()
	if _, err := h.api.Send(msg); err != nil {
		h.log.Warn("failed to send admin reply", zap.Error(err))
	}
}

func (h *Handler) handleStats(ctx context.Context, chatID int64) {
	st, err := h.store.OrderStats(ctx, h.now())
	if err != nil {
		h.log.Error("failed to load stats", zap.Error(err))
		h.reply(chatID, "Ошибка получения статистики")
		return
	}
	pending, err := h.store.ListIssues(ctx, db.IssuePending)
	if err != nil {
		h.log.Error("failed to load issues", zap.Error(err))
	}
	refunds, err := h.store.ListIssues(ctx, db.IssueNeedsRefund)
	if err != nil {
		h.log.Error("failed to load issues", zap.Error(err))
	}
	h.reply(chatID, fmt.Sprintf(
		"Пользователей: %d\nОплаченных заказов: %d\nВыручка: сегодня: $%s, всего: $%s\nНа сверке: %d, к возврату: %d",
		st.Users, st.Orders, st.TodayRevenue.StringFixed(2), st.Revenue.StringFixed(2), len(pending), len(refunds)))
}

func (h *Handler) handleOrders(ctx context.Context, chatID int64) {
	orders, err := h.store.ListOrders(ctx)
	if err != nil {
		h.log.Error("failed to list orders", zap.Error(err))
		h.reply(chatID, "Ошибка получения заказов")
		return
	}
	if len(orders) == 0 {
		h.reply(chatID, "Заказов пока нет")
		return
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Последние заказы (%d из %d):\n", min(len(orders), listLimit), len(orders)))
	for i, o := range orders {
		if i == listLimit {
			break
		}
		sb.WriteString(fmt.Sprintf("#%d %s $%s оплата: %s, выдача: %s\n",
			o.ID, o.ProductName, o.TotalAmount.StringFixed(2), o.PaymentStatus, o.DeliveryStatus))
	}
	h.reply(chatID, sb.String())
}

func (h *Handler) handleOrder(ctx context.Context, chatID int64, args []string) {
	o, ok := h.orderArg(ctx, chatID, args, "/admin_order <id>")
	if !ok {
		return
	}
	h.reply(chatID, formatOrder(o))
}

func formatOrder(o db.Order) string {
	buyer := "-"
	switch {
	case o.TelegramUserID != nil:
		buyer = "tg:" + strconv.FormatInt(*o.TelegramUserID, 10)
	case o.UserID != nil:
		buyer = "web:" + strconv.FormatUint(uint64(*o.UserID), 10)
	}
	key := "-"
	if o.ProductKey != nil {
		key = *o.ProductKey
	}
	return fmt.Sprintf("Заказ #%d\nТовар: %s\nПокупатель: %s\nСумма: $%s (комиссия $%s)\nТранзакция: %s\nОплата: %s\nВыдача: %s\nКлюч: %s\nДата: %s",
		o.ID, o.ProductName, buyer, o.TotalAmount.StringFixed(2), o.Fee.StringFixed(2), o.TransactionID,
		o.PaymentStatus, o.DeliveryStatus, key, o.Date.Format("2006-01-02 15:04"))
}

// handleDeliver выдаёт ключ по оплаченному заказу вручную и сообщает покупателю
func (h *Handler) handleDeliver(ctx context.Context, chatID int64, args []string) {
	o, ok := h.orderArg(ctx, chatID, args, "/admin_deliver <id>")
	if !ok {
		return
	}
	if o.PaymentStatus != db.PaymentCompleted {
		h.reply(chatID, fmt.Sprintf("Заказ #%d не оплачен (%s)", o.ID, o.PaymentStatus))
		return
	}
	if o.DeliveryStatus == db.DeliveryDelivered && o.ProductKey != nil {
		h.reply(chatID, fmt.Sprintf("Заказ #%d уже выдан", o.ID))
		return
	}
	key := checkout.NewDeliveryKey()
	if o.ProductKey != nil && *o.ProductKey != "" {
		key = *o.ProductKey
	}
	delivered := db.DeliveryDelivered
	o, err := h.store.UpdateOrder(ctx, o.ID, db.OrderUpdate{DeliveryStatus: &delivered, ProductKey: &key})
	if err != nil {
		h.log.Error("failed to deliver order", zap.Uint("order_id", o.ID), zap.Error(err))
		h.reply(chatID, "Ошибка выдачи: "+err.Error())
		return
	}
	if o.TelegramUserID != nil && h.buyers != nil {
		h.buyers.KeyDelivered(ctx, *o.TelegramUserID, o)
	}
	h.reply(chatID, fmt.Sprintf("Заказ #%d выдан, ключ: %s", o.ID, key))
}

func (h *Handler) handleStock(ctx context.Context, chatID int64, args []string) {
	const usage = "Использование: /admin_stock <product_id> <n>"
	if len(args) != 2 {
		h.reply(chatID, usage)
		return
	}
	id, err1 := strconv.ParseUint(args[0], 10, 32)
	n, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil || n < 0 {
		h.reply(chatID, usage)
		return
	}
	p, err := h.store.SetStock(ctx, uint(id), n)
	if errors.Is(err, db.ErrNotFound) {
		h.reply(chatID, "Товар не найден")
		return
	}
	if err != nil {
		h.log.Error("failed to set stock", zap.Uint64("product_id", id), zap.Error(err))
		h.reply(chatID, "Ошибка обновления остатка")
		return
	}
	h.reply(chatID, fmt.Sprintf("%s: остаток %d, статус %s", p.Name, p.Stock, p.Status))
}

func (h *Handler) handleIssues(ctx context.Context, chatID int64) {
	issues, err := h.store.ListIssues(ctx, db.IssueNeedsRefund)
	if err != nil {
		h.log.Error("failed to list issues", zap.Error(err))
		h.reply(chatID, "Ошибка получения списка")
		return
	}
	if len(issues) == 0 {
		h.reply(chatID, "Заказов к возврату нет")
		return
	}
	var sb strings.Builder
	sb.WriteString("Оплачены, но не выданы (нужен возврат):\n")
	for _, is := range issues {
		sb.WriteString(fmt.Sprintf("%s %s $%s (%s): %s\n",
			is.TransactionID, is.ProductName, is.TotalAmount.StringFixed(2), is.Reason, is.LastError))
	}
	h.reply(chatID, sb.String())
}

func (h *Handler) handleReconcile(ctx context.Context, chatID int64) {
	if h.reconciler == nil {
		h.reply(chatID, "Сверка не настроена")
		return
	}
	res, err := h.reconciler.Run(ctx)
	if err != nil {
		h.reply(chatID, "Ошибка сверки: "+err.Error())
		return
	}
	h.reply(chatID, fmt.Sprintf("Сверка: выдано %d, повтор позже %d, к возврату %d", res.Resolved, res.Failed, res.NeedsRefund))
}

func (h *Handler) handleBackup(ctx context.Context, chatID int64) {
	if h.backups == nil {
		h.reply(chatID, "Резервное копирование не настроено")
		return
	}
	filename, err := h.backups.Create(ctx, "backup")
	if err != nil {
		h.log.Error("backup failed", zap.Error(err))
		h.reply(chatID, "Ошибка резервного копирования: "+err.Error())
		return
	}
	// Отправить файл админу
	file := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(filename))
	file.Caption = "Резервная копия БД успешно создана"
	if _, err := h.api.Send(file); err != nil {
		h.log.Error("failed to send backup", zap.String("file", filename), zap.Error(err))
		h.reply(chatID, "Копия создана, но не отправлена: "+filename)
		return
	}
	_ = os.Remove(filename)
}

func (h *Handler) handleRestore(ctx context.Context, chatID int64, args []string) {
	if h.backups == nil {
		h.reply(chatID, "Резервное копирование не настроено")
		return
	}
	if len(args) < 1 {
		h.reply(chatID, "Укажите имя файла для восстановления")
		return
	}
	if err := h.backups.Restore(ctx, args[0]); err != nil {
		h.log.Error("restore failed", zap.String("file", args[0]), zap.Error(err))
		h.reply(chatID, "Ошибка восстановления: "+err.Error())
		return
	}
	h.reply(chatID, "Восстановление успешно завершено из файла: "+args[0])
}

func (h *Handler) orderArg(ctx context.Context, chatID int64, args []string, usage string) (db.Order, bool) {
	if len(args) != 1 {
		h.reply(chatID, "Использование: "+usage)
		return db.Order{}, false
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		h.reply(chatID, "Использование: "+usage)
		return db.Order{}, false
	}
	o, err := h.store.GetOrder(ctx, uint(id))
	if errors.Is(err, db.ErrNotFound) {
		h.reply(chatID, "Заказ не найден")
		return o, false
	}
	if err != nil {
		h.log.Error("failed to load order", zap.Uint64("order_id", id), zap.Error(err))
		h.reply(chatID, "Ошибка получения заказа")
		return o, false
	}
	return o, true
}
