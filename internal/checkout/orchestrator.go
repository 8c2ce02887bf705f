// Package checkout ведёт покупку: выбор товара, способа оплаты, оплата и выдача ключа.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"GameStore-Telegram-bot/internal/db"
	"GameStore-Telegram-bot/internal/payments"
	"GameStore-Telegram-bot/internal/session"
)

const (
	DefaultPageSize       = 5
	DefaultPaymentTimeout = 30 * time.Second
	DefaultPaymentWindow  = 15 * time.Minute
)

// Store — то, что оркестратору нужно от базы
type Store interface {
	GetProduct(ctx context.Context, id uint) (db.Product, error)
	GetProductsByCategory(ctx context.Context, categoryID uint) ([]db.Product, error)
	GetCategories(ctx context.Context) ([]db.Category, error)
	GetCategory(ctx context.Context, id uint) (db.Category, error)
	GetPaymentMethods(ctx context.Context) ([]db.PaymentMethod, error)
	GetPaymentMethod(ctx context.Context, id uint) (db.PaymentMethod, error)
	GetTelegramUser(ctx context.Context, telegramID int64) (db.TelegramUser, error)
	GetTelegramUserOrders(ctx context.Context, telegramUserID int64) ([]db.Order, error)
	Fulfil(ctx context.Context, o *db.Order) error
	RecordIssue(ctx context.Context, issue *db.FulfillmentIssue) error
	FindOrderByTransaction(ctx context.Context, transactionID string) (db.Order, error)
	FindIssueByTransaction(ctx context.Context, transactionID string) (db.FulfillmentIssue, error)
}

// Alerter доставляет сообщения администратору
type Alerter interface {
	NotifyAdmin(msg string)
}

// Customer — кто покупает. Ровно одно из TelegramUserID/UserID заполнено.
type Customer struct {
	SessionKey     string
	TelegramUserID *int64
	UserID         *uint
}

func TelegramCustomer(telegramUserID int64) Customer {
	id := telegramUserID
	return Customer{SessionKey: session.TelegramKey(id), TelegramUserID: &id}
}

func WebCustomer(sessionID string, userID uint) Customer {
	id := userID
	return Customer{SessionKey: session.WebKey(sessionID), UserID: &id}
}

type Options struct {
	PaymentTimeout time.Duration
	PaymentWindow  time.Duration
	PageSize       int
}

type Orchestrator struct {
	store    Store
	sessions session.Store
	gateway  payments.Gateway
	alerts   Alerter
	log      *zap.Logger
	opts     Options
	locks    *keyedMutex
	now      func() time.Time
}

func New(store Store, sessions session.Store, gateway payments.Gateway, alerts Alerter, log *zap.Logger, opts Options) *Orchestrator {
	if opts.PaymentTimeout <= 0 {
		opts.PaymentTimeout = DefaultPaymentTimeout
	}
	if opts.PaymentWindow <= 0 {
		opts.PaymentWindow = DefaultPaymentWindow
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		store:    store,
		sessions: sessions,
		gateway:  gateway,
		alerts:   alerts,
		log:      log,
		opts:     opts,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

// State возвращает сохранённое состояние сессии
func (o *Orchestrator) State(ctx context.Context, key string) (session.State, error) {
	s, err := o.sessions.Load(ctx, key)
	if err != nil {
		return "", err
	}
	return s.State, nil
}

// Browse — главное меню: сбрасывает выбор и показывает категории
func (o *Orchestrator) Browse(ctx context.Context, c Customer) View {
	unlock := o.locks.Lock(c.SessionKey)
	defer unlock()

	s, err := o.load(ctx, c)
	if err != nil {
		return o.sessionFailure(c, err)
	}
	if s.State == session.PaymentPending {
		return paymentInProgress()
	}
	if s.State != session.Browsing {
		s.Reset()
		if err := o.save(ctx, s); err != nil {
			return o.sessionFailure(c, err)
		}
	}
	return o.menu(ctx)
}

// Category показывает доступные товары категории постранично. Состояние не меняется,
// кроме выхода из завершённой покупки в Browsing.
func (o *Orchestrator) Category(ctx context.Context, c Customer, categoryID uint, page int) View {
	unlock := o.locks.Lock(c.SessionKey)
	defer unlock()

	s, err := o.load(ctx, c)
	if err != nil {
		return o.sessionFailure(c, err)
	}
	if s.State.Terminal() {
		s.Reset()
		if err := o.save(ctx, s); err != nil {
			return o.sessionFailure(c, err)
		}
	}

	cat, err := o.store.GetCategory(ctx, categoryID)
	if errors.Is(err, db.ErrNotFound) {
		return failure(s.State, KindNotFound, MsgCategoryNotFound, NextMainMenu)
	}
	if err != nil {
		return o.readFailure(s.State, "get category", err)
	}
	all, err := o.store.GetProductsByCategory(ctx, categoryID)
	if err != nil {
		return o.readFailure(s.State, "get products", err)
	}
	products := db.Purchasable(all)

	size := o.opts.PageSize
	pages := (len(products) + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * size
	end := start + size
	if end > len(products) {
		end = len(products)
	}
	return View{
		State:    s.State,
		Category: &cat,
		Products: products[start:end],
		Total:    len(products),
		Page:     page,
		Pages:    pages,
	}
}

// SelectProduct: Browsing/ProductSelected/PaymentMethodSelected -> ProductSelected.
// Несуществующий или распроданный товар оставляет сессию в Browsing.
func (o *Orchestrator) SelectProduct(ctx context.Context, c Customer, productID uint) View {
	unlock := o.locks.Lock(c.SessionKey)
	defer unlock()

	s, err := o.load(ctx, c)
	if err != nil {
		return o.sessionFailure(c, err)
	}
	if s.State == session.PaymentPending {
		return paymentInProgress()
	}

	p, err := o.store.GetProduct(ctx, productID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return o.backToBrowsing(ctx, s, KindNotFound, MsgProductNotFound)
	case err != nil:
		return o.readFailure(s.State, "get product", err)
	case !p.Purchasable():
		return o.backToBrowsing(ctx, s, KindOutOfStock, MsgOutOfStock)
	}

	methods, err := o.store.GetPaymentMethods(ctx)
	if err != nil {
		return o.readFailure(s.State, "get payment methods", err)
	}

	s.Reset()
	s.State = session.ProductSelected
	s.ProductID = p.ID
	if err := o.save(ctx, s); err != nil {
		return o.sessionFailure(c, err)
	}
	return View{State: session.ProductSelected, Product: &p, Methods: methods}
}

// SelectPaymentMethod: ProductSelected/PaymentMethodSelected -> PaymentMethodSelected.
// Если у способа нет фиксированного варианта и subtype пуст, состояние не меняется,
// а во View приходит список вариантов.
func (o *Orchestrator) SelectPaymentMethod(ctx context.Context, c Customer, methodID uint, subtype string) View {
	unlock := o.locks.Lock(c.SessionKey)
	defer unlock()

	s, err := o.load(ctx, c)
	if err != nil {
		return o.sessionFailure(c, err)
	}
	if s.State != session.ProductSelected && s.State != session.PaymentMethodSelected {
		return o.invalidTransition(s.State, MsgSelectProductFirst)
	}

	p, err := o.store.GetProduct(ctx, s.ProductID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return o.backToBrowsing(ctx, s, KindNotFound, MsgProductNotFound)
	case err != nil:
		return o.readFailure(s.State, "get product", err)
	case !p.Purchasable():
		return o.backToBrowsing(ctx, s, KindOutOfStock, MsgOutOfStock)
	}

	m, err := o.store.GetPaymentMethod(ctx, methodID)
	if errors.Is(err, db.ErrNotFound) {
		return failure(s.State, KindNotFound, MsgMethodNotFound, NextChangeMethod)
	}
	if err != nil {
		return o.readFailure(s.State, "get payment method", err)
	}

	if m.Subtype != "" {
		subtype = m.Subtype
	}
	if subtype == "" {
		return View{
			State:    s.State,
			Product:  &p,
			Method:   &m,
			Subtypes: payments.Subtypes(string(m.Type)),
		}
	}
	if !payments.ValidSubtype(string(m.Type), subtype) {
		return failure(s.State, KindValidationError, payments.MsgUnsupportedMethod, NextChangeMethod)
	}

	inv, err := o.gateway.Checkout(ctx, o.paymentRequest(p, m, subtype))
	if err != nil {
		o.log.Warn("checkout failed", zap.String("session", s.Key), zap.Uint("method_id", m.ID), zap.Error(err))
		if errors.Is(err, payments.ErrUnsupportedMethod) {
			return failure(s.State, KindValidationError, payments.MsgUnsupportedMethod, NextChangeMethod)
		}
		return failure(s.State, KindPaymentFailed, payments.MsgGenericFailure, NextChangeMethod)
	}

	s.State = session.PaymentMethodSelected
	s.MethodID = m.ID
	s.Subtype = inv.Subtype
	s.Invoice = &inv
	if err := o.save(ctx, s); err != nil {
		return o.sessionFailure(c, err)
	}
	return View{
		State:   session.PaymentMethodSelected,
		Product: &p,
		Method:  &m,
		Subtype: inv.Subtype,
		Invoice: &inv,
	}
}

// ConfirmPayment: PaymentMethodSelected -> PaymentPending -> Completed | Failed.
func (o *Orchestrator) ConfirmPayment(ctx context.Context, c Customer) View {
	unlock := o.locks.Lock(c.SessionKey)
	defer unlock()

	s, err := o.load(ctx, c)
	if err != nil {
		return o.sessionFailure(c, err)
	}
	if s.State != session.PaymentMethodSelected || s.Invoice == nil {
		return o.invalidTransition(s.State, MsgSelectMethodFirst)
	}
	inv := *s.Invoice

	if o.now().Sub(inv.IssuedAt) > o.opts.PaymentWindow {
		return o.expire(ctx, s)
	}

	p, err := o.store.GetProduct(ctx, s.ProductID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return o.backToBrowsing(ctx, s, KindNotFound, MsgProductNotFound)
		}
		return o.readFailure(s.State, "get product", err)
	}
	m, err := o.store.GetPaymentMethod(ctx, s.MethodID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return failure(s.State, KindNotFound, MsgMethodNotFound, NextChangeMethod)
		}
		return o.readFailure(s.State, "get payment method", err)
	}

	s.State = session.PaymentPending
	if err := o.save(ctx, s); err != nil {
		return o.sessionFailure(c, err)
	}

	settleCtx, cancel := context.WithTimeout(ctx, o.opts.PaymentTimeout)
	out := o.gateway.Settle(settleCtx, inv)
	cancel()

	// оплата уже прошла или окончательно не прошла: запись доводим до конца даже при отмене запроса
	ctx = context.WithoutCancel(ctx)

	if out.Expired {
		return o.expire(ctx, s)
	}
	if !out.Success {
		return o.paymentFailed(ctx, s, p, m, out)
	}
	return o.fulfil(ctx, s, p, m, inv)
}

// Cancel сбрасывает сессию. Во время оплаты отмена невозможна.
func (o *Orchestrator) Cancel(ctx context.Context, c Customer) View {
	unlock := o.locks.Lock(c.SessionKey)
	defer unlock()

	s, err := o.load(ctx, c)
	if err != nil {
		return o.sessionFailure(c, err)
	}
	if s.State == session.PaymentPending {
		return paymentInProgress()
	}
	if err := o.sessions.Delete(ctx, c.SessionKey); err != nil {
		return o.sessionFailure(c, err)
	}
	return o.menu(ctx)
}

func (o *Orchestrator) fulfil(ctx context.Context, s session.Session, p db.Product, m db.PaymentMethod, inv payments.Invoice) View {
	key := NewDeliveryKey()
	order := db.Order{
		UserID:          s.UserID,
		TelegramUserID:  s.TelegramUserID,
		ProductID:       p.ID,
		ProductName:     p.Name,
		Quantity:        1,
		TotalAmount:     inv.Amount,
		Fee:             inv.Fee,
		PaymentMethodID: m.ID,
		PaymentSubtype:  inv.Subtype,
		TransactionID:   inv.TransactionID,
		PaymentStatus:   db.PaymentCompleted,
		DeliveryStatus:  db.DeliveryDelivered,
		ProductKey:      &key,
		Date:            o.now(),
	}
	err := o.store.Fulfil(ctx, &order)
	if err != nil {
		return o.fulfilmentFailed(ctx, s, order, err)
	}

	s.State = session.Completed
	s.Invoice = nil
	o.finish(ctx, s)
	o.log.Info("order completed",
		zap.Uint("order_id", order.ID),
		zap.String("transaction_id", order.TransactionID),
		zap.Uint("product_id", p.ID))

	return View{
		State:   session.Completed,
		Product: &p,
		Method:  &m,
		Receipt: &Receipt{
			OrderID:       order.ID,
			ProductName:   order.ProductName,
			Key:           *order.ProductKey,
			Amount:        order.TotalAmount,
			Fee:           order.Fee,
			Method:        m.Name,
			TransactionID: order.TransactionID,
			Date:          order.Date,
		},
	}
}

// fulfilmentFailed: деньги получены, ключ не выдан. Заказ уходит в очередь сверки.
func (o *Orchestrator) fulfilmentFailed(ctx context.Context, s session.Session, order db.Order, cause error) View {
	issue := db.FulfillmentIssue{
		TransactionID:   order.TransactionID,
		Reason:          db.IssuePersistence,
		Status:          db.IssuePending,
		LastError:       cause.Error(),
		UserID:          order.UserID,
		TelegramUserID:  order.TelegramUserID,
		ProductID:       order.ProductID,
		ProductName:     order.ProductName,
		TotalAmount:     order.TotalAmount,
		Fee:             order.Fee,
		PaymentMethodID: order.PaymentMethodID,
		PaymentSubtype:  order.PaymentSubtype,
	}
	outOfStock := errors.Is(cause, db.ErrOutOfStock)
	if outOfStock {
		issue.Reason = db.IssueOutOfStock
		issue.Status = db.IssueNeedsRefund
	}

	fields := []zap.Field{
		zap.String("transaction_id", order.TransactionID),
		zap.Uint("product_id", order.ProductID),
		zap.String("amount", order.TotalAmount.String()),
		zap.String("reason", issue.Reason),
		zap.Error(cause),
	}
	if err := o.store.RecordIssue(ctx, &issue); err != nil {
		// последний рубеж: запись в логе — единственный след оплаченного заказа
		o.log.Error("paid order lost, manual reconciliation required", append(fields, zap.NamedError("record_error", err))...)
	} else {
		o.log.Error("paid order not fulfilled", fields...)
	}
	o.alert(fmt.Sprintf("Paid order %s not fulfilled (%s): %s", order.TransactionID, issue.Reason, order.ProductName))

	s.State = session.Failed
	s.Invoice = nil
	o.finish(ctx, s)

	if outOfStock {
		v := failure(session.Failed, KindOutOfStock, MsgSoldOutRefund, NextMainMenu)
		v.TransactionID = order.TransactionID
		return v
	}
	v := failure(session.Failed, KindPersistenceError, MsgKeyWillFollow, NextMainMenu)
	v.TransactionID = order.TransactionID
	return v
}

// paymentFailed возвращает сессию к выбору способа оплаты со свежим счётом
func (o *Orchestrator) paymentFailed(ctx context.Context, s session.Session, p db.Product, m db.PaymentMethod, out payments.Outcome) View {
	o.log.Info("payment failed",
		zap.String("session", s.Key),
		zap.String("transaction_id", out.TransactionID),
		zap.String("message", out.Message))

	v := failure(session.Failed, KindPaymentFailed, out.Message, NextRetry)
	v.Product = &p
	v.Method = &m

	inv, err := o.gateway.Checkout(ctx, o.paymentRequest(p, m, s.Subtype))
	if err != nil {
		o.log.Warn("re-checkout failed", zap.String("session", s.Key), zap.Error(err))
		s.State = session.ProductSelected
		s.MethodID = 0
		s.Subtype = ""
		s.Invoice = nil
		v.Next = NextChangeMethod
	} else {
		s.State = session.PaymentMethodSelected
		s.Invoice = &inv
		v.Subtype = inv.Subtype
		v.Invoice = &inv
	}
	if err := o.save(ctx, s); err != nil {
		return o.sessionFailure(Customer{SessionKey: s.Key}, err)
	}
	return v
}

func (o *Orchestrator) expire(ctx context.Context, s session.Session) View {
	s.State = session.Failed
	s.Invoice = nil
	o.finish(ctx, s)
	return failure(session.Failed, KindExpired, payments.MsgPaymentWindowEnded, NextMainMenu)
}

// finish записывает итоговое состояние после подтверждения оплаты.
// Если записать не вышло, сессия удаляется: оставшись в PaymentPending, она
// блокировала бы покупателя до конца окна оплаты.
func (o *Orchestrator) finish(ctx context.Context, s session.Session) {
	err := o.save(ctx, s)
	if err == nil {
		return
	}
	o.log.Warn("failed to save session after payment", zap.String("session", s.Key), zap.String("state", string(s.State)), zap.Error(err))
	if err := o.sessions.Delete(ctx, s.Key); err != nil {
		o.log.Error("failed to drop session after payment", zap.String("session", s.Key), zap.Error(err))
	}
}

func (o *Orchestrator) backToBrowsing(ctx context.Context, s session.Session, kind Kind, msg string) View {
	if s.State != session.Browsing {
		s.Reset()
		if err := o.save(ctx, s); err != nil {
			return o.sessionFailure(Customer{SessionKey: s.Key}, err)
		}
	}
	return failure(session.Browsing, kind, msg, NextMainMenu)
}

func (o *Orchestrator) menu(ctx context.Context) View {
	cats, err := o.store.GetCategories(ctx)
	if err != nil {
		return o.readFailure(session.Browsing, "get categories", err)
	}
	return View{State: session.Browsing, Categories: cats}
}

func (o *Orchestrator) paymentRequest(p db.Product, m db.PaymentMethod, subtype string) payments.Request {
	return payments.Request{
		Amount:    p.Price,
		Type:      string(m.Type),
		Subtype:   subtype,
		Reference: fmt.Sprintf("product-%d", p.ID),
	}
}

func (o *Orchestrator) load(ctx context.Context, c Customer) (session.Session, error) {
	s, err := o.sessions.Load(ctx, c.SessionKey)
	if err != nil {
		return s, err
	}
	if s.TelegramUserID == nil && s.UserID == nil {
		s.TelegramUserID = c.TelegramUserID
		s.UserID = c.UserID
	}
	return s, nil
}

func (o *Orchestrator) save(ctx context.Context, s session.Session) error {
	s.UpdatedAt = o.now()
	return o.sessions.Save(ctx, s)
}

func (o *Orchestrator) alert(msg string) {
	if o.alerts != nil {
		o.alerts.NotifyAdmin(msg)
	}
}

func (o *Orchestrator) invalidTransition(state session.State, msg string) View {
	return failure(state, KindInvalidTransition, msg, NextMainMenu)
}

func (o *Orchestrator) sessionFailure(c Customer, err error) View {
	o.log.Error("session store failure", zap.String("session", c.SessionKey), zap.Error(err))
	return failure("", KindPersistenceError, MsgUnavailable, NextMainMenu)
}

func (o *Orchestrator) readFailure(state session.State, op string, err error) View {
	o.log.Error("catalog read failed", zap.String("op", op), zap.Error(err))
	return failure(state, KindPersistenceError, MsgUnavailable, NextMainMenu)
}

func paymentInProgress() View {
	return failure(session.PaymentPending, KindInvalidTransition, MsgPaymentInProgress, NextMainMenu)
}
