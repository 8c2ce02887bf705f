package checkout

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"GameStore-Telegram-bot/internal/db"
	"GameStore-Telegram-bot/internal/session"
)

// Buyers — уведомления покупателю вне его запроса (из фоновых задач)
type Buyers interface {
	KeyDelivered(ctx context.Context, telegramUserID int64, order db.Order)
	PaymentExpired(ctx context.Context, telegramUserID int64)
}

// ExpireStale переводит в Failed сессии, чей счёт старше окна оплаты.
// Возвращает сессии, которые действительно были просрочены.
func (o *Orchestrator) ExpireStale(ctx context.Context) ([]session.Session, error) {
	stale, err := o.sessions.ListStale(ctx, o.now().Add(-o.opts.PaymentWindow))
	if err != nil {
		return nil, err
	}
	var expired []session.Session
	for _, candidate := range stale {
		s, ok, err := o.expireOne(ctx, candidate.Key)
		if err != nil {
			o.log.Warn("failed to expire session", zap.String("session", candidate.Key), zap.Error(err))
			continue
		}
		if ok {
			expired = append(expired, s)
		}
	}
	return expired, nil
}

func (o *Orchestrator) expireOne(ctx context.Context, key string) (session.Session, bool, error) {
	unlock := o.locks.Lock(key)
	defer unlock()

	// пока ждали блокировку, сессия могла продвинуться
	s, err := o.sessions.Load(ctx, key)
	if err != nil {
		return s, false, err
	}
	if !s.State.AwaitingPayment() || s.Invoice == nil || o.now().Sub(s.Invoice.IssuedAt) <= o.opts.PaymentWindow {
		return s, false, nil
	}
	// по счёту уже есть заказ или заявка на довыдачу: итог не сохранился, но оплата прошла
	paid, err := o.paid(ctx, s.Invoice.TransactionID)
	if err != nil {
		return s, false, err
	}
	if paid {
		o.log.Info("reset session of a paid invoice", zap.String("session", key), zap.String("transaction_id", s.Invoice.TransactionID))
		s.Reset()
		return s, false, o.save(ctx, s)
	}
	s.State = session.Failed
	s.Invoice = nil
	return s, true, o.save(ctx, s)
}

func (o *Orchestrator) paid(ctx context.Context, transactionID string) (bool, error) {
	if transactionID == "" {
		return false, nil
	}
	_, err := o.store.FindOrderByTransaction(ctx, transactionID)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return false, err
	}
	_, err = o.store.FindIssueByTransaction(ctx, transactionID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Sweeper — cron-задача: просрочка неоплаченных счетов и уведомление покупателей
type Sweeper struct {
	orch   *Orchestrator
	buyers Buyers
	log    *zap.Logger
}

func NewSweeper(orch *Orchestrator, buyers Buyers, log *zap.Logger) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{orch: orch, buyers: buyers, log: log}
}

func (sw *Sweeper) Run(ctx context.Context) int {
	expired, err := sw.orch.ExpireStale(ctx)
	if err != nil {
		sw.log.Error("session sweep failed", zap.Error(err))
		return 0
	}
	for _, s := range expired {
		if s.TelegramUserID != nil && sw.buyers != nil {
			sw.buyers.PaymentExpired(ctx, *s.TelegramUserID)
		}
	}
	if len(expired) > 0 {
		sw.log.Info("expired checkout sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}
