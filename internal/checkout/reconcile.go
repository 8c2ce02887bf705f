package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"GameStore-Telegram-bot/internal/db"
)

const (
	DefaultMaxAttempts = 10
	reconcileBatch     = 50
)

// Reconciler довыдаёт ключи по оплаченным заказам, которые не удалось записать сразу.
// Повтор идёт с тем же transaction id, поэтому заказ не задвоится.
type Reconciler struct {
	store       *db.Storage
	buyers      Buyers
	alerts      Alerter
	log         *zap.Logger
	MaxAttempts int
}

func NewReconciler(store *db.Storage, buyers Buyers, alerts Alerter, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{store: store, buyers: buyers, alerts: alerts, log: log, MaxAttempts: DefaultMaxAttempts}
}

type ReconcileResult struct {
	Resolved    int
	Failed      int
	NeedsRefund int
}

func (r *Reconciler) Run(ctx context.Context) (ReconcileResult, error) {
	var (
		res       ReconcileResult
		delivered []db.Order
		alerts    []string
	)
	err := r.store.Transaction(ctx, func(tx *db.Storage) error {
		res, delivered, alerts = ReconcileResult{}, nil, nil
		issues, err := tx.PendingIssues(ctx, reconcileBatch)
		if err != nil {
			return err
		}
		for _, issue := range issues {
			order, err := r.retry(ctx, tx, issue)
			if err == nil {
				if err := tx.ResolveIssue(ctx, issue.ID); err != nil {
					return err
				}
				res.Resolved++
				delivered = append(delivered, order)
				continue
			}

			if errors.Is(err, db.ErrOutOfStock) {
				if err := tx.MarkNeedsRefund(ctx, issue.ID, err.Error()); err != nil {
					return err
				}
				res.NeedsRefund++
				alerts = append(alerts, fmt.Sprintf("Order %s needs refund: product %s sold out", issue.TransactionID, issue.ProductName))
				continue
			}

			attempts, bumpErr := tx.BumpIssue(ctx, issue.ID, err.Error())
			if bumpErr != nil {
				return bumpErr
			}
			if attempts >= r.MaxAttempts {
				if err := tx.MarkNeedsRefund(ctx, issue.ID, err.Error()); err != nil {
					return err
				}
				res.NeedsRefund++
				alerts = append(alerts, fmt.Sprintf("Order %s needs manual review after %d attempts: %v", issue.TransactionID, attempts, err))
				continue
			}
			res.Failed++
		}
		return nil
	})
	if err != nil {
		r.log.Error("reconciliation failed", zap.Error(err))
		return res, err
	}

	for _, o := range delivered {
		r.log.Info("paid order delivered on retry", zap.Uint("order_id", o.ID), zap.String("transaction_id", o.TransactionID))
		if o.TelegramUserID != nil && r.buyers != nil {
			r.buyers.KeyDelivered(ctx, *o.TelegramUserID, o)
		}
	}
	for _, msg := range alerts {
		if r.alerts != nil {
			r.alerts.NotifyAdmin(msg)
		}
	}
	return res, nil
}

func (r *Reconciler) retry(ctx context.Context, tx *db.Storage, issue db.FulfillmentIssue) (db.Order, error) {
	key := NewDeliveryKey()
	order := db.Order{
		UserID:          issue.UserID,
		TelegramUserID:  issue.TelegramUserID,
		ProductID:       issue.ProductID,
		ProductName:     issue.ProductName,
		Quantity:        1,
		TotalAmount:     issue.TotalAmount,
		Fee:             issue.Fee,
		PaymentMethodID: issue.PaymentMethodID,
		PaymentSubtype:  issue.PaymentSubtype,
		TransactionID:   issue.TransactionID,
		PaymentStatus:   db.PaymentCompleted,
		DeliveryStatus:  db.DeliveryDelivered,
		ProductKey:      &key,
		Date:            issue.CreatedAt,
	}
	err := tx.Fulfil(ctx, &order)
	return order, err
}
