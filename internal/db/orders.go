package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrder сохраняет заказ. Ровно один из UserID/TelegramUserID должен быть заполнен:
// заказ приходит либо из веб-панели, либо из Telegram.
func (s *Storage) CreateOrder(ctx context.Context, o *Order) error {
	if (o.UserID == nil) == (o.TelegramUserID == nil) {
		return fmt.Errorf("%w: exactly one of userId and telegramUserId must be set", ErrInvalidOrder)
	}
	if o.Quantity == 0 {
		o.Quantity = 1
	}
	if o.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidOrder)
	}
	if o.TransactionID == "" {
		return fmt.Errorf("%w: transaction id is required", ErrInvalidOrder)
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = PaymentPending
	}
	if o.DeliveryStatus == "" {
		o.DeliveryStatus = DeliveryPending
	}
	if o.Date.IsZero() {
		o.Date = time.Now()
	}
	return s.DB.WithContext(ctx).Create(o).Error
}

// OrderUpdate — заказы меняются только переходами статусов
type OrderUpdate struct {
	PaymentStatus  *string `json:"paymentStatus"`
	DeliveryStatus *string `json:"deliveryStatus"`
	ProductKey     *string `json:"productKey"`
}

func ValidPaymentStatus(s string) bool {
	return s == PaymentPending || s == PaymentCompleted || s == PaymentFailed
}

func ValidDeliveryStatus(s string) bool {
	return s == DeliveryPending || s == DeliveryDelivered || s == DeliveryFailed
}

func (s *Storage) UpdateOrder(ctx context.Context, id uint, u OrderUpdate) (Order, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return o, err
	}
	cols := map[string]interface{}{}
	if u.PaymentStatus != nil {
		if !ValidPaymentStatus(*u.PaymentStatus) {
			return o, fmt.Errorf("%w: payment status %q", ErrInvalidOrder, *u.PaymentStatus)
		}
		cols["payment_status"] = *u.PaymentStatus
	}
	if u.DeliveryStatus != nil {
		if !ValidDeliveryStatus(*u.DeliveryStatus) {
			return o, fmt.Errorf("%w: delivery status %q", ErrInvalidOrder, *u.DeliveryStatus)
		}
		cols["delivery_status"] = *u.DeliveryStatus
	}
	if u.ProductKey != nil {
		cols["product_key"] = *u.ProductKey
	}
	if len(cols) > 0 {
		if err := s.DB.WithContext(ctx).Model(&o).Updates(cols).Error; err != nil {
			return o, err
		}
	}
	return s.GetOrder(ctx, id)
}

func (s *Storage) GetOrder(ctx context.Context, id uint) (Order, error) {
	var o Order
	err := s.DB.WithContext(ctx).First(&o, id).Error
	return o, notFound(err)
}

func (s *Storage) FindOrderByTransaction(ctx context.Context, transactionID string) (Order, error) {
	var o Order
	err := s.DB.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&o).Error
	return o, notFound(err)
}

func (s *Storage) ListOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	err := s.DB.WithContext(ctx).Order("id desc").Find(&orders).Error
	return orders, err
}

// GetTelegramUserOrders — заказы покупателя из бота, новые первыми
func (s *Storage) GetTelegramUserOrders(ctx context.Context, telegramUserID int64) ([]Order, error) {
	var orders []Order
	err := s.DB.WithContext(ctx).Where("telegram_user_id = ?", telegramUserID).Order("date desc, id desc").Find(&orders).Error
	return orders, err
}

func (s *Storage) GetUserOrders(ctx context.Context, userID uint) ([]Order, error) {
	var orders []Order
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("date desc, id desc").Find(&orders).Error
	return orders, err
}

type Stats struct {
	Orders       int64
	Revenue      decimal.Decimal
	TodayRevenue decimal.Decimal
	Users        int64
}

// OrderStats — сводка для /admin_stats; учитываются только оплаченные заказы
func (s *Storage) OrderStats(ctx context.Context, now time.Time) (Stats, error) {
	var st Stats
	q := s.DB.WithContext(ctx).Model(&Order{}).Where("payment_status = ?", PaymentCompleted)
	if err := q.Count(&st.Orders).Error; err != nil {
		return st, err
	}
	var err error
	if st.Revenue, err = s.sumOrders(ctx, time.Time{}); err != nil {
		return st, err
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if st.TodayRevenue, err = s.sumOrders(ctx, dayStart); err != nil {
		return st, err
	}
	err = s.DB.WithContext(ctx).Model(&TelegramUser{}).Count(&st.Users).Error
	return st, err
}

func (s *Storage) sumOrders(ctx context.Context, from time.Time) (decimal.Decimal, error) {
	var totals []decimal.Decimal
	q := s.DB.WithContext(ctx).Model(&Order{}).Where("payment_status = ?", PaymentCompleted)
	if !from.IsZero() {
		q = q.Where("date >= ?", from)
	}
	if err := q.Pluck("total_amount", &totals).Error; err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, totals...), nil
}

// Fulfil атомарно списывает ключ со склада и записывает оплаченный заказ.
// Если заказ с тем же transaction id уже есть, он возвращается в o без повторного списания.
func (s *Storage) Fulfil(ctx context.Context, o *Order) error {
	return s.Transaction(ctx, func(tx *Storage) error {
		existing, err := tx.FindOrderByTransaction(ctx, o.TransactionID)
		if err == nil {
			*o = existing
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := tx.DecrementStock(ctx, o.ProductID); err != nil {
			return err
		}
		return tx.CreateOrder(ctx, o)
	})
}
