// Package session хранит состояние оформления заказа между запросами.
// Состояние лежит вне процесса (Postgres или Redis), ключ — идентификатор сессии.
package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"GameStore-Telegram-bot/internal/payments"
)

type State string

const (
	Browsing              State = "browsing"
	ProductSelected       State = "product_selected"
	PaymentMethodSelected State = "payment_method_selected"
	PaymentPending        State = "payment_pending"
	Completed             State = "completed"
	Failed                State = "failed"
)

// Terminal: из этих состояний следующий шаг неявно начинается с Browsing
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

// AwaitingPayment: у сессии есть выставленный счёт
func (s State) AwaitingPayment() bool {
	return s == PaymentMethodSelected || s == PaymentPending
}

type Session struct {
	Key            string            `json:"key"`
	State          State             `json:"state"`
	TelegramUserID *int64            `json:"telegramUserId,omitempty"`
	UserID         *uint             `json:"userId,omitempty"`
	ProductID      uint              `json:"productId,omitempty"`
	MethodID       uint              `json:"methodId,omitempty"`
	Subtype        string            `json:"subtype,omitempty"`
	Invoice        *payments.Invoice `json:"invoice,omitempty"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Reset возвращает сессию в Browsing, сохраняя владельца
func (s *Session) Reset() {
	s.State = Browsing
	s.ProductID = 0
	s.MethodID = 0
	s.Subtype = ""
	s.Invoice = nil
}

type Store interface {
	// Load возвращает сохранённую сессию; для неизвестного ключа — пустую в Browsing
	Load(ctx context.Context, key string) (Session, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, key string) error
	// ListStale — сессии со счётом, выставленным раньше before
	ListStale(ctx context.Context, before time.Time) ([]Session, error)
}

func TelegramKey(telegramUserID int64) string {
	return "tg:" + strconv.FormatInt(telegramUserID, 10)
}

func WebKey(id string) string {
	return fmt.Sprintf("web:%s", id)
}

func fresh(key string) Session {
	return Session{Key: key, State: Browsing}
}
