package checkout

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"GameStore-Telegram-bot/internal/db"
	"GameStore-Telegram-bot/internal/payments"
	"GameStore-Telegram-bot/internal/session"
)

// View — результат каждой операции: текущее состояние и данные для отображения.
// Бот и веб-API рендерят его сами.
type View struct {
	State   session.State `json:"state"`
	Kind    Kind          `json:"kind,omitempty"`
	Message string        `json:"message,omitempty"`
	Next    Next          `json:"next,omitempty"`

	Categories []db.Category `json:"categories,omitempty"`
	Category   *db.Category  `json:"category,omitempty"`
	Products   []db.Product  `json:"products,omitempty"`
	Total      int           `json:"total,omitempty"`
	Page       int           `json:"page,omitempty"`
	Pages      int           `json:"pages,omitempty"`

	Product  *db.Product        `json:"product,omitempty"`
	Methods  []db.PaymentMethod `json:"methods,omitempty"`
	Method   *db.PaymentMethod  `json:"method,omitempty"`
	Subtypes []string           `json:"subtypes,omitempty"` // варианты, если у способа нет фиксированного
	Subtype  string             `json:"subtype,omitempty"`
	Invoice  *payments.Invoice  `json:"invoice,omitempty"`
	Receipt  *Receipt           `json:"receipt,omitempty"`
	// TransactionID заполняется, когда оплата прошла, а ключ будет выдан позже
	TransactionID string `json:"transactionId,omitempty"`
}

type Receipt struct {
	OrderID       uint            `json:"orderId"`
	ProductName   string          `json:"productName"`
	Key           string          `json:"key"`
	Amount        decimal.Decimal `json:"amount"`
	Fee           decimal.Decimal `json:"fee"`
	Method        string          `json:"method"`
	TransactionID string          `json:"transactionId"`
	Date          time.Time       `json:"date"`
}

// Failed сообщает, что операция завершилась сбоем
func (v View) Failed() bool {
	return v.Kind != ""
}

// Err возвращает сбой как ошибку для логов; недопустимый переход оборачивает ErrInvalidTransition
func (v View) Err() error {
	switch v.Kind {
	case "":
		return nil
	case KindInvalidTransition:
		return fmt.Errorf("%w: %s", ErrInvalidTransition, v.Message)
	}
	return fmt.Errorf("%s: %s", v.Kind, v.Message)
}

func failure(state session.State, kind Kind, msg string, next Next) View {
	return View{State: state, Kind: kind, Message: msg, Next: next}
}
