// Package payments описывает платёжный шлюз: выставление счёта и его подтверждение.
// Есть две реализации: Simulator для демо-режима и Provider для внешнего HTTP-шлюза.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TypeCrypto = "crypto"
	TypeP2P    = "p2p"
	TypeCard   = "card"
)

const (
	MsgGenericFailure     = "payment processing failed"
	MsgUnsupportedMethod  = "unsupported payment method"
	MsgPaymentWindowEnded = "payment window expired"
)

var (
	ErrUnsupportedMethod = errors.New(MsgUnsupportedMethod)
	ErrInvalidAmount     = errors.New("amount must be positive")
)

type Request struct {
	Amount    decimal.Decimal
	Type      string
	Subtype   string
	Reference string // идентификатор заказа для назначения платежа
	Email     string
}

// Artifact — то, что покупатель видит для оплаты: адрес кошелька, ссылка, подпись
type Artifact struct {
	Address   string `json:"address,omitempty"`
	URI       string `json:"uri,omitempty"`
	Account   string `json:"account,omitempty"`
	URL       string `json:"url,omitempty"`
	Merchant  string `json:"merchant,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// Invoice — выставленный, но ещё не подтверждённый платёж
type Invoice struct {
	TransactionID string          `json:"transactionId"`
	ProviderID    string          `json:"providerId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Fee           decimal.Decimal `json:"fee"`
	Type          string          `json:"type"`
	Subtype       string          `json:"subtype"`
	Artifact      Artifact        `json:"artifact"`
	IssuedAt      time.Time       `json:"issuedAt"`
}

type Outcome struct {
	Success       bool
	Message       string
	TransactionID string
	Artifact      Artifact
	Fee           decimal.Decimal
	Expired       bool // подтверждение прервано таймаутом или отменой
}

type Gateway interface {
	Checkout(ctx context.Context, req Request) (Invoice, error)
	Settle(ctx context.Context, inv Invoice) Outcome
}

// Simulate выставляет счёт и сразу пытается его подтвердить
func Simulate(ctx context.Context, g Gateway, req Request) Outcome {
	inv, err := g.Checkout(ctx, req)
	if err != nil {
		if errors.Is(err, ErrUnsupportedMethod) {
			return Outcome{Message: MsgUnsupportedMethod}
		}
		return Outcome{Message: MsgGenericFailure}
	}
	return g.Settle(ctx, inv)
}

// NewTransactionID: TX-<unix millis>-<8 hex>
func NewTransactionID(now time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("TX-%d-%s", now.UnixMilli(), id[:8])
}

func validate(req Request) (subtype string, err error) {
	if !req.Amount.IsPositive() {
		return "", ErrInvalidAmount
	}
	subtype = req.Subtype
	if subtype == "" {
		subtype = DefaultSubtype(req.Type)
	}
	if !ValidSubtype(req.Type, subtype) {
		return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedMethod, req.Type, req.Subtype)
	}
	return subtype, nil
}

func expired(inv Invoice) Outcome {
	return Outcome{
		Message:       MsgPaymentWindowEnded,
		TransactionID: inv.TransactionID,
		Artifact:      inv.Artifact,
		Fee:           inv.Fee,
		Expired:       true,
	}
}
