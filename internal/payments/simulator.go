package payments

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Simulator подтверждает платежи случайно, с вероятностями из таблицы SuccessRate.
// Источник случайности передаётся снаружи, поэтому с фиксированным seed поведение воспроизводимо.
type Simulator struct {
	mu     sync.Mutex
	rnd    *rand.Rand
	delay  time.Duration
	secret string
	log    *zap.Logger
	now    func() time.Time
}

func NewSimulator(rnd *rand.Rand, delay time.Duration, secret string, log *zap.Logger) *Simulator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulator{rnd: rnd, delay: delay, secret: secret, log: log, now: time.Now}
}

func (s *Simulator) Checkout(ctx context.Context, req Request) (Invoice, error) {
	subtype, err := validate(req)
	if err != nil {
		return Invoice{}, err
	}
	now := s.now()
	txID := NewTransactionID(now)
	return Invoice{
		TransactionID: txID,
		Amount:        req.Amount,
		Fee:           Fee(req.Amount, req.Type, subtype),
		Type:          req.Type,
		Subtype:       subtype,
		Artifact:      buildArtifact(req.Type, subtype, req.Amount, txID, req.Email, s.secret),
		IssuedAt:      now,
	}, nil
}

// Settle ждёт Delay (имитация ответа платёжной системы) и бросает кубик.
// Отмена ctx во время ожидания даёт Expired.
func (s *Simulator) Settle(ctx context.Context, inv Invoice) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("payment simulator panic", zap.String("transaction_id", inv.TransactionID), zap.Any("panic", r))
			out = Outcome{Message: MsgGenericFailure, TransactionID: inv.TransactionID}
		}
	}()

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return expired(inv)
		case <-timer.C:
		}
	} else if ctx.Err() != nil {
		return expired(inv)
	}

	out = Outcome{TransactionID: inv.TransactionID, Artifact: inv.Artifact, Fee: inv.Fee}
	if s.draw() < SuccessRate(inv.Type, inv.Subtype) {
		out.Success = true
		out.Message = successMessage(inv.Type, inv.Subtype)
	} else {
		out.Message = failureMessage(inv.Type, inv.Subtype)
	}
	s.log.Debug("payment settled",
		zap.String("transaction_id", inv.TransactionID),
		zap.String("method", inv.Type+"/"+inv.Subtype),
		zap.Bool("success", out.Success))
	return out
}

func (s *Simulator) draw() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

func successMessage(methodType, subtype string) string {
	switch methodType {
	case TypeCard:
		return fmt.Sprintf("%s payment processed successfully", subtype)
	case TypeCrypto, TypeP2P:
		return fmt.Sprintf("%s payment confirmed", subtype)
	}
	return "payment confirmed"
}

func failureMessage(methodType, subtype string) string {
	switch methodType {
	case TypeCrypto:
		return fmt.Sprintf("%s payment not detected. Please ensure you sent the correct amount to the correct address.", subtype)
	case TypeP2P:
		return fmt.Sprintf("%s payment could not be verified. Please ensure you completed the transfer correctly.", subtype)
	case TypeCard:
		return fmt.Sprintf("%s payment failed. Please try again or use a different payment method.", subtype)
	}
	return MsgGenericFailure
}
