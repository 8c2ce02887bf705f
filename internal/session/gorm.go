package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"GameStore-Telegram-bot/internal/payments"
)

// checkoutSession — строка таблицы checkout_sessions
type checkoutSession struct {
	SessionKey     string `gorm:"primaryKey"`
	State          string `gorm:"not null"`
	TelegramUserID *int64
	UserID         *uint
	ProductID      uint
	MethodID       uint
	Subtype        string
	Invoice        []byte
	InvoiceAt      *time.Time `gorm:"index"`
	UpdatedAt      time.Time
}

func (checkoutSession) TableName() string { return "checkout_sessions" }

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&checkoutSession{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (g *GormStore) Load(ctx context.Context, key string) (Session, error) {
	var row checkoutSession
	err := g.db.WithContext(ctx).First(&row, "session_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fresh(key), nil
	}
	if err != nil {
		return Session{}, err
	}
	return row.session()
}

func (g *GormStore) Save(ctx context.Context, s Session) error {
	row, err := toRow(s)
	if err != nil {
		return err
	}
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

func (g *GormStore) Delete(ctx context.Context, key string) error {
	return g.db.WithContext(ctx).Delete(&checkoutSession{}, "session_key = ?", key).Error
}

func (g *GormStore) ListStale(ctx context.Context, before time.Time) ([]Session, error) {
	var rows []checkoutSession
	err := g.db.WithContext(ctx).
		Where("state IN ? AND invoice_at < ?", []string{string(PaymentMethodSelected), string(PaymentPending)}, before).
		Order("invoice_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Session, 0, len(rows))
	for _, r := range rows {
		s, err := r.session()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func toRow(s Session) (checkoutSession, error) {
	row := checkoutSession{
		SessionKey:     s.Key,
		State:          string(s.State),
		TelegramUserID: s.TelegramUserID,
		UserID:         s.UserID,
		ProductID:      s.ProductID,
		MethodID:       s.MethodID,
		Subtype:        s.Subtype,
		UpdatedAt:      s.UpdatedAt,
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now()
	}
	if s.Invoice != nil {
		raw, err := json.Marshal(s.Invoice)
		if err != nil {
			return row, err
		}
		at := s.Invoice.IssuedAt
		row.Invoice = raw
		row.InvoiceAt = &at
	}
	return row, nil
}

func (r checkoutSession) session() (Session, error) {
	s := Session{
		Key:            r.SessionKey,
		State:          State(r.State),
		TelegramUserID: r.TelegramUserID,
		UserID:         r.UserID,
		ProductID:      r.ProductID,
		MethodID:       r.MethodID,
		Subtype:        r.Subtype,
		UpdatedAt:      r.UpdatedAt,
	}
	if len(r.Invoice) > 0 {
		var inv payments.Invoice
		if err := json.Unmarshal(r.Invoice, &inv); err != nil {
			return s, err
		}
		s.Invoice = &inv
	}
	return s, nil
}
