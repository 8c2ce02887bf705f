package db

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Seed заполняет пустую базу стартовыми данными: способы оплаты, категории, несколько товаров.
// Таблицы, в которых уже есть записи, не трогаются.
func (s *Storage) Seed(ctx context.Context, adminPassword string, log *zap.Logger) error {
	return s.Transaction(ctx, func(tx *Storage) error {
		if err := tx.seedPaymentMethods(ctx, log); err != nil {
			return err
		}
		if err := tx.seedCatalog(ctx, log); err != nil {
			return err
		}
		if adminPassword == "" {
			return nil
		}
		return tx.seedAdmin(ctx, adminPassword, log)
	})
}

func (s *Storage) empty(ctx context.Context, model interface{}) (bool, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(model).Count(&n).Error; err != nil {
		return false, err
	}
	return n == 0, nil
}

func (s *Storage) seedPaymentMethods(ctx context.Context, log *zap.Logger) error {
	ok, err := s.empty(ctx, &PaymentMethod{})
	if err != nil || !ok {
		return err
	}
	methods := []PaymentMethod{
		{Name: "Crypto (BTC, ETH, USDT)", Icon: "💰", Type: MethodCrypto},
		{Name: "QIWI", Icon: "💳", Type: MethodP2P, Subtype: "QIWI"},
		{Name: "YooMoney", Icon: "💸", Type: MethodP2P, Subtype: "YuMoney"},
		{Name: "Bank Card", Icon: "💳", Type: MethodCard},
	}
	for i := range methods {
		if err := s.CreatePaymentMethod(ctx, &methods[i]); err != nil {
			return fmt.Errorf("seed payment method %s: %w", methods[i].Name, err)
		}
	}
	log.Info("Seeded payment methods", zap.Int("count", len(methods)))
	return nil
}

func (s *Storage) seedCatalog(ctx context.Context, log *zap.Logger) error {
	ok, err := s.empty(ctx, &Category{})
	if err != nil || !ok {
		return err
	}
	ids := map[string]uint{}
	for _, name := range []string{"Steam", "PlayStation", "Xbox", "Origin", "Battle.net"} {
		c := Category{Name: name, Icon: "🎮"}
		if err := s.CreateCategory(ctx, &c); err != nil {
			return fmt.Errorf("seed category %s: %w", name, err)
		}
		ids[name] = c.ID
	}

	original := decimal.RequireFromString("69.99")
	products := []Product{
		{
			Name:          "Cyberpunk 2077",
			Description:   "An open-world, action-adventure RPG set in the megalopolis of Night City",
			Price:         decimal.RequireFromString("59.99"),
			OriginalPrice: &original,
			Stock:         10,
			CategoryID:    ids["Steam"],
			Platform:      "Steam",
			Region:        "Global",
		},
		{
			Name:        "Elden Ring",
			Description: "An action RPG game by FromSoftware and Bandai Namco Entertainment",
			Price:       decimal.RequireFromString("49.99"),
			Stock:       5,
			CategoryID:  ids["Steam"],
			Platform:    "Steam",
			Region:      "Global",
		},
		{
			Name:        "PlayStation Plus 12-Month",
			Description: "One-year subscription to PlayStation Plus",
			Price:       decimal.RequireFromString("59.99"),
			Stock:       20,
			CategoryID:  ids["PlayStation"],
			Platform:    "PlayStation",
			Region:      "US",
		},
		{
			Name:        "Xbox Game Pass Ultimate 3-Month",
			Description: "Three-month subscription to Xbox Game Pass Ultimate",
			Price:       decimal.RequireFromString("44.99"),
			Stock:       15,
			CategoryID:  ids["Xbox"],
			Platform:    "Xbox",
			Region:      "Global",
		},
	}
	for i := range products {
		if err := s.CreateProduct(ctx, &products[i]); err != nil {
			return fmt.Errorf("seed product %s: %w", products[i].Name, err)
		}
	}
	log.Info("Seeded catalog", zap.Int("categories", len(ids)), zap.Int("products", len(products)))
	return nil
}

func (s *Storage) seedAdmin(ctx context.Context, password string, log *zap.Logger) error {
	ok, err := s.empty(ctx, &User{})
	if err != nil || !ok {
		return err
	}
	if _, err := s.CreateUser(ctx, "admin", password, RoleAdmin); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	log.Info("Seeded admin account", zap.String("username", "admin"))
	return nil
}
