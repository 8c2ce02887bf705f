package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrOutOfStock         = errors.New("out of stock")
	ErrInvalidOrder       = errors.New("invalid order")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCategoryInUse      = errors.New("category has products")
	ErrUsernameTaken      = errors.New("username already taken")
)

// Storage — доступ к каталогу, заказам, способам оплаты и пользователям поверх gorm.
// Внутри Transaction тот же тип работает поверх транзакции.
type Storage struct {
	DB *gorm.DB
}

// Open подключается к Postgres и мигрирует схему
func Open(dsn string) (*Storage, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL not set")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return New(gdb)
}

// New оборачивает готовое подключение gorm (используется и в тестах с sqlite)
func New(gdb *gorm.DB) (*Storage, error) {
	if err := gdb.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Storage{DB: gdb}, nil
}

// Transaction выполняет fn атомарно. Всё, что fn делает через tx, откатывается при ошибке.
func (s *Storage) Transaction(ctx context.Context, fn func(tx *Storage) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Storage{DB: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
