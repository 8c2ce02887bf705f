// Package dbtest поднимает изолированную in-memory SQLite базу для тестов.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"GameStore-Telegram-bot/internal/db"
)

// Open возвращает мигрированное хранилище. У каждого теста своя база.
// Соединение одно: внутри Transaction ходить в базу только через tx.
func Open(t testing.TB) *db.Storage {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	s, err := db.New(gdb)
	require.NoError(t, err)
	return s
}

// Seeded — то же, что Open, плюс стартовые данные
func Seeded(t testing.TB) *db.Storage {
	t.Helper()
	s := Open(t)
	require.NoError(t, s.Seed(t.Context(), "", zap.NewNop()))
	return s
}
