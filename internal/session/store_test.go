package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"GameStore-Telegram-bot/internal/payments"
)

func gormStore(t *testing.T) Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	s, err := NewGormStore(gdb)
	require.NoError(t, err)
	return s
}

func redisStore(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore("redis://"+mr.Addr(), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func withInvoice(key string, state State, issued time.Time) Session {
	tg := int64(77)
	return Session{
		Key:            key,
		State:          state,
		TelegramUserID: &tg,
		ProductID:      3,
		MethodID:       2,
		Subtype:        "QIWI",
		Invoice: &payments.Invoice{
			TransactionID: "TX-" + key,
			Amount:        decimal.RequireFromString("59.99"),
			Fee:           decimal.RequireFromString("1.2"),
			Type:          payments.TypeP2P,
			Subtype:       "QIWI",
			IssuedAt:      issued,
		},
	}
}

func TestStores(t *testing.T) {
	stores := map[string]func(*testing.T) Store{
		"gorm":  gormStore,
		"redis": redisStore,
	}
	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			t.Run("missing key is browsing", func(t *testing.T) {
				s := open(t)
				got, err := s.Load(context.Background(), "tg:1")
				require.NoError(t, err)
				assert.Equal(t, "tg:1", got.Key)
				assert.Equal(t, Browsing, got.State)
				assert.Nil(t, got.Invoice)
			})

			t.Run("save load delete", func(t *testing.T) {
				s := open(t)
				ctx := context.Background()
				issued := time.Now().Add(-time.Minute).Truncate(time.Millisecond)
				in := withInvoice("tg:77", PaymentMethodSelected, issued)
				require.NoError(t, s.Save(ctx, in))

				got, err := s.Load(ctx, "tg:77")
				require.NoError(t, err)
				assert.Equal(t, PaymentMethodSelected, got.State)
				require.NotNil(t, got.TelegramUserID)
				assert.Equal(t, int64(77), *got.TelegramUserID)
				assert.Equal(t, uint(3), got.ProductID)
				require.NotNil(t, got.Invoice)
				assert.Equal(t, "TX-tg:77", got.Invoice.TransactionID)
				assert.True(t, got.Invoice.Amount.Equal(decimal.RequireFromString("59.99")))
				assert.True(t, got.Invoice.IssuedAt.Equal(issued))

				got.Reset()
				require.NoError(t, s.Save(ctx, got))
				got, err = s.Load(ctx, "tg:77")
				require.NoError(t, err)
				assert.Equal(t, Browsing, got.State)
				assert.Nil(t, got.Invoice)

				require.NoError(t, s.Delete(ctx, "tg:77"))
				got, err = s.Load(ctx, "tg:77")
				require.NoError(t, err)
				assert.Nil(t, got.TelegramUserID)
			})

			t.Run("list stale", func(t *testing.T) {
				s := open(t)
				ctx := context.Background()
				now := time.Now()
				require.NoError(t, s.Save(ctx, withInvoice("old", PaymentMethodSelected, now.Add(-20*time.Minute))))
				require.NoError(t, s.Save(ctx, withInvoice("pending", PaymentPending, now.Add(-30*time.Minute))))
				require.NoError(t, s.Save(ctx, withInvoice("fresh", PaymentMethodSelected, now.Add(-time.Minute))))
				require.NoError(t, s.Save(ctx, withInvoice("done", Completed, now.Add(-time.Hour))))

				stale, err := s.ListStale(ctx, now.Add(-15*time.Minute))
				require.NoError(t, err)
				var keys []string
				for _, st := range stale {
					keys = append(keys, st.Key)
				}
				assert.ElementsMatch(t, []string{"old", "pending"}, keys)
			})
		})
	}
}

func TestStateHelpers(t *testing.T) {
	assert.True(t, Completed.Terminal())
	assert.True(t, Failed.Terminal())
	assert.False(t, PaymentPending.Terminal())
	assert.True(t, PaymentPending.AwaitingPayment())
	assert.False(t, ProductSelected.AwaitingPayment())
	assert.Equal(t, "tg:42", TelegramKey(42))
	assert.Equal(t, "web:abc", WebKey("abc"))
}
