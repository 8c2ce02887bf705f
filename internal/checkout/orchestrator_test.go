package checkout

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"GameStore-Telegram-bot/internal/db"
	"GameStore-Telegram-bot/internal/payments"
	"GameStore-Telegram-bot/internal/session"
)

func TestSuccessfulPurchase(t *testing.T) {
	f := newFixture(t, newForcedGateway(true))
	ctx := context.Background()
	c := TelegramCustomer(1001)

	v := toMethodSelected(t, f.orch, c, cyberpunkID, cryptoID, "USDT")
	require.NotNil(t, v.Invoice)
	assert.Equal(t, "USDT", v.Subtype)
	assert.Equal(t, "TKwVfboPMpCnidJQbh4RG8uptgYVjFeYKf", v.Invoice.Artifact.Address)

	v = f.orch.ConfirmPayment(ctx, c)
	require.False(t, v.Failed(), v.Message)
	assert.Equal(t, session.Completed, v.State)
	require.NotNil(t, v.Receipt)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{4}(-[0-9A-F]{4}){4}$`), v.Receipt.Key)

	orders := f.orders(t)
	require.Len(t, orders, 1)
	o := orders[0]
	assert.Equal(t, "59.99", o.TotalAmount.StringFixed(2))
	assert.Equal(t, db.PaymentCompleted, o.PaymentStatus)
	assert.Equal(t, db.DeliveryDelivered, o.DeliveryStatus)
	require.NotNil(t, o.ProductKey)
	assert.Equal(t, v.Receipt.Key, *o.ProductKey)
	require.NotNil(t, o.TelegramUserID)
	assert.Equal(t, int64(1001), *o.TelegramUserID)
	assert.Nil(t, o.UserID)
	assert.Equal(t, "USDT", o.PaymentSubtype)
	assert.Equal(t, v.Receipt.OrderID, o.ID)

	assert.Equal(t, 9, f.stock(t, cyberpunkID))

	state, err := f.orch.State(ctx, c.SessionKey)
	require.NoError(t, err)
	assert.Equal(t, session.Completed, state)
}

func TestSelectProductIdempotent(t *testing.T) {
	f := newFixture(t, newForcedGateway(true))
	ctx := context.Background()
	c := TelegramCustomer(1)

	first := f.orch.SelectProduct(ctx, c, cyberpunkID)
	second := f.orch.SelectProduct(ctx, c, cyberpunkID)
	assert.Equal(t, session.ProductSelected, first.State)
	assert.Equal(t, first, second)
	assert.Len(t, first.Methods, 4)
	assert.Equal(t, 10, f.stock(t, cyberpunkID))
	assert.Empty(t, f.orders(t))
}

func TestSelectOutOfStockProduct(t *testing.T) {
	f := newFixture(t, newForcedGateway(true))
	ctx := context.Background()
	p := db.Product{Name: "God of War", Price: decimal.RequireFromString("19.99"), CategoryID: 2, Platform: "PS4/PS5", Region: "Global", Status: db.ProductOutOfStock}
	require.NoError(t, f.db.CreateProduct(ctx, &p))
	c := TelegramCustomer(1)

	v := f.orch.SelectProduct(ctx, c, p.ID)
	assert.Equal(t, KindOutOfStock, v.Kind)
	assert.Equal(t, session.Browsing, v.State)
	assert.Equal(t, NextMainMenu, v.Next)

	state, err := f.orch.State(ctx, c.SessionKey)
	require.NoError(t, err)
	assert.Equal(t, session.Browsing, state)

	v = f.orch.SelectProduct(ctx, c, 999)
	assert.Equal(t, KindNotFound, v.Kind)
}

func TestPaymentFailureReturnsToMethodSelection(t *testing.T) {
	f := newFixture(t, newForcedGateway(false))
	ctx := context.Background()
	c := TelegramCustomer(7)

	before := toMethodSelected(t, f.orch, c, cyberpunkID, cryptoID, "USDT")
	v := f.orch.ConfirmPayment(ctx, c)

	assert.Equal(t, KindPaymentFailed, v.Kind)
	assert.Equal(t, session.Failed, v.State)
	assert.Equal(t, NextRetry, v.Next)
	assert.Equal(t, "USDT payment not detected", v.Message)
	require.NotNil(t, v.Invoice)
	assert.NotEqual(t, before.Invoice.TransactionID, v.Invoice.TransactionID)

	assert.Empty(t, f.orders(t))
	assert.Equal(t, 10, f.stock(t, cyberpunkID))
	state, err := f.orch.State(ctx, c.SessionKey)
	require.NoError(t, err)
	assert.Equal(t, session.PaymentMethodSelected, state)

	// повтор с тем же счётом разрешён
	v = f.orch.ConfirmPayment(ctx, c)
	assert.Equal(t, KindPaymentFailed, v.Kind)
}

func TestConcurrentConfirmLastUnit(t *testing.T) {
	f := newFixture(t, newForcedGateway(true))
	ctx := context.Background()
	p := db.Product{Name: "Last Copy", Price: decimal.RequireFromString("9.99"), Stock: 1, CategoryID: steamID, Platform: "Steam", Region: "Global"}
	require.NoError(t, f.db.CreateProduct(ctx, &p))

	alice, bob := TelegramCustomer(1), TelegramCustomer(2)
	toMethodSelected(t, f.orch, alice, p.ID, qiwiID, "")
	toMethodSelected(t, f.orch, bob, p.ID, qiwiID, "")

	views := make([]View, 2)
	var wg sync.WaitGroup
	for i, c := range []Customer{alice, bob} {
		wg.Add(1)
		go func(i int, c Customer) {
			defer wg.Done()
			views[i] = f.orch.ConfirmPayment(ctx, c)
		}(i, c)
	}
	wg.Wait()

	var completed, soldOut int
	for _, v := range views {
		switch {
		case v.State == session.Completed:
			completed++
		case v.Kind == KindOutOfStock:
			soldOut++
		}
	}
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, soldOut)

	orders := f.orders(t)
	require.Len(t, orders, 1)
	assert.Equal(t, db.DeliveryDelivered, orders[0].DeliveryStatus)
	assert.Equal(t, 0, f.stock(t, p.ID))

	refunds, err := f.db.ListIssues(ctx, db.IssueNeedsRefund)
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	assert.Equal(t, db.IssueOutOfStock, refunds[0].Reason)
	assert.Len(t, f.rec.alerts, 1)
}

func TestPersistenceErrorQueuesIssue(t *testing.T) {
	f := newFixture(t, newForcedGateway(true))
	ctx := context.Background()
	orch := f.withStore(failingStore{Storage: f.db, err: errDiskFull})
	c := TelegramCustomer(55)

	toMethodSelected(t, orch, c, cyberpunkID, qiwiID, "")
	v := orch.ConfirmPayment(ctx, c)

	assert.Equal(t, KindPersistenceError, v.Kind)
	assert.Equal(t, session.Failed, v.State)
	assert.NotEmpty(t, v.TransactionID)
	assert.Equal(t, NextMainMenu, v.Next)

	pending, err := f.db.ListIssues(ctx, db.IssuePending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, v.TransactionID, pending[0].TransactionID)
	assert.Equal(t, db.IssuePersistence, pending[0].Reason)
	assert.Equal(t, "disk full", pending[0].LastError)
	require.NotNil(t, pending[0].TelegramUserID)
	assert.Equal(t, int64(55), *pending[0].TelegramUserID)

	assert.Len(t, f.rec.alerts, 1)
	assert.Empty(t, f.orders(t))
	assert.Equal(t, 10, f.stock(t, cyberpunkID))
}

func TestConfirmExpiredInvoice(t *testing.T) {
	gw := newForcedGateway(true)
	f := newFixture(t, gw)
	ctx := context.Background()
	c := TelegramCustomer(3)

	toMethodSelected(t, f.orch, c, cyberpunkID, cryptoID, "BTC")
	f.orch.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	v := f.orch.ConfirmPayment(ctx, c)
	assert.Equal(t, KindExpired, v.Kind)
	assert.Equal(t, session.Failed, v.State)
	assert.Zero(t, gw.settled)
	assert.Empty(t, f.orders(t))
}

func TestSettleTimeout(t *testing.T) {
	slow := payments.NewSimulator(rand.New(rand.NewSource(1)), time.Minute, "secret", nil)
	f := newFixture(t, slow)
	orch := New(f.db, f.sessions, slow, f.rec, zap.NewNop(), Options{PaymentTimeout: 20 * time.Millisecond})
	ctx := context.Background()
	c := TelegramCustomer(4)

	toMethodSelected(t, orch, c, cyberpunkID, cryptoID, "ETH")
	start := time.Now()
	v := orch.ConfirmPayment(ctx, c)
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Equal(t, KindExpired, v.Kind)

	state, err := orch.State(ctx, c.SessionKey)
	require.NoError(t, err)
	assert.Equal(t, session.Failed, state)
	assert.Equal(t, 10, f.stock(t, cyberpunkID))
}

func TestInvalidTransitions(t *testing.T) {
	f := newFixture(t, newForcedGateway(true))
	ctx := context.Background()
	c := TelegramCustomer(8)

	v := f.orch.ConfirmPayment(ctx, c)
	assert.Equal(t, KindInvalidTransition, v.Kind)
	assert.Equal(t, session.Browsing, v.State)
	assert.ErrorIs(t, v.Err(), ErrInvalidTransition)

	v = f.orch.SelectPaymentMethod(ctx, c, cryptoID, "BTC")
	assert.Equal(t, KindInvalidTransition, v.Kind)
	assert.NoError(t, f.orch.Browse(ctx, c).Err())
	assert.NotErrorIs(t, f.orch.SelectProduct(ctx, c, 999).Err(), ErrInvalidTransition)

	// застрявшая оплата блокирует выбор и отмену
	tg := int64(8)
	require.NoError(t, f.sessions.Save(ctx, session.Session{Key: c.SessionKey, State: session.PaymentPending, TelegramUserID: &tg}))
	assert.Equal(t, KindInvalidTransition, f.orch.SelectProduct(ctx, c, cyberpunkID).Kind)
	assert.Equal(t, KindInvalidTransition, f.orch.Cancel(ctx, c).Kind)
	assert.Equal(t, session.PaymentPending, f.orch.Cancel(ctx, c).State)
}

func TestSelectPaymentMethodValidation(t *testing.T) {
	f := newFixture(t, newForcedGateway(true))
	ctx := context.Background()
	c := TelegramCustomer(9)
	f.orch.SelectProduct(ctx, c, cyberpunkID)

	v := f.orch.SelectPaymentMethod(ctx, c, cryptoID, "")
	assert.False(t, v.Failed())
	assert.Equal(t, session.ProductSelected, v.State)
	assert.Equal(t, []string{"BTC", "ETH", "USDT"}, v.Subtypes)

	v = f.orch.SelectPaymentMethod(ctx, c, cryptoID, "DOGE")
	assert.Equal(t, KindValidationError, v.Kind)
	assert.Equal(t, NextChangeMethod, v.Next)

	v = f.orch.SelectPaymentMethod(ctx, c, 99, "")
	assert.Equal(t, KindNotFound, v.Kind)
	assert.Equal(t, session.ProductSelected, v.State)

	// фиксированный вариант способа важнее переданного
	v = f.orch.SelectPaymentMethod(ctx, c, qiwiID, "YuMoney")
	require.False(t, v.Failed())
	assert.Equal(t, "QIWI", v.Subtype)
	assert.Equal(t, "1.2", v.Invoice.Fee.String())
}

func TestCancelClearsSession(t *testing.T) {
	f := newFixture(t, newForcedGateway(true))
	ctx := context.Background()
	c := TelegramCustomer(10)
	toMethodSelected(t, f.orch, c, cyberpunkID, qiwiID, "")

	v := f.orch.Cancel(ctx, c)
	assert.False(t, v.Failed())
	assert.Equal(t, session.Browsing, v.State)
	assert.Len(t, v.Categories, 5)

	state, err := f.orch.State(ctx, c.SessionKey)
	require.NoError(t, err)
	assert.Equal(t, session.Browsing, state)
}

func TestTerminalStateReturnsThroughBrowsing(t *testing.T) {
	f := newFixture(t, newForcedGateway(true))
	ctx := context.Background()
	c := TelegramCustomer(11)
	toMethodSelected(t, f.orch, c, cyberpunkID, qiwiID, "")
	require.Equal(t, session.Completed, f.orch.ConfirmPayment(ctx, c).State)

	assert.Equal(t, KindInvalidTransition, f.orch.ConfirmPayment(ctx, c).Kind)

	v := f.orch.SelectProduct(ctx, c, cyberpunkID)
	assert.False(t, v.Failed())
	assert.Equal(t, session.ProductSelected, v.State)

	v = f.orch.Browse(ctx, c)
	assert.Equal(t, session.Browsing, v.State)
	assert.Len(t, v.Categories, 5)
}

func TestCategoryPagination(t *testing.T) {
	f := newFixture(t, newForcedGateway(true))
	ctx := context.Background()
	cat := db.Category{Name: "Indie", Icon: "🎮"}
	require.NoError(t, f.db.CreateCategory(ctx, &cat))
	for i := 0; i < 7; i++ {
		p := db.Product{Name: fmt.Sprintf("Game %d", i), Price: decimal.NewFromInt(5), Stock: 1, CategoryID: cat.ID, Platform: "Steam", Region: "Global"}
		require.NoError(t, f.db.CreateProduct(ctx, &p))
	}
	hidden := db.Product{Name: "Hidden", Price: decimal.NewFromInt(5), Stock: 1, CategoryID: cat.ID, Platform: "Steam", Region: "Global", Status: db.ProductHidden}
	require.NoError(t, f.db.CreateProduct(ctx, &hidden))
	c := TelegramCustomer(12)

	v := f.orch.Category(ctx, c, cat.ID, 1)
	assert.Equal(t, 2, v.Pages)
	assert.Len(t, v.Products, 5)
	assert.Equal(t, "Game 0", v.Products[0].Name)

	v = f.orch.Category(ctx, c, cat.ID, 2)
	assert.Len(t, v.Products, 2)
	assert.Equal(t, "Game 6", v.Products[1].Name)

	v = f.orch.Category(ctx, c, cat.ID, 40)
	assert.Equal(t, 2, v.Page)

	v = f.orch.Category(ctx, c, 4, 1) // Origin, пусто
	assert.Empty(t, v.Products)
	assert.Equal(t, 1, v.Pages)

	assert.Equal(t, KindNotFound, f.orch.Category(ctx, c, 999, 1).Kind)
}

func TestWebCustomerOrder(t *testing.T) {
	f := newFixture(t, newForcedGateway(true))
	ctx := context.Background()
	c := WebCustomer("abc", 42)
	toMethodSelected(t, f.orch, c, cyberpunkID, cryptoID, "BTC")
	v := f.orch.ConfirmPayment(ctx, c)
	require.Equal(t, session.Completed, v.State)

	orders, err := f.db.GetUserOrders(ctx, 42)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Nil(t, orders[0].TelegramUserID)
}
