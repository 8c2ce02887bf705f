package checkout

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"GameStore-Telegram-bot/internal/db"
	"GameStore-Telegram-bot/internal/db/dbtest"
	"GameStore-Telegram-bot/internal/payments"
	"GameStore-Telegram-bot/internal/session"
)

// Сидовые идентификаторы
const (
	cyberpunkID = 1
	cryptoID    = 1
	qiwiID      = 2
	steamID     = 1
)

// forcedGateway выставляет настоящие счета, но исход подтверждения задан тестом
type forcedGateway struct {
	*payments.Simulator
	mu      sync.Mutex
	success bool
	settled int
}

func newForcedGateway(success bool) *forcedGateway {
	return &forcedGateway{
		Simulator: payments.NewSimulator(rand.New(rand.NewSource(1)), 0, "secret", nil),
		success:   success,
	}
}

func (g *forcedGateway) Settle(ctx context.Context, inv payments.Invoice) payments.Outcome {
	g.mu.Lock()
	g.settled++
	ok := g.success
	g.mu.Unlock()
	if !ok {
		return payments.Outcome{Message: "USDT payment not detected", TransactionID: inv.TransactionID}
	}
	return payments.Outcome{Success: true, Message: "confirmed", TransactionID: inv.TransactionID, Fee: inv.Fee}
}

type failingStore struct {
	*db.Storage
	err error
}

func (f failingStore) Fulfil(context.Context, *db.Order) error { return f.err }

type recorder struct {
	mu        sync.Mutex
	alerts    []string
	delivered []db.Order
	expired   []int64
}

func (r *recorder) NotifyAdmin(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, msg)
}

func (r *recorder) KeyDelivered(_ context.Context, _ int64, o db.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, o)
}

func (r *recorder) PaymentExpired(_ context.Context, tg int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expired = append(r.expired, tg)
}

type fixture struct {
	db       *db.Storage
	sessions session.Store
	gateway  payments.Gateway
	rec      *recorder
	orch     *Orchestrator
}

func newFixture(t *testing.T, gateway payments.Gateway) *fixture {
	t.Helper()
	s := dbtest.Seeded(t)
	sessions, err := session.NewGormStore(s.DB)
	require.NoError(t, err)
	f := &fixture{db: s, sessions: sessions, gateway: gateway, rec: &recorder{}}
	f.orch = New(s, sessions, gateway, f.rec, zap.NewNop(), Options{})
	return f
}

func (f *fixture) withStore(store Store) *Orchestrator {
	return New(store, f.sessions, f.gateway, f.rec, zap.NewNop(), Options{})
}

func (f *fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	p, err := f.db.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) orders(t *testing.T) []db.Order {
	t.Helper()
	orders, err := f.db.ListOrders(context.Background())
	require.NoError(t, err)
	return orders
}

// toMethodSelected доводит покупателя до выставленного счёта
func toMethodSelected(t *testing.T, o *Orchestrator, c Customer, productID, methodID uint, subtype string) View {
	t.Helper()
	ctx := context.Background()
	v := o.SelectProduct(ctx, c, productID)
	require.False(t, v.Failed(), "select product: %s", v.Message)
	v = o.SelectPaymentMethod(ctx, c, methodID, subtype)
	require.False(t, v.Failed(), "select method: %s", v.Message)
	require.Equal(t, session.PaymentMethodSelected, v.State)
	return v
}

var errDiskFull = errors.New("disk full")

// flakySessions не может записать сессию в состоянии failState,
// а с failDelete ещё и удалить её
type flakySessions struct {
	session.Store
	failState  session.State
	failDelete bool
}

func (f flakySessions) Save(ctx context.Context, s session.Session) error {
	if s.State == f.failState {
		return errDiskFull
	}
	return f.Store.Save(ctx, s)
}

func (f flakySessions) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return errDiskFull
	}
	return f.Store.Delete(ctx, key)
}

func (f *fixture) withSessions(store Store, sessions session.Store) *Orchestrator {
	return New(store, sessions, f.gateway, f.rec, zap.NewNop(), Options{})
}
