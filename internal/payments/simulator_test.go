package payments

import (
	"context"
	"math"
	"math/rand"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSim(seed int64) *Simulator {
	return NewSimulator(rand.New(rand.NewSource(seed)), 0, "secret", nil)
}

func TestTransactionIDFormat(t *testing.T) {
	id := NewTransactionID(time.UnixMilli(1700000000123))
	assert.Regexp(t, regexp.MustCompile(`^TX-1700000000123-[0-9a-f]{8}$`), id)
	assert.NotEqual(t, id, NewTransactionID(time.UnixMilli(1700000000123)))
}

func TestSimulateDeterministicWithSeed(t *testing.T) {
	req := Request{Amount: decimal.RequireFromString("59.99"), Type: TypeP2P, Subtype: "YuMoney"}
	run := func() []bool {
		sim := newSim(42)
		var res []bool
		for i := 0; i < 50; i++ {
			res = append(res, Simulate(context.Background(), sim, req).Success)
		}
		return res
	}
	assert.Equal(t, run(), run())
}

func TestSimulateSuccessRates(t *testing.T) {
	tests := []struct {
		typ, subtype string
		rate         float64
	}{
		{TypeCrypto, "BTC", 0.92},
		{TypeCrypto, "ETH", 0.90},
		{TypeCrypto, "USDT", 0.95},
		{TypeP2P, "QIWI", 0.88},
		{TypeP2P, "YuMoney", 0.85},
		{TypeCard, "FreeKassa", 0.95},
		{TypeCard, "Enot", 0.93},
	}
	const trials = 10000
	for _, tt := range tests {
		t.Run(tt.subtype, func(t *testing.T) {
			sim := newSim(7)
			req := Request{Amount: decimal.NewFromInt(10), Type: tt.typ, Subtype: tt.subtype}
			ok := 0
			for i := 0; i < trials; i++ {
				if Simulate(context.Background(), sim, req).Success {
					ok++
				}
			}
			// 4 сигмы для биномиального распределения
			sigma := math.Sqrt(tt.rate * (1 - tt.rate) / trials)
			assert.InDelta(t, tt.rate, float64(ok)/trials, 4*sigma)
		})
	}
}

func TestSimulateOutcomeFields(t *testing.T) {
	sim := newSim(1)
	amount := decimal.RequireFromString("100.00")
	var success, failure Outcome
	for i := 0; i < 200 && (success.TransactionID == "" || failure.Message == ""); i++ {
		out := Simulate(context.Background(), sim, Request{Amount: amount, Type: TypeCrypto, Subtype: "ETH"})
		if out.Success {
			success = out
		} else {
			failure = out
		}
	}
	require.NotEmpty(t, success.TransactionID)
	assert.Equal(t, "ETH payment confirmed", success.Message)
	assert.Equal(t, "0x71C7656EC7ab88b098defB751B7401B5f6d8976F", success.Artifact.Address)
	assert.Equal(t, "eth:0x71C7656EC7ab88b098defB751B7401B5f6d8976F?amount=100.00", success.Artifact.URI)
	assert.Equal(t, "2", success.Fee.String())

	require.NotEmpty(t, failure.Message)
	assert.True(t, strings.HasPrefix(failure.Message, "ETH payment not detected"))
	assert.False(t, failure.Expired)
}

func TestSimulateUnsupported(t *testing.T) {
	sim := newSim(1)
	out := Simulate(context.Background(), sim, Request{Amount: decimal.NewFromInt(5), Type: "wire"})
	assert.False(t, out.Success)
	assert.Equal(t, MsgUnsupportedMethod, out.Message)

	out = Simulate(context.Background(), sim, Request{Amount: decimal.NewFromInt(5), Type: TypeCrypto, Subtype: "DOGE"})
	assert.Equal(t, MsgUnsupportedMethod, out.Message)

	out = Simulate(context.Background(), sim, Request{Amount: decimal.Zero, Type: TypeCrypto})
	assert.Equal(t, MsgGenericFailure, out.Message)
}

func TestCheckoutDefaultSubtype(t *testing.T) {
	sim := newSim(1)
	inv, err := sim.Checkout(context.Background(), Request{Amount: decimal.NewFromInt(100), Type: TypeCard})
	require.NoError(t, err)
	assert.Equal(t, "FreeKassa", inv.Subtype)
	assert.Equal(t, "3.5", inv.Fee.String())
	assert.Equal(t, "fk_m12345", inv.Artifact.Merchant)
	assert.True(t, strings.HasPrefix(inv.Artifact.URL, "https://pay.freekassa.ru/?"))
	assert.True(t, VerifySignature("secret", "fk_m12345", inv.Amount, inv.TransactionID, inv.Artifact.Signature))
}

// комиссия берётся по варианту, подставленному по умолчанию, а не по типу
func TestCheckoutDefaultSubtypeFee(t *testing.T) {
	inv, err := newSim(1).Checkout(context.Background(), Request{Amount: decimal.NewFromInt(100), Type: TypeCrypto})
	require.NoError(t, err)
	assert.Equal(t, "BTC", inv.Subtype)
	assert.Equal(t, "1.5", inv.Fee.String())
}

func TestSettleCancelled(t *testing.T) {
	sim := NewSimulator(rand.New(rand.NewSource(1)), time.Minute, "secret", nil)
	inv, err := sim.Checkout(context.Background(), Request{Amount: decimal.NewFromInt(10), Type: TypeCrypto})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	out := sim.Settle(ctx, inv)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.False(t, out.Success)
	assert.True(t, out.Expired)
	assert.Equal(t, inv.TransactionID, out.TransactionID)
}

func TestSettleRecoversPanic(t *testing.T) {
	sim := newSim(1)
	sim.rnd = nil // draw() паникует
	out := sim.Settle(context.Background(), Invoice{TransactionID: "TX-1", Type: TypeCrypto, Subtype: "BTC"})
	assert.False(t, out.Success)
	assert.Equal(t, MsgGenericFailure, out.Message)
}
