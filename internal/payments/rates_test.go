package payments

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSuccessRateDefaults(t *testing.T) {
	assert.Equal(t, 0.92, SuccessRate(TypeCrypto, ""))
	assert.Equal(t, 0.88, SuccessRate(TypeP2P, ""))
	assert.Equal(t, 0.95, SuccessRate(TypeCard, ""))
	assert.Equal(t, 0.95, SuccessRate("barter", "goats"))
	assert.Equal(t, 0.85, SuccessRate(TypeP2P, "YuMoney"))
}

func TestFee(t *testing.T) {
	amount := decimal.RequireFromString("59.99")
	tests := []struct {
		typ, subtype, want string
	}{
		{TypeCrypto, "BTC", "0.9"},
		{TypeCrypto, "USDT", "0.6"},
		{TypeCrypto, "", "1.2"},
		{TypeP2P, "QIWI", "1.2"},
		{TypeP2P, "", "0.9"},
		{TypeCard, "Enot", "2.4"},
		{TypeCard, "", "2.1"},
		{"barter", "", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.subtype, func(t *testing.T) {
			assert.Equal(t, tt.want, Fee(amount, tt.typ, tt.subtype).String())
		})
	}
}

func TestSubtypes(t *testing.T) {
	assert.Equal(t, []string{"BTC", "ETH", "USDT"}, Subtypes(TypeCrypto))
	assert.Empty(t, Subtypes("barter"))
	assert.True(t, ValidSubtype(TypeCard, "Enot"))
	assert.False(t, ValidSubtype(TypeCard, "QIWI"))
}
