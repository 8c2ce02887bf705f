package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/shopspring/decimal"
)

// Sign подписывает карточный платёж: hex(HMAC-SHA256(secret, "merchant:amount:orderID"))
func Sign(secret, merchant string, amount decimal.Decimal, orderID string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(merchant + ":" + amount.StringFixed(2) + ":" + orderID))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySignature проверяет подпись из колбэка платёжной системы
func VerifySignature(secret, merchant string, amount decimal.Decimal, orderID, signature string) bool {
	calc := Sign(secret, merchant, amount, orderID)
	return hmac.Equal([]byte(signature), []byte(calc))
}
