package payments

import "github.com/shopspring/decimal"

// вариант по умолчанию для каждого типа идёт первым
var subtypes = map[string][]string{
	TypeCrypto: {"BTC", "ETH", "USDT"},
	TypeP2P:    {"QIWI", "YuMoney"},
	TypeCard:   {"FreeKassa", "Enot"},
}

var successRates = map[string]map[string]float64{
	TypeCrypto: {"BTC": 0.92, "ETH": 0.90, "USDT": 0.95},
	TypeP2P:    {"QIWI": 0.88, "YuMoney": 0.85},
	TypeCard:   {"FreeKassa": 0.95, "Enot": 0.93},
}

const defaultSuccessRate = 0.95

var feeRates = map[string]map[string]string{
	TypeCrypto: {"BTC": "0.015", "ETH": "0.02", "USDT": "0.01"},
	TypeP2P:    {"QIWI": "0.02", "YuMoney": "0.015"},
	TypeCard:   {"FreeKassa": "0.035", "Enot": "0.04"},
}

// комиссия, когда вариант не выбран
var typeFeeRates = map[string]string{
	TypeCrypto: "0.02",
	TypeP2P:    "0.015",
	TypeCard:   "0.035",
}

func Subtypes(methodType string) []string {
	return append([]string(nil), subtypes[methodType]...)
}

func DefaultSubtype(methodType string) string {
	if v := subtypes[methodType]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func ValidSubtype(methodType, subtype string) bool {
	_, ok := successRates[methodType][subtype]
	return ok
}

// SuccessRate — вероятность успешного подтверждения. Без варианта берётся вариант
// по умолчанию, для неизвестного типа 0.95.
func SuccessRate(methodType, subtype string) float64 {
	rates, ok := successRates[methodType]
	if !ok {
		return defaultSuccessRate
	}
	if subtype == "" {
		subtype = DefaultSubtype(methodType)
	}
	if r, ok := rates[subtype]; ok {
		return r
	}
	return rates[DefaultSubtype(methodType)]
}

func FeeRate(methodType, subtype string) decimal.Decimal {
	if r, ok := feeRates[methodType][subtype]; ok {
		return decimal.RequireFromString(r)
	}
	if r, ok := typeFeeRates[methodType]; ok {
		return decimal.RequireFromString(r)
	}
	return decimal.Zero
}

// Fee — комиссия в валюте заказа, округлённая до копеек
func Fee(amount decimal.Decimal, methodType, subtype string) decimal.Decimal {
	return amount.Mul(FeeRate(methodType, subtype)).Round(2)
}
