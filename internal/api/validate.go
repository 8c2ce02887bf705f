package api

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"GameStore-Telegram-bot/internal/db"
)

var maxPrice = decimal.RequireFromString("999999.99")

// fieldErrors — ошибки валидации по полям, уходят клиенту как 400
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func writeValidation(w http.ResponseWriter, f fieldErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":  "validation failed",
		"fields": f,
	})
}

func checkName(f fieldErrors, name *string) {
	if name != nil && strings.TrimSpace(*name) == "" {
		f.add("name", "must not be empty")
	}
}

func checkPrice(f fieldErrors, field string, price *decimal.Decimal) {
	if price == nil {
		return
	}
	if !price.IsPositive() {
		f.add(field, "must be greater than 0")
	}
	if price.GreaterThan(maxPrice) {
		f.add(field, "must not exceed 999999.99")
	}
}

func checkStock(f fieldErrors, stock *int) {
	if stock != nil && *stock < 0 {
		f.add("stock", "must not be negative")
	}
}

func checkStatus(f fieldErrors, status *db.ProductStatus) {
	if status != nil && !status.Valid() {
		f.add("status", "must be one of active, out_of_stock, hidden")
	}
}

// validateProduct проверяет заданные поля; nil-поля не проверяются
func validateProduct(u db.ProductUpdate) fieldErrors {
	f := fieldErrors{}
	checkName(f, u.Name)
	checkPrice(f, "price", u.Price)
	checkPrice(f, "originalPrice", u.OriginalPrice)
	checkStock(f, u.Stock)
	checkStatus(f, u.Status)
	return f
}
