package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GameStore-Telegram-bot/internal/db"
)

func seedOrder(t *testing.T, e *env, userID uint, tx string) db.Order {
	t.Helper()
	uid := userID
	o := db.Order{
		UserID:          &uid,
		ProductID:       1,
		ProductName:     "Cyberpunk 2077",
		TotalAmount:     decimal.RequireFromString("29.99"),
		PaymentMethodID: 1,
		TransactionID:   tx,
		Date:            time.Now(),
	}
	require.NoError(t, e.store.CreateOrder(t.Context(), &o))
	return o
}

func TestListOrders(t *testing.T) {
	e := newEnv(t)
	admin := e.token(t, "root", RoleAdmin)
	seedOrder(t, e, 10, "TX-1")
	seedOrder(t, e, 11, "TX-2")

	rec := e.do(t, http.MethodGet, "/api/orders", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []db.Order
	decode(t, rec, &orders)
	assert.Len(t, orders, 2)

	rec = e.do(t, http.MethodGet, "/api/orders?userId=11", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &orders)
	require.Len(t, orders, 1)
	assert.Equal(t, "TX-2", orders[0].TransactionID)
}

func TestUpdateOrderStatuses(t *testing.T) {
	e := newEnv(t)
	admin := e.token(t, "root", RoleAdmin)
	o := seedOrder(t, e, 10, "TX-1")
	path := "/api/orders/" + itoa(o.ID)

	rec := e.do(t, http.MethodPut, path, admin, map[string]string{"paymentStatus": "refunded"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp validationResponse
	decode(t, rec, &resp)
	assert.Contains(t, resp.Fields, "paymentStatus")

	rec = e.do(t, http.MethodPut, path, admin, map[string]string{
		"paymentStatus":  db.PaymentCompleted,
		"deliveryStatus": db.DeliveryDelivered,
		"productKey":     "ABCD-EFGH",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &o)
	assert.Equal(t, db.PaymentCompleted, o.PaymentStatus)
	assert.Equal(t, db.DeliveryDelivered, o.DeliveryStatus)
	require.NotNil(t, o.ProductKey)
	assert.Equal(t, "ABCD-EFGH", *o.ProductKey)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPut, "/api/orders/999", admin, map[string]string{}).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/orders/999", admin, nil).Code)
}
