package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"GameStore-Telegram-bot/internal/db"
)

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	var (
		orders []db.Order
		err    error
	)
	if raw := r.URL.Query().Get("userId"); raw != "" {
		id, perr := strconv.ParseUint(raw, 10, 32)
		if perr != nil {
			writeValidation(w, fieldErrors{"userId": "must be a number"})
			return
		}
		orders, err = s.store.GetUserOrders(r.Context(), uint(id))
	} else {
		orders, err = s.store.ListOrders(r.Context())
	}
	if err != nil {
		s.internalError(w, "list orders", err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	o, err := s.store.GetOrder(r.Context(), id)
	if s.notFoundOrError(w, "get order", err) {
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// updateOrder меняет только статусы и ключ; остальные поля заказа неизменны
func (s *Server) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var req db.OrderUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	f := fieldErrors{}
	if req.PaymentStatus != nil && !db.ValidPaymentStatus(*req.PaymentStatus) {
		f.add("paymentStatus", "must be one of pending, completed, failed")
	}
	if req.DeliveryStatus != nil && !db.ValidDeliveryStatus(*req.DeliveryStatus) {
		f.add("deliveryStatus", "must be one of pending, delivered, failed")
	}
	if len(f) > 0 {
		writeValidation(w, f)
		return
	}
	o, err := s.store.UpdateOrder(r.Context(), id, req)
	if s.notFoundOrError(w, "update order", err) {
		return
	}
	writeJSON(w, http.StatusOK, o)
}
