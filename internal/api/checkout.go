package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"GameStore-Telegram-bot/internal/checkout"
	"GameStore-Telegram-bot/internal/session"
)

// sessionKey привязывает сессию оформления к владельцу токена:
// чужой sessionId даёт другую, пустую сессию.
func sessionKey(userID uint, sessionID string) string {
	return fmt.Sprintf("%d:%s", userID, sessionID)
}

// customer достаёт покупателя из токена и пути. false — ответ уже записан.
func customer(w http.ResponseWriter, r *http.Request) (checkout.Customer, bool) {
	p, ok := fromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return checkout.Customer{}, false
	}
	sid := chi.URLParam(r, "session")
	if _, err := uuid.Parse(sid); err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return checkout.Customer{}, false
	}
	return checkout.WebCustomer(sessionKey(p.userID, sid), p.userID), true
}

// viewStatus сопоставляет категорию сбоя с HTTP-кодом
func viewStatus(v checkout.View) int {
	switch v.Kind {
	case "":
		return http.StatusOK
	case checkout.KindNotFound:
		return http.StatusNotFound
	case checkout.KindOutOfStock, checkout.KindInvalidTransition:
		return http.StatusConflict
	case checkout.KindPaymentFailed:
		return http.StatusPaymentRequired
	case checkout.KindValidationError:
		return http.StatusBadRequest
	case checkout.KindExpired:
		return http.StatusGone
	case checkout.KindPersistenceError:
		// оплата прошла, ключ выдаст сверка
		if v.TransactionID != "" {
			return http.StatusAccepted
		}
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeView(w http.ResponseWriter, r *http.Request, v checkout.View) {
	if err := v.Err(); err != nil {
		s.log.Info("checkout step failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeJSON(w, viewStatus(v), v)
}

type sessionResponse struct {
	SessionID string        `json:"sessionId"`
	View      checkout.View `json:"view"`
}

func (s *Server) newCheckoutSession(w http.ResponseWriter, r *http.Request) {
	p, ok := fromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	sid := uuid.NewString()
	v := s.orch.Browse(r.Context(), checkout.WebCustomer(sessionKey(p.userID, sid), p.userID))
	if v.Failed() {
		s.writeView(w, r, v)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: sid, View: v})
}

func (s *Server) checkoutState(w http.ResponseWriter, r *http.Request) {
	c, ok := customer(w, r)
	if !ok {
		return
	}
	st, err := s.orch.State(r.Context(), c.SessionKey)
	if err != nil {
		s.internalError(w, "load checkout session", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]session.State{"state": st})
}

type productRequest struct {
	ProductID uint `json:"productId"`
}

func (s *Server) checkoutProduct(w http.ResponseWriter, r *http.Request) {
	c, ok := customer(w, r)
	if !ok {
		return
	}
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == 0 {
		writeValidation(w, fieldErrors{"productId": "is required"})
		return
	}
	s.writeView(w, r, s.orch.SelectProduct(r.Context(), c, req.ProductID))
}

type paymentMethodRequest struct {
	MethodID uint   `json:"methodId"`
	Subtype  string `json:"subtype"`
}

func (s *Server) checkoutPaymentMethod(w http.ResponseWriter, r *http.Request) {
	c, ok := customer(w, r)
	if !ok {
		return
	}
	var req paymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MethodID == 0 {
		writeValidation(w, fieldErrors{"methodId": "is required"})
		return
	}
	s.writeView(w, r, s.orch.SelectPaymentMethod(r.Context(), c, req.MethodID, req.Subtype))
}

func (s *Server) checkoutConfirm(w http.ResponseWriter, r *http.Request) {
	c, ok := customer(w, r)
	if !ok {
		return
	}
	s.writeView(w, r, s.orch.ConfirmPayment(r.Context(), c))
}

func (s *Server) checkoutCancel(w http.ResponseWriter, r *http.Request) {
	c, ok := customer(w, r)
	if !ok {
		return
	}
	s.writeView(w, r, s.orch.Cancel(r.Context(), c))
}
