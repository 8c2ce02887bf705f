// Package api — HTTP API веб-панели: управление каталогом и заказами (роль admin), вход по JWT,
// регистрация покупателей и оформление покупки из браузера через тот же оркестратор, что и бот.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"GameStore-Telegram-bot/internal/checkout"
	"GameStore-Telegram-bot/internal/db"
)

type Server struct {
	store  *db.Storage
	orch   *checkout.Orchestrator
	tokens *Tokens
	log    *zap.Logger
}

func NewServer(store *db.Storage, orch *checkout.Orchestrator, tokens *Tokens, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{store: store, orch: orch, tokens: tokens, log: log}
}

// Router собирает все маршруты API
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.login)
		r.Post("/auth/register", s.register)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate(RoleAdmin))

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", s.listCategories)
				r.Post("/", s.createCategory)
				r.Get("/{id}", s.getCategory)
				r.Put("/{id}", s.updateCategory)
				r.Delete("/{id}", s.deleteCategory)
			})
			r.Route("/products", func(r chi.Router) {
				r.Get("/", s.listProducts)
				r.Post("/", s.createProduct)
				r.Get("/{id}", s.getProduct)
				r.Put("/{id}", s.updateProduct)
				r.Delete("/{id}", s.deleteProduct)
			})
			r.Route("/payment-methods", func(r chi.Router) {
				r.Get("/", s.listPaymentMethods)
				r.Post("/", s.createPaymentMethod)
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", s.listOrders)
				r.Get("/{id}", s.getOrder)
				r.Put("/{id}", s.updateOrder)
			})
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Use(s.authenticate(""))
			r.Post("/sessions", s.newCheckoutSession)
			r.Route("/{session}", func(r chi.Router) {
				r.Get("/", s.checkoutState)
				r.Post("/product", s.checkoutProduct)
				r.Post("/payment-method", s.checkoutPaymentMethod)
				r.Post("/confirm", s.checkoutConfirm)
				r.Post("/cancel", s.checkoutCancel)
			})
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := s.store.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		s.log.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger пишет в zap метод, путь, код ответа и длительность каждого запроса
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.log.Error("request failed", zap.String("op", op), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}
