package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"GameStore-Telegram-bot/internal/db"
)

const (
	TokenTTL  = 12 * time.Hour
	RoleAdmin = db.RoleAdmin

	minPasswordLen = 8
	maxUsernameLen = 32
)

var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Tokens выдаёт и проверяет JWT (HS256) для веб-панели
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: TokenTTL, now: time.Now}
}

func (t *Tokens) Issue(u db.User) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: u.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	return signed, exp, err
}

// Parse проверяет подпись и срок действия, возвращает id пользователя и роль
func (t *Tokens) Parse(token string) (uint, string, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, "", ErrInvalidToken
	}
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil || id == 0 {
		return 0, "", ErrInvalidToken
	}
	return uint(id), c.Role, nil
}

type ctxKey struct{}

type principal struct {
	userID uint
	role   string
}

func fromContext(ctx context.Context) (principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(principal)
	return p, ok
}

// authenticate пропускает запросы с действующим Bearer-токеном существующего пользователя.
// Если role не пуста, у пользователя должна быть эта роль.
func (s *Server) authenticate(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			userID, _, err := s.tokens.Parse(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			// роль берём из базы: удалённый аккаунт или снятая роль действуют сразу
			u, err := s.store.GetUser(r.Context(), userID)
			if errors.Is(err, db.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if err != nil {
				s.internalError(w, "get user", err)
				return
			}
			if role != "" && u.Role != role {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKey{}, principal{userID: u.ID, role: u.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := s.store.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, db.ErrInvalidCredentials) {
		s.log.Info("failed login", zap.String("username", req.Username))
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		s.internalError(w, "authenticate", err)
		return
	}
	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		s.internalError(w, "issue token", err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: exp})
}

// register заводит аккаунт покупателя и сразу выдаёт токен для оформления заказов
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	f := fieldErrors{}
	if n := len(req.Username); n < 3 || n > maxUsernameLen {
		f.add("username", "must be 3 to 32 characters")
	}
	if len(req.Password) < minPasswordLen {
		f.add("password", "must be at least 8 characters")
	}
	if len(f) > 0 {
		writeValidation(w, f)
		return
	}
	u, err := s.store.CreateUser(r.Context(), req.Username, req.Password, db.RoleCustomer)
	if errors.Is(err, db.ErrUsernameTaken) {
		writeError(w, http.StatusConflict, "username already taken")
		return
	}
	if err != nil {
		s.internalError(w, "create user", err)
		return
	}
	s.log.Info("customer registered", zap.Uint("user_id", u.ID))
	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		s.internalError(w, "issue token", err)
		return
	}
	writeJSON(w, http.StatusCreated, loginResponse{Token: token, ExpiresAt: exp})
}
