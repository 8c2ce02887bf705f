package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"GameStore-Telegram-bot/internal/checkout"
	"GameStore-Telegram-bot/internal/db"
	"GameStore-Telegram-bot/internal/db/dbtest"
	"GameStore-Telegram-bot/internal/payments"
	"GameStore-Telegram-bot/internal/session"
)

const testSecret = "test-secret"

type approvingGateway struct {
	*payments.Simulator
}

func (g approvingGateway) Settle(_ context.Context, inv payments.Invoice) payments.Outcome {
	return payments.Outcome{Success: true, TransactionID: inv.TransactionID, Fee: inv.Fee}
}

type env struct {
	store   *db.Storage
	handler http.Handler
	tokens  *Tokens
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := dbtest.Seeded(t)
	sessions, err := session.NewGormStore(store.DB)
	require.NoError(t, err)
	gw := approvingGateway{payments.NewSimulator(rand.New(rand.NewSource(1)), 0, "secret", nil)}
	orch := checkout.New(store, sessions, gw, nil, zap.NewNop(), checkout.Options{})
	tokens := NewTokens(testSecret)
	return &env{
		store:   store,
		handler: NewServer(store, orch, tokens, zap.NewNop()).Router(),
		tokens:  tokens,
	}
}

// token заводит пользователя с ролью и выписывает ему токен
func (e *env) token(t *testing.T, username, role string) string {
	t.Helper()
	u, err := e.store.CreateUser(t.Context(), username, "password", role)
	require.NoError(t, err)
	tok, _, err := e.tokens.Issue(u)
	require.NoError(t, err)
	return tok
}

func (e *env) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
