package bot

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"GameStore-Telegram-bot/internal/checkout"
	"GameStore-Telegram-bot/internal/db"
	"GameStore-Telegram-bot/internal/db/dbtest"
	"GameStore-Telegram-bot/internal/payments"
	"GameStore-Telegram-bot/internal/session"
)

const (
	buyerID int64 = 1001
	adminID int64 = 42
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	answered int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdates(tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	return nil, nil
}

func (f *fakeAPI) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

// approvingGateway выставляет настоящие счета и всегда подтверждает оплату
type approvingGateway struct {
	*payments.Simulator
}

func (g approvingGateway) Settle(_ context.Context, inv payments.Invoice) payments.Outcome {
	return payments.Outcome{Success: true, TransactionID: inv.TransactionID, Fee: inv.Fee}
}

type fakeAdmin struct {
	handled []string
}

func (a *fakeAdmin) IsAdmin(id int64) bool { return id == adminID }

func (a *fakeAdmin) Handle(_ context.Context, msg *tgbotapi.Message) {
	a.handled = append(a.handled, msg.Text)
}

type harness struct {
	api   *fakeAPI
	store *db.Storage
	bot   *Bot
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := dbtest.Seeded(t)
	sessions, err := session.NewGormStore(store.DB)
	require.NoError(t, err)
	gw := approvingGateway{payments.NewSimulator(rand.New(rand.NewSource(1)), 0, "secret", nil)}
	orch := checkout.New(store, sessions, gw, nil, zap.NewNop(), checkout.Options{})

	api := &fakeAPI{}
	b := New(api, store, orch, adminID, nil, zap.NewNop())
	// каждый вызов лимитера — на минуту позже предыдущего
	clock := time.Now()
	b.limiter.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return &harness{api: api, store: store, bot: b}
}

func command(userID int64, text string) tgbotapi.Update {
	end := len(text)
	for i, r := range text {
		if r == ' ' {
			end = i
			break
		}
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		From:     &tgbotapi.User{ID: userID, FirstName: "Alex", UserName: "alex", LanguageCode: "en"},
		Chat:     &tgbotapi.Chat{ID: userID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}},
	}}
}

func callback(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID, FirstName: "Alex", LanguageCode: "en"},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: userID}},
		Data:    data,
	}}
}

// buttons возвращает callback data и URL всех кнопок сообщения
func buttons(t *testing.T, msg tgbotapi.MessageConfig) []string {
	t.Helper()
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok, "message has no inline keyboard")
	var out []string
	for _, r := range kb.InlineKeyboard {
		for _, btn := range r {
			switch {
			case btn.CallbackData != nil:
				out = append(out, *btn.CallbackData)
			case btn.URL != nil:
				out = append(out, *btn.URL)
			}
		}
	}
	return out
}
