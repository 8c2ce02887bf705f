package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"GameStore-Telegram-bot/internal/checkout"
)

const (
	DefaultRetryDelay  = 5 * time.Second
	DefaultPollTimeout = 30
	defaultWorkers     = 4
)

// Updater — long polling часть Telegram API
type Updater interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// Poller забирает апдейты long polling'ом и раздаёт их обработчику.
// Апдейты одного пользователя обрабатываются по порядку одним воркером,
// разные пользователи не ждут друг друга.
type Poller struct {
	api        Updater
	handle     func(ctx context.Context, update tgbotapi.Update)
	alerts     checkout.Alerter
	log        *zap.Logger
	RetryDelay time.Duration
	Timeout    int
	Workers    int
}

func NewPoller(api Updater, handle func(ctx context.Context, update tgbotapi.Update), alerts checkout.Alerter, log *zap.Logger) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{
		api:        api,
		handle:     handle,
		alerts:     alerts,
		log:        log,
		RetryDelay: DefaultRetryDelay,
		Timeout:    DefaultPollTimeout,
		Workers:    defaultWorkers,
	}
}

// Run крутит цикл до отмены ctx. После ошибки ждёт RetryDelay.
// Возвращается, когда все начатые обработчики завершились.
func (p *Poller) Run(ctx context.Context) error {
	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}
	queues := make([]chan tgbotapi.Update, workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan tgbotapi.Update, 16)
		wg.Add(1)
		go func(q <-chan tgbotapi.Update) {
			defer wg.Done()
			for u := range q {
				p.dispatch(ctx, u)
			}
		}(queues[i])
	}
	defer func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
	}()

	p.log.Info("polling started", zap.Int("workers", workers))
	offset := 0
	for {
		if ctx.Err() != nil {
			p.log.Info("polling stopped")
			return nil
		}

		cfg := tgbotapi.NewUpdate(offset)
		cfg.Timeout = p.Timeout
		updates, err := p.api.GetUpdates(cfg)
		if err != nil {
			p.log.Warn("failed to get updates", zap.Error(err), zap.Duration("retry_in", p.RetryDelay))
			if !sleep(ctx, p.RetryDelay) {
				p.log.Info("polling stopped")
				return nil
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			q := queues[shard(u, workers)]
			select {
			case q <- u:
			case <-ctx.Done():
				p.log.Info("polling stopped")
				return nil
			}
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, u tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("update handler panicked", zap.Int("update_id", u.UpdateID), zap.Any("panic", r))
			if p.alerts != nil {
				p.alerts.NotifyAdmin(fmt.Sprintf("Panic while handling update %d: %v", u.UpdateID, r))
			}
		}
	}()
	p.handle(ctx, u)
}

func shard(u tgbotapi.Update, n int) int {
	from := sender(u)
	if from == nil {
		return 0
	}
	id := from.ID
	if id < 0 {
		id = -id
	}
	return int(id % int64(n))
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
