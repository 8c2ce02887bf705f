package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"GameStore-Telegram-bot/config"
	"GameStore-Telegram-bot/internal/admin"
	"GameStore-Telegram-bot/internal/api"
	"GameStore-Telegram-bot/internal/bot"
	"GameStore-Telegram-bot/internal/checkout"
	"GameStore-Telegram-bot/internal/db"
	"GameStore-Telegram-bot/internal/logger"
	"GameStore-Telegram-bot/internal/payments"
	"GameStore-Telegram-bot/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}
	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Не удалось создать логгер: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("application stopped with error", zap.Error(err))
	}
	zl.Info("application stopped")
}

func run(ctx context.Context, cfg config.AppConfig, zl *zap.Logger) error {
	store, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := store.Seed(ctx, cfg.AdminPassword, zl); err != nil {
		return err
	}

	sessions, closeSessions, err := openSessions(cfg, store)
	if err != nil {
		return err
	}
	defer closeSessions()

	var botapi *tgbotapi.BotAPI
	var alerts *logger.Notifier
	if cfg.BotDisabled {
		zl.Warn("telegram bot disabled, serving the web API only")
		alerts = logger.NewNotifier(nil, 0, zl)
	} else {
		botapi, err = tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			return err
		}
		zl.Info("authorized on telegram", zap.String("account", botapi.Self.UserName))
		alerts = logger.NewNotifier(botapi, cfg.AdminTelegramID, zl)
	}

	orch := checkout.New(store, sessions, gateway(cfg, zl), alerts, zl, checkout.Options{
		PaymentTimeout: cfg.PaymentTimeout,
		PaymentWindow:  cfg.PaymentWindow,
	})

	// без бота уведомлять покупателей некому
	var buyers checkout.Buyers
	var tg *bot.Bot
	if botapi != nil {
		tg = bot.New(botapi, store, orch, cfg.AdminTelegramID, alerts, zl)
		buyers = tg
	}
	reconciler := checkout.NewReconciler(store, buyers, alerts, zl)
	sweeper := checkout.NewSweeper(orch, buyers, zl)
	backups := admin.NewBackups(cfg.BackupDir, cfg.DatabaseURL, alerts, zl)

	c := cron.New()
	if _, err := c.AddFunc("@every 1m", func() {
		if _, err := reconciler.Run(ctx); err != nil {
			zl.Error("reconcile failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	if _, err := c.AddFunc("@every 1m", func() { sweeper.Run(ctx) }); err != nil {
		return err
	}
	// Автоматический бэкап БД раз в сутки
	if _, err := c.AddFunc("0 3 * * *", func() { backups.Auto(ctx) }); err != nil {
		return err
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewServer(store, orch, api.NewTokens(cfg.JWTSecret), zl).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 2)
	go func() {
		zl.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	if tg != nil {
		tg.SetAdmin(admin.NewHandler(botapi, store, reconciler, buyers, backups, cfg.AdminTelegramID, zl))
		poller := bot.NewPoller(botapi, tg.HandleUpdate, alerts, zl)
		poller.RetryDelay = cfg.PollRetryDelay
		go func() {
			if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errs <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		zl.Info("shutting down")
	case runErr = <-errs:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("http server shutdown", zap.Error(err))
	}
	return runErr
}

// openSessions выбирает хранилище сессий: Redis, если задан REDIS_URL, иначе таблица в Postgres
func openSessions(cfg config.AppConfig, store *db.Storage) (session.Store, func(), error) {
	if cfg.RedisURL != "" {
		rs, err := session.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	}
	gs, err := session.NewGormStore(store.DB)
	if err != nil {
		return nil, nil, err
	}
	return gs, func() {}, nil
}

func gateway(cfg config.AppConfig, zl *zap.Logger) payments.Gateway {
	if cfg.PaymentMode == config.PaymentModeProvider {
		return payments.NewProvider(cfg.PaymentProviderURL, cfg.PaymentProviderKey, zl)
	}
	seed := cfg.SimulatorSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return payments.NewSimulator(rand.New(rand.NewSource(seed)), cfg.SimulatorDelay, cfg.MerchantSecret, zl)
}
