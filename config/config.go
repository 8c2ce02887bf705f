package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	BotToken        string
	BotDisabled     bool
	AdminTelegramID int64
	DatabaseURL     string
	HTTPAddr        string
	JWTSecret       string
	AdminPassword   string
	RedisURL        string
	SessionTTL      time.Duration

	PaymentMode        string
	PaymentProviderURL string
	PaymentProviderKey string
	PaymentTimeout     time.Duration
	PaymentWindow      time.Duration
	SimulatorDelay     time.Duration
	SimulatorSeed      int64
	MerchantSecret     string

	PollRetryDelay time.Duration
	LogLevel       string
	BackupDir      string
}

const (
	PaymentModeSimulated = "simulated"
	PaymentModeProvider  = "provider"
)

// Load читает .env (если есть) и переменные окружения
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, relying on environment variables")
	}

	var cfg AppConfig
	var err error

	cfg.BotToken = os.Getenv("BOT_TOKEN")
	cfg.BotDisabled = os.Getenv("BOT_DISABLED") == "1"
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.HTTPAddr = getEnvOrDefault("HTTP_ADDR", ":8080")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.PaymentMode = getEnvOrDefault("PAYMENT_MODE", PaymentModeSimulated)
	cfg.PaymentProviderURL = os.Getenv("PAYMENT_PROVIDER_URL")
	cfg.PaymentProviderKey = os.Getenv("PAYMENT_PROVIDER_KEY")
	cfg.MerchantSecret = getEnvOrDefault("MERCHANT_SECRET", "change-me")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.BackupDir = getEnvOrDefault("BACKUP_DIR", "backups")

	if raw := os.Getenv("ADMIN_TELEGRAM_ID"); raw != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}
	if raw := os.Getenv("SIMULATOR_SEED"); raw != "" {
		cfg.SimulatorSeed, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid SIMULATOR_SEED: %w", err)
		}
	}

	durations := []struct {
		key  string
		def  string
		dest *time.Duration
	}{
		{"SESSION_TTL", "24h", &cfg.SessionTTL},
		{"PAYMENT_TIMEOUT", "30s", &cfg.PaymentTimeout},
		{"PAYMENT_WINDOW", "15m", &cfg.PaymentWindow},
		{"SIMULATOR_DELAY", "500ms", &cfg.SimulatorDelay},
		{"POLL_RETRY_DELAY", "5s", &cfg.PollRetryDelay},
	}
	for _, d := range durations {
		*d.dest, err = time.ParseDuration(getEnvOrDefault(d.key, d.def))
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", d.key, err)
		}
	}

	return cfg, cfg.validate()
}

func (c AppConfig) validate() error {
	if c.DatabaseURL == "" || c.JWTSecret == "" || c.AdminTelegramID == 0 {
		return errors.New("critical environment variables are missing: DATABASE_URL, JWT_SECRET, ADMIN_TELEGRAM_ID")
	}
	if c.BotToken == "" && !c.BotDisabled {
		return errors.New("BOT_TOKEN is not set (use BOT_DISABLED=1 to run the API only)")
	}
	switch c.PaymentMode {
	case PaymentModeSimulated:
	case PaymentModeProvider:
		if c.PaymentProviderURL == "" {
			return errors.New("PAYMENT_PROVIDER_URL is required in provider mode")
		}
	default:
		return fmt.Errorf("unknown PAYMENT_MODE %q", c.PaymentMode)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
