package admin

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"GameStore-Telegram-bot/internal/checkout"
)

const (
	DefaultRetention = 31 * 24 * time.Hour
	dumpTimeout      = 2 * time.Minute
	dumpExt          = ".dump"
)

// Runner запускает внешнюю утилиту (pg_dump, pg_restore)
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Backups — дампы Postgres в каталоге dir
type Backups struct {
	dir       string
	dsn       string
	Retention time.Duration
	run       Runner
	alerts    checkout.Alerter
	log       *zap.Logger
	now       func() time.Time
}

func NewBackups(dir, dsn string, alerts checkout.Alerter, log *zap.Logger) *Backups {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backups{
		dir:       dir,
		dsn:       dsn,
		Retention: DefaultRetention,
		run:       execRunner,
		alerts:    alerts,
		log:       log,
		now:       time.Now,
	}
}

// Create создаёт дамп БД в формате pg_dump -Fc и возвращает путь к файлу
func (b *Backups) Create(ctx context.Context, prefix string) (string, error) {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", err
	}
	filename := filepath.Join(b.dir, prefix+"_"+b.now().Format("20060102_150405")+dumpExt)
	ctx, cancel := context.WithTimeout(ctx, dumpTimeout)
	defer cancel()
	if err := b.run(ctx, "pg_dump", b.dsn, "-Fc", "-f", filename); err != nil {
		_ = os.Remove(filename)
		return "", err
	}
	return filename, nil
}

// Restore восстанавливает БД из дампа в каталоге бэкапов. Принимается только имя файла.
func (b *Backups) Restore(ctx context.Context, name string) error {
	if name != filepath.Base(name) || !strings.HasSuffix(name, dumpExt) {
		return fmt.Errorf("invalid backup name %q", name)
	}
	filename := filepath.Join(b.dir, name)
	if _, err := os.Stat(filename); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, dumpTimeout)
	defer cancel()
	return b.run(ctx, "pg_restore", "--clean", "--if-exists", "-d", b.dsn, filename)
}

// CleanOld удаляет дампы старше Retention, возвращает число удалённых
func (b *Backups) CleanOld() (int, error) {
	files, err := filepath.Glob(filepath.Join(b.dir, "*"+dumpExt))
	if err != nil {
		return 0, err
	}
	cutoff := b.now().Add(-b.Retention)
	removed := 0
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(f); err != nil {
				b.log.Warn("failed to remove old backup", zap.String("file", f), zap.Error(err))
				continue
			}
			removed++
		}
	}
	return removed, nil
}

// Auto — ночной бэкап по cron: дамп, чистка старых, уведомление при ошибке
func (b *Backups) Auto(ctx context.Context) {
	filename, err := b.Create(ctx, "autobackup")
	if err != nil {
		b.log.Error("auto backup failed", zap.Error(err))
		if b.alerts != nil {
			b.alerts.NotifyAdmin("Auto backup failed: " + err.Error())
		}
		return
	}
	removed, err := b.CleanOld()
	if err != nil {
		b.log.Warn("failed to clean old backups", zap.Error(err))
	}
	b.log.Info("auto backup created", zap.String("file", filename), zap.Int("removed", removed))
}
