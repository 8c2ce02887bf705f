package checkout

import (
	"context"
	"errors"

	"GameStore-Telegram-bot/internal/db"
)

const recentOrders = 5

// Account — личный кабинет покупателя. Кэшбэк только отображается, при оплате не списывается.
type Account struct {
	User        db.TelegramUser `json:"user"`
	TotalOrders int             `json:"totalOrders"`
	Recent      []db.Order      `json:"recent"`
}

func (o *Orchestrator) AccountView(ctx context.Context, telegramUserID int64) (Account, error) {
	u, err := o.store.GetTelegramUser(ctx, telegramUserID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return Account{}, err
	}
	if errors.Is(err, db.ErrNotFound) {
		u = db.TelegramUser{TelegramID: telegramUserID, Language: db.DefaultLanguage}
	}
	orders, err := o.store.GetTelegramUserOrders(ctx, telegramUserID)
	if err != nil {
		return Account{}, err
	}
	acc := Account{User: u, TotalOrders: len(orders), Recent: orders}
	if len(orders) > recentOrders {
		acc.Recent = orders[:recentOrders]
	}
	return acc, nil
}
