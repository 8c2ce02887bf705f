package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"GameStore-Telegram-bot/internal/checkout"
	"GameStore-Telegram-bot/internal/db"
	"GameStore-Telegram-bot/internal/i18n"
)

func button(lang string, key i18n.Key, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(i18n.T(lang, key), data)
}

func row(buttons ...tgbotapi.InlineKeyboardButton) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(buttons...)
}

func keyboard(rows ...[]tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func mainMenuKeyboard(lang string) *tgbotapi.InlineKeyboardMarkup {
	return keyboard(
		row(button(lang, i18n.Catalog, actCatalog), button(lang, i18n.MyAccount, actAccount)),
		row(button(lang, i18n.Support, actSupport), button(lang, i18n.Language, actLanguageMenu)),
	)
}

func backToMenuKeyboard(lang string) *tgbotapi.InlineKeyboardMarkup {
	return keyboard(row(button(lang, i18n.BackToMenu, actMainMenu)))
}

func languageKeyboard(lang string) *tgbotapi.InlineKeyboardMarkup {
	return keyboard(
		row(
			tgbotapi.NewInlineKeyboardButtonData("🇬🇧 English", "set_lang_en"),
			tgbotapi.NewInlineKeyboardButtonData("🇷🇺 Русский", "set_lang_ru"),
		),
		row(button(lang, i18n.BackToMenu, actMainMenu)),
	)
}

func categoriesKeyboard(lang string, cats []db.Category) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range cats {
		rows = append(rows, row(tgbotapi.NewInlineKeyboardButtonData(c.Icon+" "+c.Name, categoryData(c.ID, 1))))
	}
	rows = append(rows, row(button(lang, i18n.BackToMenu, actMainMenu)))
	return keyboard(rows...)
}

func productsKeyboard(lang string, v checkout.View) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, p := range v.Products {
		rows = append(rows, row(tgbotapi.NewInlineKeyboardButtonData(p.Name+" - "+money(p.Price), idData(actProduct, p.ID))))
	}
	var nav []tgbotapi.InlineKeyboardButton
	if v.Page > 1 {
		nav = append(nav, button(lang, i18n.Previous, categoryData(v.Category.ID, v.Page-1)))
	}
	if v.Page < v.Pages {
		nav = append(nav, button(lang, i18n.Next, categoryData(v.Category.ID, v.Page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, row(button(lang, i18n.BackToCategories, actCatalog)))
	return keyboard(rows...)
}

func productKeyboard(lang string, p db.Product) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if p.Purchasable() {
		rows = append(rows, row(button(lang, i18n.BuyNow, idData(actBuy, p.ID))))
	}
	rows = append(rows, row(button(lang, i18n.BackToCategories, categoryData(p.CategoryID, 1))))
	return keyboard(rows...)
}

func methodsKeyboard(lang string, p *db.Product, methods []db.PaymentMethod) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, m := range methods {
		rows = append(rows, row(tgbotapi.NewInlineKeyboardButtonData(m.Icon+" "+m.Name, payData(m.ID, ""))))
	}
	rows = append(rows,
		row(button(lang, i18n.BackToProduct, idData(actProduct, p.ID))),
		row(button(lang, i18n.Cancel, actCancel)),
	)
	return keyboard(rows...)
}

func subtypesKeyboard(lang string, v checkout.View) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, sub := range v.Subtypes {
		rows = append(rows, row(tgbotapi.NewInlineKeyboardButtonData(sub, payData(v.Method.ID, sub))))
	}
	rows = append(rows, row(button(lang, i18n.ChangeMethod, idData(actBuy, v.Product.ID))))
	return keyboard(rows...)
}

// invoiceKeyboard: ссылка на оплату (если есть), подтверждение, смена способа, отмена.
// primary — подпись кнопки подтверждения: "Я оплатил" или "Повторить".
func invoiceKeyboard(lang string, v checkout.View, primary i18n.Key) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if v.Invoice != nil && v.Invoice.Artifact.URL != "" {
		rows = append(rows, row(tgbotapi.NewInlineKeyboardButtonURL(i18n.T(lang, i18n.PayByLink), v.Invoice.Artifact.URL)))
	}
	rows = append(rows, row(button(lang, primary, actConfirm)))
	if v.Product != nil {
		rows = append(rows, row(button(lang, i18n.ChangeMethod, idData(actBuy, v.Product.ID))))
	}
	rows = append(rows, row(button(lang, i18n.Cancel, actCancel)))
	return keyboard(rows...)
}

// failureKeyboard строит кнопки из следующего шага, который предлагает View
func failureKeyboard(lang string, v checkout.View) *tgbotapi.InlineKeyboardMarkup {
	switch v.Next {
	case checkout.NextRetry:
		if v.Invoice != nil {
			return invoiceKeyboard(lang, v, i18n.TryAgain)
		}
	case checkout.NextChangeMethod:
		if v.Product != nil {
			return keyboard(
				row(button(lang, i18n.ChangeMethod, idData(actBuy, v.Product.ID))),
				row(button(lang, i18n.BackToMenu, actMainMenu)),
			)
		}
	}
	return backToMenuKeyboard(lang)
}
