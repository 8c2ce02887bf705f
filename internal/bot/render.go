package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"GameStore-Telegram-bot/internal/checkout"
	"GameStore-Telegram-bot/internal/db"
	"GameStore-Telegram-bot/internal/i18n"
	"GameStore-Telegram-bot/internal/payments"
	"GameStore-Telegram-bot/internal/session"
)

const dateLayout = "2006-01-02 15:04"

// reply — готовое сообщение: HTML-текст и inline-клавиатура
type reply struct {
	text   string
	markup *tgbotapi.InlineKeyboardMarkup
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func esc(s string) string {
	return html.EscapeString(s)
}

func renderMenu(lang string) reply {
	return reply{text: i18n.T(lang, i18n.Welcome), markup: mainMenuKeyboard(lang)}
}

func renderLanguageMenu(lang string) reply {
	return reply{text: i18n.T(lang, i18n.SelectLanguage), markup: languageKeyboard(lang)}
}

func renderSupport(lang string) reply {
	lines := []string{
		"<b>" + i18n.T(lang, i18n.HelpQuestion) + "</b>",
		"",
		i18n.T(lang, i18n.FAQHeading),
		i18n.T(lang, i18n.FAQSteam),
		i18n.T(lang, i18n.FAQNoKey),
		i18n.T(lang, i18n.FAQCashback),
		i18n.T(lang, i18n.FAQRefund),
		"",
		i18n.T(lang, i18n.ContactSupport),
	}
	return reply{text: strings.Join(lines, "\n"), markup: backToMenuKeyboard(lang)}
}

// renderView превращает результат операции оркестратора в сообщение
func renderView(lang string, v checkout.View) reply {
	if v.Failed() {
		return renderFailure(lang, v)
	}
	switch {
	case v.Receipt != nil:
		return renderReceipt(lang, v)
	case v.Invoice != nil:
		return reply{text: invoiceText(lang, v), markup: invoiceKeyboard(lang, v, i18n.IPaid)}
	case len(v.Subtypes) > 0 && v.Method != nil && v.Product != nil:
		text := fmt.Sprintf("<b>%s %s</b>\n\n%s", esc(v.Method.Icon), esc(v.Method.Name), i18n.T(lang, i18n.SelectVariant))
		return reply{text: text, markup: subtypesKeyboard(lang, v)}
	case v.Product != nil:
		return renderMethods(lang, v)
	case v.Category != nil:
		return renderCategory(lang, v)
	default:
		return reply{text: i18n.T(lang, i18n.SelectCategory), markup: categoriesKeyboard(lang, v.Categories)}
	}
}

func renderFailure(lang string, v checkout.View) reply {
	var text string
	switch v.Kind {
	case checkout.KindPaymentFailed:
		text = i18n.T(lang, i18n.PaymentFailed, "message", esc(v.Message))
		if v.Invoice != nil {
			text += "\n\n" + invoiceText(lang, v)
		}
	case checkout.KindOutOfStock:
		if v.TransactionID != "" {
			text = i18n.T(lang, i18n.RefundPending, "tx", esc(v.TransactionID))
		} else {
			text = i18n.T(lang, i18n.OutOfStock)
		}
	case checkout.KindNotFound:
		switch v.Message {
		case checkout.MsgCategoryNotFound:
			text = i18n.T(lang, i18n.CategoryNotFound)
		case checkout.MsgMethodNotFound:
			text = i18n.T(lang, i18n.MethodNotFound)
		default:
			text = i18n.T(lang, i18n.ProductNotFound)
		}
	case checkout.KindExpired:
		text = i18n.T(lang, i18n.PaymentExpired)
	case checkout.KindPersistenceError:
		if v.TransactionID != "" {
			text = i18n.T(lang, i18n.KeyWillFollow, "tx", esc(v.TransactionID))
		} else {
			text = i18n.T(lang, i18n.Error)
		}
	case checkout.KindInvalidTransition:
		if v.State == session.PaymentPending {
			text = i18n.T(lang, i18n.PaymentInProgress)
		} else {
			text = i18n.T(lang, i18n.StartOver)
		}
	case checkout.KindValidationError:
		text = "❌ " + esc(v.Message)
	default:
		text = i18n.T(lang, i18n.Error)
	}
	return reply{text: text, markup: failureKeyboard(lang, v)}
}

func renderCategory(lang string, v checkout.View) reply {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s %s</b>\n\n", esc(v.Category.Icon), esc(v.Category.Name))
	if len(v.Products) == 0 {
		b.WriteString(i18n.T(lang, i18n.NoProducts, "category", esc(v.Category.Name)))
		return reply{text: b.String(), markup: productsKeyboard(lang, v)}
	}
	start := (v.Page-1)*len(v.Products) + 1
	if v.Page > 1 && v.Page == v.Pages {
		// последняя страница может быть неполной
		start = v.Total - len(v.Products) + 1
	}
	end := start + len(v.Products) - 1
	b.WriteString(i18n.T(lang, i18n.ShowingProducts,
		"start", strconv.Itoa(start),
		"end", strconv.Itoa(end),
		"total", strconv.Itoa(v.Total)))
	b.WriteString("\n")
	for _, p := range v.Products {
		b.WriteString("\n• " + esc(p.Name) + " - " + priceLine(lang, p))
	}
	return reply{text: b.String(), markup: productsKeyboard(lang, v)}
}

func priceLine(lang string, p db.Product) string {
	s := money(p.Price)
	if p.Discounted() {
		s += fmt.Sprintf(" (%s <s>%s</s>)", i18n.T(lang, i18n.WasPrice), money(*p.OriginalPrice))
	}
	return s
}

func renderProduct(lang string, p db.Product) reply {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", esc(p.Name))
	if p.Description != "" {
		b.WriteString(esc(p.Description) + "\n\n")
	}
	fmt.Fprintf(&b, "%s: %s\n", i18n.T(lang, i18n.Platform), esc(p.Platform))
	fmt.Fprintf(&b, "%s: %s\n", i18n.T(lang, i18n.Region), esc(p.Region))
	fmt.Fprintf(&b, "%s: %s\n", i18n.T(lang, i18n.Price), priceLine(lang, p))
	if p.Purchasable() {
		fmt.Fprintf(&b, "%s: %d %s", i18n.T(lang, i18n.InStock), p.Stock, i18n.T(lang, i18n.KeysAvailable))
	} else {
		b.WriteString(i18n.T(lang, i18n.OutOfStock))
	}
	return reply{text: b.String(), markup: productKeyboard(lang, p)}
}

func renderMethods(lang string, v checkout.View) reply {
	text := "<b>" + i18n.T(lang, i18n.SelectMethod) + "</b>\n\n" +
		i18n.T(lang, i18n.MethodProductInfo, "product", esc(v.Product.Name), "price", v.Product.Price.StringFixed(2))
	return reply{text: text, markup: methodsKeyboard(lang, v.Product, v.Methods)}
}

func invoiceText(lang string, v checkout.View) string {
	inv := v.Invoice
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", i18n.T(lang, i18n.PaymentDetails))
	if v.Product != nil {
		fmt.Fprintf(&b, "%s: %s\n", i18n.T(lang, i18n.Product), esc(v.Product.Name))
	}
	fmt.Fprintf(&b, "%s: %s\n", i18n.T(lang, i18n.Amount), money(inv.Amount))
	fmt.Fprintf(&b, "%s: %s\n", i18n.T(lang, i18n.Fee), money(inv.Fee))
	method := inv.Subtype
	if v.Method != nil {
		method = v.Method.Name
		if inv.Subtype != "" && inv.Subtype != v.Method.Subtype {
			method += " (" + inv.Subtype + ")"
		}
	}
	fmt.Fprintf(&b, "%s: %s\n\n", i18n.T(lang, i18n.PaymentMethod), esc(method))

	switch inv.Type {
	case payments.TypeCrypto:
		b.WriteString(i18n.T(lang, i18n.CryptoPayment,
			"amount", inv.Amount.StringFixed(2),
			"coin", esc(inv.Subtype),
			"address", esc(inv.Artifact.Address)))
	case payments.TypeP2P:
		b.WriteString(i18n.T(lang, i18n.P2PPayment,
			"amount", inv.Amount.StringFixed(2),
			"method", esc(inv.Subtype),
			"account", esc(inv.Artifact.Account)))
	default:
		b.WriteString(i18n.T(lang, i18n.CardPayment))
	}
	b.WriteString("\n\n" + i18n.T(lang, i18n.PaymentExpires))
	return b.String()
}

func renderReceipt(lang string, v checkout.View) reply {
	r := v.Receipt
	var b strings.Builder
	b.WriteString(i18n.T(lang, i18n.PaymentConfirmed) + "\n\n")
	fmt.Fprintf(&b, "<b>%s</b>\n", esc(r.ProductName))
	fmt.Fprintf(&b, "%s <code>%s</code>\n", i18n.T(lang, i18n.YourKey), esc(r.Key))
	if v.Product != nil && v.Product.Platform == "Steam" {
		fmt.Fprintf(&b, "%s %s\n", i18n.T(lang, i18n.Activation), i18n.T(lang, i18n.SteamActivation))
	}
	fmt.Fprintf(&b, "%s #%d\n", i18n.T(lang, i18n.OrderID), r.OrderID)
	fmt.Fprintf(&b, "%s: %s (%s: %s)\n", i18n.T(lang, i18n.Amount), money(r.Amount), i18n.T(lang, i18n.Fee), money(r.Fee))
	fmt.Fprintf(&b, "%s %s\n\n", i18n.T(lang, i18n.Date), r.Date.Format(dateLayout))
	b.WriteString(i18n.T(lang, i18n.ThankYou))
	return reply{text: b.String(), markup: backToMenuKeyboard(lang)}
}

func renderAccount(lang string, acc checkout.Account) reply {
	u := acc.User
	var b strings.Builder
	b.WriteString("<b>" + i18n.T(lang, i18n.AccountInfo) + "</b>\n\n")
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	fmt.Fprintf(&b, "%s: %s\n", i18n.T(lang, i18n.Name), esc(name))
	if u.Username != "" {
		fmt.Fprintf(&b, "%s: @%s\n", i18n.T(lang, i18n.Username), esc(u.Username))
	}
	fmt.Fprintf(&b, "%s: %s\n\n", i18n.T(lang, i18n.CashbackBalance), money(u.CashbackBalance))

	if acc.TotalOrders == 0 {
		b.WriteString(i18n.T(lang, i18n.NoOrders))
		return reply{text: b.String(), markup: backToMenuKeyboard(lang)}
	}
	b.WriteString(i18n.T(lang, i18n.RecentOrders))
	for _, o := range acc.Recent {
		fmt.Fprintf(&b, "\n#%d %s - %s (%s) %s", o.ID, esc(o.ProductName), money(o.TotalAmount), o.DeliveryStatus, o.Date.Format("2006-01-02"))
	}
	if more := acc.TotalOrders - len(acc.Recent); more > 0 {
		b.WriteString("\n" + i18n.T(lang, i18n.AndMore, "count", strconv.Itoa(more)))
	}
	return reply{text: b.String(), markup: backToMenuKeyboard(lang)}
}

func renderKeyDelivered(lang string, o db.Order) string {
	key := ""
	if o.ProductKey != nil {
		key = *o.ProductKey
	}
	return i18n.T(lang, i18n.KeyDelivered,
		"product", esc(o.ProductName),
		"key", esc(key),
		"order", "#"+strconv.FormatUint(uint64(o.ID), 10))
}
