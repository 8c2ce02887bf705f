// Package i18n — строки интерфейса бота на английском и русском.
// Язык пользователя хранится в таблице telegram_users, здесь только тексты.
package i18n

import "strings"

type Key string

const (
	Welcome           Key = "welcome"
	Catalog           Key = "catalog"
	MyAccount         Key = "my_account"
	Support           Key = "support"
	BackToMenu        Key = "back_to_menu"
	Language          Key = "language"
	SelectLanguage    Key = "select_language"
	LanguageSet       Key = "language_set"
	SelectCategory    Key = "select_category"
	BackToCategories  Key = "back_to_categories"
	ProductNotFound   Key = "product_not_found"
	CategoryNotFound  Key = "category_not_found"
	MethodNotFound    Key = "method_not_found"
	OutOfStock        Key = "out_of_stock"
	NoProducts        Key = "no_products"
	ShowingProducts   Key = "showing_products"
	Platform          Key = "platform"
	Region            Key = "region"
	Price             Key = "price"
	WasPrice          Key = "was_price"
	InStock           Key = "in_stock"
	KeysAvailable     Key = "keys_available"
	Previous          Key = "previous"
	Next              Key = "next"
	BuyNow            Key = "buy_now"
	SelectMethod      Key = "select_method"
	SelectVariant     Key = "select_variant"
	MethodProductInfo Key = "method_product_info"
	BackToProduct     Key = "back_to_product"
	PaymentDetails    Key = "payment_details"
	PaymentMethod     Key = "payment_method"
	Product           Key = "product"
	Amount            Key = "amount"
	Fee               Key = "fee"
	CryptoPayment     Key = "crypto_payment"
	P2PPayment        Key = "p2p_payment"
	CardPayment       Key = "card_payment"
	PayByLink         Key = "pay_by_link"
	PaymentExpires    Key = "payment_expires"
	IPaid             Key = "i_paid"
	ChangeMethod      Key = "change_method"
	Cancel            Key = "cancel"
	PaymentFailed     Key = "payment_failed"
	TryAgain          Key = "try_again"
	PaymentExpired    Key = "payment_expired"
	PaymentInProgress Key = "payment_in_progress"
	PaymentConfirmed  Key = "payment_confirmed"
	YourKey           Key = "your_key"
	Activation        Key = "activation"
	SteamActivation   Key = "steam_activation"
	OrderID           Key = "order_id"
	Date              Key = "date"
	ThankYou          Key = "thank_you"
	KeyWillFollow     Key = "key_will_follow"
	KeyDelivered      Key = "key_delivered"
	RefundPending     Key = "refund_pending"
	AccountInfo       Key = "account_info"
	Name              Key = "name"
	Username          Key = "username"
	CashbackBalance   Key = "cashback_balance"
	RecentOrders      Key = "recent_orders"
	NoOrders          Key = "no_orders"
	AndMore           Key = "and_more"
	HelpQuestion      Key = "help_question"
	FAQHeading        Key = "faq_heading"
	FAQSteam          Key = "faq_steam"
	FAQNoKey          Key = "faq_no_key"
	FAQCashback       Key = "faq_cashback"
	FAQRefund         Key = "faq_refund"
	ContactSupport    Key = "contact_support"
	Help              Key = "help"
	TooManyRequests   Key = "too_many_requests"
	StartOver         Key = "start_over"
	Error             Key = "error"
)

const Default = "en"

// Supported — языки, которые можно выбрать в /language
var Supported = []string{"en", "ru"}

// T возвращает строку на языке lang, подставляя пары "имя", "значение" вместо %имя%.
// Для незнакомого языка или ключа берётся английский вариант.
func T(lang string, key Key, args ...string) string {
	table, ok := tables[lang]
	if !ok {
		table = tables[Default]
	}
	text, ok := table[key]
	if !ok {
		text, ok = tables[Default][key]
		if !ok {
			return string(key)
		}
	}
	if len(args) == 0 {
		return text
	}
	pairs := make([]string, 0, len(args))
	for i := 0; i+1 < len(args); i += 2 {
		pairs = append(pairs, "%"+args[i]+"%", args[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Normalize приводит код языка из Telegram (en-US, ru) к поддерживаемому
func Normalize(code string) string {
	code = strings.ToLower(code)
	for _, l := range Supported {
		if strings.HasPrefix(code, l) {
			return l
		}
	}
	return Default
}

var tables = map[string]map[Key]string{
	"en": en,
	"ru": ru,
}
