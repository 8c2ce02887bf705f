package i18n

var ru = map[Key]string{
	Welcome:           "👋 Добро пожаловать в GameStore Бот! Что вы хотите сделать сегодня?",
	Catalog:           "🛒 Каталог",
	MyAccount:         "👤 Мой аккаунт",
	Support:           "❓ Поддержка",
	BackToMenu:        "🏠 Вернуться в меню",
	Language:          "🌐 Язык",
	SelectLanguage:    "Выберите язык:",
	LanguageSet:       "✅ Язык изменён на русский.",
	SelectCategory:    "Пожалуйста, выберите категорию:",
	BackToCategories:  "🔙 Назад к категориям",
	ProductNotFound:   "Товар не найден.",
	CategoryNotFound:  "Категория не найдена.",
	MethodNotFound:    "Способ оплаты не найден.",
	OutOfStock:        "😔 К сожалению, товара нет в наличии.",
	NoProducts:        "Нет доступных товаров в категории %category%.",
	ShowingProducts:   "Показано %start%-%end% из %total% товаров",
	Platform:          "Платформа",
	Region:            "Регион",
	Price:             "Цена",
	WasPrice:          "было",
	InStock:           "В наличии",
	KeysAvailable:     "ключей доступно",
	Previous:          "◀️ Предыдущая",
	Next:              "Следующая ▶️",
	BuyNow:            "🛒 Купить сейчас",
	SelectMethod:      "Выберите способ оплаты",
	SelectVariant:     "Выберите вариант оплаты:",
	MethodProductInfo: "Товар: %product%\nЦена: $%price%",
	BackToProduct:     "🔙 Назад к товару",
	PaymentDetails:    "Детали оплаты",
	PaymentMethod:     "Способ оплаты",
	Product:           "Товар",
	Amount:            "Сумма",
	Fee:               "Комиссия",
	CryptoPayment:     "Пожалуйста, отправьте <b>%amount% %coin%</b> на следующий адрес:\n\n<code>%address%</code>\n\nВаш заказ будет обработан автоматически после подтверждения платежа.",
	P2PPayment:        "Пожалуйста, отправьте $%amount% через %method% на:\n\n<code>%account%</code>\n\nУкажите номер транзакции в комментарии к платежу.",
	CardPayment:       "Нажмите кнопку ниже, чтобы продолжить оплату картой.",
	PayByLink:         "💳 Оплатить",
	PaymentExpires:    "⏱ Срок действия платежа истекает через 15 минут.",
	IPaid:             "✅ Я оплатил",
	ChangeMethod:      "🔙 Изменить способ",
	Cancel:            "✖️ Отмена",
	PaymentFailed:     "❌ Ошибка оплаты: %message%",
	TryAgain:          "🔁 Попробовать снова",
	PaymentExpired:    "⌛ Время на оплату истекло. Начните покупку заново.",
	PaymentInProgress: "⏳ Платёж обрабатывается, подождите.",
	PaymentConfirmed:  "✅ Платеж подтвержден! Вот ваша покупка:",
	YourKey:           "Ваш ключ:",
	Activation:        "Активация:",
	SteamActivation:   "Откройте Steam → Игры → Активировать продукт в Steam",
	OrderID:           "Номер заказа:",
	Date:              "Дата:",
	ThankYou:          "Спасибо за покупку! Если у вас возникнут проблемы, пожалуйста, обратитесь в нашу службу поддержки.",
	KeyWillFollow:     "✅ Оплата получена (транзакция %tx%). Ключ придёт в ближайшее время.",
	KeyDelivered:      "🎁 Ваш заказ %product% готов!\nВаш ключ: <code>%key%</code>\nНомер заказа: %order%",
	RefundPending:     "😔 Пока обрабатывался платёж (транзакция %tx%), товар закончился. Деньги будут возвращены.",
	AccountInfo:       "👤 Информация о вашем аккаунте:",
	Name:              "Имя",
	Username:          "Имя пользователя",
	CashbackBalance:   "Баланс кэшбэка",
	RecentOrders:      "Недавние заказы:",
	NoOrders:          "У вас пока нет заказов.",
	AndMore:           "...и еще %count% заказ(ов).",
	HelpQuestion:      "Как мы можем помочь вам сегодня?",
	FAQHeading:        "Часто задаваемые вопросы:",
	FAQSteam:          "1. Как активировать ключ Steam?",
	FAQNoKey:          "2. Мой платеж прошел успешно, но я не получил ключ",
	FAQCashback:       "3. Как использовать мой кэшбэк?",
	FAQRefund:         "4. Могу ли я получить возврат средств?",
	ContactSupport:    "Команда поддержки свяжется с вами в ближайшее время.",
	Help:              "/start - главное меню\n/catalog - каталог\n/account - ваши заказы\n/support - помощь\n/language - сменить язык",
	TooManyRequests:   "⏳ Слишком много запросов. Подождите немного.",
	StartOver:         "Выберите товар в каталоге.",
	Error:             "Произошла ошибка. Пожалуйста, попробуйте позже.",
}
