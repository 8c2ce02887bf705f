package i18n

var en = map[Key]string{
	Welcome:           "👋 Welcome to GameStore Bot! What would you like to do today?",
	Catalog:           "🛒 Catalog",
	MyAccount:         "👤 My Account",
	Support:           "❓ Support",
	BackToMenu:        "🏠 Back to Menu",
	Language:          "🌐 Language",
	SelectLanguage:    "Choose your language:",
	LanguageSet:       "✅ Language set to English.",
	SelectCategory:    "Please select a category:",
	BackToCategories:  "🔙 Back to Categories",
	ProductNotFound:   "Product not found.",
	CategoryNotFound:  "Category not found.",
	MethodNotFound:    "Payment method not found.",
	OutOfStock:        "😔 Sorry, this product is out of stock.",
	NoProducts:        "No available products in %category% category.",
	ShowingProducts:   "Showing %start%-%end% of %total% products",
	Platform:          "Platform",
	Region:            "Region",
	Price:             "Price",
	WasPrice:          "was",
	InStock:           "In stock",
	KeysAvailable:     "keys available",
	Previous:          "◀️ Previous",
	Next:              "Next ▶️",
	BuyNow:            "🛒 Buy Now",
	SelectMethod:      "Select Payment Method",
	SelectVariant:     "Choose a payment option:",
	MethodProductInfo: "Product: %product%\nPrice: $%price%",
	BackToProduct:     "🔙 Back to Product",
	PaymentDetails:    "Payment Details",
	PaymentMethod:     "Payment Method",
	Product:           "Product",
	Amount:            "Amount",
	Fee:               "Fee",
	CryptoPayment:     "Please send <b>%amount% %coin%</b> to the following address:\n\n<code>%address%</code>\n\nYour order will be processed automatically after payment confirmation.",
	P2PPayment:        "Please send $%amount% via %method% to:\n\n<code>%account%</code>\n\nUse the transaction ID as the payment comment.",
	CardPayment:       "Click the button below to proceed with the card payment.",
	PayByLink:         "💳 Pay",
	PaymentExpires:    "⏱ Payment expires in 15 minutes.",
	IPaid:             "✅ I've Paid",
	ChangeMethod:      "🔙 Change Method",
	Cancel:            "✖️ Cancel",
	PaymentFailed:     "❌ Payment failed: %message%",
	TryAgain:          "🔁 Try Again",
	PaymentExpired:    "⌛ The payment window has expired. Please start a new purchase.",
	PaymentInProgress: "⏳ Your payment is being processed, please wait.",
	PaymentConfirmed:  "✅ Payment Confirmed! Here is your purchase:",
	YourKey:           "Your key:",
	Activation:        "Activation:",
	SteamActivation:   "Open Steam → Games → Activate a Product on Steam",
	OrderID:           "Order ID:",
	Date:              "Date:",
	ThankYou:          "Thank you for your purchase! If you have any issues, please contact our support.",
	KeyWillFollow:     "✅ Payment received (transaction %tx%). Your key will be delivered shortly.",
	KeyDelivered:      "🎁 Your order %product% is ready!\nYour key: <code>%key%</code>\nOrder ID: %order%",
	RefundPending:     "😔 The product sold out while your payment (transaction %tx%) was processed. A refund will be issued.",
	AccountInfo:       "👤 Your Account Information:",
	Name:              "Name",
	Username:          "Username",
	CashbackBalance:   "Cashback Balance",
	RecentOrders:      "Recent Orders:",
	NoOrders:          "You have no orders yet.",
	AndMore:           "...and %count% more order(s).",
	HelpQuestion:      "How can we help you today?",
	FAQHeading:        "Frequently Asked Questions:",
	FAQSteam:          "1. How to activate a Steam key?",
	FAQNoKey:          "2. My payment was successful but I didn't receive my key",
	FAQCashback:       "3. How to use my cashback?",
	FAQRefund:         "4. Can I get a refund?",
	ContactSupport:    "Support team will contact you soon.",
	Help:              "/start - main menu\n/catalog - browse products\n/account - your orders\n/support - help\n/language - change language",
	TooManyRequests:   "⏳ Too many requests. Please wait a moment.",
	StartOver:         "Please choose a product from the catalog.",
	Error:             "An error occurred. Please try again later.",
}
