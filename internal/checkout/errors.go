package checkout

import "errors"

// Kind — категория сбоя, которую видит интерфейс. Сырые ошибки до пользователя не доходят.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindOutOfStock        Kind = "out_of_stock"
	KindPaymentFailed     Kind = "payment_failed"
	KindPersistenceError  Kind = "persistence_error"
	KindValidationError   Kind = "validation_error"
	KindInvalidTransition Kind = "invalid_transition"
	KindExpired           Kind = "expired"
)

// Next — единственное действие, которое предлагается после сбоя
type Next string

const (
	NextRetry        Next = "retry"
	NextChangeMethod Next = "change_method"
	NextMainMenu     Next = "main_menu"
)

var ErrInvalidTransition = errors.New("invalid transition")

// Сообщения сбоев; интерфейс может сопоставлять их со своими переводами
const (
	MsgProductNotFound    = "product not found"
	MsgCategoryNotFound   = "category not found"
	MsgMethodNotFound     = "payment method not found"
	MsgOutOfStock         = "product is out of stock"
	MsgSoldOutRefund      = "product sold out while your payment was processed, a refund will be issued"
	MsgKeyWillFollow      = "payment received, your key will be delivered shortly"
	MsgPaymentInProgress  = "payment is being processed"
	MsgUnavailable        = "service temporarily unavailable, try again later"
	MsgSelectProductFirst = "select a product first"
	MsgSelectMethodFirst  = "choose a payment method first"
)
