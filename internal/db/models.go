package db

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductActive     ProductStatus = "active"
	ProductOutOfStock ProductStatus = "out_of_stock"
	ProductHidden     ProductStatus = "hidden"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductActive, ProductOutOfStock, ProductHidden:
		return true
	}
	return false
}

type MethodType string

const (
	MethodCrypto MethodType = "crypto"
	MethodP2P    MethodType = "p2p"
	MethodCard   MethodType = "card"
)

func (t MethodType) Valid() bool {
	switch t {
	case MethodCrypto, MethodP2P, MethodCard:
		return true
	}
	return false
}

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"

	DeliveryPending   = "pending"
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
	Icon string `gorm:"not null" json:"icon"`
}

type Product struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	Name          string           `gorm:"not null" json:"name"`
	Description   string           `gorm:"not null" json:"description"`
	Price         decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"price"`
	OriginalPrice *decimal.Decimal `gorm:"type:numeric(10,2)" json:"originalPrice"`
	Stock         int              `gorm:"not null" json:"stock"`
	CategoryID    uint             `gorm:"not null;index" json:"categoryId"`
	Platform      string           `gorm:"not null" json:"platform"`
	Region        string           `gorm:"not null" json:"region"`
	Status        ProductStatus    `gorm:"not null;default:active" json:"status"`
}

// Purchasable: активен и есть ключи на складе
func (p Product) Purchasable() bool {
	return p.Status == ProductActive && p.Stock > 0
}

// Discounted сообщает, показывать ли зачёркнутую цену
func (p Product) Discounted() bool {
	return p.OriginalPrice != nil && p.OriginalPrice.GreaterThan(p.Price)
}

type PaymentMethod struct {
	ID      uint       `gorm:"primaryKey" json:"id"`
	Name    string     `gorm:"not null" json:"name"`
	Icon    string     `gorm:"not null" json:"icon"`
	Type    MethodType `gorm:"not null" json:"type"`
	Subtype string     `json:"subtype,omitempty"` // пусто, если покупатель выбирает вариант сам
}

type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          *uint           `gorm:"index" json:"userId"`
	TelegramUserID  *int64          `gorm:"index" json:"telegramUserId"`
	ProductID       uint            `gorm:"not null" json:"productId"`
	ProductName     string          `gorm:"not null" json:"productName"`
	Quantity        int             `gorm:"not null;default:1" json:"quantity"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"totalAmount"`
	Fee             decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"fee"`
	PaymentMethodID uint            `gorm:"not null" json:"paymentMethodId"`
	PaymentSubtype  string          `json:"paymentSubtype,omitempty"`
	TransactionID   string          `gorm:"uniqueIndex;not null" json:"transactionId"`
	PaymentStatus   string          `gorm:"not null;default:pending" json:"paymentStatus"`
	DeliveryStatus  string          `gorm:"not null;default:pending" json:"deliveryStatus"`
	ProductKey      *string         `json:"productKey"`
	Date            time.Time       `gorm:"not null" json:"date"`
}

type TelegramUser struct {
	TelegramID      int64           `gorm:"primaryKey;autoIncrement:false" json:"telegramId"`
	Username        string          `json:"username"`
	FirstName       string          `gorm:"not null" json:"firstName"`
	LastName        string          `json:"lastName"`
	CashbackBalance decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"cashbackBalance"`
	LastInteraction time.Time       `gorm:"not null" json:"lastInteraction"`
	Language        string          `gorm:"not null;default:en" json:"language"`
}

const (
	RoleAdmin    = "admin"
	RoleCustomer = "user"
)

// User — учётная запись веб-панели: админ или покупатель
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"not null;default:user" json:"role"`
}

const (
	IssuePersistence = "persistence_error"
	IssueOutOfStock  = "out_of_stock"

	IssuePending     = "pending"
	IssueResolved    = "resolved"
	IssueNeedsRefund = "needs_refund"
)

// FulfillmentIssue — оплаченный, но не выданный заказ. Хранит всё, что нужно для повторной выдачи.
type FulfillmentIssue struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	TransactionID   string          `gorm:"uniqueIndex;not null" json:"transactionId"`
	Reason          string          `gorm:"not null" json:"reason"`
	Status          string          `gorm:"not null;default:pending;index" json:"status"`
	Attempts        int             `gorm:"not null;default:0" json:"attempts"`
	LastError       string          `json:"lastError"`
	UserID          *uint           `json:"userId"`
	TelegramUserID  *int64          `json:"telegramUserId"`
	ProductID       uint            `gorm:"not null" json:"productId"`
	ProductName     string          `json:"productName"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"totalAmount"`
	Fee             decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"fee"`
	PaymentMethodID uint            `json:"paymentMethodId"`
	PaymentSubtype  string          `json:"paymentSubtype"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Models returns every table AutoMigrate manages.
func Models() []interface{} {
	return []interface{}{&Category{}, &Product{}, &PaymentMethod{}, &Order{}, &TelegramUser{}, &User{}, &FulfillmentIssue{}}
}
