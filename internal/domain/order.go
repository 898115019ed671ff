package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderRequest is the body of an order submission. DiscountApplied is
// advisory: the server re-prices the order and re-validates DiscountToken.
type OrderRequest struct {
	UserID          string        `json:"userId"`
	ShippingAddress string        `json:"shippingAddress"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	Items           []OrderItem   `json:"items"`
	DiscountApplied float64       `json:"discountApplied"`
	PromotionCode   string        `json:"promotionCode,omitempty"`
	DiscountToken   string        `json:"discountToken,omitempty"`
}

type TransactionItem struct {
	ID       string  `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Size     string  `json:"size,omitempty"`
}

type StatusEvent struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type TransactionUser struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
}

// Transaction is an order as recorded by the remote transaction service.
type Transaction struct {
	ID              string            `json:"id"`
	User            TransactionUser   `json:"user"`
	Items           []TransactionItem `json:"items"`
	TotalAmount     decimal.Decimal   `json:"totalAmount"`
	Status          string            `json:"status"`
	OrderDate       time.Time         `json:"orderDate"`
	PaymentMethod   string            `json:"paymentMethod"`
	ShippingAddress string            `json:"shippingAddress"`
	StatusHistory   []StatusEvent     `json:"statusHistory"`
}
