package domain

import "github.com/shopspring/decimal"

// OrderTotals is derived from the cart on every read and never persisted.
type OrderTotals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	TotalSave    decimal.Decimal `json:"totalSave"`
	DeliveryFee  decimal.Decimal `json:"deliveryFee"`
	GiftDiscount decimal.Decimal `json:"giftDiscount"`
	AmountToPay  decimal.Decimal `json:"amountToPay"`
}
