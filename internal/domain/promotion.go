package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidPromotion = errors.New("invalid promotion code")

// Promotion is a resolved promotion code. Token is the server-signed proof of
// the discount; it is empty for locally resolved codes.
type Promotion struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	Token    string          `json:"token,omitempty"`
}

func (p Promotion) IsZero() bool {
	return p.Code == "" && p.Discount.IsZero()
}
