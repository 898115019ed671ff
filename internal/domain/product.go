package domain

import "github.com/shopspring/decimal"

// Product is a catalog record as served by the remote catalog service.
// OriginalPrice is nil when the product is not discounted.
type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Images        []string         `json:"images,omitempty"`
	CategoryID    string           `json:"categoryId,omitempty"`
}

// ListPrice returns OriginalPrice, or Price when the product carries no original price.
func (p Product) ListPrice() decimal.Decimal {
	if p.OriginalPrice == nil {
		return p.Price
	}
	return *p.OriginalPrice
}
