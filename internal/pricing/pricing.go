// Package pricing derives checkout totals from cart lines and catalog records.
// Totals computed here are a preview; the transaction service re-prices every order.
package pricing

import (
	"github.com/chouseangly/my-app/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultDeliveryFee is the flat delivery fee charged per order.
var DefaultDeliveryFee = decimal.RequireFromString("1.00")

// Catalog looks up products by id. Missing entries are allowed.
type Catalog map[string]domain.Product

// NewCatalog indexes products by id; later duplicates win.
func NewCatalog(products []domain.Product) Catalog {
	c := make(Catalog, len(products))
	for _, p := range products {
		c[p.ID] = p
	}
	return c
}

// PricedLine is a cart line joined with its product.
type PricedLine struct {
	Line    domain.CartLine
	Product domain.Product
}

func (l PricedLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Line.Quantity)))
}

func (l PricedLine) Saving() decimal.Decimal {
	return l.Product.ListPrice().Sub(l.Product.Price).Mul(decimal.NewFromInt(int64(l.Line.Quantity)))
}

// Join pairs every line with its product, in cart order. Lines whose product
// is missing from the catalog are dropped: the product is no longer orderable.
func Join(lines []domain.CartLine, catalog Catalog) []PricedLine {
	out := make([]PricedLine, 0, len(lines))
	for _, line := range lines {
		product, ok := catalog[line.ProductID]
		if !ok {
			continue
		}
		out = append(out, PricedLine{Line: line, Product: product})
	}
	return out
}

// ComputeTotals prices the cart. It never fails; AmountToPay is clamped at zero
// however large the promotion discount is, and a negative discount counts as none.
func ComputeTotals(lines []domain.CartLine, catalog Catalog, deliveryFee, promotionDiscount decimal.Decimal) domain.OrderTotals {
	subtotal := decimal.Zero
	totalSave := decimal.Zero
	for _, pl := range Join(lines, catalog) {
		subtotal = subtotal.Add(pl.Subtotal())
		totalSave = totalSave.Add(pl.Saving())
	}

	if promotionDiscount.IsNegative() {
		promotionDiscount = decimal.Zero
	}

	amountToPay := subtotal.Add(deliveryFee).Sub(promotionDiscount)
	if amountToPay.IsNegative() {
		amountToPay = decimal.Zero
	}

	return domain.OrderTotals{
		Subtotal:     subtotal,
		TotalSave:    totalSave,
		DeliveryFee:  deliveryFee,
		GiftDiscount: promotionDiscount,
		AmountToPay:  amountToPay,
	}
}
