// Package promotion resolves promotion codes to discounts.
package promotion

import (
	"context"
	"strings"

	"github.com/chouseangly/my-app/internal/domain"
	"github.com/shopspring/decimal"
)

type Resolver interface {
	// Resolve returns the discount code grants on subtotal, or
	// domain.ErrInvalidPromotion when the code is not redeemable.
	Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (domain.Promotion, error)
}

const placeholderCode = "GIFT20"

var placeholderRate = decimal.RequireFromString("0.20")

// Placeholder accepts a single hardcoded code worth 20% of the subtotal.
// Nothing it returns is signed; use Remote in any real deployment.
type Placeholder struct{}

func (Placeholder) Resolve(_ context.Context, code string, subtotal decimal.Decimal) (domain.Promotion, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized != placeholderCode {
		return domain.Promotion{}, domain.ErrInvalidPromotion
	}
	return domain.Promotion{
		Code:     normalized,
		Discount: subtotal.Mul(placeholderRate).Round(2),
	}, nil
}
