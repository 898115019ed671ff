package promotion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/chouseangly/my-app/internal/domain"
	"github.com/chouseangly/my-app/internal/remote"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

// DiscountClaims is the body of the token the promotion service signs for
// every discount it grants.
type DiscountClaims struct {
	Code     string `json:"code"`
	Discount string `json:"discount"`
	Subtotal string `json:"subtotal"`
	jwt.RegisteredClaims
}

type remotePromotion struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	Token    string          `json:"token"`
}

// Remote resolves codes with the promotion service and only accepts
// discounts whose signed token matches the response.
type Remote struct {
	remote     *remote.Client
	signingKey []byte
}

func NewRemote(r *remote.Client, signingKey []byte) *Remote {
	return &Remote{remote: r, signingKey: signingKey}
}

func (r *Remote) Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (domain.Promotion, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Promotion{}, domain.ErrInvalidPromotion
	}

	var resp remotePromotion
	err := r.remote.GetJSON(ctx, "/promotions/"+url.PathEscape(code),
		url.Values{"subtotal": {subtotal.StringFixed(2)}}, "", &resp)
	if err != nil {
		var remoteErr *remote.Error
		if errors.As(err, &remoteErr) && remoteErr.Status < http.StatusInternalServerError {
			return domain.Promotion{}, domain.ErrInvalidPromotion
		}
		return domain.Promotion{}, fmt.Errorf("resolve promotion: %w", err)
	}

	if err := r.verify(resp, subtotal); err != nil {
		return domain.Promotion{}, fmt.Errorf("%w: %w", domain.ErrInvalidPromotion, err)
	}
	return domain.Promotion{Code: resp.Code, Discount: resp.Discount, Token: resp.Token}, nil
}

func (r *Remote) verify(p remotePromotion, subtotal decimal.Decimal) error {
	var claims DiscountClaims
	token, err := jwt.ParseWithClaims(p.Token, &claims, func(*jwt.Token) (any, error) {
		return r.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return fmt.Errorf("discount token rejected: %v", err)
	}

	if !strings.EqualFold(claims.Code, p.Code) {
		return errors.New("discount token is for another code")
	}
	signed, err := decimal.NewFromString(claims.Discount)
	if err != nil || !signed.Equal(p.Discount) {
		return errors.New("discount does not match its token")
	}
	signedSubtotal, err := decimal.NewFromString(claims.Subtotal)
	if err != nil || !signedSubtotal.Equal(subtotal.Round(2)) {
		return errors.New("discount token is for another subtotal")
	}
	return nil
}
