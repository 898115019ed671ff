package http

import (
	"time"

	"github.com/chouseangly/my-app/internal/checkout"
	"github.com/chouseangly/my-app/internal/domain"
	"github.com/chouseangly/my-app/internal/pricing"
	"github.com/chouseangly/my-app/internal/remote"
	"github.com/chouseangly/my-app/internal/search"
	"github.com/shopspring/decimal"
)

type ProductResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Price         string   `json:"price"`
	OriginalPrice string   `json:"original_price,omitempty"`
	Images        []string `json:"images"`
	CategoryID    string   `json:"category_id,omitempty"`
}

type CartLineResponse struct {
	CartItemID string    `json:"cart_item_id"`
	ProductID  string    `json:"product_id"`
	Quantity   int       `json:"quantity"`
	AddedAt    time.Time `json:"added_at"`
}

type CartResponse struct {
	OwnerID   string             `json:"owner_id"`
	Lines     []CartLineResponse `json:"lines"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type TotalsResponse struct {
	Subtotal     string `json:"subtotal"`
	TotalSave    string `json:"total_save"`
	DeliveryFee  string `json:"delivery_fee"`
	GiftDiscount string `json:"gift_discount"`
	AmountToPay  string `json:"amount_to_pay"`
}

type PricedLineResponse struct {
	CartItemID string          `json:"cart_item_id"`
	Quantity   int             `json:"quantity"`
	Product    ProductResponse `json:"product"`
	Subtotal   string          `json:"subtotal"`
}

type SummaryResponse struct {
	Lines  []PricedLineResponse `json:"lines"`
	Totals TotalsResponse       `json:"totals"`
}

type PromotionResponse struct {
	Code     string `json:"code"`
	Discount string `json:"discount"`
}

type CheckoutResponse struct {
	ID             string                 `json:"id"`
	IdempotencyKey string                 `json:"idempotency_key"`
	Status         domain.CheckoutStatus  `json:"status"`
	Address        domain.DeliveryAddress `json:"address"`
	PaymentMethod  domain.PaymentMethod   `json:"payment_method"`
	Promotion      *PromotionResponse     `json:"promotion,omitempty"`
	Lines          []PricedLineResponse   `json:"lines"`
	Totals         TotalsResponse         `json:"totals"`
	LastError      string                 `json:"last_error,omitempty"`
	Redirect       string                 `json:"redirect,omitempty"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

type StatusEventResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type TransactionItemResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type TransactionResponse struct {
	ID              string                    `json:"id"`
	Status          string                    `json:"status"`
	OrderDate       time.Time                 `json:"order_date"`
	TotalAmount     string                    `json:"total_amount"`
	PaymentMethod   string                    `json:"payment_method"`
	ShippingAddress string                    `json:"shipping_address"`
	Items           []TransactionItemResponse `json:"items"`
	StatusHistory   []StatusEventResponse     `json:"status_history"`
}

type SearchResultResponse struct {
	Query    string            `json:"query"`
	Pending  bool              `json:"pending"`
	Products []ProductResponse `json:"products"`
	Error    string            `json:"error,omitempty"`
}

// money renders amounts with two decimals, e.g. "19.98".
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toProductResponse(p domain.Product) ProductResponse {
	resp := ProductResponse{
		ID:         p.ID,
		Name:       p.Name,
		Price:      money(p.Price),
		Images:     p.Images,
		CategoryID: p.CategoryID,
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	if p.OriginalPrice != nil {
		resp.OriginalPrice = money(*p.OriginalPrice)
	}
	return resp
}

func toProductsResponse(products []domain.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out
}

func toCartResponse(c *domain.Cart) CartResponse {
	lines := make([]CartLineResponse, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, CartLineResponse{
			CartItemID: l.CartItemID,
			ProductID:  l.ProductID,
			Quantity:   l.Quantity,
			AddedAt:    l.AddedAt,
		})
	}
	return CartResponse{OwnerID: c.OwnerID, Lines: lines, UpdatedAt: c.UpdatedAt}
}

func toTotalsResponse(t domain.OrderTotals) TotalsResponse {
	return TotalsResponse{
		Subtotal:     money(t.Subtotal),
		TotalSave:    money(t.TotalSave),
		DeliveryFee:  money(t.DeliveryFee),
		GiftDiscount: money(t.GiftDiscount),
		AmountToPay:  money(t.AmountToPay),
	}
}

func toPricedLines(lines []pricing.PricedLine) []PricedLineResponse {
	out := make([]PricedLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, PricedLineResponse{
			CartItemID: l.Line.CartItemID,
			Quantity:   l.Line.Quantity,
			Product:    toProductResponse(l.Product),
			Subtotal:   money(l.Subtotal()),
		})
	}
	return out
}

func toCheckoutResponse(s *checkout.Session) CheckoutResponse {
	resp := CheckoutResponse{
		ID:             s.ID,
		IdempotencyKey: s.IdempotencyKey,
		Status:         s.Status,
		Address:        s.Address,
		PaymentMethod:  s.PaymentMethod,
		Lines:          toPricedLines(s.Lines),
		Totals:         toTotalsResponse(s.Totals),
		LastError:      s.LastError,
		Redirect:       s.Redirect,
		UpdatedAt:      s.UpdatedAt,
	}
	if !s.Promotion.IsZero() {
		resp.Promotion = &PromotionResponse{Code: s.Promotion.Code, Discount: money(s.Promotion.Discount)}
	}
	return resp
}

func toTransactionResponse(t domain.Transaction) TransactionResponse {
	items := make([]TransactionItemResponse, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, TransactionItemResponse{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Quantity:  it.Quantity,
			Price:     money(it.Product.Price),
		})
	}
	history := make([]StatusEventResponse, 0, len(t.StatusHistory))
	for _, h := range t.StatusHistory {
		history = append(history, StatusEventResponse{Status: h.Status, Timestamp: h.Timestamp})
	}
	return TransactionResponse{
		ID:              t.ID,
		Status:          t.Status,
		OrderDate:       t.OrderDate,
		TotalAmount:     money(t.TotalAmount),
		PaymentMethod:   t.PaymentMethod,
		ShippingAddress: t.ShippingAddress,
		Items:           items,
		StatusHistory:   history,
	}
}

func toSearchResultResponse(r search.Result) SearchResultResponse {
	resp := SearchResultResponse{
		Query:    r.Query,
		Pending:  r.Pending,
		Products: toProductsResponse(r.Products),
	}
	if r.Err != nil {
		resp.Error = remote.Message(r.Err)
	}
	return resp
}
