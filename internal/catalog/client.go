package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/chouseangly/my-app/internal/domain"
	"github.com/chouseangly/my-app/internal/pricing"
	"github.com/chouseangly/my-app/internal/remote"
)

type Filter struct {
	Name       string
	CategoryID string
}

// Client reads product records from the remote catalog service.
type Client struct {
	remote *remote.Client
}

func NewClient(r *remote.Client) *Client {
	return &Client{remote: r}
}

// Search lists products matching the filter; an empty filter lists everything.
func (c *Client) Search(ctx context.Context, f Filter) ([]domain.Product, error) {
	q := url.Values{}
	if name := strings.TrimSpace(f.Name); name != "" {
		q.Set("name", name)
	}
	if f.CategoryID != "" {
		q.Set("categoryId", f.CategoryID)
	}

	var products []domain.Product
	if err := c.remote.GetJSON(ctx, "/products", q, "", &products); err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return products, nil
}

// Index fetches the full catalog keyed by product id.
func (c *Client) Index(ctx context.Context) (pricing.Catalog, error) {
	products, err := c.Search(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	return pricing.NewCatalog(products), nil
}

// Delete removes a product. Requires an admin token.
func (c *Client) Delete(ctx context.Context, token, productID string) error {
	err := c.remote.Do(ctx, remote.Request{
		Method: http.MethodDelete,
		Path:   "/products/admin/" + url.PathEscape(productID),
		Token:  token,
	}, nil)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", productID, err)
	}
	return nil
}
