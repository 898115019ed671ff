package orders

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/chouseangly/my-app/internal/domain"
	"github.com/chouseangly/my-app/internal/remote"
)

// Client talks to the remote transaction service.
type Client struct {
	remote *remote.Client
}

func NewClient(r *remote.Client) *Client {
	return &Client{remote: r}
}

// Place submits an order. Any non-2xx response is returned as *remote.Error.
func (c *Client) Place(ctx context.Context, token string, order domain.OrderRequest) error {
	if err := c.remote.SendJSON(ctx, http.MethodPost, "/transactions", token, order, nil); err != nil {
		return fmt.Errorf("place order: %w", err)
	}
	return nil
}

// History returns userID's transactions, newest first. The endpoint may
// return other users' transactions, so they are filtered here as well.
func (c *Client) History(ctx context.Context, token, userID string) ([]domain.Transaction, error) {
	var all []domain.Transaction
	if err := c.remote.GetJSON(ctx, "/transactions", nil, token, &all); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	mine := make([]domain.Transaction, 0, len(all))
	for _, t := range all {
		if t.User.UserID == userID {
			mine = append(mine, t)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool {
		return mine[i].OrderDate.After(mine[j].OrderDate)
	})
	return mine, nil
}
