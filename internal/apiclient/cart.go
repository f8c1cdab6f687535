package apiclient

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/session"
)

func (c *Client) Cart(ctx context.Context, s session.Session) (models.CartLines, error) {
	var out models.CartLines
	err := c.do(ctx, request{method: http.MethodGet, endpoint: "/flower/cart/", session: &s}, &out)
	return out, err
}

type cartAdd struct {
	Flower      int64           `json:"flower"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Quantity    int             `json:"quantity"`
}

// AddToCart adds one unit of f. The server rejects a flower already in the cart.
func (c *Client) AddToCart(ctx context.Context, s session.Session, f models.Flower) error {
	return c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "/flower/cart/",
		session:  &s,
		body: cartAdd{
			Flower:      f.ID,
			Title:       f.Title,
			Price:       f.Price,
			Description: f.Description,
			Stock:       f.Stock,
			Category:    f.Category,
			Image:       f.Image,
			Quantity:    1,
		},
	}, nil)
}

func (c *Client) RemoveFromCart(ctx context.Context, s session.Session, lineID int64) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		endpoint: "/flower/cart_remove/{id}/",
		path:     at("/flower/cart_remove/{id}/", lineID),
		session:  &s,
	}, nil)
}
