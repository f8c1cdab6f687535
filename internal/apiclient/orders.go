package apiclient

import (
	"context"
	"net/http"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/session"
)

func (c *Client) CreateOrder(ctx context.Context, s session.Session, flowerID int64, quantity int) error {
	if quantity < 1 {
		return Invalid("Quantity must be at least 1.")
	}
	return c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "/order/create_order/",
		session:  &s,
		body:     map[string]any{"flower": flowerID, "quantity": quantity},
	}, nil)
}

func (c *Client) MyOrders(ctx context.Context, s session.Session) ([]models.Order, error) {
	var out []models.Order
	err := c.do(ctx, request{method: http.MethodGet, endpoint: "/order/my_order/", session: &s}, &out)
	return out, err
}

func (c *Client) AllOrders(ctx context.Context, s session.Session) ([]models.Order, error) {
	var out []models.Order
	err := c.do(ctx, request{method: http.MethodGet, endpoint: "/order/all_order/", session: &s}, &out)
	return out, err
}

func (c *Client) MyStats(ctx context.Context, s session.Session) (models.Stats, error) {
	var out models.Stats
	err := c.do(ctx, request{method: http.MethodGet, endpoint: "/order/one_user_order_stats/", session: &s}, &out)
	return out, err
}

func (c *Client) AllStats(ctx context.Context, s session.Session) (models.Stats, error) {
	var out models.Stats
	err := c.do(ctx, request{method: http.MethodGet, endpoint: "/order/user_order_stats/", session: &s}, &out)
	return out, err
}

// PaymentRedirect asks the API to start a payment for flowerID and returns
// the gateway URL the browser must be sent to.
func (c *Client) PaymentRedirect(ctx context.Context, s session.Session, flowerID int64) (string, error) {
	var out models.PaymentRedirect
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "/payment/payment_detail/{id}/",
		path:     at("/payment/payment_detail/{id}/", flowerID),
		session:  &s,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.RedirectURL == "" {
		return "", &Error{Kind: KindUnknown, Message: "Payment could not be started."}
	}
	return out.RedirectURL, nil
}
