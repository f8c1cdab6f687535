package apiclient

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/session"
)

func (c *Client) Flowers(ctx context.Context) ([]models.Flower, error) {
	var out []models.Flower
	err := c.do(ctx, request{method: http.MethodGet, endpoint: "/flower/flower_all/"}, &out)
	return out, err
}

func (c *Client) Flower(ctx context.Context, id int64) (models.Flower, error) {
	var out models.Flower
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "/flower/flower_detail/{id}/",
		path:     at("/flower/flower_detail/{id}/", id),
	}, &out)
	return out, err
}

type FlowerInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image"`
}

func (f FlowerInput) Validate() error {
	switch {
	case strings.TrimSpace(f.Title) == "":
		return Invalid("Title is required.")
	case !f.Price.IsPositive():
		return Invalid("Price must be positive.")
	case f.Stock < 0:
		return Invalid("Stock cannot be negative.")
	case strings.TrimSpace(f.Category) == "":
		return Invalid("Category is required.")
	}
	return nil
}

func (c *Client) CreateFlower(ctx context.Context, s session.Session, f FlowerInput) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.Image == "" {
		return Invalid("Image is required.")
	}
	return c.do(ctx, request{method: http.MethodPost, endpoint: "/flower/flower_all/", session: &s, body: f}, nil)
}

func (c *Client) UpdateFlower(ctx context.Context, s session.Session, id int64, f FlowerInput) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return c.do(ctx, request{
		method:   http.MethodPut,
		endpoint: "/flower/flower_detail/{id}/",
		path:     at("/flower/flower_detail/{id}/", id),
		session:  &s,
		body:     f,
	}, nil)
}

func (c *Client) DeleteFlower(ctx context.Context, s session.Session, id int64) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		endpoint: "/flower/flower_detail/{id}/",
		path:     at("/flower/flower_detail/{id}/", id),
		session:  &s,
	}, nil)
}

func (c *Client) CareTips(ctx context.Context) ([]models.CareTip, error) {
	var out []models.CareTip
	err := c.do(ctx, request{method: http.MethodGet, endpoint: "/flower/care_tips/"}, &out)
	return out, err
}

type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (c *Client) Contact(ctx context.Context, m ContactMessage) error {
	if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Email) == "" || strings.TrimSpace(m.Message) == "" {
		return Invalid("All fields are required!")
	}
	return c.do(ctx, request{method: http.MethodPost, endpoint: "/flower/contact/", body: m}, nil)
}
