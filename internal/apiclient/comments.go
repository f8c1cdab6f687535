package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/session"
)

func (c *Client) Comments(ctx context.Context, s session.Session, flowerID int64) ([]models.Comment, error) {
	var out []models.Comment
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "/flower/comment_show/{id}/",
		path:     at("/flower/comment_show/{id}/", flowerID),
		session:  &s,
	}, &out)
	return out, err
}

// CanComment reports whether the user has ordered flowerID, which also gates payment.
func (c *Client) CanComment(ctx context.Context, s session.Session, flowerID int64) (bool, error) {
	var out models.Eligibility
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "/flower/comment_check_order/",
		query:    url.Values{"flower_id": {strconv.FormatInt(flowerID, 10)}},
		session:  &s,
	}, &out)
	return out.CanComment, err
}

func (c *Client) AddComment(ctx context.Context, s session.Session, flowerID int64, body string) error {
	if strings.TrimSpace(body) == "" {
		return Invalid("Comment cannot be empty!")
	}
	return c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "/flower/comment_all/",
		session:  &s,
		body:     map[string]any{"flower": flowerID, "body": body},
	}, nil)
}

func (c *Client) EditComment(ctx context.Context, s session.Session, commentID int64, body string) error {
	if strings.TrimSpace(body) == "" {
		return Invalid("Comment cannot be empty!")
	}
	return c.do(ctx, request{
		method:   http.MethodPut,
		endpoint: "/flower/comment_edit/{id}/",
		path:     at("/flower/comment_edit/{id}/", commentID),
		session:  &s,
		body:     map[string]string{"body": body},
	}, nil)
}

func (c *Client) DeleteComment(ctx context.Context, s session.Session, commentID int64) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		endpoint: "/flower/comment_delete/{id}/",
		path:     at("/flower/comment_delete/{id}/", commentID),
		session:  &s,
	}, nil)
}
