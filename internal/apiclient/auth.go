package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/session"
)

type LoginResult struct {
	Token string `json:"token"`
	User  struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

// Session converts the login response into a session; the result may be
// incomplete if the server omitted fields.
func (l LoginResult) Session() session.Session {
	return session.Session{Token: l.Token, UserID: l.User.ID, Username: l.User.Username}
}

func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "/user/login/",
		body:     map[string]string{"username": username, "password": password},
	}, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context, s session.Session) error {
	return c.do(ctx, request{method: http.MethodGet, endpoint: "/user/logout/", session: &s}, nil)
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	ProfileImg      string `json:"profile_img"`
}

// Validate runs the checks that need no server round trip.
func (r RegisterRequest) Validate() error {
	switch {
	case r.Username == "" || r.Email == "" || r.Password == "":
		return Invalid("Username, email and password are required!")
	case r.Password != r.ConfirmPassword:
		return Invalid("Passwords do not match!")
	}
	return nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodPost, endpoint: "/user/register/", body: req}, nil)
}

func (c *Client) VerifyOTP(ctx context.Context, email, otp string) error {
	if len(otp) != 6 {
		return Invalid("Please enter the 6-digit OTP.")
	}
	return c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "/user/verify_otp/",
		body:     map[string]string{"email": email, "otp": otp},
	}, nil)
}

func (c *Client) ResendOTP(ctx context.Context, email string) error {
	return c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "/user/resend_otp/",
		body:     map[string]string{"email": email},
	}, nil)
}

func (c *Client) User(ctx context.Context, s session.Session, id int64) (models.User, error) {
	var out models.User
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "/user/user_detail/{id}/",
		path:     at("/user/user_detail/{id}/", id),
		session:  &s,
	}, &out)
	return out, err
}

type ProfileUpdate struct {
	Username   string
	FirstName  string
	LastName   string
	Email      string
	ProfileImg string
}

func (p ProfileUpdate) payload() map[string]any {
	return map[string]any{
		"username":   p.Username,
		"first_name": p.FirstName,
		"last_name":  p.LastName,
		"email":      p.Email,
		"profile":    map[string]string{"profile_img": p.ProfileImg},
	}
}

func (c *Client) UpdateUser(ctx context.Context, s session.Session, p ProfileUpdate) error {
	return c.do(ctx, request{
		method:   http.MethodPut,
		endpoint: "/user/user_detail/{id}/",
		path:     at("/user/user_detail/{id}/", s.UserID),
		session:  &s,
		body:     p.payload(),
	}, nil)
}

func (c *Client) Users(ctx context.Context, s session.Session) ([]models.User, error) {
	var out []models.User
	err := c.do(ctx, request{method: http.MethodGet, endpoint: "/user/user_all/", session: &s}, &out)
	return out, err
}

func (c *Client) IsAdmin(ctx context.Context, s session.Session) (bool, error) {
	var out models.AdminStatus
	err := c.do(ctx, request{method: http.MethodGet, endpoint: "/admins/", session: &s}, &out)
	return out.IsAdmin, err
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return Invalid("Email is required!")
	}
	return c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "/pass_change/password_reset/",
		body:     map[string]string{"email": email},
	}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, uid, token, newPassword, confirm string) error {
	if newPassword != confirm {
		return Invalid("Passwords do not match!")
	}
	return c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "/pass_change/reset_password/{uid}/{token}/",
		path:     "/pass_change/reset_password/" + url.PathEscape(uid) + "/" + url.PathEscape(token) + "/",
		body:     map[string]string{"new_password": newPassword, "confirm_password": confirm},
	}, nil)
}
