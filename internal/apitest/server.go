// Package apitest is an in-memory implementation of the remote flower API.
// Tests point the storefront at it, and cmd/mockapi serves it for local
// development.
package apitest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type Server struct {
	engine *gin.Engine
	repo   *Repository
	secret []byte

	mu       sync.Mutex
	revoked  map[string]bool
	calls    map[string]int
	failures map[string]failure
	delay    time.Duration
}

type failure struct {
	status int
	body   gin.H
}

type Option func(*Server)

// WithSecret sets the JWT signing key.
func WithSecret(secret []byte) Option {
	return func(s *Server) { s.secret = secret }
}

// WithPasswordCost sets the bcrypt cost of stored passwords.
func WithPasswordCost(cost int) Option {
	return func(s *Server) { s.repo.cost = cost }
}

// WithLogger adds gin's request logger.
func WithLogger() Option {
	return func(s *Server) { s.engine.Use(gin.Logger()) }
}

func New(opts ...Option) *Server {
	s := &Server{
		engine:   gin.New(),
		repo:     NewRepository(bcrypt.DefaultCost),
		secret:   []byte("flowerseal-dev-secret"),
		revoked:  make(map[string]bool),
		calls:    make(map[string]int),
		failures: make(map[string]failure),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine.Use(gin.Recovery(), s.track)
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) Repo() *Repository { return s.repo }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	user := s.engine.Group("/user")
	{
		user.POST("/login/", s.login)
		user.POST("/register/", s.register)
		user.POST("/verify_otp/", s.verifyOTP)
		user.POST("/resend_otp/", s.resendOTP)
		user.GET("/logout/", s.auth, s.logout)
		user.GET("/user_detail/:id/", s.userDetail)
		user.PUT("/user_detail/:id/", s.auth, s.updateUser)
		user.GET("/user_all/", s.auth, s.admin, s.listUsers)
	}
	s.engine.GET("/admins/", s.auth, s.adminStatus)

	flower := s.engine.Group("/flower")
	{
		flower.GET("/flower_all/", s.listFlowers)
		flower.POST("/flower_all/", s.auth, s.admin, s.createFlower)
		flower.GET("/flower_detail/:id/", s.getFlower)
		flower.PUT("/flower_detail/:id/", s.auth, s.admin, s.updateFlower)
		flower.DELETE("/flower_detail/:id/", s.auth, s.admin, s.deleteFlower)
		flower.GET("/care_tips/", s.careTips)
		flower.GET("/cart/", s.auth, s.listCart)
		flower.POST("/cart/", s.auth, s.addToCart)
		flower.DELETE("/cart_remove/:id/", s.auth, s.removeFromCart)
		flower.GET("/comment_show/:id/", s.listComments)
		flower.GET("/comment_check_order/", s.auth, s.canComment)
		flower.POST("/comment_all/", s.auth, s.addComment)
		flower.PUT("/comment_edit/:id/", s.auth, s.editComment)
		flower.DELETE("/comment_delete/:id/", s.auth, s.deleteComment)
		flower.POST("/contact/", s.contact)
	}

	order := s.engine.Group("/order")
	{
		order.POST("/create_order/", s.auth, s.createOrder)
		order.GET("/my_order/", s.auth, s.myOrders)
		order.GET("/all_order/", s.auth, s.admin, s.allOrders)
		order.GET("/one_user_order_stats/", s.auth, s.myStats)
		order.GET("/user_order_stats/", s.auth, s.admin, s.allStats)
	}

	s.engine.GET("/payment/payment_detail/:id/", s.auth, s.payment)

	reset := s.engine.Group("/pass_change")
	{
		reset.POST("/password_reset/", s.passwordReset)
		reset.POST("/reset_password/:uid/:token/", s.resetPassword)
	}
}

// Calls reports how many requests reached method and path (route template,
// e.g. "/flower/flower_detail/:id/").
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// FailNext makes the next request to method and route template answer with
// status and body instead of being handled.
func (s *Server) FailNext(method, path string, status int, body gin.H) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// SetDelay slows every response down, for timeout and coalescing tests.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

func (s *Server) track(c *gin.Context) {
	key := c.Request.Method + " " + c.FullPath()
	s.mu.Lock()
	s.calls[key]++
	f, fail := s.failures[key]
	delete(s.failures, key)
	delay := s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}
	if fail {
		c.AbortWithStatusJSON(f.status, f.body)
		return
	}
	c.Next()
}

type claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(userID int64) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
			ID:        strconv.FormatInt(now.UnixNano(), 36),
		},
	})
	return t.SignedString(s.secret)
}

func (s *Server) parseToken(raw string) (int64, error) {
	var c claims
	token, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}
	return c.UserID, nil
}

const userIDKey = "user_id"

// auth accepts "Authorization: token <jwt>".
func (s *Server) auth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(header, "token ")
	if !ok || raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		return
	}
	s.mu.Lock()
	revoked := s.revoked[raw]
	s.mu.Unlock()
	if revoked {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
		return
	}
	userID, err := s.parseToken(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
		return
	}
	if _, _, err := s.repo.User(userID); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
		return
	}
	c.Set(userIDKey, userID)
	c.Set("token", raw)
	c.Next()
}

func (s *Server) admin(c *gin.Context) {
	_, isAdmin, _ := s.repo.User(c.GetInt64(userIDKey))
	if !isAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "You do not have permission to perform this action."})
		return
	}
	c.Next()
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// writeError maps repository errors to API responses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		status = http.StatusForbidden
	}
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	if status == http.StatusNotFound {
		c.JSON(status, gin.H{"detail": "Not found."})
		return
	}
	c.JSON(status, gin.H{"message": strings.ToUpper(msg[:1]) + msg[1:]})
}
