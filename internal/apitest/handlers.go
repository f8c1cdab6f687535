package apitest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
)

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid json"})
		return
	}
	u, err := s.repo.Authenticate(req.Username, req.Password)
	if err != nil {
		msg := "Invalid username or password."
		if errors.Is(err, ErrForbidden) {
			msg = "Please verify your email first."
		}
		c.JSON(http.StatusBadRequest, gin.H{"detail": msg})
		return
	}
	token, err := s.issueToken(u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": u.ID, "username": u.Username},
	})
}

type registerReq struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	ProfileImg      string `json:"profile_img"`
}

func (s *Server) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username, email and password are required."})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match."})
		return
	}
	_, err := s.repo.CreateAccount(NewAccount{
		Username:   req.Username,
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Password:   req.Password,
		ProfileImg: req.ProfileImg,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Check your email for the OTP."})
}

type otpReq struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (s *Server) verifyOTP(c *gin.Context) {
	var req otpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := s.repo.VerifyOTP(req.Email, req.OTP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OTP."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account verified."})
}

func (s *Server) resendOTP(c *gin.Context) {
	var req otpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := s.repo.ResendOTP(req.Email); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "A new OTP has been sent."})
}

func (s *Server) logout(c *gin.Context) {
	s.mu.Lock()
	s.revoked[c.GetString("token")] = true
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "Logged out."})
}

func (s *Server) userDetail(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	u, _, err := s.repo.User(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type updateUserReq struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Profile   struct {
		ProfileImg string `json:"profile_img"`
	} `json:"profile"`
}

func (s *Server) updateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if id != c.GetInt64(userIDKey) {
		c.JSON(http.StatusForbidden, gin.H{"detail": "You can only update your own profile."})
		return
	}
	var req updateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username is required."})
		return
	}
	err := s.repo.UpdateUser(models.User{
		ID:         id,
		Username:   req.Username,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		ProfileImg: req.Profile.ProfileImg,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	u, _, _ := s.repo.User(id)
	c.JSON(http.StatusOK, u)
}

func (s *Server) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, s.repo.Users())
}

func (s *Server) adminStatus(c *gin.Context) {
	_, isAdmin, _ := s.repo.User(c.GetInt64(userIDKey))
	c.JSON(http.StatusOK, models.AdminStatus{IsAdmin: isAdmin})
}

func (s *Server) listFlowers(c *gin.Context) {
	c.JSON(http.StatusOK, s.repo.Flowers())
}

type flowerReq struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
}

func (r flowerReq) validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if !r.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrInvalid)
	}
	if r.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalid)
	}
	return nil
}

func (s *Server) createFlower(c *gin.Context) {
	var req flowerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	if err := req.validate(); err != nil {
		writeError(c, err)
		return
	}
	f := s.repo.CreateFlower(models.Flower{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Image:       req.Image,
	})
	c.JSON(http.StatusCreated, f)
}

func (s *Server) getFlower(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	f, err := s.repo.Flower(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (s *Server) updateFlower(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req flowerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	if err := req.validate(); err != nil {
		writeError(c, err)
		return
	}
	err := s.repo.UpdateFlower(models.Flower{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Image:       req.Image,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	f, _ := s.repo.Flower(id)
	c.JSON(http.StatusOK, f)
}

func (s *Server) deleteFlower(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.repo.DeleteFlower(id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) careTips(c *gin.Context) {
	c.JSON(http.StatusOK, s.repo.CareTips())
}

type cartReq struct {
	Flower   int64 `json:"flower"`
	Quantity int   `json:"quantity"`
}

func (s *Server) listCart(c *gin.Context) {
	lines := s.repo.Cart(c.GetInt64(userIDKey))
	if lines == nil {
		lines = []models.CartLine{}
	}
	c.JSON(http.StatusOK, lines)
}

func (s *Server) addToCart(c *gin.Context) {
	var req cartReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	if err := s.repo.AddToCart(c.GetInt64(userIDKey), req.Flower, req.Quantity); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Added to cart."})
}

func (s *Server) removeFromCart(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.repo.RemoveFromCart(c.GetInt64(userIDKey), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listComments(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	comments := s.repo.Comments(id)
	if comments == nil {
		comments = []models.Comment{}
	}
	c.JSON(http.StatusOK, comments)
}

func (s *Server) canComment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("flower_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "flower_id is required"})
		return
	}
	c.JSON(http.StatusOK, models.Eligibility{CanComment: s.repo.HasOrdered(c.GetInt64(userIDKey), id)})
}

type commentReq struct {
	Flower int64  `json:"flower"`
	Body   string `json:"body"`
}

func (s *Server) addComment(c *gin.Context) {
	var req commentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	userID := c.GetInt64(userIDKey)
	if !s.repo.HasOrdered(userID, req.Flower) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You can only review flowers you have ordered."})
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"body": []string{"This field may not be blank."}})
		return
	}
	comment, err := s.repo.AddComment(userID, req.Flower, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (s *Server) editComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req commentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := s.repo.EditComment(c.GetInt64(userIDKey), id, req.Body); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment updated."})
}

func (s *Server) deleteComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.repo.DeleteComment(c.GetInt64(userIDKey), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) contact(c *gin.Context) {
	var req Contact
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Name == "" || req.Email == "" || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required."})
		return
	}
	s.repo.AddContact(req)
	c.JSON(http.StatusCreated, gin.H{"message": "Message sent."})
}

func (s *Server) createOrder(c *gin.Context) {
	var req cartReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.repo.CreateOrder(c.GetInt64(userIDKey), req.Flower, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (s *Server) myOrders(c *gin.Context) {
	orders := s.repo.Orders(c.GetInt64(userIDKey))
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (s *Server) allOrders(c *gin.Context) {
	orders := s.repo.Orders(0)
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (s *Server) myStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.repo.Stats(c.GetInt64(userIDKey), false))
}

func (s *Server) allStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.repo.Stats(0, true))
}

func (s *Server) payment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	tx, err := s.repo.Pay(c.GetInt64(userIDKey), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PaymentRedirect{RedirectURL: PaymentGatewayURL + tx})
}

// PaymentGatewayURL prefixes the redirect URLs handed out by the payment endpoint.
const PaymentGatewayURL = "https://payments.example.com/checkout/"

func (s *Server) passwordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if _, _, err := s.repo.StartPasswordReset(req.Email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No account found with this email."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset link sent to your email."})
}

func (s *Server) resetPassword(c *gin.Context) {
	var req struct {
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.NewPassword == "" || req.NewPassword != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match."})
		return
	}
	if err := s.repo.ResetPassword(c.Param("uid"), c.Param("token"), req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reset link is invalid or expired."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset."})
}
