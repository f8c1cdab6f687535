package apitest

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrForbidden = errors.New("forbidden")
	ErrInvalid   = errors.New("invalid input")
)

type account struct {
	models.User
	PasswordHash []byte
	Active       bool
	IsAdmin      bool
	OTP          string
}

type cartEntry struct {
	models.CartLine
	UserID int64
}

type orderEntry struct {
	models.Order
	UserID   int64
	FlowerID int64
}

type commentEntry struct {
	models.Comment
	UserID int64
}

type resetEntry struct {
	UserID int64
	Token  string
}

// Repository is the in-memory state behind the fake API.
type Repository struct {
	mu   sync.RWMutex
	cost int

	nextUserID    int64
	nextFlowerID  int64
	nextCartID    int64
	nextOrderID   int64
	nextCommentID int64

	users    map[int64]*account
	flowers  map[int64]models.Flower
	cart     map[int64]cartEntry
	orders   map[int64]orderEntry
	comments map[int64]commentEntry
	tips     []models.CareTip
	resets   map[string]resetEntry
	contacts []Contact
}

type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func NewRepository(cost int) *Repository {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Repository{
		cost:          cost,
		nextUserID:    1,
		nextFlowerID:  1,
		nextCartID:    1,
		nextOrderID:   1,
		nextCommentID: 1,
		users:         make(map[int64]*account),
		flowers:       make(map[int64]models.Flower),
		cart:          make(map[int64]cartEntry),
		orders:        make(map[int64]orderEntry),
		comments:      make(map[int64]commentEntry),
		resets:        make(map[string]resetEntry),
	}
}

func newOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "123456"
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// Users

type NewAccount struct {
	Username   string
	Email      string
	FirstName  string
	LastName   string
	Password   string
	ProfileImg string
	Active     bool
	IsAdmin    bool
}

func (r *Repository) CreateAccount(in NewAccount) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), r.cost)
	if err != nil {
		return models.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.users {
		if strings.EqualFold(a.Username, in.Username) {
			return models.User{}, fmt.Errorf("%w: a user with that username already exists", ErrConflict)
		}
		if strings.EqualFold(a.Email, in.Email) {
			return models.User{}, fmt.Errorf("%w: a user with that email already exists", ErrConflict)
		}
	}
	a := &account{
		User: models.User{
			ID:         r.nextUserID,
			Username:   in.Username,
			Email:      in.Email,
			FirstName:  in.FirstName,
			LastName:   in.LastName,
			ProfileImg: in.ProfileImg,
		},
		PasswordHash: hash,
		Active:       in.Active,
		IsAdmin:      in.IsAdmin,
	}
	if !a.Active {
		a.OTP = newOTP()
	}
	r.nextUserID++
	r.users[a.ID] = a
	return a.User, nil
}

// Authenticate checks credentials of an active account.
func (r *Repository) Authenticate(username, password string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.users {
		if a.Username != username {
			continue
		}
		if bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)) != nil {
			break
		}
		if !a.Active {
			return models.User{}, fmt.Errorf("%w: please verify your email first", ErrForbidden)
		}
		return a.User, nil
	}
	return models.User{}, fmt.Errorf("%w: invalid username or password", ErrInvalid)
}

func (r *Repository) byEmail(email string) *account {
	for _, a := range r.users {
		if strings.EqualFold(a.Email, email) {
			return a
		}
	}
	return nil
}

// OTP returns the pending OTP for email, for tests and local development.
func (r *Repository) OTP(email string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a := r.byEmail(email); a != nil {
		return a.OTP
	}
	return ""
}

func (r *Repository) VerifyOTP(email, otp string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.byEmail(email)
	if a == nil || a.OTP == "" || a.OTP != otp {
		return fmt.Errorf("%w: invalid OTP", ErrInvalid)
	}
	a.Active = true
	a.OTP = ""
	return nil
}

func (r *Repository) ResendOTP(email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.byEmail(email)
	if a == nil {
		return fmt.Errorf("%w: no account for this email", ErrNotFound)
	}
	if a.Active {
		return fmt.Errorf("%w: account already verified", ErrInvalid)
	}
	a.OTP = newOTP()
	return nil
}

func (r *Repository) User(id int64) (models.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.users[id]
	if !ok {
		return models.User{}, false, ErrNotFound
	}
	return a.User, a.IsAdmin, nil
}

func (r *Repository) Users() []models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.User, 0, len(r.users))
	for _, a := range r.users {
		out = append(out, a.User)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Repository) UpdateUser(u models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	for _, other := range r.users {
		if other.ID != u.ID && strings.EqualFold(other.Username, u.Username) {
			return fmt.Errorf("%w: a user with that username already exists", ErrConflict)
		}
	}
	a.Username = u.Username
	a.FirstName = u.FirstName
	a.LastName = u.LastName
	a.Email = u.Email
	if u.ProfileImg != "" {
		a.ProfileImg = u.ProfileImg
	}
	return nil
}

// StartPasswordReset returns the uid and token of a new reset link.
func (r *Repository) StartPasswordReset(email string) (string, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.byEmail(email)
	if a == nil {
		return "", "", fmt.Errorf("%w: no account for this email", ErrNotFound)
	}
	uid := fmt.Sprintf("u%d", a.ID)
	token := uuid.NewString()
	r.resets[uid] = resetEntry{UserID: a.ID, Token: token}
	return uid, token, nil
}

func (r *Repository) ResetPassword(uid, token, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.resets[uid]
	if !ok || entry.Token != token {
		return fmt.Errorf("%w: reset link is invalid or expired", ErrInvalid)
	}
	delete(r.resets, uid)
	r.users[entry.UserID].PasswordHash = hash
	return nil
}

// Flowers

func (r *Repository) CreateFlower(f models.Flower) models.Flower {
	r.mu.Lock()
	defer r.mu.Unlock()
	f.ID = r.nextFlowerID
	r.nextFlowerID++
	r.flowers[f.ID] = f
	return f
}

func (r *Repository) Flowers() []models.Flower {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Flower, 0, len(r.flowers))
	for _, f := range r.flowers {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Repository) Flower(id int64) (models.Flower, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.flowers[id]
	if !ok {
		return models.Flower{}, ErrNotFound
	}
	return f, nil
}

func (r *Repository) UpdateFlower(f models.Flower) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.flowers[f.ID]
	if !ok {
		return ErrNotFound
	}
	if f.Image == "" {
		f.Image = old.Image
	}
	r.flowers[f.ID] = f
	return nil
}

func (r *Repository) DeleteFlower(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.flowers[id]; !ok {
		return ErrNotFound
	}
	delete(r.flowers, id)
	for cid, c := range r.cart {
		if c.FlowerID == id {
			delete(r.cart, cid)
		}
	}
	return nil
}

func (r *Repository) AddCareTip(t models.CareTip) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = int64(len(r.tips) + 1)
	r.tips = append(r.tips, t)
}

func (r *Repository) CareTips() []models.CareTip {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.CareTip(nil), r.tips...)
}

// Cart

func (r *Repository) AddToCart(userID, flowerID int64, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flowers[flowerID]
	if !ok {
		return ErrNotFound
	}
	for _, c := range r.cart {
		if c.UserID == userID && c.FlowerID == flowerID {
			return fmt.Errorf("%w: product already added to your cart", ErrConflict)
		}
	}
	if quantity < 1 {
		quantity = 1
	}
	line := cartEntry{
		UserID: userID,
		CartLine: models.CartLine{
			ID:          r.nextCartID,
			Flower:      f.Title,
			FlowerID:    f.ID,
			Price:       f.Price,
			Description: f.Description,
			Stock:       f.Stock,
			Category:    f.Category,
			Image:       f.Image,
			Quantity:    quantity,
			AddedAt:     models.Timestamp{Time: time.Now().UTC()},
		},
	}
	r.nextCartID++
	r.cart[line.ID] = line
	return nil
}

func (r *Repository) Cart(userID int64) []models.CartLine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.CartLine
	for _, c := range r.cart {
		if c.UserID == userID {
			out = append(out, c.CartLine)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Repository) RemoveFromCart(userID, lineID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cart[lineID]
	if !ok || c.UserID != userID {
		return ErrNotFound
	}
	delete(r.cart, lineID)
	return nil
}

// Orders

func (r *Repository) CreateOrder(userID, flowerID int64, quantity int) (models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flowers[flowerID]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	if quantity < 1 {
		return models.Order{}, fmt.Errorf("%w: quantity must be at least 1", ErrInvalid)
	}
	if f.Stock < quantity {
		return models.Order{}, fmt.Errorf("%w: not enough stock", ErrInvalid)
	}
	f.Stock -= quantity
	r.flowers[f.ID] = f

	o := orderEntry{
		UserID:   userID,
		FlowerID: flowerID,
		Order: models.Order{
			ID:        r.nextOrderID,
			User:      r.users[userID].Username,
			Flower:    f.Title,
			Quantity:  quantity,
			Price:     f.Price.Mul(decimal.NewFromInt(int64(quantity))),
			Status:    models.OrderStatusPending,
			OrderDate: models.Timestamp{Time: time.Now().UTC()},
		},
	}
	r.nextOrderID++
	r.orders[o.ID] = o
	return o.Order, nil
}

// Orders lists orders newest first; userID 0 lists everyone's.
func (r *Repository) Orders(userID int64) []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Order
	for _, o := range r.orders {
		if userID == 0 || o.UserID == userID {
			out = append(out, o.Order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *Repository) HasOrdered(userID, flowerID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.UserID == userID && o.FlowerID == flowerID {
			return true
		}
	}
	return false
}

// Pay completes the oldest pending order of userID for flowerID.
func (r *Repository) Pay(userID, flowerID int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending *orderEntry
	for _, o := range r.orders {
		if o.UserID == userID && o.FlowerID == flowerID && o.Status == models.OrderStatusPending {
			if pending == nil || o.ID < pending.ID {
				o := o
				pending = &o
			}
		}
	}
	if pending == nil {
		return "", fmt.Errorf("%w: no pending order for this flower", ErrInvalid)
	}
	tx := uuid.NewString()
	pending.Status = models.OrderStatusCompleted
	pending.TransactionID = &tx
	r.orders[pending.ID] = *pending
	return tx, nil
}

// Stats aggregates orders of userID, or all orders when userID is 0.
func (r *Repository) Stats(userID int64, withProfit bool) models.Stats {
	var s models.Stats
	paid := decimal.Zero
	total := decimal.Zero
	for _, o := range r.Orders(userID) {
		s.TotalOrders++
		total = total.Add(o.Price)
		if o.Completed() {
			s.CompletedPayments++
			paid = paid.Add(o.Price)
		} else {
			s.PendingPayments++
		}
	}
	s.TotalOrderAmount = total
	s.TotalPaymentsAmount = paid
	if withProfit {
		profit := paid.Mul(decimal.RequireFromString("0.2")).Round(2)
		s.TotalProfit = &profit
	}
	return s
}

// Comments

func (r *Repository) AddComment(userID, flowerID int64, body string) (models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.flowers[flowerID]; !ok {
		return models.Comment{}, ErrNotFound
	}
	a := r.users[userID]
	c := commentEntry{
		UserID: userID,
		Comment: models.Comment{
			ID:         r.nextCommentID,
			Flower:     flowerID,
			User:       a.Username,
			ProfileImg: a.ProfileImg,
			Body:       body,
			CreatedOn:  models.Timestamp{Time: time.Now().UTC()},
		},
	}
	r.nextCommentID++
	r.comments[c.ID] = c
	return c.Comment, nil
}

func (r *Repository) Comments(flowerID int64) []models.Comment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Comment
	for _, c := range r.comments {
		if c.Flower == flowerID {
			out = append(out, c.Comment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Repository) EditComment(userID, commentID int64, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[commentID]
	if !ok {
		return ErrNotFound
	}
	if c.UserID != userID {
		return fmt.Errorf("%w: you can only edit your own comments", ErrForbidden)
	}
	c.Body = body
	r.comments[commentID] = c
	return nil
}

func (r *Repository) DeleteComment(userID, commentID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[commentID]
	if !ok {
		return ErrNotFound
	}
	if c.UserID != userID {
		return fmt.Errorf("%w: you can only delete your own comments", ErrForbidden)
	}
	delete(r.comments, commentID)
	return nil
}

func (r *Repository) AddContact(c Contact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contacts = append(r.contacts, c)
}

func (r *Repository) Contacts() []Contact {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Contact(nil), r.contacts...)
}

// PendingReset returns the outstanding reset link of email, if any.
func (r *Repository) PendingReset(email string) (uid, token string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a := r.byEmail(email)
	if a == nil {
		return "", ""
	}
	for id, e := range r.resets {
		if e.UserID == a.ID {
			return id, e.Token
		}
	}
	return "", ""
}
