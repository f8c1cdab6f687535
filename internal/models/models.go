package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Flower is a catalogue product as served by the remote API.
type Flower struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
}

// InCategory reports whether the flower belongs to category, ignoring case.
// The empty category and "All" match everything.
func (f Flower) InCategory(category string) bool {
	if category == "" || strings.EqualFold(category, CategoryAll) {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(f.Category), strings.TrimSpace(category))
}

const CategoryAll = "All"

// SuggestedCategories are offered in forms but never enforced.
var SuggestedCategories = []string{
	"Roses",
	"Lilies",
	"Tulips",
	"Orchids",
	"Mixed Bouquets",
	"Seasonal Flowers",
}

// Categories returns the distinct categories present in flowers, in first-seen order.
func Categories(flowers []Flower) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range flowers {
		key := strings.ToLower(strings.TrimSpace(f.Category))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(f.Category))
	}
	return out
}

type CareTip struct {
	ID                    int64  `json:"id"`
	PlantName             string `json:"plant_name"`
	Symptoms              string `json:"symptoms"`
	RevivalSteps          string `json:"revival_steps"`
	RecommendedFertilizer string `json:"recommended_fertilizer"`
	WateringCaution       string `json:"watering_caution"`
}

// CartLine is one entry of the user's cart. Flower holds the product title.
type CartLine struct {
	ID          int64           `json:"id"`
	Flower      string          `json:"flower"`
	FlowerID    int64           `json:"flower_id,omitempty"`
	Price       decimal.Decimal `json:"flower_price"`
	Description string          `json:"flower_description"`
	Stock       int             `json:"flower_stock"`
	Category    string          `json:"flower_category"`
	Image       string          `json:"flower_image"`
	Quantity    int             `json:"quantity"`
	AddedAt     Timestamp       `json:"added_at"`
}

// Subtotal is price times quantity; a zero quantity counts as one.
func (l CartLine) Subtotal() decimal.Decimal {
	q := l.Quantity
	if q <= 0 {
		q = 1
	}
	return l.Price.Mul(decimal.NewFromInt(int64(q)))
}

// CartLines decodes either a bare array or an object wrapping it in "data".
type CartLines []CartLine

func (c *CartLines) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, "[") {
		var lines []CartLine
		if err := json.Unmarshal(b, &lines); err != nil {
			return err
		}
		*c = lines
		return nil
	}
	var wrapped struct {
		Data []CartLine `json:"data"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	*c = wrapped.Data
	return nil
}

func (c CartLines) Count() int { return len(c) }

func (c CartLines) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c {
		total = total.Add(l.Subtotal())
	}
	return total
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusCompleted OrderStatus = "Completed"
)

// Order as listed in the order history. Flower holds the product title and
// User is only filled in the admin listing.
type Order struct {
	ID            int64           `json:"id"`
	User          string          `json:"user,omitempty"`
	Flower        string          `json:"flower"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	Status        OrderStatus     `json:"status"`
	TransactionID *string         `json:"transaction_id"`
	OrderDate     Timestamp       `json:"order_date"`
}

func (o Order) Completed() bool { return o.Status == OrderStatusCompleted }

// Transaction returns the transaction id or "N/A".
func (o Order) Transaction() string {
	if o.TransactionID == nil || *o.TransactionID == "" {
		return "N/A"
	}
	return *o.TransactionID
}

type Comment struct {
	ID         int64     `json:"id"`
	Flower     int64     `json:"flower,omitempty"`
	User       string    `json:"user"`
	ProfileImg string    `json:"profile_img"`
	Body       string    `json:"body"`
	CreatedOn  Timestamp `json:"created_on"`
}

// OwnedBy reports whether username wrote the comment.
func (c Comment) OwnedBy(username string) bool {
	return username != "" && c.User == username
}

type User struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	ProfileImg string `json:"profile_img"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Stats are server-computed order aggregates and are shown as received.
// TotalProfit is only present in the admin variant.
type Stats struct {
	TotalOrders         int              `json:"Total_Orders"`
	CompletedPayments   int              `json:"Completed_Payments"`
	PendingPayments     int              `json:"Pending_Payments"`
	TotalPaymentsAmount decimal.Decimal  `json:"Total Payments Amount"`
	TotalOrderAmount    decimal.Decimal  `json:"Total Order Amount"`
	TotalProfit         *decimal.Decimal `json:"Total Profit,omitempty"`
}

type Eligibility struct {
	CanComment bool `json:"can_comment"`
}

type AdminStatus struct {
	IsAdmin bool `json:"is_admin"`
}

type PaymentRedirect struct {
	RedirectURL string `json:"redirect_url"`
}

// Notice is a one-shot message shown on the next rendered page.
type Notice struct {
	Type    string
	Message string
}

const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeInfo    = "info"
)

func Success(msg string) Notice { return Notice{Type: NoticeSuccess, Message: msg} }
func Failure(msg string) Notice { return Notice{Type: NoticeError, Message: msg} }
