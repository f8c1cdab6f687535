package apitest

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
)

// Seeded credentials.
const (
	AdminUsername    = "admin"
	AdminPassword    = "admin-pass-123"
	CustomerUsername = "rose"
	CustomerPassword = "rose-pass-123"
	CustomerEmail    = "rose@example.com"
)

// Seed fills the repository with an admin, a verified customer, a few
// flowers and care tips.
func (s *Server) Seed() {
	s.repo.CreateAccount(NewAccount{
		Username: AdminUsername, Email: "admin@example.com", FirstName: "Site", LastName: "Admin",
		Password: AdminPassword, Active: true, IsAdmin: true,
	})
	s.repo.CreateAccount(NewAccount{
		Username: CustomerUsername, Email: CustomerEmail, FirstName: "Rose", LastName: "Bloom",
		Password: CustomerPassword, Active: true,
		ProfileImg: "https://images.example.com/rose.jpg",
	})

	flowers := []models.Flower{
		{Title: "Red Rose Bouquet", Description: "Twelve long-stem red roses.", Price: decimal.RequireFromString("1200.00"), Stock: 10, Category: "Roses", Image: "https://images.example.com/red-rose.jpg"},
		{Title: "White Lilies", Description: "Fragrant white lilies.", Price: decimal.RequireFromString("850.50"), Stock: 5, Category: "Lilies", Image: "https://images.example.com/lilies.jpg"},
		{Title: "Tulip Mix", Description: "Seasonal tulips in mixed colours.", Price: decimal.RequireFromString("640.00"), Stock: 0, Category: "Tulips", Image: "https://images.example.com/tulips.jpg"},
	}
	for _, f := range flowers {
		s.repo.CreateFlower(f)
	}

	s.repo.AddCareTip(models.CareTip{
		PlantName:             "Rose",
		Symptoms:              "Yellow leaves",
		RevivalSteps:          "Remove affected leaves and water at the base.",
		RecommendedFertilizer: "Balanced 10-10-10",
		WateringCaution:       "Avoid wetting foliage.",
	})
	s.repo.AddCareTip(models.CareTip{
		PlantName:             "Orchid",
		Symptoms:              "Wrinkled leaves",
		RevivalSteps:          "Soak roots for 15 minutes weekly.",
		RecommendedFertilizer: "Orchid fertilizer, quarter strength",
		WateringCaution:       "Never leave roots standing in water.",
	})
}

// NewTestServer starts a seeded fake API for the duration of the test and
// returns it with its base URL.
func NewTestServer(t testing.TB) (*Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := New(WithPasswordCost(bcrypt.MinCost))
	s.Seed()
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts.URL
}
