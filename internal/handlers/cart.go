package handlers

import (
	"context"
	"net/http"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/mutation"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/resource"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/session"
)

// Cart lists the user's cart. Logged-out visitors get the log-in prompt and
// the cart endpoint is never called for them.
func (a *App) Cart(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	cart := a.cart(r.Context(), s)
	if a.rejected(w, r, cart.Err) {
		return
	}
	data := a.page(w, r, "Cart")
	data["Cart"] = cart
	a.render(w, http.StatusOK, "cart.html", data)
}

func (a *App) AddToCart(w http.ResponseWriter, r *http.Request) {
	s, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	id := formID(r, "flower_id")
	back := r.Referer()
	if id > 0 {
		back = flowerURL(id)
	}
	if back == "" {
		back = "/"
	}

	flower := a.flower(r.Context(), id)
	if id == 0 || !flower.Ready() {
		a.redirect(w, r, back, models.Failure("Flower data not found!"))
		return
	}

	out := a.Exec.Run(r.Context(), mutation.Mutation{
		Name:        "add_to_cart",
		Invalidates: []resource.Key{cartKey(s)},
		Success:     "Flower added to cart successfully!",
		Fallback:    "Failed to add to cart!",
		Redirect:    "/cart",
	}, func(ctx context.Context) error {
		return a.API.AddToCart(ctx, s, flower.Data)
	})
	a.settle(w, r, out, back)
}

func (a *App) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.NotFound(w, r)
		return
	}
	s, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	out := a.Exec.Run(r.Context(), mutation.Mutation{
		Name:        "remove_from_cart",
		Invalidates: []resource.Key{cartKey(s)},
		Success:     "Removed from cart!",
		Fallback:    "Failed to remove!",
		Redirect:    "/cart",
	}, func(ctx context.Context) error {
		return a.API.RemoveFromCart(ctx, s, id)
	})
	a.settle(w, r, out, "/cart")
}
