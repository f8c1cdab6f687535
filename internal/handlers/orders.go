package handlers

import (
	"context"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/bus"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/mutation"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/resource"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/session"
)

// OrderHistory shows the user's orders and their totals.
func (a *App) OrderHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := session.FromContext(ctx)

	var (
		orders resource.Result[[]models.Order]
		stats  resource.Result[models.Stats]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { orders = a.orders(gctx, s); return nil })
	g.Go(func() error { stats = a.stats(gctx, s); return nil })
	g.Wait()

	if a.rejected(w, r, orders.Err, stats.Err) {
		return
	}
	data := a.page(w, r, "Order History")
	data["Orders"] = orders
	data["Stats"] = stats
	a.render(w, http.StatusOK, "orders.html", data)
}

// orderKeys are the reads an order or payment changes.
func orderKeys(s session.Session, flowerID int64) []resource.Key {
	return []resource.Key{
		ordersKey(s),
		statsKey(s),
		canCommentKey(s, flowerID),
		flowerKey(flowerID),
		flowersKey,
		adminOrdersKey,
		adminStatsKey,
	}
}

// PlaceOrder creates an order for the flower and tells every open order
// history page of the user about it.
func (a *App) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.NotFound(w, r)
		return
	}
	s, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	back := flowerURL(id)

	quantity := 1
	if q := r.FormValue("quantity"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			a.redirect(w, r, back, models.Failure("Quantity must be at least 1."))
			return
		}
		quantity = n
	}

	out := a.Exec.Run(r.Context(), mutation.Mutation{
		Name:        "place_order",
		Invalidates: orderKeys(s, id),
		Publish:     []bus.Event{{Topic: bus.TopicOrderPlaced, Scope: s.Scope()}},
		Success:     "Order placed successfully! Please Check Your Email.",
		Fallback:    "Failed to place order!",
		Redirect:    "/orders",
	}, func(ctx context.Context) error {
		return a.API.CreateOrder(ctx, s, id, quantity)
	})
	a.settle(w, r, out, back)
}

// Pay sends the user to the payment gateway for their order of the flower.
// Only users who ordered the flower may pay for it.
func (a *App) Pay(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.NotFound(w, r)
		return
	}
	s, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	back := flowerURL(id)

	eligible := a.canComment(r.Context(), s, id)
	if a.rejected(w, r, eligible.Err) {
		return
	}
	if !eligible.Ready() || !eligible.Data {
		a.redirect(w, r, back, models.Failure("You must order this flower before making a payment!"))
		return
	}

	var target string
	out := a.Exec.Run(r.Context(), mutation.Mutation{
		Name:        "payment",
		Invalidates: orderKeys(s, id),
		Fallback:    "Payment could not be started. Please try again.",
	}, func(ctx context.Context) error {
		u, err := a.API.PaymentRedirect(ctx, s, id)
		target = u
		return err
	})
	if out.OK() {
		out.Redirect = target
	}
	a.settle(w, r, out, back)
}
