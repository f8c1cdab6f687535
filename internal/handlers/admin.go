package handlers

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/resource"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/session"
)

// Dashboard lists every order with the shop-wide totals.
func (a *App) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := session.FromContext(ctx)

	var (
		orders resource.Result[[]models.Order]
		stats  resource.Result[models.Stats]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		orders = resource.Fetch(gctx, a.Cache, resource.Query[[]models.Order]{
			Key:     adminOrdersKey,
			Enabled: true,
			Load: func(ctx context.Context) ([]models.Order, error) {
				return a.API.AllOrders(ctx, s)
			},
		})
		return nil
	})
	g.Go(func() error {
		stats = resource.Fetch(gctx, a.Cache, resource.Query[models.Stats]{
			Key:     adminStatsKey,
			Enabled: true,
			Load: func(ctx context.Context) (models.Stats, error) {
				return a.API.AllStats(ctx, s)
			},
		})
		return nil
	})
	g.Wait()

	if a.rejected(w, r, orders.Err, stats.Err) {
		return
	}
	data := a.page(w, r, "Admin Dashboard")
	data["Orders"] = orders
	data["Stats"] = stats
	a.render(w, http.StatusOK, "admin.html", data)
}

func (a *App) Users(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	users := resource.Fetch(r.Context(), a.Cache, resource.Query[[]models.User]{
		Key:     usersKey,
		Enabled: true,
		Load: func(ctx context.Context) ([]models.User, error) {
			return a.API.Users(ctx, s)
		},
	})
	if a.rejected(w, r, users.Err) {
		return
	}
	data := a.page(w, r, "Users")
	data["Users"] = users
	a.render(w, http.StatusOK, "admin_users.html", data)
}
