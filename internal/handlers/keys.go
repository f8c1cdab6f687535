package handlers

import (
	"context"
	"strconv"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/resource"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/session"
)

// Shared data is cached under public keys even when the endpoint needs a
// token; per-user data lives in the user's scope.
var (
	flowersKey     = resource.Public("flowers")
	careTipsKey    = resource.Public("careTips")
	usersKey       = resource.Public("users")
	adminOrdersKey = resource.Public("adminOrders")
	adminStatsKey  = resource.Public("adminStats")
)

func idParam(id int64) string { return strconv.FormatInt(id, 10) }

func flowerKey(id int64) resource.Key { return resource.Public("flower").With(idParam(id)) }
func commentsKey(id int64) resource.Key { return resource.Public("comments").With(idParam(id)) }

func canCommentKey(s session.Session, id int64) resource.Key {
	return resource.Private(s.Scope(), "canComment").With(idParam(id))
}

func cartKey(s session.Session) resource.Key { return resource.Private(s.Scope(), "cart") }
func ordersKey(s session.Session) resource.Key { return resource.Private(s.Scope(), "orders") }
func statsKey(s session.Session) resource.Key { return resource.Private(s.Scope(), "stats") }
func profileKey(s session.Session) resource.Key { return resource.Private(s.Scope(), "profile") }
func adminKey(s session.Session) resource.Key { return resource.Private(s.Scope(), "admin") }

func (a *App) flowers(ctx context.Context) resource.Result[[]models.Flower] {
	return resource.Fetch(ctx, a.Cache, resource.Query[[]models.Flower]{
		Key: flowersKey, Enabled: true, Load: a.API.Flowers,
	})
}

func (a *App) careTips(ctx context.Context) resource.Result[[]models.CareTip] {
	return resource.Fetch(ctx, a.Cache, resource.Query[[]models.CareTip]{
		Key: careTipsKey, Enabled: true, Load: a.API.CareTips,
	})
}

func (a *App) flower(ctx context.Context, id int64) resource.Result[models.Flower] {
	return resource.Fetch(ctx, a.Cache, resource.Query[models.Flower]{
		Key:     flowerKey(id),
		Enabled: true,
		Load: func(ctx context.Context) (models.Flower, error) {
			return a.API.Flower(ctx, id)
		},
	})
}

func (a *App) comments(ctx context.Context, s session.Session, id int64) resource.Result[[]models.Comment] {
	return resource.Fetch(ctx, a.Cache, resource.Query[[]models.Comment]{
		Key:     commentsKey(id),
		Enabled: s.Valid(),
		Load: func(ctx context.Context) ([]models.Comment, error) {
			return a.API.Comments(ctx, s, id)
		},
	})
}

func (a *App) canComment(ctx context.Context, s session.Session, id int64) resource.Result[bool] {
	return resource.Fetch(ctx, a.Cache, resource.Query[bool]{
		Key:     canCommentKey(s, id),
		Enabled: s.Valid(),
		Load: func(ctx context.Context) (bool, error) {
			return a.API.CanComment(ctx, s, id)
		},
	})
}

func (a *App) cart(ctx context.Context, s session.Session) resource.Result[models.CartLines] {
	return resource.Fetch(ctx, a.Cache, resource.Query[models.CartLines]{
		Key:     cartKey(s),
		Enabled: s.Valid(),
		Load:    a.loadCart(s),
	})
}

func (a *App) loadCart(s session.Session) func(context.Context) (models.CartLines, error) {
	return func(ctx context.Context) (models.CartLines, error) { return a.API.Cart(ctx, s) }
}

func (a *App) orders(ctx context.Context, s session.Session) resource.Result[[]models.Order] {
	return resource.Fetch(ctx, a.Cache, resource.Query[[]models.Order]{
		Key:     ordersKey(s),
		Enabled: s.Valid(),
		Load:    a.loadOrders(s),
	})
}

func (a *App) loadOrders(s session.Session) func(context.Context) ([]models.Order, error) {
	return func(ctx context.Context) ([]models.Order, error) { return a.API.MyOrders(ctx, s) }
}

func (a *App) stats(ctx context.Context, s session.Session) resource.Result[models.Stats] {
	return resource.Fetch(ctx, a.Cache, resource.Query[models.Stats]{
		Key:     statsKey(s),
		Enabled: s.Valid(),
		Load:    a.loadStats(s),
	})
}

func (a *App) loadStats(s session.Session) func(context.Context) (models.Stats, error) {
	return func(ctx context.Context) (models.Stats, error) { return a.API.MyStats(ctx, s) }
}

func (a *App) profile(ctx context.Context, s session.Session) resource.Result[models.User] {
	return resource.Fetch(ctx, a.Cache, resource.Query[models.User]{
		Key:     profileKey(s),
		Enabled: s.Valid(),
		Load: func(ctx context.Context) (models.User, error) {
			return a.API.User(ctx, s, s.UserID)
		},
	})
}

// isAdmin asks the API once per user and caches the answer.
func (a *App) isAdmin(ctx context.Context, s session.Session) bool {
	res := resource.Fetch(ctx, a.Cache, resource.Query[bool]{
		Key:     adminKey(s),
		Enabled: s.Valid(),
		Load: func(ctx context.Context) (bool, error) {
			return a.API.IsAdmin(ctx, s)
		},
	})
	return res.Ready() && res.Data
}
