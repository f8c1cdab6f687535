package handlers

import (
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/apiclient"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/resource"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/session"
)

// Home lists the catalogue with an optional category filter and title search,
// followed by the care tips.
func (a *App) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		flowers resource.Result[[]models.Flower]
		tips    resource.Result[[]models.CareTip]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { flowers = a.flowers(gctx); return nil })
	g.Go(func() error { tips = a.careTips(gctx); return nil })
	g.Wait()

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var visible []models.Flower
	for _, f := range flowers.Data {
		if !f.InCategory(category) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(f.Title), strings.ToLower(query)) {
			continue
		}
		visible = append(visible, f)
	}

	data := a.page(w, r, "Flowers")
	data["Flowers"] = flowers
	data["Visible"] = visible
	data["Categories"] = models.Categories(flowers.Data)
	data["Category"] = category
	data["Query"] = query
	data["CareTips"] = tips
	a.render(w, http.StatusOK, "home.html", data)
}

// FlowerDetail shows one flower with its reviews. Reviews and the review
// eligibility flag are only read for logged-in users.
func (a *App) FlowerDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.NotFound(w, r)
		return
	}
	ctx := r.Context()
	s := session.FromContext(ctx)

	var (
		flower     resource.Result[models.Flower]
		comments   resource.Result[[]models.Comment]
		canComment resource.Result[bool]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { flower = a.flower(gctx, id); return nil })
	g.Go(func() error { comments = a.comments(gctx, s, id); return nil })
	g.Go(func() error { canComment = a.canComment(gctx, s, id); return nil })
	g.Wait()

	if a.rejected(w, r, comments.Err, canComment.Err) {
		return
	}
	if flower.Failed() && apiclient.KindOf(flower.Err) == apiclient.KindValidation {
		data := a.page(w, r, "Not found")
		notice(data, models.Failure("Flower data not found!"))
		a.render(w, http.StatusNotFound, "not_found.html", data)
		return
	}

	data := a.page(w, r, "Flower")
	if flower.Ready() {
		data["Title"] = flower.Data.Title
	}
	data["ID"] = id
	data["Flower"] = flower
	data["Comments"] = comments
	data["CanComment"] = canComment
	a.render(w, http.StatusOK, "flower.html", data)
}
