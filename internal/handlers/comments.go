package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/mutation"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/resource"
)

func flowerURL(id int64) string { return fmt.Sprintf("/flowers/%d", id) }

// AddComment posts a review. The API decides who may review; the form is
// refused up front when the cached eligibility flag says no.
func (a *App) AddComment(w http.ResponseWriter, r *http.Request) {
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
		a.redirect(w, r, back, models.Failure("You must order this flower to comment!"))
		return
	}

	body := r.FormValue("body")
	out := a.Exec.Run(r.Context(), mutation.Mutation{
		Name:        "add_comment",
		Invalidates: []resource.Key{commentsKey(id)},
		Success:     "Comment added successfully!",
		Fallback:    "Failed to add comment!",
		Redirect:    back,
	}, func(ctx context.Context) error {
		return a.API.AddComment(ctx, s, id, body)
	})
	a.settle(w, r, out, back)
}

// EditComment changes the body of one of the user's own reviews.
func (a *App) EditComment(w http.ResponseWriter, r *http.Request) {
	a.changeComment(w, r, false)
}

func (a *App) DeleteComment(w http.ResponseWriter, r *http.Request) {
	a.changeComment(w, r, true)
}

func (a *App) changeComment(w http.ResponseWriter, r *http.Request, remove bool) {
	commentID, err := pathID(r, "id")
	if err != nil {
		a.NotFound(w, r)
		return
	}
	s, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	flowerID := formID(r, "flower_id")
	back := "/"
	var invalidates []resource.Key
	if flowerID > 0 {
		back = flowerURL(flowerID)
		invalidates = append(invalidates, commentsKey(flowerID))
	} else {
		invalidates = append(invalidates, resource.Public("comments"))
	}

	m := mutation.Mutation{
		Name:        "edit_comment",
		Invalidates: invalidates,
		Success:     "Comment updated successfully!",
		Fallback:    "Failed to update comment!",
		Redirect:    back,
	}
	fn := func(ctx context.Context) error {
		return a.API.EditComment(ctx, s, commentID, r.FormValue("body"))
	}
	if remove {
		m.Name = "delete_comment"
		m.Success = "Comment deleted successfully!"
		m.Fallback = "Failed to delete comment!"
		fn = func(ctx context.Context) error {
			return a.API.DeleteComment(ctx, s, commentID)
		}
	}
	a.settle(w, r, a.Exec.Run(r.Context(), m, fn), back)
}
