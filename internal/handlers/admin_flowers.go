package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/apiclient"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/mutation"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/resource"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/session"
)

func (a *App) AdminFlowers(w http.ResponseWriter, r *http.Request) {
	data := a.page(w, r, "Manage Flowers")
	data["Flowers"] = a.flowers(r.Context())
	a.render(w, http.StatusOK, "admin_flowers.html", data)
}

func (a *App) NewFlowerForm(w http.ResponseWriter, r *http.Request) {
	a.flowerForm(w, r, http.StatusOK, "Add Flower", "/admin/flowers", url.Values{"stock": {"0"}}, nil)
}

func (a *App) EditFlowerForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.NotFound(w, r)
		return
	}
	flower := a.flower(r.Context(), id)
	if !flower.Ready() {
		a.redirect(w, r, "/admin/flowers", models.Failure("Flower data not found!"))
		return
	}
	f := flower.Data
	values := url.Values{
		"title":       {f.Title},
		"description": {f.Description},
		"price":       {f.Price.StringFixed(2)},
		"stock":       {strconv.Itoa(f.Stock)},
		"category":    {f.Category},
		"image":       {f.Image},
	}
	a.flowerForm(w, r, http.StatusOK, "Edit Flower", fmt.Sprintf("/admin/flowers/%d", id), values, nil)
}

func (a *App) flowerForm(w http.ResponseWriter, r *http.Request, status int, title, action string, values url.Values, n *models.Notice) {
	data := a.page(w, r, title)
	if n != nil {
		notice(data, *n)
	}
	data["Action"] = action
	data["Values"] = values
	data["Suggested"] = models.SuggestedCategories
	a.render(w, status, "admin_flower_form.html", data)
}

// flowerInput reads the admin form. Image is left empty; the caller fills it.
func flowerInput(r *http.Request) (apiclient.FlowerInput, url.Values, error) {
	values := url.Values{
		"title":       {strings.TrimSpace(r.FormValue("title"))},
		"description": {strings.TrimSpace(r.FormValue("description"))},
		"price":       {strings.TrimSpace(r.FormValue("price"))},
		"stock":       {strings.TrimSpace(r.FormValue("stock"))},
		"category":    {strings.TrimSpace(r.FormValue("category"))},
	}
	in := apiclient.FlowerInput{
		Title:       values.Get("title"),
		Description: values.Get("description"),
		Category:    values.Get("category"),
	}
	price, err := decimal.NewFromString(values.Get("price"))
	if err != nil {
		return in, values, apiclient.Invalid("Invalid price format.")
	}
	in.Price = price
	stock, err := strconv.Atoi(values.Get("stock"))
	if err != nil {
		return in, values, apiclient.Invalid("Stock must be a whole number.")
	}
	in.Stock = stock
	return in, values, nil
}

func (a *App) CreateFlower(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		a.redirect(w, r, "/admin/flowers/new", models.Failure("File too large. Max 10MB."))
		return
	}
	in, values, inputErr := flowerInput(r)

	out := a.Exec.Run(r.Context(), mutation.Mutation{
		Name:        "create_flower",
		Invalidates: []resource.Key{flowersKey},
		Success:     "Flower added successfully!",
		Fallback:    "Failed to add flower. Please try again.",
		Redirect:    "/admin/flowers",
	}, func(ctx context.Context) error {
		if inputErr != nil {
			return inputErr
		}
		if err := in.Validate(); err != nil {
			return err
		}
		img, err := a.uploadImage(ctx, r, "image")
		if err != nil {
			return err
		}
		in.Image = img
		return a.API.CreateFlower(ctx, s, in)
	})

	switch {
	case out.Unauthorized():
		a.expire(w, r)
	case out.OK():
		a.redirect(w, r, out.Redirect, out.Notice)
	default:
		a.flowerForm(w, r, http.StatusUnprocessableEntity, "Add Flower", "/admin/flowers", values, &out.Notice)
	}
}

// UpdateFlower saves the edit form. Without a new image the current one is kept.
func (a *App) UpdateFlower(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.NotFound(w, r)
		return
	}
	s := session.FromContext(r.Context())
	if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		a.redirect(w, r, fmt.Sprintf("/admin/flowers/%d/edit", id), models.Failure("File too large. Max 10MB."))
		return
	}
	in, values, inputErr := flowerInput(r)
	current := a.flower(r.Context(), id)
	in.Image = current.Data.Image
	values.Set("image", in.Image)

	out := a.Exec.Run(r.Context(), mutation.Mutation{
		Name:        "update_flower",
		Invalidates: []resource.Key{flowersKey, flowerKey(id)},
		Success:     "Flower updated successfully!",
		Fallback:    "Failed to update the flower",
		Redirect:    "/admin/flowers",
	}, func(ctx context.Context) error {
		if inputErr != nil {
			return inputErr
		}
		if !current.Ready() {
			if current.Err != nil {
				return current.Err
			}
			return apiclient.Invalid("Flower data not found!")
		}
		img, err := a.uploadImage(ctx, r, "image")
		if err != nil {
			return err
		}
		if img != "" {
			in.Image = img
		}
		return a.API.UpdateFlower(ctx, s, id, in)
	})

	switch {
	case out.Unauthorized():
		a.expire(w, r)
	case out.OK():
		a.redirect(w, r, out.Redirect, out.Notice)
	default:
		a.flowerForm(w, r, http.StatusUnprocessableEntity, "Edit Flower", fmt.Sprintf("/admin/flowers/%d", id), values, &out.Notice)
	}
}

func (a *App) DeleteFlower(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.NotFound(w, r)
		return
	}
	s := session.FromContext(r.Context())
	out := a.Exec.Run(r.Context(), mutation.Mutation{
		Name:        "delete_flower",
		Invalidates: []resource.Key{flowersKey, flowerKey(id)},
		Success:     "Flower deleted successfully!",
		Fallback:    "Failed to delete the flower",
		Redirect:    "/admin/flowers",
	}, func(ctx context.Context) error {
		return a.API.DeleteFlower(ctx, s, id)
	})
	a.settle(w, r, out, "/admin/flowers")
}
