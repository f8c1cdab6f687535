package handlers

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/apiclient"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/resource"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/session"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/web"
)

func loadTemplates(t *testing.T) *TemplateCache {
	t.Helper()
	tc := NewTemplateCache()
	pages, err := fs.Sub(web.Templates, "templates")
	require.NoError(t, err)
	require.NoError(t, tc.Load(pages))
	return tc
}

func baseData() map[string]interface{} {
	return map[string]interface{}{
		"Title":     "Test",
		"Session":   session.Session{},
		"IsAdmin":   false,
		"Flashes":   []models.Notice{models.Success("Saved!")},
		"CsrfField": "",
		"Path":      "/",
		"Values":    url.Values{},
	}
}

func TestEveryPageIsLoaded(t *testing.T) {
	tc := loadTemplates(t)
	for _, name := range []string{
		"home.html", "flower.html", "cart.html", "orders.html", "profile.html",
		"login.html", "register.html", "otp.html", "password_reset.html",
		"reset_password.html", "contact.html", "admin.html", "admin_users.html",
		"admin_flowers.html", "admin_flower_form.html", "not_found.html",
	} {
		assert.NotNil(t, tc.Get(name), name)
	}
	assert.Nil(t, tc.Get("layout.html"), "layout files are not pages")
}

func TestRenderWrapsPageInLayout(t *testing.T) {
	tc := loadTemplates(t)
	rec := httptest.NewRecorder()
	require.NoError(t, tc.Render(rec, http.StatusNotFound, "not_found.html", baseData()))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Test | Flower Seal</title>")
	assert.Contains(t, body, "Page not found")
	assert.Contains(t, body, `class="notice success"`)
}

func TestRenderUnknownPage(t *testing.T) {
	tc := loadTemplates(t)
	rec := httptest.NewRecorder()
	assert.Error(t, tc.Render(rec, http.StatusOK, "missing.html", baseData()))
	assert.Zero(t, rec.Body.Len(), "nothing is written on failure")
}

func TestCartSectionStates(t *testing.T) {
	tc := loadTemplates(t)
	render := func(cart resource.Result[models.CartLines]) string {
		data := baseData()
		data["Cart"] = cart
		var buf bytes.Buffer
		require.NoError(t, tc.RenderBlock(&buf, "cart.html", "cart_live", data))
		return buf.String()
	}

	assert.Contains(t, render(resource.Result[models.CartLines]{Status: resource.StatusIdle}), "log in")
	assert.Contains(t, render(resource.Result[models.CartLines]{
		Status: resource.StatusFailed, Err: errors.New("boom"),
	}), "Error loading cart")

	slow := render(resource.Result[models.CartLines]{
		Status: resource.StatusFailed,
		Err:    &apiclient.Error{Kind: apiclient.KindNetwork, Err: context.DeadlineExceeded},
	})
	assert.Contains(t, slow, "Error loading cart: the server took too long to answer.")

	body := render(resource.Result[models.CartLines]{Status: resource.StatusReady, Data: models.CartLines{
		{ID: 1, Flower: "Red Rose Bouquet", Price: decimal.RequireFromString("10.5"), Quantity: 2},
	}})
	assert.Contains(t, body, "Red Rose Bouquet")
	assert.Contains(t, body, "$21.00")
	assert.Contains(t, body, `action="/cart/1/remove"`)
}
