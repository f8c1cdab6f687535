package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/apiclient"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/mutation"
)

func (a *App) ContactGet(w http.ResponseWriter, r *http.Request) {
	data := a.page(w, r, "Contact")
	data["Values"] = url.Values{}
	a.render(w, http.StatusOK, "contact.html", data)
}

// ContactPost forwards the message to the shop. The address goes through
// the configured email policy first.
func (a *App) ContactPost(w http.ResponseWriter, r *http.Request) {
	msg := apiclient.ContactMessage{
		Name:    strings.TrimSpace(r.FormValue("name")),
		Email:   strings.TrimSpace(r.FormValue("email")),
		Message: strings.TrimSpace(r.FormValue("message")),
	}
	out := a.Exec.Run(r.Context(), mutation.Mutation{
		Name:     "contact",
		Success:  "Your message has been successfully sent!",
		Fallback: "There has been trouble sending messages. Please try again later.",
		Redirect: "/contact",
	}, func(ctx context.Context) error {
		if msg.Name == "" || msg.Email == "" || msg.Message == "" {
			return apiclient.Invalid("All fields are required!")
		}
		if err := a.Emails.Validate(ctx, msg.Email); err != nil {
			return err
		}
		return a.API.Contact(ctx, msg)
	})

	if !out.OK() {
		data := a.page(w, r, "Contact")
		notice(data, out.Notice)
		data["Values"] = url.Values{"name": {msg.Name}, "email": {msg.Email}, "message": {msg.Message}}
		a.render(w, http.StatusUnprocessableEntity, "contact.html", data)
		return
	}
	a.redirect(w, r, out.Redirect, out.Notice)
}
