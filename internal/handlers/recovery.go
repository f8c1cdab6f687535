package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/mutation"
)

func (a *App) PasswordResetGet(w http.ResponseWriter, r *http.Request) {
	data := a.page(w, r, "Password Reset")
	a.render(w, http.StatusOK, "password_reset.html", data)
}

// PasswordResetPost asks the API to mail a reset link.
func (a *App) PasswordResetPost(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	out := a.Exec.Run(r.Context(), mutation.Mutation{
		Name:     "password_reset",
		Success:  "Password reset link sent. Please check your email.",
		Fallback: "Something went wrong. Please try again.",
		Redirect: "/login",
	}, func(ctx context.Context) error {
		return a.API.RequestPasswordReset(ctx, email)
	})
	a.settle(w, r, out, "/password-reset")
}

// ResetPasswordGet is the page the mailed link points to.
func (a *App) ResetPasswordGet(w http.ResponseWriter, r *http.Request) {
	data := a.page(w, r, "Reset Password")
	data["Action"] = r.URL.Path
	a.render(w, http.StatusOK, "reset_password.html", data)
}

func (a *App) ResetPasswordPost(w http.ResponseWriter, r *http.Request) {
	uid, token := r.PathValue("uid"), r.PathValue("token")
	password, confirm := r.FormValue("new_password"), r.FormValue("confirm_password")
	out := a.Exec.Run(r.Context(), mutation.Mutation{
		Name:     "reset_password",
		Success:  "Password has been changed successfully!",
		Fallback: "Reset link is invalid or expired.",
		Redirect: "/login",
	}, func(ctx context.Context) error {
		return a.API.ResetPassword(ctx, uid, token, password, confirm)
	})
	a.settle(w, r, out, r.URL.Path)
}
