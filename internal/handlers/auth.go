package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/apiclient"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/mutation"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/resource"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/session"
)

func (a *App) LoginGet(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).Valid() {
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}
	data := a.page(w, r, "Login")
	data["Values"] = url.Values{}
	a.render(w, http.StatusOK, "login.html", data)
}

// LoginPost authenticates against the API and stores the session. Admins
// use the same form.
func (a *App) LoginPost(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	out := a.Exec.Run(r.Context(), mutation.Mutation{
		Name:     "login",
		Success:  "Login Successfully!",
		Fallback: "Login failed. Please try again.",
		Redirect: "/profile",
	}, func(ctx context.Context) error {
		if username == "" || password == "" {
			return apiclient.Invalid("Username and password are required!")
		}
		res, err := a.API.Login(ctx, username, password)
		if err != nil {
			return err
		}
		if err := a.Sessions.Set(w, r, res.Session()); err != nil {
			if errors.Is(err, session.ErrIncompleteSession) {
				slog.Error("Login response is missing session fields", "username", username)
				return apiclient.Invalid("Login failed. Please try again.")
			}
			return err
		}
		slog.Info("User logged in", "user_id", res.User.ID)
		return nil
	})

	if !out.OK() {
		data := a.page(w, r, "Login")
		notice(data, out.Notice)
		data["Values"] = url.Values{"username": {username}}
		a.render(w, http.StatusUnprocessableEntity, "login.html", data)
		return
	}
	a.redirect(w, r, out.Redirect, out.Notice)
}

// Logout ends the session locally even when the API call fails, so a revoked
// token never leaves the browser stuck as logged in.
func (a *App) Logout(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	out := a.Exec.Run(r.Context(), mutation.Mutation{
		Name:     "logout",
		Success:  "Logged out successfully!",
		Fallback: "Logout failed!",
		Redirect: "/",
	}, func(ctx context.Context) error {
		if s.Valid() {
			if err := a.API.Logout(ctx, s); err != nil && !apiclient.IsTokenRejected(err) {
				slog.Warn("Remote logout failed", "user_id", s.UserID, "error", err)
			}
		}
		return a.Sessions.Clear(w, r)
	})
	a.Cache.Forget(s.Scope())
	a.redirect(w, r, "/", out.Notice)
}

func (a *App) RegisterGet(w http.ResponseWriter, r *http.Request) {
	data := a.page(w, r, "Register")
	data["Values"] = url.Values{}
	a.render(w, http.StatusOK, "register.html", data)
}

// RegisterPost creates an account. The profile picture is required and is
// uploaded to the image host before the account is created.
func (a *App) RegisterPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		a.redirect(w, r, "/register", models.Failure("Image size should be less than 5MB!"))
		return
	}
	req := apiclient.RegisterRequest{
		Username:        strings.TrimSpace(r.FormValue("username")),
		Email:           strings.TrimSpace(r.FormValue("email")),
		FirstName:       strings.TrimSpace(r.FormValue("first_name")),
		LastName:        strings.TrimSpace(r.FormValue("last_name")),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
	}

	out := a.Exec.Run(r.Context(), mutation.Mutation{
		Name:        "register",
		Invalidates: []resource.Key{usersKey},
		Success:     "Registration Successful! Please check your email for the OTP.",
		Fallback:    "Something went wrong. Please try again.",
		Redirect:    "/otp?email=" + url.QueryEscape(req.Email),
	}, func(ctx context.Context) error {
		if err := req.Validate(); err != nil {
			return err
		}
		if err := a.Emails.Validate(ctx, req.Email); err != nil {
			return err
		}
		img, err := a.uploadImage(ctx, r, "profile_img")
		if err != nil {
			return err
		}
		if img == "" {
			return apiclient.Invalid("Please upload a profile image.")
		}
		req.ProfileImg = img
		return a.API.Register(ctx, req)
	})

	if !out.OK() {
		data := a.page(w, r, "Register")
		notice(data, out.Notice)
		data["Values"] = url.Values{
			"username":   {req.Username},
			"email":      {req.Email},
			"first_name": {req.FirstName},
			"last_name":  {req.LastName},
		}
		a.render(w, http.StatusUnprocessableEntity, "register.html", data)
		return
	}
	a.redirect(w, r, out.Redirect, out.Notice)
}

func (a *App) OTPGet(w http.ResponseWriter, r *http.Request) {
	data := a.page(w, r, "Verify OTP")
	data["Email"] = r.URL.Query().Get("email")
	a.render(w, http.StatusOK, "otp.html", data)
}

func otpURL(email string) string {
	if email == "" {
		return "/otp"
	}
	return "/otp?email=" + url.QueryEscape(email)
}

func (a *App) OTPPost(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	otp := strings.TrimSpace(r.FormValue("otp"))
	out := a.Exec.Run(r.Context(), mutation.Mutation{
		Name:        "verify_otp",
		Invalidates: []resource.Key{usersKey},
		Success:     "OTP Verified Successfully!",
		Fallback:    "Invalid OTP. Please try again.",
		Redirect:    "/login",
	}, func(ctx context.Context) error {
		return a.API.VerifyOTP(ctx, email, otp)
	})
	a.settle(w, r, out, otpURL(email))
}

func (a *App) ResendOTP(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	out := a.Exec.Run(r.Context(), mutation.Mutation{
		Name:     "resend_otp",
		Success:  "A new OTP has been sent to " + email,
		Fallback: "Failed to resend OTP.",
		Redirect: otpURL(email),
	}, func(ctx context.Context) error {
		if email == "" {
			return apiclient.Invalid("Please enter your email address.")
		}
		return a.API.ResendOTP(ctx, email)
	})
	a.settle(w, r, out, otpURL(email))
}

// Profile shows the logged-in user's account details.
func (a *App) Profile(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	profile := a.profile(r.Context(), s)
	if a.rejected(w, r, profile.Err) {
		return
	}
	data := a.page(w, r, "Profile")
	data["Profile"] = profile
	data["Values"] = profileValues(profile.Data)
	a.render(w, http.StatusOK, "profile.html", data)
}

func profileValues(u models.User) url.Values {
	return url.Values{
		"username":   {u.Username},
		"first_name": {u.FirstName},
		"last_name":  {u.LastName},
		"email":      {u.Email},
	}
}

// UpdateProfile saves the profile form. A new picture is optional; without
// one the current picture is kept. On failure the page shows the stored
// profile unchanged next to the submitted input.
func (a *App) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	s, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		a.redirect(w, r, "/profile", models.Failure("Image size should be less than 5MB!"))
		return
	}
	current := a.profile(r.Context(), s)
	if a.rejected(w, r, current.Err) {
		return
	}

	update := apiclient.ProfileUpdate{
		Username:   strings.TrimSpace(r.FormValue("username")),
		FirstName:  strings.TrimSpace(r.FormValue("first_name")),
		LastName:   strings.TrimSpace(r.FormValue("last_name")),
		Email:      strings.TrimSpace(r.FormValue("email")),
		ProfileImg: current.Data.ProfileImg,
	}

	out := a.Exec.Run(r.Context(), mutation.Mutation{
		Name:        "update_profile",
		Invalidates: []resource.Key{profileKey(s), usersKey},
		Success:     "Profile updated successfully!",
		Fallback:    "Failed to update profile!",
		Redirect:    "/profile",
	}, func(ctx context.Context) error {
		if update.Username == "" {
			return apiclient.Invalid("Username is required!")
		}
		if err := a.Emails.Validate(ctx, update.Email); err != nil {
			return err
		}
		img, err := a.uploadImage(ctx, r, "profile_img")
		if err != nil {
			return err
		}
		if img != "" {
			update.ProfileImg = img
		}
		if err := a.API.UpdateUser(ctx, s, update); err != nil {
			return err
		}
		if update.Username != s.Username {
			renamed := s
			renamed.Username = update.Username
			if err := a.Sessions.Set(w, r, renamed); err != nil {
				slog.Error("Failed to store renamed session", "user_id", s.UserID, "error", err)
			}
		}
		return nil
	})

	switch {
	case out.Unauthorized():
		a.expire(w, r)
	case out.OK():
		a.redirect(w, r, out.Redirect, out.Notice)
	default:
		data := a.page(w, r, "Profile")
		notice(data, out.Notice)
		data["Profile"] = current
		data["Values"] = url.Values{
			"username":   {update.Username},
			"first_name": {update.FirstName},
			"last_name":  {update.LastName},
			"email":      {update.Email},
		}
		a.render(w, http.StatusUnprocessableEntity, "profile.html", data)
	}
}
