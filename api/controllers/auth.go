package controllers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/photocard-store/api/middleware"
	"github.com/angelmondragon/photocard-store/api/responses"
	"github.com/angelmondragon/photocard-store/api/validators"
	"github.com/angelmondragon/photocard-store/internal/auth"
	"github.com/angelmondragon/photocard-store/internal/users"
	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
	"github.com/angelmondragon/photocard-store/pkg/logger"
)

// BootstrapKeyHeader carries the admin bootstrap key to /auth/create-admin.
const BootstrapKeyHeader = "X-Admin-Bootstrap-Key"

type authResponse struct {
	Message string `json:"message"`
	*auth.Result
}

type profileResponse struct {
	Message string        `json:"message,omitempty"`
	User    users.Profile `json:"user"`
}

func AuthRegister(svc *auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusCreated, authResponse{Message: "User created successfully", Result: result})
	}
}

func AuthLogin(svc *auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, authResponse{Message: "Login successful", Result: result})
	}
}

// AuthMe is mounted behind middleware.Auth.
func AuthMe(svc *auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Access token required"))
			return
		}
		profile, err := svc.Me(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, profileResponse{User: profile})
	}
}

// AuthLogout always succeeds. A valid bearer token additionally has its
// refresh session revoked.
func AuthLogout(svc *auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token, ok := validators.BearerToken(r.Header.Get("Authorization")); ok {
			if id, err := svc.Resolve(r.Context(), token); err == nil {
				if err := svc.Logout(r.Context(), id); err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
			}
		}
		responses.WriteMessage(w, http.StatusOK, "Logged out successfully")
	}
}

func AuthRefresh(svc *auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.RefreshRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Refresh(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, authResponse{Message: "Token refreshed", Result: result})
	}
}

func AuthCreateAdmin(svc *auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.CreateAdmin(r.Context(), r.Header.Get(BootstrapKeyHeader), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusCreated, profileResponse{Message: "Admin user created successfully", User: profile})
	}
}

// AuthGoogle redirects to the Google consent screen.
func AuthGoogle(svc *auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, err := svc.GoogleLoginURL(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// AuthGoogleCallback finishes sign-in and hands the token to the storefront
// at <frontend>/auth/callback. Failures land on <frontend>/login.
func AuthGoogleCallback(svc *auth.Service, frontendURL string, logg *logger.Logger) http.HandlerFunc {
	base := strings.TrimRight(frontendURL, "/")
	if logg == nil {
		logg = logger.Nop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !svc.GoogleEnabled() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "Google OAuth not configured"))
			return
		}

		q := r.URL.Query()
		if q.Get("error") != "" {
			logg.Warn(logg.WithField(r.Context(), "oauth_error", q.Get("error")), "auth.google_denied")
			http.Redirect(w, r, base+"/login?error=auth_failed", http.StatusFound)
			return
		}

		result, err := svc.GoogleCallback(r.Context(), q.Get("state"), q.Get("code"))
		if err != nil {
			logg.Error(r.Context(), "auth.google_callback_failed", err)
			http.Redirect(w, r, base+"/login?error=auth_failed", http.StatusFound)
			return
		}
		http.Redirect(w, r, base+"/auth/callback?"+url.Values{"token": {result.Token}}.Encode(), http.StatusFound)
	}
}
