package middleware

import (
	"context"
	"net/http"

	"github.com/LBIT2016/trading-gamers/internal/model"
)

type contextKey string

const (
	userContextKey contextKey = "user"
)

// CurrentUserSource reports the user logged in on this client
type CurrentUserSource interface {
	CurrentUser() *model.UserProfile
}

// GetUser retrieves the current user from the request context
// Returns nil if nobody is logged in
func GetUser(ctx context.Context) *model.UserProfile {
	user, _ := ctx.Value(userContextKey).(*model.UserProfile)
	return user
}

// OptionalUser puts the current user, if any, into the request context
func OptionalUser(source CurrentUserSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), userContextKey, source.CurrentUser())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser redirects to the home page when nobody is logged in
func RequireUser(source CurrentUserSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := source.CurrentUser()
			if user == nil {
				SetFlash(w, "error", "Log in first")
				http.Redirect(w, r, "/?next="+r.URL.Path, http.StatusSeeOther)
				return
			}
			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
