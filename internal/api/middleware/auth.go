package middleware

import (
	"context"
	"net/http"

	"github.com/LBIT2016/trading-gamers/internal/api/apierr"
	"github.com/LBIT2016/trading-gamers/internal/model"
)

type contextKey string

const userContextKey contextKey = "user"

// CurrentUserSource reports who is logged in on this client
type CurrentUserSource interface {
	CurrentUser() *model.UserProfile
}

// RequireSession rejects requests while nobody is logged in and puts the
// current user into the request context
func RequireSession(source CurrentUserSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := source.CurrentUser()
			if user == nil {
				apierr.WriteError(w, model.ErrNotAuthenticated)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
		})
	}
}

// RateLimited writes the JSON response for a throttled request
func RateLimited(w http.ResponseWriter, _ *http.Request) {
	apierr.WriteError(w, apierr.NewRateLimitedError())
}

// GetUser returns the user placed in the context by RequireSession
func GetUser(ctx context.Context) *model.UserProfile {
	user, _ := ctx.Value(userContextKey).(*model.UserProfile)
	return user
}

// MustGetUser returns the current user or panics
func MustGetUser(ctx context.Context) *model.UserProfile {
	user := GetUser(ctx)
	if user == nil {
		panic("no user in context - session middleware not applied?")
	}
	return user
}
