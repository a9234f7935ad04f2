package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/services/identity"
	"github.com/LBIT2016/trading-gamers/internal/web/middleware"
)

// SessionHandler handles the login and logout forms
type SessionHandler struct {
	identity *identity.Store
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(identity *identity.Store) *SessionHandler {
	return &SessionHandler{identity: identity}
}

// Login handles login form submission
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.SetFlash(w, "error", "Invalid form data")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	next := r.FormValue("next")
	if name == "" {
		middleware.SetFlash(w, "error", "Name is required")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	user, err := h.identity.Login(r.Context(), name, r.FormValue("credential"))
	if err != nil {
		middleware.SetFlash(w, "error", loginMessage(err))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	middleware.SetFlash(w, "success", "Welcome back, "+user.Name+"!")

	// Redirect to original destination or home
	if next != "" && strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.identity.Logout()
	middleware.SetFlash(w, "info", "You have been logged out")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func loginMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidCredential):
		return "Invalid name or password"
	case errors.Is(err, model.ErrMissingCredential):
		return "This account has no password set"
	default:
		return "Login failed"
	}
}
