package handler

import (
	"net/http"
	"strings"

	"github.com/LBIT2016/trading-gamers/internal/api/apierr"
	"github.com/LBIT2016/trading-gamers/internal/api/request"
	"github.com/LBIT2016/trading-gamers/internal/api/response"
	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/services/identity"
)

// SessionHandler handles login, signup and logout for this client
type SessionHandler struct {
	identity *identity.Store
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(identity *identity.Store) *SessionHandler {
	return &SessionHandler{identity: identity}
}

func (h *SessionHandler) credentials(w http.ResponseWriter, r *http.Request) (request.CredentialsRequest, bool) {
	var req request.CredentialsRequest
	if !decode(w, r, &req) {
		return req, false
	}
	if strings.TrimSpace(req.Name) == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("name is required"))
		return req, false
	}
	return req, true
}

// Login handles POST /api/v1/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.credentials(w, r)
	if !ok {
		return
	}
	user, err := h.identity.Login(r.Context(), req.Name, req.Credential)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SessionFrom(h.identity.Session(), user))
}

// Signup handles POST /api/v1/session/signup
func (h *SessionHandler) Signup(w http.ResponseWriter, r *http.Request) {
	req, ok := h.credentials(w, r)
	if !ok {
		return
	}
	user, err := h.identity.Signup(r.Context(), req.Name, req.Credential)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.Created(w, response.SessionFrom(h.identity.Session(), user))
}

// Logout handles POST /api/v1/session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.identity.Logout()
	response.NoContent(w)
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.SessionFrom(h.identity.Session(), h.identity.CurrentUser()))
}

// NameAvailable handles GET /api/v1/users/name-available?name=...&exclude=...
func (h *SessionHandler) NameAvailable(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("name is required"))
		return
	}
	exclude := r.URL.Query().Get("exclude")
	response.JSON(w, http.StatusOK, response.NameAvailable{
		Name:      name,
		Available: h.identity.IsNameUnique(name, model.UserID(exclude)),
	})
}
