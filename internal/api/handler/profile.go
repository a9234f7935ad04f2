package handler

import (
	"net/http"

	"github.com/LBIT2016/trading-gamers/internal/api/apierr"
	"github.com/LBIT2016/trading-gamers/internal/api/response"
	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/services/profile"
)

// ProfileHandler serves the player profile projection of the current user
type ProfileHandler struct {
	profiles *profile.Store
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles *profile.Store) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get handles GET /api/v1/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p := h.profiles.Profile()
	if p == nil {
		apierr.WriteError(w, model.ErrNotAuthenticated)
		return
	}
	response.JSON(w, http.StatusOK, p)
}

// Update handles PATCH /api/v1/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.PlayerProfilePatch
	if !decode(w, r, &patch) {
		return
	}
	p, err := h.profiles.UpdateProfile(r.Context(), patch)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p)
}
