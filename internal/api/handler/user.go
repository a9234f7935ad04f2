package handler

import (
	"net/http"

	"github.com/LBIT2016/trading-gamers/internal/api/apierr"
	"github.com/LBIT2016/trading-gamers/internal/api/middleware"
	"github.com/LBIT2016/trading-gamers/internal/api/request"
	"github.com/LBIT2016/trading-gamers/internal/api/response"
	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/services/identity"
	"github.com/LBIT2016/trading-gamers/internal/services/listing"
)

// UserHandler handles profile edits and per-user listing queries
type UserHandler struct {
	identity *identity.Store
	listings *listing.Store
}

// NewUserHandler creates a new user handler
func NewUserHandler(identity *identity.Store, listings *listing.Store) *UserHandler {
	return &UserHandler{identity: identity, listings: listings}
}

// mayEdit allows users to edit themselves and administrators to edit anyone
func mayEdit(actor *model.UserProfile, target model.UserID) error {
	if actor.ID == target || actor.IsAdmin {
		return nil
	}
	return apierr.NewForbiddenError("You can only edit your own profile")
}

// Get handles GET /api/v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.identity.GetUser(userID(r))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.UserFromModel(user))
}

// Update handles PATCH /api/v1/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := userID(r)
	if err := mayEdit(middleware.MustGetUser(r.Context()), id); err != nil {
		apierr.WriteError(w, err)
		return
	}

	var req request.UpdateUserRequest
	if !decode(w, r, &req) {
		return
	}

	var (
		user *model.UserProfile
		err  error
	)
	if req.Name != nil {
		if user, err = h.identity.UpdateProfileName(r.Context(), id, *req.Name); err != nil {
			apierr.WriteError(w, err)
			return
		}
	}
	if req.Genres != nil || req.Games != nil || req.PlayerType != nil {
		if user, err = h.identity.UpdateProfileDetails(r.Context(), id, req.ProfilePatch); err != nil {
			apierr.WriteError(w, err)
			return
		}
	}
	if user == nil {
		if user, err = h.identity.GetUser(id); err != nil {
			apierr.WriteError(w, err)
			return
		}
	}
	response.JSON(w, http.StatusOK, response.UserFromModel(user))
}

// Delete handles DELETE /api/v1/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := userID(r)
	if err := mayEdit(middleware.MustGetUser(r.Context()), id); err != nil {
		apierr.WriteError(w, err)
		return
	}
	if err := h.identity.DeleteProfile(r.Context(), id); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// Listings handles GET /api/v1/users/{id}/listings. Listings outlive
// their seller's profile, so an unknown id is not an error.
func (h *UserHandler) Listings(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.ListingsFrom(h.listings.GetListingsBySeller(userID(r))))
}
