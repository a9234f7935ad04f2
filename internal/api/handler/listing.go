package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/LBIT2016/trading-gamers/internal/api/apierr"
	"github.com/LBIT2016/trading-gamers/internal/api/request"
	"github.com/LBIT2016/trading-gamers/internal/api/response"
	"github.com/LBIT2016/trading-gamers/internal/services/listing"
	"github.com/LBIT2016/trading-gamers/internal/services/listingform"
)

// ListingHandler handles listing endpoints
type ListingHandler struct {
	listings *listing.Store
}

// NewListingHandler creates a new listing handler
func NewListingHandler(listings *listing.Store) *ListingHandler {
	return &ListingHandler{listings: listings}
}

// List handles GET /api/v1/listings with the browse filter query parameters
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := listing.FilterFromQuery(r.URL.Query())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ListingsFrom(h.listings.Search(filter)))
}

// Create handles POST /api/v1/listings. The whole form is validated first.
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateListingRequest
	if !decode(w, r, &req) {
		return
	}
	sources, err := request.ImageSources(req.Images)
	if err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError(err.Error()))
		return
	}

	in := listingform.Input{Form: req.ListingForm, Images: sources}
	if err := listingform.Validate(in); err != nil {
		apierr.WriteError(w, err)
		return
	}

	created, err := h.listings.CreateListing(r.Context(), in.Form, in.Images)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.Created(w, created)
}

// Get handles GET /api/v1/listings/{id}
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.listings.GetListingByID(listingID(r))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, l)
}

// Update handles PATCH /api/v1/listings/{id}
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateListingRequest
	if !decode(w, r, &req) {
		return
	}
	sources, err := request.ImageSources(req.Images)
	if err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError(err.Error()))
		return
	}

	updated, err := h.listings.UpdateListing(r.Context(), listingID(r), req.ListingPatch, sources)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/v1/listings/{id}
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.DeleteListing(r.Context(), listingID(r)); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// SetStatus handles POST /api/v1/listings/{id}/status
func (h *ListingHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req request.SetStatusRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.listings.SetListingStatus(r.Context(), listingID(r), req.Status); err != nil {
		apierr.WriteError(w, err)
		return
	}
	l, err := h.listings.GetListingByID(listingID(r))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, l)
}

// ValidateStep handles POST /api/v1/listings/validate/{step}, checking one
// page of the listing form without creating anything
func (h *ListingHandler) ValidateStep(w http.ResponseWriter, r *http.Request) {
	step, ok := listingform.ParseStep(mux.Vars(r)["step"])
	if !ok {
		apierr.WriteError(w, apierr.NewInvalidRequestError("unknown form step"))
		return
	}

	var req request.CreateListingRequest
	if !decode(w, r, &req) {
		return
	}
	sources, err := request.ImageSources(req.Images)
	if err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError(err.Error()))
		return
	}

	if err := listingform.ValidateStep(step, listingform.Input{Form: req.ListingForm, Images: sources}); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.StepValidation{Step: string(step), Valid: true})
}
