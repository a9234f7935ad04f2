package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/services/identity"
	"github.com/LBIT2016/trading-gamers/internal/services/listing"
	"github.com/LBIT2016/trading-gamers/internal/web/middleware"
	"github.com/LBIT2016/trading-gamers/internal/web/templates/pages"
)

// BrowseHandler serves the marketplace pages
type BrowseHandler struct {
	identity *identity.Store
	listings *listing.Store
	logger   *slog.Logger
}

// NewBrowseHandler creates a new BrowseHandler
func NewBrowseHandler(identity *identity.Store, listings *listing.Store, logger *slog.Logger) *BrowseHandler {
	return &BrowseHandler{
		identity: identity,
		listings: listings,
		logger:   logger,
	}
}

// Browse renders the home page. Without an explicit status only active
// listings are shown.
func (h *BrowseHandler) Browse(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter, err := listing.FilterFromQuery(query)
	if err != nil {
		renderError(w, r, err)
		return
	}
	if query.Get("status") == "" {
		filter.Status = model.StatusActive
	}

	data := pages.BrowseData{
		PageData: pageData(r, "Browse"),
		Filter:   filter,
		Listings: h.listings.Search(filter),
	}
	renderPage(w, r, http.StatusOK, pages.Browse(data))
}

// Listing renders one listing
func (h *BrowseHandler) Listing(w http.ResponseWriter, r *http.Request) {
	id := model.ListingID(mux.Vars(r)["id"])
	l, err := h.listings.GetListingByID(id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	data := pages.ListingData{
		PageData: pageData(r, l.Title),
		Listing:  *l,
	}
	renderPage(w, r, http.StatusOK, pages.Listing(data))
}

// Seller renders everything a user has listed. Listings of deleted
// accounts stay visible.
func (h *BrowseHandler) Seller(w http.ResponseWriter, r *http.Request) {
	id := model.UserID(mux.Vars(r)["id"])
	seller, err := h.identity.GetUser(id)
	if err != nil {
		h.logger.Debug("seller page for unknown user", "user_id", id)
		seller = nil
	}

	title := "Seller"
	if seller != nil {
		title = seller.Name
	}
	data := pages.SellerData{
		PageData: pageData(r, title),
		SellerID: id,
		Seller:   seller,
		Listings: h.listings.GetListingsBySeller(id),
	}
	renderPage(w, r, http.StatusOK, pages.Seller(data))
}

// Mine redirects to the current user's seller page
func (h *BrowseHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	http.Redirect(w, r, "/users/"+string(user.ID), http.StatusSeeOther)
}
