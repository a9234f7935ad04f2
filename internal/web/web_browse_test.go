package web_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LBIT2016/trading-gamers/internal/model"
)

func TestHomePageShowsActiveListings(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signup("seller")
	ts.createListing("Zelda cartridge", model.ListingTypeSell, model.CategoryVideoGame)
	sold := ts.createListing("Old console", model.ListingTypeSell, model.CategoryConsole)
	require.NoError(t, ts.app.Listings.SetListingStatus(context.Background(), sold.ID, model.StatusSold))

	rr := ts.get("/")
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assert.Equal(t, "Browse | Trading Gamers", doc.Find("title").Text())
	assert.Equal(t, 1, doc.Find("article.listing-card").Length())
	assertContainsText(t, doc, "article.listing-card h3", "Zelda cartridge")
	assertContainsElement(t, doc, "#listing-grid[sse-connect]")
}

func TestHomePageStatusFilter(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signup("seller")
	ts.createListing("Zelda cartridge", model.ListingTypeSell, model.CategoryVideoGame)
	sold := ts.createListing("Old console", model.ListingTypeSell, model.CategoryConsole)
	require.NoError(t, ts.app.Listings.SetListingStatus(context.Background(), sold.ID, model.StatusSold))

	doc := parseHTML(ts.get("/?status=sold").Body)
	assert.Equal(t, 1, doc.Find("article.listing-card").Length())
	assert.Equal(t, "sold", doc.Find("article.listing-card").AttrOr("data-status", ""))
}

func TestHomePageTypeFilter(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signup("seller")
	ts.createListing("Zelda cartridge", model.ListingTypeSell, model.CategoryVideoGame)
	ts.createListing("Ranked coaching", model.ListingTypeOfferService, model.CategoryCoaching)

	doc := parseHTML(ts.get("/?type=offer-service").Body)
	assert.Equal(t, 1, doc.Find("article.listing-card").Length())
	assertContainsText(t, doc, "article.listing-card", "Ranked coaching")
	assert.Equal(t, "offer-service", doc.Find(`select[name="type"] option[selected]`).AttrOr("value", ""))
}

func TestHomePageRejectsBadFilter(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/?min=cheap")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	doc := parseHTML(rr.Body)
	assert.Equal(t, "400", doc.Find(".error").AttrOr("data-status", ""))
}

func TestListingPage(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signup("seller")
	l := ts.createListing("Zelda cartridge", model.ListingTypeSell, model.CategoryVideoGame)

	rr := ts.get("/listings/" + string(l.ID))
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".listing-detail h1", "Zelda cartridge")
	assertContainsText(t, doc, ".seller", "seller")
	assertContainsText(t, doc, ".price", "$20")
}

func TestListingNotFound(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/listings/l_missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".error p", "Listing not found")
}

func TestSellerPage(t *testing.T) {
	ts := newWebTestServer(t)
	seller := ts.signup("seller")
	ts.createListing("Zelda cartridge", model.ListingTypeSell, model.CategoryVideoGame)

	doc := parseHTML(ts.get("/users/" + string(seller.ID)).Body)
	assertContainsText(t, doc, ".seller-page h1", "seller")
	assert.Equal(t, 1, doc.Find("article.listing-card").Length())
}

func TestSellerPageAfterAccountDeleted(t *testing.T) {
	ts := newWebTestServer(t)
	seller := ts.signup("seller")
	ts.createListing("Zelda cartridge", model.ListingTypeSell, model.CategoryVideoGame)
	require.NoError(t, ts.app.Identity.DeleteProfile(context.Background(), seller.ID))

	rr := ts.get("/users/" + string(seller.ID))
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".seller-page h1", "Unknown seller")
	assert.Equal(t, 1, doc.Find("article.listing-card").Length())
}
