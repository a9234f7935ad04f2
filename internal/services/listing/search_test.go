package listing

import (
	"time"

	"github.com/LBIT2016/trading-gamers/internal/model"
)

func ptr[T any](v T) *T {
	return &v
}

func (s *StoreSuite) seedSearch() (cheap, pricey, free, service *model.Listing) {
	form := basicForm()
	form.Title = "Zelda cartridge"
	form.Price = "$15"
	form.Tags = "nintendo, retro"
	cheap = s.createAs(s.alice, form)
	s.clock.Advance(time.Minute)

	form = basicForm()
	form.Title = "Gaming PC"
	form.Category = model.CategoryPCHardware
	form.Price = "1,200"
	form.DetailedDescription = "RTX card, barely used"
	pricey = s.createAs(s.bob, form)
	s.clock.Advance(time.Minute)

	form = basicForm()
	form.ListingType = model.ListingTypeTrade
	form.Title = "Swap my Switch"
	form.Price = "Negotiable"
	form.Tags = "Nintendo"
	free = s.createAs(s.alice, form)
	s.clock.Advance(time.Minute)

	form = basicForm()
	form.ListingType = model.ListingTypeOfferService
	form.Category = model.CategoryCoaching
	form.Title = "Valorant coaching"
	form.Price = "30"
	form.IsRemote = true
	service = s.createAs(s.bob, form)
	return
}

func ids(listings []model.Listing) []model.ListingID {
	out := make([]model.ListingID, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

func (s *StoreSuite) TestSearchDefaultsToNewestFirst() {
	cheap, pricey, free, service := s.seedSearch()
	s.Equal([]model.ListingID{service.ID, free.ID, pricey.ID, cheap.ID}, ids(s.store.Search(model.ListingFilter{})))
}

func (s *StoreSuite) TestSearchOldestFirst() {
	cheap, pricey, free, service := s.seedSearch()
	got := s.store.Search(model.ListingFilter{Sort: model.SortOldest})
	s.Equal([]model.ListingID{cheap.ID, pricey.ID, free.ID, service.ID}, ids(got))
}

func (s *StoreSuite) TestSearchByTypeAndCategory() {
	_, pricey, free, _ := s.seedSearch()

	s.Equal([]model.ListingID{free.ID}, ids(s.store.Search(model.ListingFilter{ListingType: model.ListingTypeTrade})))
	s.Equal([]model.ListingID{pricey.ID}, ids(s.store.Search(model.ListingFilter{Category: model.CategoryPCHardware})))
}

func (s *StoreSuite) TestSearchQueryMatchesTextAndTags() {
	cheap, pricey, free, _ := s.seedSearch()

	s.Equal([]model.ListingID{pricey.ID}, ids(s.store.Search(model.ListingFilter{Query: "rtx"})))
	s.ElementsMatch([]model.ListingID{cheap.ID, free.ID}, ids(s.store.Search(model.ListingFilter{Query: "NINTENDO"})))
	s.ElementsMatch([]model.ListingID{cheap.ID, free.ID}, ids(s.store.Search(model.ListingFilter{Tag: "nintendo"})))
}

func (s *StoreSuite) TestSearchRemoteAndSeller() {
	cheap, _, free, service := s.seedSearch()

	s.Equal([]model.ListingID{service.ID}, ids(s.store.Search(model.ListingFilter{RemoteOnly: true})))
	s.Equal([]model.ListingID{free.ID, cheap.ID}, ids(s.store.Search(model.ListingFilter{SellerID: s.alice.ID})))
}

func (s *StoreSuite) TestSearchPriceRangeExcludesNonNumeric() {
	cheap, _, _, service := s.seedSearch()

	got := s.store.Search(model.ListingFilter{MinPrice: ptr(10.0), MaxPrice: ptr(100.0), Sort: model.SortPriceAsc})
	s.Equal([]model.ListingID{cheap.ID, service.ID}, ids(got))
}

func (s *StoreSuite) TestSearchPriceSortPutsUnpricedLast() {
	cheap, pricey, free, service := s.seedSearch()

	desc := s.store.Search(model.ListingFilter{Sort: model.SortPriceDesc})
	s.Equal([]model.ListingID{pricey.ID, service.ID, cheap.ID, free.ID}, ids(desc))

	asc := s.store.Search(model.ListingFilter{Sort: model.SortPriceAsc})
	s.Equal([]model.ListingID{cheap.ID, service.ID, pricey.ID, free.ID}, ids(asc))
}

func (s *StoreSuite) TestSearchByStatus() {
	cheap, _, _, _ := s.seedSearch()
	s.identity.actAs(s.alice)
	s.Require().NoError(s.store.SetListingStatus(s.ctx, cheap.ID, model.StatusSold))

	s.Equal([]model.ListingID{cheap.ID}, ids(s.store.Search(model.ListingFilter{Status: model.StatusSold})))
}
