package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/LBIT2016/trading-gamers/internal/dependencies/mocks"
	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/services/images"
	"github.com/LBIT2016/trading-gamers/internal/services/listingform"
	"github.com/LBIT2016/trading-gamers/internal/testutil"
)

type fakeIdentity struct {
	mu      sync.Mutex
	current *model.UserProfile
}

func (f *fakeIdentity) CurrentUser() *model.UserProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil
	}
	u := *f.current
	return &u
}

func (f *fakeIdentity) actAs(u *model.UserProfile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = u
}

type failingResolver struct{}

func (failingResolver) Resolve(ctx context.Context, src model.ImageSource) (string, error) {
	return "", errors.New("storage offline")
}

type StoreSuite struct {
	suite.Suite
	identity *fakeIdentity
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	store    *Store
	ctx      context.Context

	alice *model.UserProfile
	bob   *model.UserProfile
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.identity = &fakeIdentity{}
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.store = New(s.identity, images.NewPlaceholder(), s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()

	s.alice = &model.UserProfile{ID: "u_alice", Name: "Alice"}
	s.bob = &model.UserProfile{ID: "u_bob", Name: "Bob"}
}

func basicForm() model.ListingForm {
	return model.ListingForm{
		ListingType: model.ListingTypeSell,
		Category:    model.CategoryVideoGame,
		Title:            "Test",
		ShortDescription: "Works fine",
		Price:            "10",
		Location:         "X",
		ContactInfo:      "y@z",
	}
}

func (s *StoreSuite) createAs(user *model.UserProfile, form model.ListingForm) *model.Listing {
	s.identity.actAs(user)
	l, err := s.store.CreateListing(s.ctx, form, nil)
	s.Require().NoError(err)
	return l
}

func (s *StoreSuite) TestCreateListingScenario() {
	s.identity.actAs(s.alice)

	l, err := s.store.CreateListing(s.ctx, basicForm(), nil)
	s.Require().NoError(err)

	s.Equal(s.alice.ID, l.SellerID)
	s.Equal("Alice", l.SellerName)
	s.Equal(model.StatusActive, l.Status)
	s.Equal(s.clock.Now(), l.CreatedAt)
	s.Equal(l.CreatedAt, l.UpdatedAt)
	s.Require().Len(l.Images, 1)
	s.True(l.Images[0].IsPrimary)
	s.Equal(images.PlaceholderURL, l.Images[0].URL)
	s.Equal([]string{}, l.Tags)

	stored, err := s.store.GetListingByID(l.ID)
	s.Require().NoError(err)
	s.Equal(*l, *stored)
}

func (s *StoreSuite) TestCreateListingRequiresUser() {
	_, err := s.store.CreateListing(s.ctx, basicForm(), nil)
	s.ErrorIs(err, model.ErrNotAuthenticated)
	s.Equal(model.ErrNotAuthenticated.Error(), s.store.State().Error)
	s.Empty(s.store.All())
}

func (s *StoreSuite) TestCreateListingParsesTags() {
	form := basicForm()
	form.Tags = " rpg, ,retro,rpg ,  zelda "
	l := s.createAs(s.alice, form)
	s.Equal([]string{"rpg", "retro", "zelda"}, l.Tags)
}

func (s *StoreSuite) TestCreateListingResolvesImages() {
	s.identity.actAs(s.alice)
	l, err := s.store.CreateListing(s.ctx, basicForm(), []model.ImageSource{
		model.FromURL("https://example.com/front.jpg"),
		model.FromFile("back.png", "image/png", []byte("png")),
	})
	s.Require().NoError(err)

	s.Require().Len(l.Images, 2)
	s.Equal("https://example.com/front.jpg", l.Images[0].URL)
	s.True(l.Images[0].IsPrimary)
	s.False(l.Images[1].IsPrimary)
	s.Contains(l.Images[1].URL, "back.png")
}

func (s *StoreSuite) TestCreateListingImageFailure() {
	store := New(s.identity, failingResolver{}, s.clock, s.random, testutil.NopLogger())
	s.identity.actAs(s.alice)

	_, err := store.CreateListing(s.ctx, basicForm(), []model.ImageSource{model.FromFile("a.png", "", nil)})
	s.ErrorContains(err, "storage offline")
	s.Empty(store.All())
	s.NotEmpty(store.State().Error)
}

func (s *StoreSuite) TestCreateServiceListingDropsCondition() {
	form := basicForm()
	form.ListingType = model.ListingTypeOfferService
	form.Category = model.CategoryCoaching
	form.Condition = model.ConditionNew

	l := s.createAs(s.alice, form)
	s.Empty(l.Condition)
}

func (s *StoreSuite) TestUpdateListing() {
	l := s.createAs(s.alice, basicForm())
	s.clock.Advance(time.Minute)

	title := "Updated"
	tags := "a, b"
	updated, err := s.store.UpdateListing(s.ctx, l.ID, model.ListingPatch{Title: &title, Tags: &tags}, nil)
	s.Require().NoError(err)

	s.Equal("Updated", updated.Title)
	s.Equal([]string{"a", "b"}, updated.Tags)
	s.Equal("10", updated.Price)
	s.Equal(l.CreatedAt, updated.CreatedAt)
	s.Equal(s.clock.Now(), updated.UpdatedAt)
}

func (s *StoreSuite) TestUpdateListingKeepsPrimaryWhenAppending() {
	l := s.createAs(s.alice, basicForm())
	primaryID := l.PrimaryImage().ID

	updated, err := s.store.UpdateListing(s.ctx, l.ID, model.ListingPatch{}, []model.ImageSource{
		model.FromURL("https://example.com/1.jpg"),
		model.FromURL("https://example.com/2.jpg"),
	})
	s.Require().NoError(err)

	s.Len(updated.Images, 3)
	s.Equal(primaryID, updated.PrimaryImage().ID)
	primaries := 0
	for _, img := range updated.Images {
		if img.IsPrimary {
			primaries++
		}
	}
	s.Equal(1, primaries)
}

func (s *StoreSuite) TestUpdateListingPromotesFirstAppendedImage() {
	// A remote client may hold a listing with no images
	s.Require().NoError(s.store.Replace([]byte(`{"listings":[{"id":"l_x","sellerId":"u_alice","status":"active","listingType":"sell","category":"console","title":"Old console","shortDescription":"Still boots","price":"40","location":"Lisbon","contactInfo":"a@b","images":[]}]}`)))
	s.identity.actAs(s.alice)

	updated, err := s.store.UpdateListing(s.ctx, "l_x", model.ListingPatch{}, []model.ImageSource{
		model.FromURL("https://example.com/1.jpg"),
		model.FromURL("https://example.com/2.jpg"),
	})
	s.Require().NoError(err)
	s.True(updated.Images[0].IsPrimary)
	s.False(updated.Images[1].IsPrimary)
}

func (s *StoreSuite) TestUpdateListingValidatesMergedListing() {
	l := s.createAs(s.alice, basicForm())

	bogus := model.ListingType("bogus")
	coaching := model.CategoryCoaching
	empty := ""
	tests := []struct {
		name  string
		patch model.ListingPatch
		field string
	}{
		{"unknown type", model.ListingPatch{ListingType: &bogus}, "listingType"},
		{"category of another type", model.ListingPatch{Category: &coaching}, "category"},
		{"empty title", model.ListingPatch{Title: &empty}, "title"},
		{"cleared contact", model.ListingPatch{ContactInfo: &empty}, "contactInfo"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.store.UpdateListing(s.ctx, l.ID, tt.patch, nil)
			s.Require().ErrorIs(err, model.ErrValidationFailed)
			var verr *listingform.ValidationError
			s.Require().ErrorAs(err, &verr)
			s.Contains(verr.Fields, tt.field)
			s.NotEmpty(s.store.State().Error)
		})
	}

	stored, err := s.store.GetListingByID(l.ID)
	s.Require().NoError(err)
	s.Equal(*l, *stored)
}

func (s *StoreSuite) TestUpdateListingCapsTotalImages() {
	l := s.createAs(s.alice, basicForm())

	sources := make([]model.ImageSource, listingform.MaxImages)
	for i := range sources {
		sources[i] = model.FromURL(fmt.Sprintf("https://example.com/%d.jpg", i))
	}
	// The placeholder does not count against the limit
	updated, err := s.store.UpdateListing(s.ctx, l.ID, model.ListingPatch{}, sources)
	s.Require().NoError(err)
	s.Len(updated.Images, listingform.MaxImages+1)

	_, err = s.store.UpdateListing(s.ctx, l.ID, model.ListingPatch{}, []model.ImageSource{model.FromURL("https://example.com/extra.jpg")})
	var verr *listingform.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "images")

	stored, err := s.store.GetListingByID(l.ID)
	s.Require().NoError(err)
	s.Len(stored.Images, listingform.MaxImages+1)
}

func (s *StoreSuite) TestMutationsRequireOwnership() {
	l := s.createAs(s.alice, basicForm())
	before, err := s.store.GetListingByID(l.ID)
	s.Require().NoError(err)

	s.identity.actAs(s.bob)
	title := "hijacked"
	_, err = s.store.UpdateListing(s.ctx, l.ID, model.ListingPatch{Title: &title}, nil)
	s.ErrorIs(err, model.ErrNotOwner)
	s.ErrorIs(s.store.SetListingStatus(s.ctx, l.ID, model.StatusSold), model.ErrNotOwner)
	s.ErrorIs(s.store.DeleteListing(s.ctx, l.ID), model.ErrNotOwner)
	s.Equal(model.ErrNotOwner.Error(), s.store.State().Error)

	after, err := s.store.GetListingByID(l.ID)
	s.Require().NoError(err)
	s.Equal(*before, *after)
}

func (s *StoreSuite) TestAdminIsNotExemptFromOwnership() {
	l := s.createAs(s.alice, basicForm())
	s.identity.actAs(&model.UserProfile{ID: "u_admin", Name: "admin", IsAdmin: true})

	s.ErrorIs(s.store.DeleteListing(s.ctx, l.ID), model.ErrNotOwner)
}

func (s *StoreSuite) TestMutationsRequireUser() {
	l := s.createAs(s.alice, basicForm())
	s.identity.actAs(nil)

	s.ErrorIs(s.store.DeleteListing(s.ctx, l.ID), model.ErrNotAuthenticated)
	s.ErrorIs(s.store.SetListingStatus(s.ctx, l.ID, model.StatusSold), model.ErrNotAuthenticated)
}

func (s *StoreSuite) TestMutationsOnMissingListing() {
	s.identity.actAs(s.alice)
	s.ErrorIs(s.store.DeleteListing(s.ctx, "missing"), model.ErrNotFound)
	_, err := s.store.UpdateListing(s.ctx, "missing", model.ListingPatch{}, nil)
	s.ErrorIs(err, model.ErrListingNotFound)
}

func (s *StoreSuite) TestDeleteListing() {
	l := s.createAs(s.alice, basicForm())

	s.Require().NoError(s.store.DeleteListing(s.ctx, l.ID))
	_, err := s.store.GetListingByID(l.ID)
	s.ErrorIs(err, model.ErrListingNotFound)
	s.Empty(s.store.State().Error)
}

func (s *StoreSuite) TestSetListingStatus() {
	l := s.createAs(s.alice, basicForm())
	s.clock.Advance(time.Hour)

	s.Require().NoError(s.store.SetListingStatus(s.ctx, l.ID, model.StatusSold))
	got, err := s.store.GetListingByID(l.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusSold, got.Status)
	s.Equal(s.clock.Now(), got.UpdatedAt)
	s.Empty(s.store.GetActiveListings())

	s.ErrorIs(s.store.SetListingStatus(s.ctx, l.ID, "archived"), model.ErrValidationFailed)
}

func (s *StoreSuite) TestSelectors() {
	a1 := s.createAs(s.alice, basicForm())
	b1 := s.createAs(s.bob, basicForm())
	a2 := s.createAs(s.alice, basicForm())
	s.Require().NoError(s.store.SetListingStatus(s.ctx, a2.ID, model.StatusInactive))

	bySeller := s.store.GetListingsBySeller(s.alice.ID)
	s.Require().Len(bySeller, 2)
	s.Equal(a1.ID, bySeller[0].ID)
	s.Equal(a2.ID, bySeller[1].ID)

	active := s.store.GetActiveListings()
	s.Require().Len(active, 2)
	s.Equal(a1.ID, active[0].ID)
	s.Equal(b1.ID, active[1].ID)
}

func (s *StoreSuite) TestSelectorsReturnCopies() {
	l := s.createAs(s.alice, basicForm())

	got, err := s.store.GetListingByID(l.ID)
	s.Require().NoError(err)
	got.Images[0].URL = "mutated"

	again, err := s.store.GetListingByID(l.ID)
	s.Require().NoError(err)
	s.Equal(images.PlaceholderURL, again.Images[0].URL)
}

func (s *StoreSuite) TestSnapshotRoundTrip() {
	form := basicForm()
	form.Tags = "z, a, m"
	s.identity.actAs(s.alice)
	_, err := s.store.CreateListing(s.ctx, form, []model.ImageSource{
		model.FromURL("https://example.com/2.jpg"),
		model.FromURL("https://example.com/1.jpg"),
	})
	s.Require().NoError(err)

	data, err := s.store.Snapshot()
	s.Require().NoError(err)

	other := New(s.identity, images.NewPlaceholder(), s.clock, s.random, testutil.NopLogger())
	s.Require().NoError(other.Replace(data))
	s.Equal(s.store.All(), other.All())
}

func (s *StoreSuite) TestReplaceRepairsPrimaryImages() {
	s.Require().NoError(s.store.Replace([]byte(`{"listings":[
		{"id":"l_1","images":[{"id":"a","url":"u"},{"id":"b","url":"v"}]},
		{"id":"l_2","images":[{"id":"a","url":"u","isPrimary":true},{"id":"b","url":"v","isPrimary":true}]}
	]}`)))

	l1, err := s.store.GetListingByID("l_1")
	s.Require().NoError(err)
	s.True(l1.Images[0].IsPrimary)
	s.False(l1.Images[1].IsPrimary)

	l2, err := s.store.GetListingByID("l_2")
	s.Require().NoError(err)
	s.True(l2.Images[0].IsPrimary)
	s.False(l2.Images[1].IsPrimary)
	s.Equal([]string{}, l2.Tags)
}

func (s *StoreSuite) TestChangesNotifyAndEmit() {
	calls := 0
	s.store.OnChange(func() { calls++ })
	emitter := &countingEmitter{}
	s.store.SetEmitter(emitter)

	l := s.createAs(s.alice, basicForm())
	s.Require().NoError(s.store.SetListingStatus(s.ctx, l.ID, model.StatusPending))
	s.identity.actAs(s.bob)
	_ = s.store.DeleteListing(s.ctx, l.ID)

	s.Equal(2, calls)
	s.Equal(2, emitter.count)
}

type countingEmitter struct {
	count int
}

func (e *countingEmitter) Emit(ctx context.Context) error {
	e.count++
	return nil
}
