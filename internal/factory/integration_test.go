package factory

import (
	"context"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/services/identity"
	"github.com/LBIT2016/trading-gamers/internal/session"
	"github.com/LBIT2016/trading-gamers/internal/storage/memory"
)

const (
	eventually = time.Second
	tick       = 10 * time.Millisecond
)

type IntegrationSuite struct {
	suite.Suite
	store *memory.Storage
	first *TestApp
	other *TestApp
	ctx   context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()

	s.first = NewTestAppWithStorage(s.store)
	s.Require().NoError(s.first.Start(s.ctx))

	// Separate clients draw ids from separate generators
	s.other = NewTestAppWithStorage(s.store)
	s.other.MockRandom.QueueID("u_other_1", "img_other_1", "l_other_1")
	s.Require().NoError(s.other.Start(s.ctx))
}

func (s *IntegrationSuite) TearDownTest() {
	s.first.UsersSync.Close()
	s.first.ListingsSync.Close()
	s.other.UsersSync.Close()
	s.other.ListingsSync.Close()
}

func (s *IntegrationSuite) itemForm(title string) model.ListingForm {
	return model.ListingForm{
		Title:            title,
		ShortDescription: "Barely used",
		ListingType:      model.ListingTypeSell,
		Category:         model.CategoryConsole,
		Price:            "$200",
		Condition:        model.ConditionLikeNew,
		Location:         "Lisbon",
		ContactInfo:      "discord: seller",
		Tags:             "switch, nintendo",
	}
}

func (s *IntegrationSuite) TestAdminBootstrappedOnce() {
	users := s.other.Identity.Users()
	s.Require().Len(users, 1)
	s.Equal(identity.AdminName, users[0].Name)
	s.True(users[0].IsAdmin)
	s.Equal(s.first.Identity.Users()[0].ID, users[0].ID)
}

func (s *IntegrationSuite) TestSignupReachesOtherClient() {
	alice, err := s.other.Identity.Signup(s.ctx, "alice", "pw")
	s.Require().NoError(err)
	s.Equal(model.UserID("u_other_1"), alice.ID)

	s.Eventually(func() bool {
		_, err := s.first.Identity.GetUser(alice.ID)
		return err == nil
	}, eventually, tick)

	// The session stays local to the client that signed up
	s.Nil(s.first.Identity.CurrentUser())
	s.Require().NotNil(s.other.Identity.CurrentUser())

	// The replicated profile can log in elsewhere
	_, err = s.first.Identity.Login(s.ctx, "Alice", "pw")
	s.Require().NoError(err)
	s.Equal(alice.ID, s.first.Identity.CurrentUser().ID)
}

func (s *IntegrationSuite) TestListingLifecycleAcrossClients() {
	_, err := s.other.Identity.Signup(s.ctx, "seller", "pw")
	s.Require().NoError(err)

	created, err := s.other.Listings.CreateListing(s.ctx, s.itemForm("Switch OLED"), nil)
	s.Require().NoError(err)
	s.Equal(model.ListingID("l_other_1"), created.ID)

	s.Eventually(func() bool {
		return len(s.first.Listings.GetActiveListings()) == 1
	}, eventually, tick)

	got, err := s.first.Listings.GetListingByID(created.ID)
	s.Require().NoError(err)
	s.Equal("Switch OLED", got.Title)
	s.Equal([]string{"switch", "nintendo"}, got.Tags)
	s.Require().Len(got.Images, 1)
	s.True(got.Images[0].IsPrimary)

	// Another user cannot modify the listing
	s.Eventually(func() bool {
		return len(s.first.Identity.Users()) == 2
	}, eventually, tick)
	_, err = s.first.Identity.Signup(s.ctx, "buyer", "pw")
	s.Require().NoError(err)
	err = s.first.Listings.SetListingStatus(s.ctx, created.ID, model.StatusSold)
	s.ErrorIs(err, model.ErrNotOwner)

	// The seller marks it sold and the browse view empties everywhere
	s.Require().NoError(s.other.Listings.SetListingStatus(s.ctx, created.ID, model.StatusSold))
	s.Eventually(func() bool {
		return len(s.first.Listings.GetActiveListings()) == 0
	}, eventually, tick)
	s.Len(s.first.Listings.GetListingsBySeller(created.SellerID), 1)
}

func (s *IntegrationSuite) TestSessionRestoredOnRestart() {
	bob, err := s.other.Identity.Signup(s.ctx, "bob", "pw")
	s.Require().NoError(err)

	raw, ok, err := s.other.Local.GetItem(session.Key)
	s.Require().NoError(err)
	s.Require().True(ok)

	restarted := NewTestAppWithStorage(s.store)
	s.Require().NoError(restarted.Local.SetItem(session.Key, raw))
	s.Require().NoError(restarted.Start(s.ctx))
	defer restarted.UsersSync.Close()
	defer restarted.ListingsSync.Close()

	s.Require().NotNil(restarted.Identity.CurrentUser())
	s.Equal(bob.ID, restarted.Identity.CurrentUser().ID)
	s.True(restarted.Profiles.IsAuthenticated())
	s.Equal("bob", restarted.Profiles.Profile().DisplayName)
}

func (s *IntegrationSuite) TestDeletedUserSessionDiscardedOnRestart() {
	carol, err := s.other.Identity.Signup(s.ctx, "carol", "pw")
	s.Require().NoError(err)
	raw, _, err := s.other.Local.GetItem(session.Key)
	s.Require().NoError(err)

	s.Require().NoError(s.other.Identity.DeleteProfile(s.ctx, carol.ID))

	restarted := NewTestAppWithStorage(s.store)
	s.Require().NoError(restarted.Local.SetItem(session.Key, raw))
	s.Require().NoError(restarted.Start(s.ctx))
	defer restarted.UsersSync.Close()
	defer restarted.ListingsSync.Close()

	s.Nil(restarted.Identity.CurrentUser())
	_, ok, err := restarted.Local.GetItem(session.Key)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *IntegrationSuite) TestEmitsCounted() {
	_, err := s.other.Identity.Signup(s.ctx, "dave", "pw")
	s.Require().NoError(err)

	count, err := promtest.GatherAndCount(s.other.Registry, "market_sync_emits_total")
	s.Require().NoError(err)
	s.Equal(1, count)
}

func TestNewRejectsUnknownStorage(t *testing.T) {
	_, err := New(context.Background(), Config{StorageType: "etcd"})
	if err == nil {
		t.Fatal("expected error for unknown storage type")
	}
}

func TestNewRequiresBackendConfig(t *testing.T) {
	for _, typ := range []string{"file", "redis", "postgres"} {
		if _, err := New(context.Background(), Config{StorageType: typ}); err == nil {
			t.Errorf("expected error for %s without config", typ)
		}
	}
}

func TestFileStorageOutlivesTheApp(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		StorageType:    "file",
		DataDir:        t.TempDir(),
		SyncTimeout:    time.Second,
		IdentityConfig: identity.DefaultConfig(),
	}

	first, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if err := first.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	user, err := first.Identity.Signup(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// A later process on the same data directory
	second, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer func() { _ = second.Close() }()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	current := second.Identity.CurrentUser()
	if current == nil || current.ID != user.ID {
		t.Fatalf("session not restored: got %v, want %s", current, user.ID)
	}
	if _, err := second.Identity.Login(ctx, "alice", "pw"); err != nil {
		t.Fatalf("login after restart: %v", err)
	}
}
