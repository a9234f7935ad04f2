// Package listing is the authoritative registry of marketplace listings.
//
// Every mutation resolves the acting user first, then the target listing
// and its ownership, and only then changes anything. Failures are returned
// and also recorded in the store's error field for display.
package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/LBIT2016/trading-gamers/internal/dependencies/clock"
	"github.com/LBIT2016/trading-gamers/internal/dependencies/random"
	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/services/images"
	"github.com/LBIT2016/trading-gamers/internal/services/listingform"
)

// Identity supplies the acting user
type Identity interface {
	CurrentUser() *model.UserProfile
}

// Emitter pushes the shared state after a local change
type Emitter interface {
	Emit(ctx context.Context) error
}

// State is the volatile status of the last operation
type State struct {
	IsLoading bool   `json:"isLoading"`
	Error     string `json:"error,omitempty"`
}

type snapshot struct {
	Listings []model.Listing `json:"listings"`
}

// Store holds every listing
type Store struct {
	identity Identity
	images   images.Resolver
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger

	mu       sync.RWMutex
	listings []model.Listing
	state    State
	emitter  Emitter

	listenersMu sync.Mutex
	listeners   []func()
}

// New creates an empty listing store
func New(
	identity Identity,
	resolver images.Resolver,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Store {
	return &Store{
		identity: identity,
		images:   resolver,
		clock:    clock,
		random:   random,
		logger:   logger,
		listings: []model.Listing{},
	}
}

// SetEmitter attaches the synchronization binding
func (s *Store) SetEmitter(e Emitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitter = e
}

// OnChange registers fn to run after every local or remote change
func (s *Store) OnChange(fn func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify() {
	s.listenersMu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.listenersMu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

func (s *Store) commit(ctx context.Context) {
	s.mu.RLock()
	emitter := s.emitter
	s.mu.RUnlock()
	if emitter != nil {
		if err := emitter.Emit(ctx); err != nil {
			s.logger.Warn("failed to push listings document", "error", err)
		}
	}
	s.notify()
}

func (s *Store) begin() {
	s.mu.Lock()
	s.state = State{IsLoading: true}
	s.mu.Unlock()
}

func (s *Store) fail(err error) error {
	s.mu.Lock()
	s.state = State{Error: err.Error()}
	s.mu.Unlock()
	s.logger.Debug("listing operation failed", "error", err)
	return err
}

func (s *Store) succeed() {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
}

// State returns the status of the last operation
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) indexOf(id model.ListingID) int {
	for i := range s.listings {
		if s.listings[i].ID == id {
			return i
		}
	}
	return -1
}

// authorize runs the first two phases of a mutation: resolve the acting
// user, then the target listing and its ownership
func (s *Store) authorize(id model.ListingID) (*model.Listing, error) {
	actor := s.identity.CurrentUser()
	if actor == nil {
		return nil, model.ErrNotAuthenticated
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return nil, model.ErrListingNotFound
	}
	if s.listings[idx].SellerID != actor.ID {
		return nil, model.ErrNotOwner
	}
	target := s.listings[idx].Clone()
	return &target, nil
}

// countUploaded counts images other than the stand-in placeholder
func countUploaded(imgs []model.Image) int {
	n := 0
	for _, img := range imgs {
		if img.URL != images.PlaceholderURL {
			n++
		}
	}
	return n
}

func (s *Store) resolveImages(ctx context.Context, sources []model.ImageSource) ([]model.Image, error) {
	out := make([]model.Image, 0, len(sources))
	for _, src := range sources {
		url, err := s.images.Resolve(ctx, src)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Image{ID: s.random.NewID("img_"), URL: url})
	}
	return out, nil
}

// CreateListing publishes a new listing for the current user
func (s *Store) CreateListing(ctx context.Context, form model.ListingForm, sources []model.ImageSource) (*model.Listing, error) {
	s.begin()

	actor := s.identity.CurrentUser()
	if actor == nil {
		return nil, s.fail(model.ErrNotAuthenticated)
	}

	imgs, err := s.resolveImages(ctx, sources)
	if err != nil {
		return nil, s.fail(fmt.Errorf("failed to resolve images: %w", err))
	}
	if len(imgs) == 0 {
		imgs = []model.Image{{ID: s.random.NewID("img_"), URL: images.PlaceholderURL}}
	}
	model.EnsurePrimaryImage(imgs)

	now := s.clock.Now()
	l := model.Listing{
		ID:                  model.ListingID(s.random.NewID("l_")),
		CreatedAt:           now,
		UpdatedAt:           now,
		SellerID:            actor.ID,
		SellerName:          actor.Name,
		Title:               form.Title,
		ShortDescription:    form.ShortDescription,
		DetailedDescription: form.DetailedDescription,
		ListingType:         form.ListingType,
		Category:            form.Category,
		Price:               form.Price,
		Condition:           form.Condition,
		Location:            form.Location,
		IsRemote:            form.IsRemote,
		ContactInfo:         form.ContactInfo,
		Tags:                model.ParseTags(form.Tags),
		Images:              imgs,
		Status:              model.StatusActive,
	}
	if l.ListingType.IsService() {
		l.Condition = ""
	}

	s.mu.Lock()
	s.listings = append(s.listings, l)
	s.state = State{}
	s.mu.Unlock()

	s.logger.Info("listing created", "listing_id", l.ID, "seller_id", l.SellerID)
	s.commit(ctx)
	clone := l.Clone()
	return &clone, nil
}

// UpdateListing merges patch into a listing owned by the current user and
// appends any new images
func (s *Store) UpdateListing(ctx context.Context, id model.ListingID, patch model.ListingPatch, newImages []model.ImageSource) (*model.Listing, error) {
	s.begin()

	current, err := s.authorize(id)
	if err != nil {
		return nil, s.fail(err)
	}

	// The merged listing has to pass the same checks as a new one
	merged := current.Clone()
	patch.Apply(&merged)
	in := listingform.Input{
		Form:           model.FormFromListing(&merged),
		Images:         newImages,
		ExistingImages: countUploaded(merged.Images),
	}
	if err := listingform.Validate(in); err != nil {
		return nil, s.fail(err)
	}

	added, err := s.resolveImages(ctx, newImages)
	if err != nil {
		return nil, s.fail(fmt.Errorf("failed to resolve images: %w", err))
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		// Removed while images were resolving
		s.mu.Unlock()
		return nil, s.fail(model.ErrListingNotFound)
	}
	l := &s.listings[idx]
	patch.Apply(l)
	l.Images = append(l.Images, added...)
	model.EnsurePrimaryImage(l.Images)
	l.UpdatedAt = s.clock.Now()
	updated := l.Clone()
	s.state = State{}
	s.mu.Unlock()

	s.logger.Info("listing updated", "listing_id", id)
	s.commit(ctx)
	return &updated, nil
}

// DeleteListing removes a listing owned by the current user
func (s *Store) DeleteListing(ctx context.Context, id model.ListingID) error {
	s.begin()

	if _, err := s.authorize(id); err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return s.fail(model.ErrListingNotFound)
	}
	s.listings = append(s.listings[:idx], s.listings[idx+1:]...)
	s.state = State{}
	s.mu.Unlock()

	s.logger.Info("listing deleted", "listing_id", id)
	s.commit(ctx)
	return nil
}

// SetListingStatus changes the status of a listing owned by the current user
func (s *Store) SetListingStatus(ctx context.Context, id model.ListingID, status model.ListingStatus) error {
	s.begin()

	if _, err := s.authorize(id); err != nil {
		return s.fail(err)
	}
	if !status.IsValid() {
		return s.fail(fmt.Errorf("%w: unknown status %q", model.ErrValidationFailed, status))
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return s.fail(model.ErrListingNotFound)
	}
	s.listings[idx].Status = status
	s.listings[idx].UpdatedAt = s.clock.Now()
	s.state = State{}
	s.mu.Unlock()

	s.logger.Info("listing status changed", "listing_id", id, "status", status)
	s.commit(ctx)
	return nil
}

// GetListingByID returns a listing by id
func (s *Store) GetListingByID(id model.ListingID) (*model.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return nil, model.ErrListingNotFound
	}
	clone := s.listings[idx].Clone()
	return &clone, nil
}

// GetListingsBySeller returns a seller's listings in creation order
func (s *Store) GetListingsBySeller(sellerID model.UserID) []model.Listing {
	return s.collect(func(l *model.Listing) bool { return l.SellerID == sellerID })
}

// GetActiveListings returns listings with status active in creation order
func (s *Store) GetActiveListings() []model.Listing {
	return s.collect(func(l *model.Listing) bool { return l.Status == model.StatusActive })
}

// All returns every listing in creation order
func (s *Store) All() []model.Listing {
	return s.collect(func(*model.Listing) bool { return true })
}

func (s *Store) collect(keep func(*model.Listing) bool) []model.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Listing{}
	for i := range s.listings {
		if keep(&s.listings[i]) {
			out = append(out, s.listings[i].Clone())
		}
	}
	return out
}

// Snapshot serializes the listing set for synchronization
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(snapshot{Listings: s.listings})
}

// Replace swaps in a remote listing set, repairing primary image flags
func (s *Store) Replace(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	if snap.Listings == nil {
		snap.Listings = []model.Listing{}
	}
	for i := range snap.Listings {
		l := &snap.Listings[i]
		if l.Tags == nil {
			l.Tags = []string{}
		}
		if l.Images == nil {
			l.Images = []model.Image{}
		}
		if model.EnsurePrimaryImage(l.Images) {
			s.logger.Debug("repaired primary image", "listing_id", l.ID)
		}
	}

	s.mu.Lock()
	s.listings = snap.Listings
	s.mu.Unlock()

	s.notify()
	return nil
}
