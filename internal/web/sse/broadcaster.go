package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/web/templates/components"
)

// Event names
const (
	EventListingsUpdate = "listings-update"
	EventUsersChanged   = "users-changed"
)

// ListingSource provides the listings shown on the browse grid
type ListingSource interface {
	GetActiveListings() []model.Listing
	OnChange(fn func())
}

// UserSource provides the registered users
type UserSource interface {
	Users() []model.UserProfile
	OnChange(fn func())
}

// Broadcaster pushes store changes to SSE clients
type Broadcaster struct {
	hubManager *HubManager
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// Watch registers change listeners on both stores
func (b *Broadcaster) Watch(listings ListingSource, users UserSource) {
	listings.OnChange(func() {
		b.BroadcastListings(context.Background(), listings.GetActiveListings())
	})
	users.OnChange(func() {
		b.BroadcastUsers(users.Users())
	})
}

// BroadcastListings re-renders the listing grid for browse page clients
func (b *Broadcaster) BroadcastListings(ctx context.Context, listings []model.Listing) {
	hub := b.hubManager.GetHub(TopicListings)
	if hub == nil {
		return
	}

	var buf bytes.Buffer
	if err := components.ListingGrid(listings).Render(ctx, &buf); err != nil {
		b.logger.Error("sse failed to render listing grid", slog.Any("error", err))
		return
	}

	hub.BroadcastEvent(EventListingsUpdate, WrapForOOBSwap(components.ListingGridID, buf.String()))
}

type usersEvent struct {
	Count int            `json:"count"`
	Names []string       `json:"names"`
	IDs   []model.UserID `json:"ids"`
}

// BroadcastUsers sends the current user roster as JSON
func (b *Broadcaster) BroadcastUsers(users []model.UserProfile) {
	hub := b.hubManager.GetHub(TopicUsers)
	if hub == nil {
		return
	}

	ev := usersEvent{Count: len(users), Names: []string{}, IDs: []model.UserID{}}
	for _, u := range users {
		ev.Names = append(ev.Names, u.Name)
		ev.IDs = append(ev.IDs, u.ID)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("sse failed to encode users", slog.Any("error", err))
		return
	}
	hub.BroadcastEvent(EventUsersChanged, string(data))
}

// WrapForOOBSwap wraps HTML in a div that htmx swaps out-of-band for the element with id
func WrapForOOBSwap(id, html string) string {
	return `<div id="` + id + `" hx-swap-oob="true">` + html + `</div>`
}
