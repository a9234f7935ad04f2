package response

import (
	"time"

	"github.com/LBIT2016/trading-gamers/internal/model"
)

// User represents a user profile in API responses. The credential is never returned.
type User struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	CreatedAt  time.Time        `json:"createdAt"`
	IsAdmin    bool             `json:"isAdmin"`
	Genres     []string         `json:"genres"`
	Games      []string         `json:"games"`
	PlayerType model.PlayerType `json:"playerType,omitempty"`
}

// UserFromModel converts a model.UserProfile
func UserFromModel(u *model.UserProfile) User {
	return User{
		ID:         string(u.ID),
		Name:       u.Name,
		CreatedAt:  u.CreatedAt,
		IsAdmin:    u.IsAdmin,
		Genres:     nonNil(u.Genres),
		Games:      nonNil(u.Games),
		PlayerType: u.PlayerType,
	}
}

// Session describes the active session on this client
type Session struct {
	Authenticated bool       `json:"authenticated"`
	User          *User      `json:"user,omitempty"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
}

// SessionFrom builds the session response
func SessionFrom(s *model.Session, u *model.UserProfile) Session {
	if s == nil || u == nil {
		return Session{}
	}
	user := UserFromModel(u)
	started := s.StartedAt
	return Session{Authenticated: true, User: &user, StartedAt: &started}
}

// NameAvailable answers a name uniqueness check
type NameAvailable struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// Listings wraps a listing collection
type Listings struct {
	Listings []model.Listing `json:"listings"`
	Count    int             `json:"count"`
}

// ListingsFrom wraps listings, never encoding null
func ListingsFrom(listings []model.Listing) Listings {
	if listings == nil {
		listings = []model.Listing{}
	}
	return Listings{Listings: listings, Count: len(listings)}
}

// StepValidation is the result of validating one form step
type StepValidation struct {
	Step  string `json:"step"`
	Valid bool   `json:"valid"`
}

// Health reports readiness of the shared documents
type Health struct {
	Status    string          `json:"status"`
	Documents map[string]bool `json:"documents"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
