// Package profile is a display projection of the current user.
//
// It owns no identity data. Authentication goes through the identity
// store, edits to tracked fields are written back to it, and the
// projection is rebuilt whenever the identity store changes. Only the
// email address, which the identity record does not track, is kept here.
package profile

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/session"
)

// EmailsKey is the local storage key of the per-user email map
const EmailsKey = "player-emails"

// Identity is the authoritative identity service
type Identity interface {
	Login(ctx context.Context, name, credential string) (*model.UserProfile, error)
	Signup(ctx context.Context, name, credential string) (*model.UserProfile, error)
	Logout()
	CurrentUser() *model.UserProfile
	Session() *model.Session
	UpdateProfileDetails(ctx context.Context, id model.UserID, patch model.ProfilePatch) (*model.UserProfile, error)
	UpdateProfileName(ctx context.Context, id model.UserID, name string) (*model.UserProfile, error)
	OnChange(fn func())
}

// State is the volatile status of the last operation
type State struct {
	IsLoading bool   `json:"isLoading"`
	Error     string `json:"error,omitempty"`
}

// Store mirrors the identity store's current user
type Store struct {
	identity Identity
	local    session.LocalStorage
	logger   *slog.Logger

	mu      sync.RWMutex
	session *model.Session
	profile *model.PlayerProfile
	state   State
}

// New creates the projection and keeps it in step with identity
func New(identity Identity, local session.LocalStorage, logger *slog.Logger) *Store {
	s := &Store{
		identity: identity,
		local:    local,
		logger:   logger,
	}
	identity.OnChange(s.mirror)
	s.mirror()
	return s
}

// mirror rebuilds the projection from the identity store
func (s *Store) mirror() {
	sess := s.identity.Session()
	user := s.identity.CurrentUser()

	var projected *model.PlayerProfile
	if sess != nil && user != nil {
		p := model.PlayerProfileFromUser(*user, s.email(user.ID))
		projected = &p
	} else {
		sess = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sess
	s.profile = projected
}

func (s *Store) emails() map[model.UserID]string {
	emails := map[model.UserID]string{}
	raw, ok, err := s.local.GetItem(EmailsKey)
	if err != nil {
		s.logger.Warn("failed to read stored emails", "error", err)
		return emails
	}
	if !ok {
		return emails
	}
	if err := json.Unmarshal([]byte(raw), &emails); err != nil {
		s.logger.Warn("discarding malformed stored emails", "error", err)
		return map[model.UserID]string{}
	}
	return emails
}

func (s *Store) email(id model.UserID) string {
	return s.emails()[id]
}

func (s *Store) setEmail(id model.UserID, email string) error {
	emails := s.emails()
	if email == "" {
		delete(emails, id)
	} else {
		emails[id] = email
	}
	data, err := json.Marshal(emails)
	if err != nil {
		return err
	}
	return s.local.SetItem(EmailsKey, string(data))
}

func (s *Store) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Store) record(err error) error {
	if err != nil {
		s.setState(State{Error: err.Error()})
	} else {
		s.setState(State{})
	}
	return err
}

// Login authenticates through the identity store
func (s *Store) Login(ctx context.Context, name, credential string) (*model.PlayerProfile, error) {
	s.setState(State{IsLoading: true})
	if _, err := s.identity.Login(ctx, name, credential); err != nil {
		return nil, s.record(err)
	}
	_ = s.record(nil)
	return s.Profile(), nil
}

// Signup creates an account through the identity store
func (s *Store) Signup(ctx context.Context, name, credential string) (*model.PlayerProfile, error) {
	s.setState(State{IsLoading: true})
	if _, err := s.identity.Signup(ctx, name, credential); err != nil {
		return nil, s.record(err)
	}
	_ = s.record(nil)
	return s.Profile(), nil
}

// Logout ends the session through the identity store
func (s *Store) Logout() {
	s.identity.Logout()
	s.setState(State{})
}

// Session returns the mirrored session
func (s *Store) Session() *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	sess := *s.session
	return &sess
}

// IsAuthenticated reports whether a user is logged in
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile != nil
}

// Profile returns the projection of the current user
func (s *Store) Profile() *model.PlayerProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	p.Genres = append([]string(nil), p.Genres...)
	p.Games = append([]string(nil), p.Games...)
	return &p
}

// State returns the status of the last operation
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// UpdateProfile edits the current user's profile. Name and descriptive
// fields are written to the identity store; email is stored locally.
func (s *Store) UpdateProfile(ctx context.Context, patch model.PlayerProfilePatch) (*model.PlayerProfile, error) {
	s.setState(State{IsLoading: true})

	user := s.identity.CurrentUser()
	if user == nil {
		return nil, s.record(model.ErrNotAuthenticated)
	}

	if patch.DisplayName != nil && *patch.DisplayName != user.Name {
		if _, err := s.identity.UpdateProfileName(ctx, user.ID, *patch.DisplayName); err != nil {
			return nil, s.record(err)
		}
	}

	details := patch.IdentityPatch()
	if details.Genres != nil || details.Games != nil || details.PlayerType != nil {
		if _, err := s.identity.UpdateProfileDetails(ctx, user.ID, details); err != nil {
			return nil, s.record(err)
		}
	}

	if patch.Email != nil {
		if err := s.setEmail(user.ID, *patch.Email); err != nil {
			return nil, s.record(err)
		}
	}

	s.mirror()
	_ = s.record(nil)
	return s.Profile(), nil
}
