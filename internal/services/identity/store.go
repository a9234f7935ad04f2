// Package identity is the authoritative registry of user profiles and of
// the single active session on this client.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/LBIT2016/trading-gamers/internal/dependencies/clock"
	"github.com/LBIT2016/trading-gamers/internal/dependencies/random"
	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/session"
)

const (
	// AdminName is the name of the bootstrapped administrator
	AdminName = "admin"
	// DefaultAdminCredential is a development placeholder, not a secret
	DefaultAdminCredential = "admin123"
)

// Emitter pushes the shared state after a local change
type Emitter interface {
	Emit(ctx context.Context) error
}

// State is the volatile status of the last operation
type State struct {
	IsLoading bool   `json:"isLoading"`
	Error     string `json:"error,omitempty"`
}

// Config holds identity store settings
type Config struct {
	AdminCredential string
	Comparer        CredentialComparer
}

// DefaultConfig returns the development defaults
func DefaultConfig() Config {
	return Config{
		AdminCredential: DefaultAdminCredential,
		Comparer:        PlainComparer{},
	}
}

type snapshot struct {
	Users []model.UserProfile `json:"users"`
}

// Store holds user profiles and the active session
type Store struct {
	sessions *session.Manager
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger
	cfg      Config

	mu      sync.RWMutex
	users   []model.UserProfile
	current *model.Session
	state   State
	checked bool
	emitter Emitter

	listenersMu sync.Mutex
	listeners   []func()
}

// New creates an empty identity store
func New(
	sessions *session.Manager,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
	cfg Config,
) *Store {
	if cfg.Comparer == nil {
		cfg.Comparer = PlainComparer{}
	}
	if cfg.AdminCredential == "" {
		cfg.AdminCredential = DefaultAdminCredential
	}
	return &Store{
		sessions: sessions,
		clock:    clock,
		random:   random,
		logger:   logger,
		cfg:      cfg,
		users:    []model.UserProfile{},
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

// commit pushes the shared state and tells listeners. Must be called
// without holding mu.
func (s *Store) commit(ctx context.Context) {
	s.mu.RLock()
	emitter := s.emitter
	s.mu.RUnlock()
	if emitter != nil {
		if err := emitter.Emit(ctx); err != nil {
			s.logger.Warn("failed to push users document", "error", err)
		}
	}
	s.notify()
}

// begin marks an operation in flight. Caller holds mu.
func (s *Store) begin() {
	s.state = State{IsLoading: true}
}

// finish records the outcome of an operation. Caller holds mu.
func (s *Store) finish(err error) error {
	s.state.IsLoading = false
	if err != nil {
		s.state.Error = err.Error()
	}
	return err
}

// findByName returns the index of the profile with the given normalized name
func (s *Store) findByName(name string) int {
	normalized := model.NormalizeName(name)
	for i := range s.users {
		if model.NormalizeName(s.users[i].Name) == normalized {
			return i
		}
	}
	return -1
}

func (s *Store) findByID(id model.UserID) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

// Login authenticates by name and credential and makes the profile active.
// A failed attempt leaves any existing session in place.
func (s *Store) Login(ctx context.Context, name, credential string) (*model.UserProfile, error) {
	s.mu.Lock()
	s.begin()

	idx := s.findByName(name)
	if idx < 0 {
		s.mu.Unlock()
		return nil, s.fail(model.ErrUserNotFound)
	}
	user := s.users[idx]
	if !user.HasCredential() {
		s.mu.Unlock()
		return nil, s.fail(model.ErrMissingCredential)
	}
	if !s.cfg.Comparer.Matches(user.Credential, credential) {
		s.mu.Unlock()
		return nil, s.fail(model.ErrInvalidCredential)
	}

	if err := s.activate(user.ID); err != nil {
		s.mu.Unlock()
		return nil, s.fail(err)
	}
	_ = s.finish(nil)
	s.mu.Unlock()

	s.logger.Info("user logged in", "user_id", user.ID)
	s.notify()
	clone := user.Clone()
	return &clone, nil
}

// fail records err as the store error
func (s *Store) fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finish(err)
}

// activate makes id the active session and persists it. Caller holds mu.
func (s *Store) activate(id model.UserID) error {
	rec, err := s.sessions.Write(id)
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	sess := rec.Session()
	s.current = &sess
	return nil
}

// Signup creates a profile and logs it in
func (s *Store) Signup(ctx context.Context, name, credential string) (*model.UserProfile, error) {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	s.begin()

	if name == "" {
		s.mu.Unlock()
		return nil, s.fail(fmt.Errorf("%w: name is required", model.ErrValidationFailed))
	}
	if strings.TrimSpace(credential) == "" {
		s.mu.Unlock()
		return nil, s.fail(fmt.Errorf("%w: credential is required", model.ErrValidationFailed))
	}
	if s.findByName(name) >= 0 {
		s.mu.Unlock()
		return nil, s.fail(model.ErrNameTaken)
	}

	stored, err := s.cfg.Comparer.Prepare(credential)
	if err != nil {
		s.mu.Unlock()
		return nil, s.fail(err)
	}

	user := model.UserProfile{
		ID:         model.UserID(s.random.NewID("u_")),
		Name:       name,
		Credential: stored,
		CreatedAt:  s.clock.Now(),
	}
	s.users = append(s.users, user)

	if err := s.activate(user.ID); err != nil {
		s.logger.Warn("profile created but session not persisted", "user_id", user.ID, "error", err)
		s.state.Error = err.Error()
	}
	s.state.IsLoading = false
	s.mu.Unlock()

	s.logger.Info("user signed up", "user_id", user.ID)
	s.commit(ctx)
	clone := user.Clone()
	return &clone, nil
}

// Logout clears the active session and its durable record
func (s *Store) Logout() {
	s.mu.Lock()
	s.current = nil
	s.state = State{}
	s.mu.Unlock()

	if err := s.sessions.Clear(); err != nil {
		s.logger.Warn("failed to clear session record", "error", err)
	}
	s.notify()
}

// CheckSession restores the session recorded on this machine if its user
// still exists, and purges it otherwise. Only the first call has an effect.
func (s *Store) CheckSession() {
	s.mu.Lock()
	if s.checked {
		s.mu.Unlock()
		return
	}
	s.checked = true

	rec, ok := s.sessions.Read()
	if !ok {
		s.mu.Unlock()
		return
	}

	if s.findByID(rec.UserID) < 0 {
		s.current = nil
		s.mu.Unlock()
		s.logger.Info("discarding session for unknown user", "user_id", rec.UserID)
		if err := s.sessions.Clear(); err != nil {
			s.logger.Warn("failed to clear session record", "error", err)
		}
		return
	}

	sess := rec.Session()
	s.current = &sess
	s.mu.Unlock()

	s.logger.Debug("session restored", "user_id", rec.UserID)
	s.notify()
}

// Session returns the active session, if any
func (s *Store) Session() *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	sess := *s.current
	return &sess
}

// CurrentUser returns the profile of the active session, if any
func (s *Store) CurrentUser() *model.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	idx := s.findByID(s.current.UserID)
	if idx < 0 {
		return nil
	}
	clone := s.users[idx].Clone()
	return &clone
}

// Users returns every profile in creation order
func (s *Store) Users() []model.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.UserProfile, len(s.users))
	for i := range s.users {
		out[i] = s.users[i].Clone()
	}
	return out
}

// GetUser returns a profile by id
func (s *Store) GetUser(id model.UserID) (*model.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.findByID(id)
	if idx < 0 {
		return nil, model.ErrUserNotFound
	}
	clone := s.users[idx].Clone()
	return &clone, nil
}

// State returns the status of the last operation
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// UpdateProfileDetails merges descriptive fields into a profile
func (s *Store) UpdateProfileDetails(ctx context.Context, id model.UserID, patch model.ProfilePatch) (*model.UserProfile, error) {
	s.mu.Lock()
	s.begin()

	idx := s.findByID(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, s.fail(model.ErrUserNotFound)
	}
	patch.Apply(&s.users[idx])
	updated := s.users[idx].Clone()
	_ = s.finish(nil)
	s.mu.Unlock()

	s.commit(ctx)
	return &updated, nil
}

// UpdateProfileName renames a profile, keeping names unique
func (s *Store) UpdateProfileName(ctx context.Context, id model.UserID, name string) (*model.UserProfile, error) {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	s.begin()

	if name == "" {
		s.mu.Unlock()
		return nil, s.fail(fmt.Errorf("%w: name is required", model.ErrValidationFailed))
	}
	idx := s.findByID(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, s.fail(model.ErrUserNotFound)
	}
	if other := s.findByName(name); other >= 0 && other != idx {
		s.mu.Unlock()
		return nil, s.fail(model.ErrNameTaken)
	}
	s.users[idx].Name = name
	updated := s.users[idx].Clone()
	_ = s.finish(nil)
	s.mu.Unlock()

	s.commit(ctx)
	return &updated, nil
}

// DeleteProfile removes a profile, logging out if it was active
func (s *Store) DeleteProfile(ctx context.Context, id model.UserID) error {
	s.mu.Lock()
	s.begin()

	idx := s.findByID(id)
	if idx < 0 {
		s.mu.Unlock()
		return s.fail(model.ErrUserNotFound)
	}
	s.users = append(s.users[:idx], s.users[idx+1:]...)
	wasActive := s.current != nil && s.current.UserID == id
	_ = s.finish(nil)
	s.mu.Unlock()

	s.logger.Info("profile deleted", "user_id", id)
	if wasActive {
		s.Logout()
	}
	s.commit(ctx)
	return nil
}

// IsNameUnique reports whether no profile other than excludeID has the name
func (s *Store) IsNameUnique(name string, excludeID model.UserID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	normalized := model.NormalizeName(name)
	for i := range s.users {
		if s.users[i].ID == excludeID {
			continue
		}
		if model.NormalizeName(s.users[i].Name) == normalized {
			return false
		}
	}
	return true
}

// EnsureAdmin creates the administrator profile when none exists. It
// reports whether a profile was created.
func (s *Store) EnsureAdmin(ctx context.Context) (bool, error) {
	s.mu.Lock()
	idx := s.findByName(AdminName)
	if idx >= 0 {
		isAdmin := s.users[idx].IsAdmin
		s.mu.Unlock()
		if !isAdmin {
			s.logger.Warn("a non-administrator profile holds the administrator name")
		}
		return false, nil
	}

	stored, err := s.cfg.Comparer.Prepare(s.cfg.AdminCredential)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	admin := model.UserProfile{
		ID:         model.UserID(s.random.NewID("u_")),
		Name:       AdminName,
		Credential: stored,
		CreatedAt:  s.clock.Now(),
		IsAdmin:    true,
	}
	s.users = append(s.users, admin)
	s.mu.Unlock()

	s.logger.Info("administrator profile created", "user_id", admin.ID)
	s.commit(ctx)
	return true, nil
}

// Snapshot serializes the profile set for synchronization. The active
// session is local to this client and not included.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(snapshot{Users: s.users})
}

// Replace swaps in a remote profile set. A session whose user disappeared
// is discarded.
func (s *Store) Replace(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	if snap.Users == nil {
		snap.Users = []model.UserProfile{}
	}

	s.mu.Lock()
	s.users = snap.Users
	dangling := s.current != nil && s.findByID(s.current.UserID) < 0
	if dangling {
		s.current = nil
	}
	s.mu.Unlock()

	if dangling {
		s.logger.Info("active profile removed remotely, logging out")
		if err := s.sessions.Clear(); err != nil {
			s.logger.Warn("failed to clear session record", "error", err)
		}
	}
	s.notify()
	return nil
}
