// Package session owns the durable record of who is logged in on this
// machine. It is the only code that reads or writes that record.
package session

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/LBIT2016/trading-gamers/internal/dependencies/clock"
	"github.com/LBIT2016/trading-gamers/internal/model"
)

// Key is the local storage key of the session record
const Key = "user-session"

// Record is the persisted session
type Record struct {
	UserID model.UserID `json:"userId"`
	// Timestamp is unix milliseconds at login
	Timestamp int64 `json:"timestamp"`
}

// StartedAt returns the login time
func (r Record) StartedAt() time.Time {
	return time.UnixMilli(r.Timestamp).UTC()
}

// Session converts the record to the model type
func (r Record) Session() model.Session {
	return model.Session{UserID: r.UserID, StartedAt: r.StartedAt()}
}

// Manager reads and writes the session record
type Manager struct {
	storage LocalStorage
	clock   clock.Clock
	logger  *slog.Logger
}

func NewManager(storage LocalStorage, clk clock.Clock, logger *slog.Logger) *Manager {
	return &Manager{
		storage: storage,
		clock:   clk,
		logger:  logger,
	}
}

// Read returns the stored record. A missing, unreadable or malformed
// record is reported as no session.
func (m *Manager) Read() (*Record, bool) {
	raw, ok, err := m.storage.GetItem(Key)
	if err != nil {
		m.logger.Warn("failed to read session record", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		m.logger.Warn("discarding malformed session record", "error", err)
		return nil, false
	}
	if rec.UserID == "" {
		m.logger.Warn("discarding session record without user id")
		return nil, false
	}
	return &rec, true
}

// Write records userID as logged in now
func (m *Manager) Write(userID model.UserID) (*Record, error) {
	rec := Record{
		UserID:    userID,
		Timestamp: m.clock.Now().UnixMilli(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	if err := m.storage.SetItem(Key, string(data)); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Clear removes the record
func (m *Manager) Clear() error {
	return m.storage.RemoveItem(Key)
}
