package factory

import (
	"time"

	"github.com/LBIT2016/trading-gamers/internal/dependencies/mocks"
	"github.com/LBIT2016/trading-gamers/internal/services/identity"
	"github.com/LBIT2016/trading-gamers/internal/services/images"
	"github.com/LBIT2016/trading-gamers/internal/session"
	"github.com/LBIT2016/trading-gamers/internal/storage"
	"github.com/LBIT2016/trading-gamers/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Local      *session.MemoryStorage
}

// NewTestApp creates an App on a private in-memory document store with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithStorage(memory.New())
}

// NewTestAppWithStorage creates a test App on a shared document store, so
// several apps can act as separate clients of one backend
func NewTestAppWithStorage(store storage.DocumentStore) *TestApp {
	mockClock := mocks.NewSteppingClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), time.Second)
	mockRandom := mocks.NewMockRandom()
	local := session.NewMemoryStorage()

	cfg := Config{
		SyncTimeout:    time.Second,
		IdentityConfig: identity.DefaultConfig(),
	}
	app := newWithDependencies(cfg, store, local, images.NewPlaceholder(), mockClock, mockRandom)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Local:      local,
	}
}
