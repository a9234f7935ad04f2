package mocks

import (
	"fmt"
	"sync"

	"github.com/LBIT2016/trading-gamers/internal/dependencies/random"
)

// MockRandom returns queued IDs, falling back to a deterministic counter
type MockRandom struct {
	mu      sync.Mutex
	ids     []string
	idIndex int
	counter int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// NewID returns the next queued ID, or prefix plus a sequence number
func (r *MockRandom) NewID(prefix string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.idIndex < len(r.ids) {
		id := r.ids[r.idIndex]
		r.idIndex++
		return id
	}
	r.counter++
	return fmt.Sprintf("%s%d", prefix, r.counter)
}

// QueueID adds values to the ID queue
func (r *MockRandom) QueueID(ids ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, ids...)
}

// Reset clears queued IDs and the counter
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = nil
	r.idIndex = 0
	r.counter = 0
}
