package random

import (
	"github.com/google/uuid"
)

// Random generates identifiers and can be mocked for testing
type Random interface {
	// NewID returns a practically unique identifier with the given prefix
	NewID(prefix string) string
}

// UUIDRandom implements Random with version 4 UUIDs (122 bits of entropy)
type UUIDRandom struct{}

// New creates a new UUIDRandom
func New() *UUIDRandom {
	return &UUIDRandom{}
}

// NewID returns prefix followed by a random UUID
func (r *UUIDRandom) NewID(prefix string) string {
	return prefix + uuid.NewString()
}
