package ident

import "github.com/google/uuid"

// Generator produces opaque identifiers: connection IDs handed out by the
// transport and session IDs minted at admission. Mockable for testing.
type Generator interface {
	NewID() string
}

// UUIDGenerator implements Generator using random UUIDs
type UUIDGenerator struct{}

// New creates a new UUIDGenerator
func New() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewID returns a fresh UUID string
func (g *UUIDGenerator) NewID() string {
	return uuid.NewString()
}
