package mocks

import (
	"fmt"

	"github.com/lexc24/tictactoe/internal/dependencies/ident"
)

// MockIdent is a deterministic identifier generator for testing
type MockIdent struct {
	prefix string
	next   int
}

// Ensure MockIdent implements Generator
var _ ident.Generator = (*MockIdent)(nil)

// NewMockIdent creates a MockIdent producing "<prefix>-1", "<prefix>-2", ...
func NewMockIdent(prefix string) *MockIdent {
	return &MockIdent{prefix: prefix}
}

// NewID returns the next identifier in sequence
func (m *MockIdent) NewID() string {
	m.next++
	return fmt.Sprintf("%s-%d", m.prefix, m.next)
}
