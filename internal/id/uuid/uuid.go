// Package uuid provides request ID generation.
package uuid

import (
	"github.com/google/uuid"
)

// Generator creates time-ordered request IDs.
type Generator struct{}

// NewUUIDGenerator creates a new Generator.
func NewUUIDGenerator() *Generator {
	return &Generator{}
}

// NewID returns a UUIDv7 string, falling back to a random UUIDv4 if the v7 clock source fails.
func (Generator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
