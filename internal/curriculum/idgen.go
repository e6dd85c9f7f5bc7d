package curriculum

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces temporary identifiers for entities that are not saved yet
type IDGenerator interface {
	// NewID returns an identifier unique within the generator's lifetime
	NewID() string
}

// UUIDGenerator generates random temporary identifiers
type UUIDGenerator struct{}

// NewID returns a "tmp-" prefixed random UUID
func (UUIDGenerator) NewID() string {
	return "tmp-" + uuid.NewString()
}

// SequenceGenerator generates deterministic temporary identifiers (prefix-1, prefix-2, ...)
type SequenceGenerator struct {
	Prefix string
	next   atomic.Int64
}

// NewSequenceGenerator creates a sequence generator with the given prefix
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{Prefix: prefix}
}

// NewID returns the next identifier of the sequence
func (g *SequenceGenerator) NewID() string {
	return fmt.Sprintf("%s-%d", g.Prefix, g.next.Add(1))
}
