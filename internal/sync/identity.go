package sync

import (
	"sync"

	"github.com/google/uuid"
)

// IdentityGenerator produces storage identities for records that are being
// persisted for the first time.
type IdentityGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered storage identities, so listing by
// storage id roughly follows creation order.
//
// Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined storage identities for testing.
//
// Tests can provide a known sequence of ids and assert exact persisted
// output.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics when all ids have been consumed. Fail-fast to catch a test that
// persists more records than it expected to.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
