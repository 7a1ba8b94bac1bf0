package sync

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator_ValidFormat(t *testing.T) {
	gen := UUIDv7Generator{}
	id := gen.Generate()

	parsed, err := uuid.Parse(id)
	require.NoError(t, err, "id should be a valid UUID")
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestUUIDv7Generator_Uniqueness(t *testing.T) {
	gen := UUIDv7Generator{}
	const iterations = 1000

	seen := make(map[string]bool, iterations)
	for i := 0; i < iterations; i++ {
		id := gen.Generate()
		require.False(t, seen[id], "id %s generated twice", id)
		seen[id] = true
	}
}

func TestFixedGenerator_Sequential(t *testing.T) {
	gen := NewFixedGenerator("id-1", "id-2", "id-3")

	assert.Equal(t, "id-1", gen.Generate())
	assert.Equal(t, "id-2", gen.Generate())
	assert.Equal(t, "id-3", gen.Generate())
}

func TestFixedGenerator_PanicsWhenExhausted(t *testing.T) {
	gen := NewFixedGenerator("id-1")
	gen.Generate()

	assert.Panics(t, func() { gen.Generate() })
}
