package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsReproducible(t *testing.T) {
	a, seedA := New(42)
	b, seedB := New(42)

	assert.Equal(t, int64(42), seedA)
	assert.Equal(t, seedA, seedB)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestNewZeroSeedPicksOne(t *testing.T) {
	_, seed := New(0)
	assert.NotZero(t, seed)
}
