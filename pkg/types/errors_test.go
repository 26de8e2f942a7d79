package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKindSentinel(t *testing.T) {
	err := CapacityErrorf("sample", "need %d, have %d", 5, 4)

	assert.ErrorIs(t, err, ErrCapacity)
	assert.NotErrorIs(t, err, ErrConfig)
	assert.NotErrorIs(t, err, ErrState)
	assert.True(t, IsKind(err, KindCapacity))
	assert.False(t, IsKind(err, KindState))
}

func TestErrorIsSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("generate: %w", StateErrorf("load", "manifest missing"))

	assert.ErrorIs(t, err, ErrState)
	assert.True(t, IsKind(err, KindState))
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Op: "build", Kind: KindConfig, Path: "rarity table.csv", Err: errors.New("missing None row")}
	assert.Equal(t, `build: config error (path=rarity table.csv): missing None row`, err.Error())

	var nilErr *Error
	assert.Equal(t, "<nil>", nilErr.Error())
	assert.Nil(t, nilErr.Unwrap())
}
