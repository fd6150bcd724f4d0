package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialTxIDs(t *testing.T) {
	gen := NewSequentialTxIDs("scenario")

	assert.Equal(t, "scenario-0001", gen.Generate())
	assert.Equal(t, "scenario-0002", gen.Generate())
}

func TestSequentialTxIDs_DefaultPrefix(t *testing.T) {
	gen := NewSequentialTxIDs("")
	assert.Equal(t, "tx-0001", gen.Generate())
}
