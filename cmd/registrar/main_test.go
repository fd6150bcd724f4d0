package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/registrar/internal/ir"
)

func TestVersionDefaultsToRelease(t *testing.T) {
	out := &bytes.Buffer{}
	root := newRoot()
	root.SetOut(out)
	root.SetArgs([]string{"--version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), ir.Version+" (commit: none")
}
