package recordstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/roach88/registrar/internal/ir"
)

func TestCompactingStore_Empty(t *testing.T) {
	s := NewCompactingStore()

	assert.Equal(t, 0, s.Size())
	_, err := s.Get(0)
	assert.True(t, errors.Is(err, ir.ErrInvalidIndex))
	assert.Equal(t, ir.KindIndexOutOfRange, ir.KindOf(err))
	assert.Empty(t, s.Values())
}

func TestCompactingStore_SwapOnRemove(t *testing.T) {
	s := NewCompactingStore()
	for _, v := range []string{"Value1", "Value2", "Value3"} {
		_, err := s.Add(v)
		require.NoError(t, err)
	}
	require.Equal(t, 3, s.Size())

	pos, err := s.Remove("Value2")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	assert.Equal(t, 2, s.Size())
	v0, err := s.Get(0)
	require.NoError(t, err)
	v1, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Value1", v0)
	assert.Equal(t, "Value3", v1)

	i, ok := s.IndexOf("Value3")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
}

func TestCompactingStore_RemoveLastIsSelfSwap(t *testing.T) {
	s := NewCompactingStore()
	_, _ = s.Add("a")
	_, _ = s.Add("b")

	pos, err := s.Remove("b")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	assert.Equal(t, []string{"a"}, s.Values())

	_, err = s.Remove("a")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Size())
	assert.False(t, s.Contains("a"))
}

func TestCompactingStore_Uniqueness(t *testing.T) {
	s := NewCompactingStore()
	_, err := s.Add("Value1")
	require.NoError(t, err)

	_, err = s.Add("Value1")
	assert.True(t, errors.Is(err, ir.ErrValuePartOfList))
	assert.Equal(t, 1, s.Size(), "failed add leaves state unchanged")

	_, err = s.Remove("Value2")
	assert.True(t, errors.Is(err, ir.ErrValueNotPartOfList))
	assert.Equal(t, 1, s.Size())
}

func TestCompactingStore_ReAddAfterRemove(t *testing.T) {
	s := NewCompactingStore()
	_, _ = s.Add("Value1")
	_, _ = s.Add("Value2")
	_, err := s.Remove("Value1")
	require.NoError(t, err)

	pos, err := s.Add("Value1")
	require.NoError(t, err)
	assert.Equal(t, 1, pos, "re-added value goes to the end")
	assert.Equal(t, []string{"Value2", "Value1"}, s.Values())
}

func TestCompactingStore_IndexBounds(t *testing.T) {
	s := NewCompactingStore()
	_, _ = s.Add("x")

	for _, i := range []int{-1, 1, 100} {
		_, err := s.Get(i)
		assert.True(t, errors.Is(err, ir.ErrInvalidIndex), "index %d", i)
	}
}

func TestCompactingStore_ValuesIsCopy(t *testing.T) {
	s := NewCompactingStore()
	_, _ = s.Add("x")
	vals := s.Values()
	vals[0] = "mutated"

	v, err := s.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}

// TestCompactingStore_Model checks the dense sequence and position map
// against a set model over random add/remove sequences.
func TestCompactingStore_Model(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		s := NewCompactingStore()
		model := make(map[string]bool)

		steps := rapid.IntRange(1, 60).Draw(r, "steps")
		for i := 0; i < steps; i++ {
			v := fmt.Sprintf("v%d", rapid.IntRange(0, 12).Draw(r, "value"))
			if rapid.Bool().Draw(r, "add") {
				_, err := s.Add(v)
				if model[v] {
					require.True(r, errors.Is(err, ir.ErrValuePartOfList))
				} else {
					require.NoError(r, err)
					model[v] = true
				}
			} else {
				_, err := s.Remove(v)
				if model[v] {
					require.NoError(r, err)
					delete(model, v)
				} else {
					require.True(r, errors.Is(err, ir.ErrValueNotPartOfList))
				}
			}

			require.Equal(r, len(model), s.Size())
			seen := make(map[string]bool)
			for p := 0; p < s.Size(); p++ {
				got, err := s.Get(p)
				require.NoError(r, err)
				require.True(r, model[got], "unexpected value %q", got)
				require.False(r, seen[got], "duplicate value %q", got)
				seen[got] = true

				idx, ok := s.IndexOf(got)
				require.True(r, ok)
				require.Equal(r, p, idx)
			}
		}
	})
}
