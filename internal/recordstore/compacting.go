package recordstore

import (
	"fmt"

	"github.com/roach88/registrar/internal/ir"
)

// CompactingStore is a dense sequence of unique values with hard delete.
//
// Invariants:
//   - every value appears at most once
//   - order has no holes: positions are exactly 0..Size()-1
//   - pos[order[i]] == i for every i, and pos has no other keys
type CompactingStore struct {
	order []string
	pos   map[string]int
}

// NewCompactingStore creates an empty store.
func NewCompactingStore() *CompactingStore {
	return &CompactingStore{pos: make(map[string]int)}
}

// CheckAdd reports whether v could be added without changing state.
func (s *CompactingStore) CheckAdd(v string) error {
	if _, ok := s.pos[v]; ok {
		return ir.NewErrorWithDetails(ir.CodeValuePartOfList, fmt.Sprintf("%q already in list", v), "value", v)
	}
	return nil
}

// CheckRemove reports whether v could be removed without changing state.
func (s *CompactingStore) CheckRemove(v string) error {
	if _, ok := s.pos[v]; !ok {
		return ir.NewErrorWithDetails(ir.CodeValueNotPartOfList, fmt.Sprintf("%q not in list", v), "value", v)
	}
	return nil
}

// Add appends v and returns its position.
func (s *CompactingStore) Add(v string) (int, error) {
	if err := s.CheckAdd(v); err != nil {
		return 0, err
	}
	s.order = append(s.order, v)
	s.pos[v] = len(s.order) - 1
	return s.pos[v], nil
}

// Remove erases v by moving the last value into its slot and truncating.
// It returns the position v occupied. Removing the last value is a self-swap.
func (s *CompactingStore) Remove(v string) (int, error) {
	if err := s.CheckRemove(v); err != nil {
		return 0, err
	}
	i := s.pos[v]
	last := s.order[len(s.order)-1]

	s.order[i] = last
	s.pos[last] = i
	s.order = s.order[:len(s.order)-1]
	delete(s.pos, v)
	return i, nil
}

// Get returns the value at position i.
func (s *CompactingStore) Get(i int) (string, error) {
	if i < 0 || i >= len(s.order) {
		return "", ir.IndexError(i, len(s.order))
	}
	return s.order[i], nil
}

// Size returns the number of values.
func (s *CompactingStore) Size() int {
	return len(s.order)
}

// Contains reports whether v is present.
func (s *CompactingStore) Contains(v string) bool {
	_, ok := s.pos[v]
	return ok
}

// IndexOf returns the position of v.
func (s *CompactingStore) IndexOf(v string) (int, bool) {
	i, ok := s.pos[v]
	return i, ok
}

// Values returns a copy of the sequence in position order.
func (s *CompactingStore) Values() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
