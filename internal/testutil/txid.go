package testutil

import (
	"fmt"
	"sync"
)

// SequentialTxIDs generates predictable, unique transaction ids.
//
// The same scenario with a fresh SequentialTxIDs produces byte-identical
// journals, which keeps golden traces stable.
//
// Thread-safety: SequentialTxIDs is safe for concurrent use.
type SequentialTxIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialTxIDs creates a generator producing "<prefix>-0001",
// "<prefix>-0002", and so on. An empty prefix becomes "tx".
func NewSequentialTxIDs(prefix string) *SequentialTxIDs {
	if prefix == "" {
		prefix = "tx"
	}
	return &SequentialTxIDs{prefix: prefix}
}

// Generate returns the next id. Implements registry.TxIDGenerator.
func (g *SequentialTxIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
