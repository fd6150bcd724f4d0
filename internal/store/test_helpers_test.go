package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/registrar/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRegistry stores a coordinates list definition named name.
func createTestRegistry(t *testing.T, s *Store, name string) Registry {
	t.Helper()
	def := Registry{
		Name:      name,
		Variant:   ir.VariantList,
		Symbol:    "TST",
		Kind:      ir.KindCoordinates,
		CreatedAt: 1700000000,
	}
	if err := s.CreateRegistry(context.Background(), def); err != nil {
		t.Fatalf("CreateRegistry() failed: %v", err)
	}
	return def
}

// createTestEntry creates an add entry with minimal required fields.
func createTestEntry(registry string, seq int64, value string) ir.Entry {
	return ir.Entry{
		Seq:      seq,
		TxID:     "tx-" + registry + "-" + value,
		Registry: registry,
		Op:       ir.OpAdd,
		Caller:   "alice",
		Payload:  ir.Payload{Value: value},
		At:       1700000000 + seq,
	}
}
