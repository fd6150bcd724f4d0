package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/registrar/internal/ir"
)

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// ReadRegistry returns the definition of a registry.
// Returns an error wrapping ErrNotFound if it does not exist.
func (s *Store) ReadRegistry(ctx context.Context, name string) (Registry, error) {
	def, err := scanRegistry(s.db.QueryRowContext(ctx, `
		SELECT name, variant, symbol, kind, owner, created_at
		FROM registries WHERE name = ?
	`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return Registry{}, fmt.Errorf("read registry %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return Registry{}, fmt.Errorf("read registry %s: %w", name, err)
	}
	return def, nil
}

// ListRegistries returns all definitions ordered by name.
// Returns an empty slice (not nil) when none exist.
func (s *Store) ListRegistries(ctx context.Context) ([]Registry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, variant, symbol, kind, owner, created_at
		FROM registries
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query registries: %w", err)
	}
	defer rows.Close()

	defs := []Registry{}
	for rows.Next() {
		def, err := scanRegistry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registry: %w", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registries: %w", err)
	}
	return defs, nil
}

// ReadEntries returns the journal of a registry in seq order.
// Returns an empty slice (not nil) when the journal is empty.
func (s *Store) ReadEntries(ctx context.Context, registry string) ([]ir.Entry, error) {
	return s.readEntries(ctx, registry, 0)
}

// ReadEntriesAfter returns the journal entries with seq > after.
func (s *Store) ReadEntriesAfter(ctx context.Context, registry string, after int64) ([]ir.Entry, error) {
	return s.readEntries(ctx, registry, after)
}

func (s *Store) readEntries(ctx context.Context, registry string, after int64) ([]ir.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT registry, seq, tx_id, op, caller, payload, at
		FROM journal
		WHERE registry = ? AND seq > ?
		ORDER BY seq ASC
	`, registry, after)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []ir.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

func scanRegistry(row rowScanner) (Registry, error) {
	var (
		def     Registry
		variant string
		kind    string
	)
	if err := row.Scan(&def.Name, &variant, &def.Symbol, &kind, &def.Owner, &def.CreatedAt); err != nil {
		return Registry{}, err
	}
	def.Variant = ir.Variant(variant)
	def.Kind = ir.ListKind(kind)
	return def, nil
}

func scanEntry(row rowScanner) (ir.Entry, error) {
	var (
		e       ir.Entry
		op      string
		payload string
	)
	if err := row.Scan(&e.Registry, &e.Seq, &e.TxID, &op, &e.Caller, &payload, &e.At); err != nil {
		return ir.Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	e.Op = ir.Op(op)

	p, err := unmarshalPayload(payload)
	if err != nil {
		return ir.Entry{}, fmt.Errorf("entry %s/%d: %w", e.Registry, e.Seq, err)
	}
	e.Payload = p
	return e, nil
}
