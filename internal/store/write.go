package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/registrar/internal/ir"
)

// Registry is a stored registry definition.
type Registry struct {
	Name      string      `json:"name"`
	Variant   ir.Variant  `json:"variant"`
	Symbol    string      `json:"symbol,omitempty"`
	Kind      ir.ListKind `json:"kind,omitempty"`
	Owner     string      `json:"owner,omitempty"`
	CreatedAt int64       `json:"created_at"`
}

// sameDefinition compares everything but CreatedAt.
func (r Registry) sameDefinition(o Registry) bool {
	return r.Name == o.Name && r.Variant == o.Variant && r.Symbol == o.Symbol &&
		r.Kind == o.Kind && r.Owner == o.Owner
}

// CreateRegistry stores a registry definition.
// Re-creating an identical definition is a no-op; a different definition
// under the same name returns ErrConflict.
func (s *Store) CreateRegistry(ctx context.Context, def Registry) error {
	if def.Name == "" {
		return fmt.Errorf("create registry: empty name")
	}
	if !ir.ValidVariants[def.Variant] {
		return fmt.Errorf("create registry %s: unknown variant %q", def.Name, def.Variant)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create registry: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	existing, err := scanRegistry(tx.QueryRowContext(ctx, `
		SELECT name, variant, symbol, kind, owner, created_at
		FROM registries WHERE name = ?
	`, def.Name))
	switch {
	case err == nil:
		if !existing.sameDefinition(def) {
			return fmt.Errorf("create registry %s: %w", def.Name, ErrConflict)
		}
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("create registry: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO registries (name, variant, symbol, kind, owner, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		def.Name,
		string(def.Variant),
		def.Symbol,
		string(def.Kind),
		def.Owner,
		def.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create registry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create registry: commit: %w", err)
	}
	return nil
}

// AppendEntry writes a committed mutation to the journal.
// The entry's seq must be greater than the registry's last seq, and the
// registry definition must exist.
func (s *Store) AppendEntry(ctx context.Context, e ir.Entry) error {
	payload, err := marshalPayload(e.Payload)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append entry: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(seq) FROM journal WHERE registry = ?`, e.Registry,
	).Scan(&last); err != nil {
		return fmt.Errorf("append entry: read last seq: %w", err)
	}
	if last.Valid && e.Seq <= last.Int64 {
		return fmt.Errorf("append entry %s seq %d after %d: %w", e.Registry, e.Seq, last.Int64, ErrSeqOrder)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO journal (registry, seq, tx_id, op, caller, payload, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		e.Registry,
		e.Seq,
		e.TxID,
		string(e.Op),
		e.Caller,
		payload,
		e.At,
	)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append entry: commit: %w", err)
	}
	return nil
}
