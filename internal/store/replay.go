package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/registrar/internal/ir"
)

// GetLastSeq returns the highest seq journaled for a registry, or 0.
// Used to resume the logical clock after a restart.
func (s *Store) GetLastSeq(ctx context.Context, registry string) (int64, error) {
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(seq) FROM journal WHERE registry = ?`, registry,
	).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	if !last.Valid {
		return 0, nil
	}
	return last.Int64, nil
}

// CountEntries returns the number of journal entries per op for a registry.
func (s *Store) CountEntries(ctx context.Context, registry string) (map[ir.Op]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT op, COUNT(*) FROM journal
		WHERE registry = ?
		GROUP BY op
		ORDER BY op
	`, registry)
	if err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[ir.Op]int)
	for rows.Next() {
		var (
			op string
			n  int
		)
		if err := rows.Scan(&op, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[ir.Op(op)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}
