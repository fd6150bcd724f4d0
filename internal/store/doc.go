// Package store provides SQLite-backed durable storage for registrar.
//
// The store keeps two tables:
//   - registries: one definition row per registry (variant, symbol, kind, owner)
//   - journal: append-only log of committed mutations, one row per ir.Entry
//
// # Ordering
//
// Journal rows are keyed by (registry, seq). seq is the registry's logical
// clock and must strictly increase; AppendEntry rejects anything else. All
// reads ORDER BY seq ASC so replays see entries in commit order regardless
// of wall time.
//
// # Payloads
//
// Payloads are stored as canonical JSON (ir.MarshalCanonical) so identical
// mutations produce byte-identical rows across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: journal rows require a registry definition
package store
