// Package recordstore holds the in-memory registry state.
//
// CompactingStore backs value lists (hard delete). LifecycleStore backs
// catalyst records (soft delete with start and end timestamps). Both keep
// their active entries in a dense sequence and remove by swap-and-truncate,
// so removal is O(1) and positions of other entries may change.
//
// Stores have no locks. The registry package serializes access and uses the
// Check* methods to validate a mutation before journaling it; Add and Remove
// repeat the check and then apply.
package recordstore
