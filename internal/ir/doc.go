// Package ir provides the shared record, journal and error types for registrar.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps ir the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Timestamps are unix seconds (int64), 0 means "not set"
//   - Journal ordering uses the per-registry logical clock (Seq), never wall time
//   - Catalyst ids are content-addressed (see hash.go) and never reused
//   - All JSON tags use snake_case
package ir
