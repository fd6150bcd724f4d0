// Package harness provides conformance testing for registrar registries.
//
// The harness declares a registry, drives it through a scenario of steps
// and validates the final state. Every step runs against a real registry
// journaled to an in-memory store, so rejected operations are checked
// for their error code and committed ones for their journal entry.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	registry:
//	  name: parcels
//	  variant: list
//	  kind: COORDINATES
//	  roles:
//	    ADD: ["0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"]
//	steps:
//	  - op: add
//	    caller: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
//	    args: ["1,2"]
//	  - op: get
//	    args: ["5"]
//	    expect:
//	      error: ERROR_INVALID_INDEX
//	assertions:
//	  - type: size
//	    count: 1
//
// A step without an expect clause must succeed. Results saved with save_as
// are referenced as "$name" in later args and in assertions.
//
// # Assertion Types
//
//   - size: active record count
//   - values: active values (catalyst ids) in position order
//   - contains: membership, or absence with absent: true
//   - index: value at a position, or the error reading it
//   - record: catalyst record fields by id, ended records included
//   - entry_count: journal entries, optionally for one op
//
// # Deterministic Testing
//
// The harness uses:
//   - Deterministic wall clock (testutil.DeterministicClock)
//   - Sequential tx ids (testutil.SequentialTxIDs)
//   - In-memory SQLite database (isolated per run)
//
// After the last step the journal is replayed into a fresh registry and
// its snapshot must equal the live one. Traces are byte-stable and are
// compared against golden files with RunWithGolden.
package harness
