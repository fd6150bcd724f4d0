// Package registry is the façade over the record stores.
//
// A List or Catalyst runs every mutation through the same pipeline while
// holding its mutex:
//
//	gate -> normalize -> store check -> journal append -> store apply -> publish
//
// Anything that fails before the apply step leaves state unchanged and
// publishes nothing. Reads take the same mutex and see the last committed
// state.
//
// Registries can be rebuilt from a journal with ReplayList and
// ReplayCatalyst; replay re-applies entries with their recorded timestamps
// and checks regenerated catalyst ids against the journal.
package registry
