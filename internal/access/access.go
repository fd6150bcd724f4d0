// Package access decides whether a caller may perform a mutating operation.
//
// A Gate never touches registry state. Denials are *ir.Error values with
// code APP_AUTH_FAILED so callers can treat them like any other rejection.
package access

import (
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/registrar/internal/ir"
	"github.com/roach88/registrar/internal/validate"
)

// Gate checks a caller against a capability.
type Gate interface {
	Check(caller string, capability ir.Capability) error
}

// Denied builds the APP_AUTH_FAILED error for caller and capability.
func Denied(caller string, capability ir.Capability) *ir.Error {
	return &ir.Error{
		Code:    ir.CodeAuthFailed,
		Message: fmt.Sprintf("%q lacks %s", caller, capability),
		Details: map[string]string{
			"caller":     caller,
			"capability": string(capability),
		},
	}
}

// Principal returns the comparison key for a caller. Hex addresses compare
// case-insensitively through their checksummed form; anything else compares
// as the exact string.
func Principal(caller string) string {
	if validate.IsAddress(caller) {
		return validate.ToAddress(caller)
	}
	return caller
}

// RoleTable is a concurrency-safe capability to principal relation.
type RoleTable struct {
	mu    sync.RWMutex
	roles map[ir.Capability]map[string]struct{}
}

// NewRoleTable creates an empty table. Every check fails until a grant exists.
func NewRoleTable() *RoleTable {
	return &RoleTable{roles: make(map[ir.Capability]map[string]struct{})}
}

// Grant gives principal the capability. Granting twice is a no-op.
func (t *RoleTable) Grant(capability ir.Capability, principal string) error {
	if !ir.ValidCapabilities[capability] {
		return fmt.Errorf("unknown capability %q", capability)
	}
	if principal == "" {
		return fmt.Errorf("empty principal for %s", capability)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	members, ok := t.roles[capability]
	if !ok {
		members = make(map[string]struct{})
		t.roles[capability] = members
	}
	members[Principal(principal)] = struct{}{}
	return nil
}

// Revoke removes the capability from principal. Revoking a missing grant
// is a no-op.
func (t *RoleTable) Revoke(capability ir.Capability, principal string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.roles[capability], Principal(principal))
}

// Has reports whether principal holds the capability.
func (t *RoleTable) Has(capability ir.Capability, principal string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.roles[capability][Principal(principal)]
	return ok
}

// Members returns the sorted principals holding the capability.
func (t *RoleTable) Members(capability ir.Capability) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.roles[capability]))
	for p := range t.roles[capability] {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Check implements Gate.
func (t *RoleTable) Check(caller string, capability ir.Capability) error {
	if !ir.ValidCapabilities[capability] || caller == "" || !t.Has(capability, caller) {
		return Denied(caller, capability)
	}
	return nil
}

// OwnerGate grants every capability to a single owner.
type OwnerGate struct {
	mu    sync.RWMutex
	owner string
}

// NewOwnerGate creates a gate owned by owner.
func NewOwnerGate(owner string) *OwnerGate {
	return &OwnerGate{owner: Principal(owner)}
}

// Owner returns the current owner.
func (g *OwnerGate) Owner() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.owner
}

// TransferOwnership hands the gate to next. Only the current owner may call it.
func (g *OwnerGate) TransferOwnership(caller, next string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if caller == "" || Principal(caller) != g.owner {
		return Denied(caller, "OWNER")
	}
	if next == "" {
		return fmt.Errorf("new owner is empty")
	}
	g.owner = Principal(next)
	return nil
}

// Check implements Gate.
func (g *OwnerGate) Check(caller string, capability ir.Capability) error {
	if !ir.ValidCapabilities[capability] || caller == "" || Principal(caller) != g.Owner() {
		return Denied(caller, capability)
	}
	return nil
}

// AllowAll admits every caller. Use in tests and local tooling.
type AllowAll struct{}

// Check implements Gate.
func (AllowAll) Check(string, ir.Capability) error { return nil }

var (
	_ Gate = (*RoleTable)(nil)
	_ Gate = (*OwnerGate)(nil)
	_ Gate = AllowAll{}
)
