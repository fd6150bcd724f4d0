package recordstore

import (
	"fmt"

	"github.com/roach88/registrar/internal/ir"
)

// LifecycleStore keeps catalyst records with soft delete.
//
// records holds every record ever created, ended ones included. The active
// sequence is compacted exactly like CompactingStore. owners and domains
// index active records only, so an ended record frees both for reuse.
type LifecycleStore struct {
	records map[string]ir.Record
	active  []string
	pos     map[string]int
	owners  map[string]string
	domains map[string]string
	nonce   int64
}

// NewLifecycleStore creates an empty store.
func NewLifecycleStore() *LifecycleStore {
	return &LifecycleStore{
		records: make(map[string]ir.Record),
		pos:     make(map[string]int),
		owners:  make(map[string]string),
		domains: make(map[string]string),
	}
}

// CheckAdd validates owner and domain against the active records.
// Checks run in order: empty owner, empty domain, owner in use, domain in use.
func (s *LifecycleStore) CheckAdd(owner, domain string) error {
	if owner == "" || owner == ir.ZeroAddress {
		return ir.NewError(ir.CodeOwnerEmpty, "owner is empty")
	}
	if domain == "" {
		return ir.NewError(ir.CodeDomainEmpty, "domain is empty")
	}
	if id, ok := s.owners[owner]; ok {
		return ir.NewErrorWithDetails(ir.CodeOwnerInUse, fmt.Sprintf("owner %s already registers %s", owner, id), "id", id)
	}
	if id, ok := s.domains[domain]; ok {
		return ir.NewErrorWithDetails(ir.CodeDomainInUse, fmt.Sprintf("domain %q already registered by %s", domain, id), "id", id)
	}
	return nil
}

// NextID returns the id the next Add of owner and domain will assign.
func (s *LifecycleStore) NextID(owner, domain string) (string, error) {
	return ir.CatalystID(owner, domain, s.nonce+1)
}

// Nonce returns the number of records ever added.
func (s *LifecycleStore) Nonce() int64 {
	return s.nonce
}

// Add creates an active record started at now.
func (s *LifecycleStore) Add(owner, domain string, now int64) (ir.Record, error) {
	if err := s.CheckAdd(owner, domain); err != nil {
		return ir.Record{}, err
	}
	id, err := s.NextID(owner, domain)
	if err != nil {
		return ir.Record{}, err
	}

	rec := ir.Record{ID: id, Owner: owner, Domain: domain, StartedAt: now}
	s.nonce++
	s.records[id] = rec
	s.active = append(s.active, id)
	s.pos[id] = len(s.active) - 1
	s.owners[owner] = id
	s.domains[domain] = id
	return rec, nil
}

// CheckRemove reports whether id could be removed without changing state.
// The zero id reads as an ended record and fails as already removed.
func (s *LifecycleStore) CheckRemove(id string) error {
	rec, ok := s.records[id]
	if !ok {
		if id == ir.ZeroID {
			return ir.NewErrorWithDetails(ir.CodeCatalystAlreadyRemoved, "zero id", "id", id)
		}
		return ir.NewErrorWithDetails(ir.CodeCatalystNotFound, fmt.Sprintf("catalyst %s not found", id), "id", id)
	}
	if rec.EndedAt != 0 {
		return ir.NewErrorWithDetails(ir.CodeCatalystAlreadyRemoved, fmt.Sprintf("catalyst %s already removed", id), "id", id)
	}
	return nil
}

// Remove ends the record at now, frees its owner and domain, and compacts
// the active sequence. The record itself is kept.
func (s *LifecycleStore) Remove(id string, now int64) (ir.Record, error) {
	if err := s.CheckRemove(id); err != nil {
		return ir.Record{}, err
	}
	rec := s.records[id]
	rec.EndedAt = now
	s.records[id] = rec

	delete(s.owners, rec.Owner)
	delete(s.domains, rec.Domain)

	i := s.pos[id]
	last := s.active[len(s.active)-1]
	s.active[i] = last
	s.pos[last] = i
	s.active = s.active[:len(s.active)-1]
	delete(s.pos, id)
	return rec, nil
}

// ByID returns the record for id, active or ended, or the zero record.
func (s *LifecycleStore) ByID(id string) ir.Record {
	return s.records[id]
}

// IDAt returns the id at position i of the active sequence.
func (s *LifecycleStore) IDAt(i int) (string, error) {
	if i < 0 || i >= len(s.active) {
		return "", ir.IndexError(i, len(s.active))
	}
	return s.active[i], nil
}

// IndexOf returns the active position of id.
func (s *LifecycleStore) IndexOf(id string) (int, bool) {
	i, ok := s.pos[id]
	return i, ok
}

// Count returns the number of active records.
func (s *LifecycleStore) Count() int {
	return len(s.active)
}

// OwnerInUse returns the id of the active record owned by owner.
func (s *LifecycleStore) OwnerInUse(owner string) (string, bool) {
	id, ok := s.owners[owner]
	return id, ok
}

// DomainInUse returns the id of the active record serving domain.
func (s *LifecycleStore) DomainInUse(domain string) (string, bool) {
	id, ok := s.domains[domain]
	return id, ok
}

// Active returns a copy of the active ids in position order.
func (s *LifecycleStore) Active() []string {
	out := make([]string, len(s.active))
	copy(out, s.active)
	return out
}

// History returns the number of records ever created, ended ones included.
func (s *LifecycleStore) History() int {
	return len(s.records)
}
