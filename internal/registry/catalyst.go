package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/registrar/internal/access"
	"github.com/roach88/registrar/internal/ir"
	"github.com/roach88/registrar/internal/recordstore"
	"github.com/roach88/registrar/internal/validate"
)

// Catalyst is a registry of owner and domain pairs with soft delete.
// Removed records stay readable through ByID with their end time set.
type Catalyst struct {
	mu    sync.Mutex
	core  core
	store *recordstore.LifecycleStore
}

// NewCatalyst creates an empty catalyst registry.
func NewCatalyst(name string, gate access.Gate, opts ...Option) (*Catalyst, error) {
	c, err := newCore(name, ir.VariantCatalyst, gate, opts)
	if err != nil {
		return nil, err
	}
	return &Catalyst{core: c, store: recordstore.NewLifecycleStore()}, nil
}

// Name returns the registry name.
func (c *Catalyst) Name() string { return c.core.Name() }

// Variant returns ir.VariantCatalyst.
func (c *Catalyst) Variant() ir.Variant { return c.core.Variant() }

// Seq returns the seq of the last committed entry.
func (c *Catalyst) Seq() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.core.Seq()
}

// Add registers domain for owner and returns the new record.
func (c *Catalyst) Add(ctx context.Context, caller, owner, domain string) (ir.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.core.authorize(ctx, caller, ir.CapAdd); err != nil {
		return ir.Record{}, c.core.rejected(ir.OpAddCatalyst, caller, err)
	}
	owner, err := validate.NormalizeOwner(owner)
	if err != nil {
		return ir.Record{}, c.core.rejected(ir.OpAddCatalyst, caller, err)
	}
	domain, err = validate.NormalizeDomain(domain)
	if err != nil {
		return ir.Record{}, c.core.rejected(ir.OpAddCatalyst, caller, err)
	}
	if err := c.store.CheckAdd(owner, domain); err != nil {
		return ir.Record{}, c.core.rejected(ir.OpAddCatalyst, caller, err)
	}
	id, err := c.store.NextID(owner, domain)
	if err != nil {
		return ir.Record{}, c.core.rejected(ir.OpAddCatalyst, caller, err)
	}

	e, err := c.core.journal(ctx, ir.OpAddCatalyst, caller, ir.Payload{ID: id, Owner: owner, Domain: domain})
	if err != nil {
		return ir.Record{}, c.core.rejected(ir.OpAddCatalyst, caller, err)
	}
	rec, err := c.store.Add(owner, domain, e.At)
	if err != nil {
		return ir.Record{}, fmt.Errorf("apply %s seq %d: %w", c.core.name, e.Seq, err)
	}
	c.core.committed(e, c.store.Count())
	return rec, nil
}

// Remove ends the record with the given id.
func (c *Catalyst) Remove(ctx context.Context, caller, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.core.authorize(ctx, caller, ir.CapRemove); err != nil {
		return c.core.rejected(ir.OpRemoveCatalyst, caller, err)
	}
	id = normalizeID(id)
	if err := c.store.CheckRemove(id); err != nil {
		return c.core.rejected(ir.OpRemoveCatalyst, caller, err)
	}
	rec := c.store.ByID(id)

	e, err := c.core.journal(ctx, ir.OpRemoveCatalyst, caller, ir.Payload{ID: id, Owner: rec.Owner, Domain: rec.Domain})
	if err != nil {
		return c.core.rejected(ir.OpRemoveCatalyst, caller, err)
	}
	if _, err := c.store.Remove(id, e.At); err != nil {
		return fmt.Errorf("apply %s seq %d: %w", c.core.name, e.Seq, err)
	}
	c.core.committed(e, c.store.Count())
	return nil
}

// IDAt returns the id at position i of the active sequence.
func (c *Catalyst) IDAt(i int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.IDAt(i)
}

// ByID returns the record for id, active or ended. Unknown ids return the
// zero record; this lookup never fails.
func (c *Catalyst) ByID(id string) ir.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.ByID(normalizeID(id))
}

// IndexOf returns the active position of id.
func (c *Catalyst) IndexOf(id string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.IndexOf(normalizeID(id))
}

// Count returns the number of active records.
func (c *Catalyst) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Count()
}

// Active returns the active records in position order.
func (c *Catalyst) Active() []ir.Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := c.store.Active()
	out := make([]ir.Record, len(ids))
	for i, id := range ids {
		out[i] = c.store.ByID(id)
	}
	return out
}

// OwnerInUse returns the id of the active record owned by owner.
func (c *Catalyst) OwnerInUse(owner string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.OwnerInUse(validate.ToAddress(owner))
}

// DomainInUse returns the id of the active record serving domain.
func (c *Catalyst) DomainInUse(domain string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.DomainInUse(domain)
}

// Snapshot returns the current state for comparison.
func (c *Catalyst) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := c.store.Active()
	recs := make([]ir.Record, len(ids))
	for i, id := range ids {
		recs[i] = c.store.ByID(id)
	}
	return Snapshot{
		Name:    c.core.name,
		Variant: c.core.variant,
		Seq:     c.core.Seq(),
		Records: recs,
		History: c.store.History(),
	}
}

// apply re-executes a journaled entry without gate, journal or notification.
// Regenerated ids must match the journaled ones.
func (c *Catalyst) apply(e ir.Entry) error {
	switch e.Op {
	case ir.OpAddCatalyst:
		rec, err := c.store.Add(e.Payload.Owner, e.Payload.Domain, e.At)
		if err != nil {
			return err
		}
		if rec.ID != e.Payload.ID {
			return fmt.Errorf("regenerated id %s does not match journaled id %s", rec.ID, e.Payload.ID)
		}
		return nil
	case ir.OpRemoveCatalyst:
		_, err := c.store.Remove(e.Payload.ID, e.At)
		return err
	default:
		return fmt.Errorf("op %q does not apply to a catalyst registry", e.Op)
	}
}

// normalizeID lower-cases hex ids so lookups are case-insensitive.
func normalizeID(id string) string {
	return strings.ToLower(id)
}
