package registry

import (
	"context"
	"fmt"

	"github.com/roach88/registrar/internal/access"
	"github.com/roach88/registrar/internal/ir"
	"github.com/roach88/registrar/internal/notify"
)

// core holds what List and Catalyst share: identity, gate, logical clock
// and the commit path. Callers hold the registry mutex around every method.
type core struct {
	name    string
	variant ir.Variant
	gate    access.Gate
	clock   *Clock
	opts    options
}

func newCore(name string, variant ir.Variant, gate access.Gate, opts []Option) (core, error) {
	if name == "" {
		return core{}, fmt.Errorf("registry name is empty")
	}
	if gate == nil {
		return core{}, fmt.Errorf("registry %s: nil gate", name)
	}
	o := buildOptions(opts)
	return core{
		name:    name,
		variant: variant,
		gate:    gate,
		clock:   NewClockAt(o.seqStart),
		opts:    o,
	}, nil
}

// Name returns the registry name.
func (c *core) Name() string { return c.name }

// Variant returns the registry flavor.
func (c *core) Variant() ir.Variant { return c.variant }

// Seq returns the seq of the last committed entry.
func (c *core) Seq() int64 { return c.clock.Current() }

// authorize runs the gate and the context check that precede every mutation.
func (c *core) authorize(ctx context.Context, caller string, capability ir.Capability) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.gate.Check(caller, capability)
}

// journal builds the next entry and appends it to the journal. The logical
// clock only advances once the append succeeds.
func (c *core) journal(ctx context.Context, op ir.Op, caller string, payload ir.Payload) (ir.Entry, error) {
	e := ir.Entry{
		Seq:      c.clock.Peek(),
		TxID:     c.opts.txids.Generate(),
		Registry: c.name,
		Op:       op,
		Caller:   caller,
		Payload:  payload,
		At:       c.opts.now(),
	}
	if c.opts.journal != nil {
		if err := c.opts.journal.AppendEntry(ctx, e); err != nil {
			return ir.Entry{}, fmt.Errorf("journal %s %s: %w", c.name, op, err)
		}
	}
	c.clock.Next()
	return e, nil
}

// committed reports an applied entry to logs, metrics and subscribers.
func (c *core) committed(e ir.Entry, size int) {
	c.opts.logger.Info("entry committed",
		"registry", c.name,
		"op", e.Op,
		"seq", e.Seq,
		"tx_id", e.TxID,
		"caller", e.Caller,
	)
	c.opts.metrics.observeCommit(c.name, e.Op, size)

	if c.opts.broker == nil {
		return
	}
	eventType := notify.AddedEvent
	if e.Op == ir.OpRemove || e.Op == ir.OpRemoveCatalyst {
		eventType = notify.RemovedEvent
	}
	missed := c.opts.broker.Publish(eventType, e)
	c.opts.metrics.observeDropped(c.name, missed)
}

// rejected reports a mutation that failed before commit and returns err.
func (c *core) rejected(op ir.Op, caller string, err error) error {
	c.opts.logger.Debug("operation rejected",
		"registry", c.name,
		"op", op,
		"caller", caller,
		"code", ir.CodeOf(err),
		"error", err,
	)
	c.opts.metrics.observeReject(c.name, op, err)
	return err
}
