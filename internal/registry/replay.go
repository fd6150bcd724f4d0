package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/registrar/internal/access"
	"github.com/roach88/registrar/internal/ir"
	"github.com/roach88/registrar/internal/store"
)

// Source provides stored registry definitions and journals.
// *store.Store implements it.
type Source interface {
	ReadRegistry(ctx context.Context, name string) (store.Registry, error)
	ReadEntries(ctx context.Context, registry string) ([]ir.Entry, error)
}

// ErrReplay is wrapped by every replay failure caused by journal content.
var ErrReplay = errors.New("journal does not replay")

// Snapshot is a comparable view of a registry's state.
type Snapshot struct {
	Name    string      `json:"name"`
	Variant ir.Variant  `json:"variant"`
	Symbol  string      `json:"symbol,omitempty"`
	Kind    ir.ListKind `json:"kind,omitempty"`
	Seq     int64       `json:"seq"`
	Values  []string    `json:"values,omitempty"`
	Records []ir.Record `json:"records,omitempty"`
	History int         `json:"history,omitempty"`
}

// ReplayList rebuilds a list or string list from its stored definition and
// journal. opts apply to the rebuilt registry; its logical clock resumes
// after the last journaled seq.
func ReplayList(ctx context.Context, src Source, name string, gate access.Gate, opts ...Option) (*List, error) {
	def, err := src.ReadRegistry(ctx, name)
	if err != nil {
		return nil, err
	}

	var l *List
	switch def.Variant {
	case ir.VariantList:
		l, err = NewList(def.Name, def.Symbol, string(def.Kind), gate, opts...)
	case ir.VariantString:
		l, err = NewStringList(def.Name, gate, opts...)
	default:
		return nil, fmt.Errorf("replay %s: variant %q is not a list", name, def.Variant)
	}
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", name, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := replayEntries(ctx, src, &l.core, l.apply); err != nil {
		return nil, err
	}
	l.core.opts.metrics.observeSize(l.core.name, l.store.Size())
	return l, nil
}

// ReplayCatalyst rebuilds a catalyst registry from its stored definition
// and journal, verifying every regenerated id.
func ReplayCatalyst(ctx context.Context, src Source, name string, gate access.Gate, opts ...Option) (*Catalyst, error) {
	def, err := src.ReadRegistry(ctx, name)
	if err != nil {
		return nil, err
	}
	if def.Variant != ir.VariantCatalyst {
		return nil, fmt.Errorf("replay %s: variant %q is not a catalyst registry", name, def.Variant)
	}

	c, err := NewCatalyst(def.Name, gate, opts...)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := replayEntries(ctx, src, &c.core, c.apply); err != nil {
		return nil, err
	}
	c.core.opts.metrics.observeSize(c.core.name, c.store.Count())
	return c, nil
}

func replayEntries(ctx context.Context, src Source, c *core, apply func(ir.Entry) error) error {
	entries, err := src.ReadEntries(ctx, c.name)
	if err != nil {
		return fmt.Errorf("replay %s: %w", c.name, err)
	}

	for _, e := range entries {
		if e.Seq <= c.clock.Current() {
			return fmt.Errorf("replay %s: seq %d after %d: %w", c.name, e.Seq, c.clock.Current(), ErrReplay)
		}
		if err := apply(e); err != nil {
			return fmt.Errorf("replay %s seq %d: %w: %w", c.name, e.Seq, ErrReplay, err)
		}
		c.clock = NewClockAt(e.Seq)
	}

	c.opts.logger.Info("registry replayed",
		"registry", c.name,
		"entries", len(entries),
		"seq", c.clock.Current(),
	)
	return nil
}
