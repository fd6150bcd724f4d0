package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/registrar/internal/access"
	"github.com/roach88/registrar/internal/ir"
	"github.com/roach88/registrar/internal/recordstore"
	"github.com/roach88/registrar/internal/validate"
)

// List is a registry of unique normalized values with hard delete.
//
// Typed lists (NewList) accept one of the COORDINATES, ADDRESS or NAME kinds.
// String lists (NewStringList) accept any non-empty string.
type List struct {
	mu     sync.Mutex
	core   core
	symbol string
	kind   ir.ListKind
	store  *recordstore.CompactingStore
}

// NewList creates a typed list. kindTag must be COORDINATES, ADDRESS or NAME;
// anything else fails with ERROR_INVALID_TYPE.
func NewList(name, symbol, kindTag string, gate access.Gate, opts ...Option) (*List, error) {
	kind, err := ir.ParseListKind(kindTag)
	if err != nil {
		return nil, err
	}
	c, err := newCore(name, ir.VariantList, gate, opts)
	if err != nil {
		return nil, err
	}
	return &List{
		core:   c,
		symbol: symbol,
		kind:   kind,
		store:  recordstore.NewCompactingStore(),
	}, nil
}

// NewStringList creates an untyped list of strings.
func NewStringList(name string, gate access.Gate, opts ...Option) (*List, error) {
	c, err := newCore(name, ir.VariantString, gate, opts)
	if err != nil {
		return nil, err
	}
	return &List{
		core:  c,
		kind:  ir.KindString,
		store: recordstore.NewCompactingStore(),
	}, nil
}

// Name returns the display name.
func (l *List) Name() string { return l.core.Name() }

// Symbol returns the list symbol. String lists have none.
func (l *List) Symbol() string { return l.symbol }

// Kind returns the value kind.
func (l *List) Kind() ir.ListKind { return l.kind }

// Variant returns ir.VariantList or ir.VariantString.
func (l *List) Variant() ir.Variant { return l.core.Variant() }

// Seq returns the seq of the last committed entry.
func (l *List) Seq() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.core.Seq()
}

// Add normalizes raw and appends it. It returns the new value's position.
func (l *List) Add(ctx context.Context, caller, raw string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.core.authorize(ctx, caller, ir.CapAdd); err != nil {
		return 0, l.core.rejected(ir.OpAdd, caller, err)
	}
	v, err := validate.Normalize(raw, l.kind)
	if err != nil {
		return 0, l.core.rejected(ir.OpAdd, caller, err)
	}
	return l.add(ctx, caller, v)
}

// AddCoordinates validates x and y and adds "x,y" to a COORDINATES list.
func (l *List) AddCoordinates(ctx context.Context, caller, x, y string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.core.authorize(ctx, caller, ir.CapAdd); err != nil {
		return 0, l.core.rejected(ir.OpAdd, caller, err)
	}
	if l.kind != ir.KindCoordinates {
		err := ir.NewError(ir.CodeInvalidType, fmt.Sprintf("list %s holds %s values, not coordinates", l.core.name, l.kind))
		return 0, l.core.rejected(ir.OpAdd, caller, err)
	}
	v, err := validate.NormalizeCoordinates(x, y)
	if err != nil {
		return 0, l.core.rejected(ir.OpAdd, caller, err)
	}
	return l.add(ctx, caller, v)
}

func (l *List) add(ctx context.Context, caller, v string) (int, error) {
	if err := l.store.CheckAdd(v); err != nil {
		return 0, l.core.rejected(ir.OpAdd, caller, err)
	}
	e, err := l.core.journal(ctx, ir.OpAdd, caller, ir.Payload{Value: v})
	if err != nil {
		return 0, l.core.rejected(ir.OpAdd, caller, err)
	}
	pos, err := l.store.Add(v)
	if err != nil {
		return 0, fmt.Errorf("apply %s seq %d: %w", l.core.name, e.Seq, err)
	}
	l.core.committed(e, l.store.Size())
	return pos, nil
}

// Remove normalizes raw and erases it. A value that does not normalize can
// never be in the list and fails with ERROR_VALUE_NOT_PART_OF_THE_LIST.
func (l *List) Remove(ctx context.Context, caller, raw string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.core.authorize(ctx, caller, ir.CapRemove); err != nil {
		return l.core.rejected(ir.OpRemove, caller, err)
	}
	v, err := validate.Normalize(raw, l.kind)
	if err != nil {
		err = ir.NewErrorWithDetails(ir.CodeValueNotPartOfList, fmt.Sprintf("%q not in list", raw), "value", raw)
		return l.core.rejected(ir.OpRemove, caller, err)
	}
	if err := l.store.CheckRemove(v); err != nil {
		return l.core.rejected(ir.OpRemove, caller, err)
	}
	e, err := l.core.journal(ctx, ir.OpRemove, caller, ir.Payload{Value: v})
	if err != nil {
		return l.core.rejected(ir.OpRemove, caller, err)
	}
	if _, err := l.store.Remove(v); err != nil {
		return fmt.Errorf("apply %s seq %d: %w", l.core.name, e.Seq, err)
	}
	l.core.committed(e, l.store.Size())
	return nil
}

// Get returns the value at position i.
func (l *List) Get(i int) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Get(i)
}

// Size returns the number of values.
func (l *List) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Size()
}

// Values returns the values in position order.
func (l *List) Values() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Values()
}

// Contains reports whether raw, once normalized, is in the list.
func (l *List) Contains(raw string) bool {
	v, err := validate.Normalize(raw, l.kind)
	if err != nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Contains(v)
}

// ToAddress returns the checksummed form of raw or the zero address.
func (l *List) ToAddress(raw string) string {
	return validate.ToAddress(raw)
}

// Snapshot returns the current state for comparison.
func (l *List) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{
		Name:    l.core.name,
		Variant: l.core.variant,
		Symbol:  l.symbol,
		Kind:    l.kind,
		Seq:     l.core.Seq(),
		Values:  l.store.Values(),
	}
}

// apply re-executes a journaled entry without gate, journal or notification.
func (l *List) apply(e ir.Entry) error {
	switch e.Op {
	case ir.OpAdd:
		_, err := l.store.Add(e.Payload.Value)
		return err
	case ir.OpRemove:
		_, err := l.store.Remove(e.Payload.Value)
		return err
	default:
		return fmt.Errorf("op %q does not apply to a list", e.Op)
	}
}
