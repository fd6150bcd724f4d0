package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/registrar/internal/ir"
)

// AssertionContext carries what assertions evaluate against.
type AssertionContext struct {
	Harness *Harness
	Ctx     context.Context
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions runs all assertions and returns failure messages.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(a Assertion, actx *AssertionContext) error {
	h := actx.Harness
	switch a.Type {
	case AssertSize:
		return assertSize(h, a)
	case AssertValues:
		return assertValues(h, a)
	case AssertContains:
		return assertContains(h, a)
	case AssertIndex:
		return assertIndex(h, a)
	case AssertRecord:
		return assertRecord(h, a)
	case AssertEntryCount:
		return assertEntryCount(actx.Ctx, h, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertSize checks the active record count.
func assertSize(h *Harness, a Assertion) error {
	var size int
	if h.cat != nil {
		size = h.cat.Count()
	} else {
		size = h.list.Size()
	}
	if size != a.Count {
		return &AssertionError{
			Type:     AssertSize,
			Expected: fmt.Sprintf("size %d", a.Count),
			Actual:   fmt.Sprintf("size %d", size),
		}
	}
	return nil
}

// assertValues checks the active values in position order. For catalyst
// registries the values are the active ids.
func assertValues(h *Harness, a Assertion) error {
	var got []string
	if h.cat != nil {
		for _, rec := range h.cat.Active() {
			got = append(got, rec.ID)
		}
	} else {
		got = h.list.Values()
	}

	want := make([]string, len(a.Values))
	for i, v := range a.Values {
		want[i] = h.resolve(v)
	}
	if len(got) == 0 && len(want) == 0 {
		return nil
	}
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     AssertValues,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

// assertContains checks membership, or absence when Absent is set.
func assertContains(h *Harness, a Assertion) error {
	v := h.resolve(a.Value)
	var present bool
	if h.cat != nil {
		_, present = h.cat.IndexOf(v)
	} else {
		present = h.list.Contains(v)
	}
	if present == a.Absent {
		expected := "present"
		if a.Absent {
			expected = "absent"
		}
		return &AssertionError{
			Type:     AssertContains,
			Expected: fmt.Sprintf("%q %s", v, expected),
			Actual:   fmt.Sprintf("present=%t", present),
		}
	}
	return nil
}

// assertIndex checks the value at a position, or the error reading it.
func assertIndex(h *Harness, a Assertion) error {
	var (
		got string
		err error
	)
	if h.cat != nil {
		got, err = h.cat.IDAt(a.Index)
	} else {
		got, err = h.list.Get(a.Index)
	}

	if a.Error != "" {
		if code := ir.CodeOf(err); string(code) != a.Error {
			return &AssertionError{
				Type:     AssertIndex,
				Expected: fmt.Sprintf("get(%d) fails with %s", a.Index, a.Error),
				Actual:   fmt.Sprintf("value %q, error %v", got, err),
			}
		}
		return nil
	}

	want := h.resolve(a.Value)
	if err != nil || got != want {
		return &AssertionError{
			Type:     AssertIndex,
			Expected: fmt.Sprintf("get(%d) = %q", a.Index, want),
			Actual:   fmt.Sprintf("value %q, error %v", got, err),
		}
	}
	return nil
}

// assertRecord checks a catalyst record by id, ended records included.
func assertRecord(h *Harness, a Assertion) error {
	id := h.resolve(a.ID)
	rec := h.cat.ByID(id)
	if rec.IsZero() {
		return &AssertionError{
			Type:     AssertRecord,
			Expected: fmt.Sprintf("record %s", id),
			Actual:   "record not found",
		}
	}

	var mismatches []string
	if a.Owner != "" && rec.Owner != a.Owner {
		mismatches = append(mismatches, fmt.Sprintf("owner %s != %s", rec.Owner, a.Owner))
	}
	if a.Domain != "" && rec.Domain != a.Domain {
		mismatches = append(mismatches, fmt.Sprintf("domain %q != %q", rec.Domain, a.Domain))
	}
	if a.Active != nil && rec.Active() != *a.Active {
		mismatches = append(mismatches, fmt.Sprintf("active %t != %t", rec.Active(), *a.Active))
	}
	if len(mismatches) > 0 {
		return &AssertionError{
			Type:     AssertRecord,
			Expected: fmt.Sprintf("record %s matches", id),
			Actual:   strings.Join(mismatches, "; "),
		}
	}
	return nil
}

// assertEntryCount checks the number of journaled entries, optionally for
// a single op.
func assertEntryCount(ctx context.Context, h *Harness, a Assertion) error {
	counts, err := h.store.CountEntries(ctx, h.def.Name)
	if err != nil {
		return fmt.Errorf("count entries: %w", err)
	}

	var got int
	if a.Op != "" {
		got = counts[ir.Op(a.Op)]
	} else {
		for _, n := range counts {
			got += n
		}
	}

	if got != a.Count {
		what := "entries"
		if a.Op != "" {
			what = a.Op + " entries"
		}
		return &AssertionError{
			Type:     AssertEntryCount,
			Expected: fmt.Sprintf("%d %s", a.Count, what),
			Actual:   fmt.Sprintf("%d %s", got, what),
		}
	}
	return nil
}

// resolve substitutes a "$name" reference with its saved result.
func (h *Harness) resolve(v string) string {
	if ref, ok := strings.CutPrefix(v, "$"); ok {
		if saved, ok := h.saved[ref]; ok {
			return saved
		}
	}
	return v
}
