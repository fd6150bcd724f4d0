package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/roach88/registrar/internal/access"
	"github.com/roach88/registrar/internal/ir"
	"github.com/roach88/registrar/internal/manifest"
	"github.com/roach88/registrar/internal/registry"
	"github.com/roach88/registrar/internal/store"
	"github.com/roach88/registrar/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios against a real registry journaled to an in-memory store,
// with a deterministic clock and sequential tx ids.
type Harness struct {
	store  *store.Store
	def    manifest.Registry
	gate   access.Gate
	list   *registry.List
	cat    *registry.Catalyst
	clock  *testutil.DeterministicClock
	saved  map[string]string
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and register the registry definition
// 2. Execute steps, checking each outcome against its expect clause
// 3. Replay the journal into a second registry and compare snapshots
// 4. Evaluate assertions against the live registry
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h, err := newHarness(ctx, st, scenario.Registry.Manifest())
	if err != nil {
		return nil, err
	}

	result := NewResult()
	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	result.Final = h.snapshot()
	if err := h.checkReplay(ctx, result.Final); err != nil {
		result.AddError(err.Error())
	}

	actx := &AssertionContext{Harness: h, Ctx: ctx}
	for _, errMsg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

func newHarness(ctx context.Context, st *store.Store, def manifest.Registry) (*Harness, error) {
	gate, err := def.Gate()
	if err != nil {
		return nil, fmt.Errorf("build gate: %w", err)
	}

	h := &Harness{
		store:  st,
		def:    def,
		gate:   gate,
		clock:  testutil.NewDeterministicClock(),
		saved:  make(map[string]string),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	if err := st.CreateRegistry(ctx, def.Definition(h.clock.Now())); err != nil {
		return nil, fmt.Errorf("create registry: %w", err)
	}

	opts := []registry.Option{
		registry.WithJournal(st),
		registry.WithClock(h.clock.Now),
		registry.WithTxIDs(testutil.NewSequentialTxIDs("tx")),
		registry.WithLogger(h.logger),
	}

	switch def.Variant {
	case ir.VariantList:
		h.list, err = registry.NewList(def.Name, def.Symbol, string(def.Kind), gate, opts...)
	case ir.VariantString:
		h.list, err = registry.NewStringList(def.Name, gate, opts...)
	case ir.VariantCatalyst:
		h.cat, err = registry.NewCatalyst(def.Name, gate, opts...)
	default:
		err = fmt.Errorf("unknown variant %q", def.Variant)
	}
	if err != nil {
		return nil, fmt.Errorf("create registry: %w", err)
	}
	return h, nil
}

// executeSteps runs all steps and validates expect clauses.
//
// Registry errors are outcomes, recorded in the trace and compared with the
// step's expectation. Any other error aborts the run.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		args, err := h.resolveArgs(step.Args)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}

		before := h.seq()
		out, opErr := h.execute(ctx, step.Op, step.Caller, args)
		if opErr != nil && !ir.IsRegistryError(opErr) {
			return fmt.Errorf("step %d (%s): %w", i, step.Op, opErr)
		}

		ev := TraceEvent{
			Step:    i,
			Op:      step.Op,
			Caller:  step.Caller,
			Args:    args,
			Outcome: OutcomeOK,
			Result:  out,
		}
		if opErr != nil {
			ev.Outcome = string(ir.CodeOf(opErr))
			ev.Result = ""
		}
		if seq := h.seq(); seq != before {
			ev.Seq = seq
		}
		result.AddTrace(ev)

		if msg := checkExpect(i, step, ev); msg != "" {
			result.AddError(msg)
		}

		if opErr == nil && step.SaveAs != "" {
			h.saved[step.SaveAs] = out
		}

		h.logger.Info("step completed",
			"step", i,
			"op", step.Op,
			"outcome", ev.Outcome,
			"seq", ev.Seq,
		)
	}
	return nil
}

func checkExpect(i int, step Step, ev TraceEvent) string {
	want := Expect{}
	if step.Expect != nil {
		want = *step.Expect
	}

	if want.Error == "" && ev.Outcome != OutcomeOK {
		return fmt.Sprintf("step %d (%s): expected success, got %s", i, step.Op, ev.Outcome)
	}
	if want.Error != "" && ev.Outcome != want.Error {
		return fmt.Sprintf("step %d (%s): expected %s, got %s", i, step.Op, want.Error, ev.Outcome)
	}
	if want.Result != "" && ev.Result != want.Result {
		return fmt.Sprintf("step %d (%s): expected result %q, got %q", i, step.Op, want.Result, ev.Result)
	}
	return ""
}

func (h *Harness) resolveArgs(args []string) ([]string, error) {
	out := make([]string, len(args))
	for i, arg := range args {
		ref, ok := strings.CutPrefix(arg, "$")
		if !ok {
			out[i] = arg
			continue
		}
		v, ok := h.saved[ref]
		if !ok {
			return nil, fmt.Errorf("%s was not saved (did the saving step fail?)", arg)
		}
		out[i] = v
	}
	return out, nil
}

// execute dispatches one operation. The returned string is the step result:
// the position for list adds, the id for catalyst adds, the value for gets.
func (h *Harness) execute(ctx context.Context, op, caller string, args []string) (string, error) {
	switch op {
	case OpAdd:
		pos, err := h.list.Add(ctx, caller, args[0])
		if err != nil {
			return "", err
		}
		return strconv.Itoa(pos), nil
	case OpAddCoordinates:
		pos, err := h.list.AddCoordinates(ctx, caller, args[0], args[1])
		if err != nil {
			return "", err
		}
		return strconv.Itoa(pos), nil
	case OpRemove:
		return "", h.list.Remove(ctx, caller, args[0])
	case OpGet:
		i, err := strconv.Atoi(args[0])
		if err != nil {
			return "", fmt.Errorf("get: index %q: %w", args[0], err)
		}
		if h.cat != nil {
			return h.cat.IDAt(i)
		}
		return h.list.Get(i)
	case OpAddCatalyst:
		rec, err := h.cat.Add(ctx, caller, args[0], args[1])
		if err != nil {
			return "", err
		}
		return rec.ID, nil
	case OpRemoveCatalyst:
		return "", h.cat.Remove(ctx, caller, args[0])
	case OpTransferOwnership:
		og, ok := h.gate.(*access.OwnerGate)
		if !ok {
			return "", fmt.Errorf("transfer_ownership: registry is not owned")
		}
		if err := og.TransferOwnership(caller, args[0]); err != nil {
			return "", err
		}
		return og.Owner(), nil
	default:
		return "", fmt.Errorf("unknown op %q", op)
	}
}

func (h *Harness) seq() int64 {
	if h.cat != nil {
		return h.cat.Seq()
	}
	return h.list.Seq()
}

func (h *Harness) snapshot() registry.Snapshot {
	if h.cat != nil {
		return h.cat.Snapshot()
	}
	return h.list.Snapshot()
}

// checkReplay rebuilds the registry from the journal and compares it with
// the live one.
func (h *Harness) checkReplay(ctx context.Context, live registry.Snapshot) error {
	var replayed registry.Snapshot
	if h.cat != nil {
		c, err := registry.ReplayCatalyst(ctx, h.store, h.def.Name, h.gate, registry.WithLogger(h.logger))
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		replayed = c.Snapshot()
	} else {
		l, err := registry.ReplayList(ctx, h.store, h.def.Name, h.gate, registry.WithLogger(h.logger))
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		replayed = l.Snapshot()
	}

	if !reflect.DeepEqual(live, replayed) {
		return fmt.Errorf("replay: journal rebuilds %+v, live registry is %+v", replayed, live)
	}
	return nil
}
