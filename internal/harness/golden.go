package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/registrar/internal/ir"
	"github.com/roach88/registrar/internal/registry"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string            `json:"scenario_name"`
	Trace        []TraceEvent      `json:"trace"`
	Final        registry.Snapshot `json:"final"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types and primitives.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"step":    event.Step,
			"op":      event.Op,
			"args":    event.Args,
			"outcome": event.Outcome,
		}
		if event.Caller != "" {
			eventMap["caller"] = event.Caller
		}
		if event.Result != "" {
			eventMap["result"] = event.Result
		}
		if event.Seq != 0 {
			eventMap["seq"] = event.Seq
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"final":         snapshotMap(s.Final),
	}
}

func snapshotMap(snap registry.Snapshot) map[string]any {
	m := map[string]any{
		"name":    snap.Name,
		"variant": string(snap.Variant),
		"seq":     snap.Seq,
	}
	if snap.Symbol != "" {
		m["symbol"] = snap.Symbol
	}
	if snap.Kind != "" {
		m["kind"] = string(snap.Kind)
	}
	if snap.Variant == ir.VariantCatalyst {
		records := make([]any, len(snap.Records))
		for i, rec := range snap.Records {
			records[i] = map[string]any{
				"id":         rec.ID,
				"owner":      rec.Owner,
				"domain":     rec.Domain,
				"started_at": rec.StartedAt,
				"ended_at":   rec.EndedAt,
			}
		}
		m["records"] = records
		m["history"] = snap.History
		return m
	}
	values := snap.Values
	if values == nil {
		values = []string{}
	}
	m["values"] = values
	return m
}

// MarshalTrace renders the canonical trace document for a result.
func MarshalTrace(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Final:        result.Final,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
