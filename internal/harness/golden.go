package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/oracle"
)

// TraceSnapshot captures the complete trace of a scenario run.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName  string
	Mode          string
	Verdict       Verdict
	Start         Pair
	StartRejected []oracle.Violation
	Trace         []oracle.StepResult
}

// NewTraceSnapshot builds the snapshot of a scenario result.
func NewTraceSnapshot(r *ScenarioResult) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName:  r.Name,
		Mode:          r.Mode.String(),
		Verdict:       r.Verdict,
		Start:         r.Start,
		StartRejected: r.StartRejected,
		Trace:         r.Trace,
	}
}

// Canonical converts the snapshot to a map for canonical JSON
// serialization. Violation details are human-oriented and left out so the
// golden file pins only predicates and registers.
func (s TraceSnapshot) Canonical() any {
	trace := make([]any, len(s.Trace))
	for i, r := range s.Trace {
		event := map[string]any{
			"step":  r.Step,
			"seq":   r.Seq,
			"input": r.Input.Canonical(),
			"cpu1":  r.CPU1.Canonical(),
			"cpu2":  r.CPU2.Canonical(),
			"low1":  r.Low1,
			"low2":  r.Low2,
			"high1": r.High1,
			"high2": r.High2,
		}
		if len(r.Violations) > 0 {
			event["violations"] = canonicalViolations(r.Violations)
		}
		trace[i] = event
	}

	out := map[string]any{
		"scenario_name": s.ScenarioName,
		"mode":          s.Mode,
		"verdict":       string(s.Verdict),
		"start": map[string]any{
			"cpu1": s.Start.CPU1.Canonical(),
			"cpu2": s.Start.CPU2.Canonical(),
		},
		"trace": trace,
	}
	if len(s.StartRejected) > 0 {
		out["start_rejected"] = canonicalViolations(s.StartRejected)
	}
	return out
}

func canonicalViolations(vs []oracle.Violation) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		m := map[string]any{"predicate": string(v.Predicate)}
		if v.Predicate == oracle.PredicateLowEquivalence {
			m["register"] = v.Register.String()
		}
		out[i] = m
	}
	return out
}

// TraceJSON renders a scenario result as canonical JSON.
func TraceJSON(r *ScenarioResult) ([]byte, error) {
	return ir.MarshalCanonical(NewTraceSnapshot(r))
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
func RunWithGolden(t *testing.T, scenario *Scenario) (*ScenarioResult, error) {
	t.Helper()

	result, err := RunScenario(scenario)
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
func AssertGolden(t *testing.T, name string, result *ScenarioResult) error {
	t.Helper()

	traceJSON, err := TraceJSON(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, traceJSON)

	return nil
}
