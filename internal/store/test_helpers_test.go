package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/testutil"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run with minimal required fields.
func createTestRun(id string) Run {
	return Run{
		ID:            id,
		Strategy:      "random",
		Mode:          "armed",
		Verdict:       "fail",
		Horizon:       20,
		StepsRun:      42,
		Config:        map[string]any{"seed": uint64(7), "runs": 10},
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
}

// createTestCounterexample builds the one-step armed skip counterexample.
func createTestCounterexample(runID string) Counterexample {
	steps := []ir.StepInput{{Instr: ir.SkipNext(ir.RegInputHigh), High1: true}}
	cpu1, cpu2 := ir.ResetState(), ir.ResetState()
	return Counterexample{
		ID:        testutil.CounterexampleID(cpu1, cpu2, "armed", steps),
		RunID:     runID,
		Mode:      "armed",
		Predicate: "control_equivalence",
		Step:      0,
		CPU1:      cpu1,
		CPU2:      cpu2,
		Steps:     steps,
	}
}

func mustWriteRun(t *testing.T, s *Store, run Run) Run {
	t.Helper()
	got, err := s.WriteRun(context.Background(), run)
	if err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	return got
}
