package harness

import (
	"fmt"

	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/oracle"
)

// Replay re-executes a literal step sequence from start and returns every
// step result. The start pair is not checked against the invariant, so
// unreachable configurations can be replayed too.
//
// Replay is deterministic: the same arguments always produce the same
// results, including Seq numbering.
func Replay(start Pair, steps []ir.StepInput, mode engine.SkipMode) ([]oracle.StepResult, error) {
	o, err := oracle.NewFromStates(start.CPU1, start.CPU2, oracle.WithMode(mode))
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	results, err := o.Run(steps)
	if err != nil {
		return results, fmt.Errorf("replay: %w", err)
	}
	return results, nil
}

// FirstFailure returns the index of the first failing result, or -1.
func FirstFailure(results []oracle.StepResult) int {
	for i, r := range results {
		if !r.Pass() {
			return i
		}
	}
	return -1
}

// Replay re-executes the counterexample and returns the result of its last
// step, which must reproduce Failure.
func (c *Counterexample) Replay() (oracle.StepResult, error) {
	results, err := Replay(c.Start, c.Steps, c.Mode)
	if err != nil {
		return oracle.StepResult{}, err
	}
	if len(results) == 0 {
		return oracle.StepResult{}, fmt.Errorf("counterexample %s has no steps", c.ID)
	}
	return results[len(results)-1], nil
}
