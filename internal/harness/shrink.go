package harness

import (
	"fmt"
	"slices"

	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/oracle"
)

// Shrink greedily deletes steps from a failing sequence while its first
// failure still violates pred, truncating after that failure each time.
// The result is 1-minimal: removing any single remaining step loses the
// failure.
func Shrink(start Pair, steps []ir.StepInput, mode engine.SkipMode, pred oracle.Predicate) ([]ir.StepInput, error) {
	cur, ok, err := failsWith(start, steps, mode, pred)
	if err != nil {
		return nil, fmt.Errorf("shrink: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("shrink: sequence does not fail with %s", pred)
	}

	for i := 0; i < len(cur); {
		candidate := slices.Delete(slices.Clone(cur), i, i+1)
		shorter, ok, err := failsWith(start, candidate, mode, pred)
		if err != nil {
			return nil, fmt.Errorf("shrink: %w", err)
		}
		if ok {
			// a shorter prefix can make earlier steps removable
			cur = shorter
			i = 0
			continue
		}
		i++
	}
	return cur, nil
}

// failsWith replays steps and, when the first failing step violates pred,
// returns the prefix ending at that step.
func failsWith(start Pair, steps []ir.StepInput, mode engine.SkipMode, pred oracle.Predicate) ([]ir.StepInput, bool, error) {
	if len(steps) == 0 {
		return nil, false, nil
	}
	results, err := Replay(start, steps, mode)
	if err != nil {
		return nil, false, err
	}
	idx := FirstFailure(results)
	if idx < 0 || !results[idx].Failed(pred) {
		return nil, false, nil
	}
	return steps[:idx+1], true, nil
}
