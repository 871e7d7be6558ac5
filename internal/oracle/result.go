package oracle

import (
	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/ir"
)

// StepResult is the outcome of one lockstep step.
type StepResult struct {
	// Step is the 0-based index of the step since the pair started.
	Step int `json:"step" yaml:"step"`

	// Seq is the oracle's logical clock value for this step.
	Seq int64 `json:"seq" yaml:"seq"`

	// Input is the step input that produced this result.
	Input ir.StepInput `json:"input" yaml:"input"`

	// CPU1 and CPU2 snapshot both machines after the step.
	CPU1 ir.State `json:"cpu1" yaml:"cpu1"`
	CPU2 ir.State `json:"cpu2" yaml:"cpu2"`

	// Outputs observed on each channel after the step.
	Low1  bool `json:"low1" yaml:"low1"`
	Low2  bool `json:"low2" yaml:"low2"`
	High1 bool `json:"high1" yaml:"high1"`
	High2 bool `json:"high2" yaml:"high2"`

	// Violations lists the failed predicates. Empty on pass.
	Violations []Violation `json:"violations,omitempty" yaml:"violations,omitempty"`
}

func newStepResult(step int, seq int64, in ir.StepInput, cpu1, cpu2 ir.State) StepResult {
	return StepResult{
		Step:       step,
		Seq:        seq,
		Input:      in,
		CPU1:       cpu1,
		CPU2:       cpu2,
		Low1:       engine.LowOutput(cpu1),
		Low2:       engine.LowOutput(cpu2),
		High1:      engine.HighOutput(cpu1),
		High2:      engine.HighOutput(cpu2),
		Violations: Evaluate(cpu1, cpu2),
	}
}

// Pass reports whether every predicate held.
func (r StepResult) Pass() bool {
	return len(r.Violations) == 0
}

// Failed reports whether predicate p was violated.
func (r StepResult) Failed(p Predicate) bool {
	_, ok := r.Violation(p)
	return ok
}

// Violation returns the violation for predicate p, if any.
func (r StepResult) Violation(p Predicate) (Violation, bool) {
	for _, v := range r.Violations {
		if v.Predicate == p {
			return v, true
		}
	}
	return Violation{}, false
}

// Err returns a *PropertyViolation when the step failed, nil otherwise.
func (r StepResult) Err() error {
	if r.Pass() {
		return nil
	}
	return &PropertyViolation{Result: r}
}
