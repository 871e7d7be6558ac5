package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/lockstep/internal/compiler"
	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/oracle"
)

// ScenarioResult is the outcome of running one scenario.
type ScenarioResult struct {
	Name    string
	Mode    engine.SkipMode
	Start   Pair
	Verdict Verdict

	// Steps are the inputs actually fed, one per instruction.
	Steps []ir.StepInput

	// Trace holds every step result, including steps after the first
	// failure.
	Trace []oracle.StepResult

	// FirstFailure indexes Trace, -1 when every step passed.
	FirstFailure int

	// StartRejected is set when the start check refused the pair.
	StartRejected []oracle.Violation

	// Errors lists failed expectations. Empty means the scenario passed.
	Errors []error
}

// Passed reports whether every expectation held.
func (r *ScenarioResult) Passed() bool {
	return len(r.Errors) == 0
}

// Runner executes scenarios.
type Runner struct {
	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets the logger. Default: discard.
func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a scenario runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunScenario runs s with a default runner.
func RunScenario(s *Scenario) (*ScenarioResult, error) {
	return NewRunner().Run(s)
}

// Run executes a scenario and evaluates its expectations.
//
// Execution flow:
// 1. Compile program files and resolve the instruction stream
// 2. Resolve the start pair (optionally checked against the invariant)
// 3. Run every step through the oracle
// 4. Evaluate expectations against the trace
//
// A returned error means the scenario could not be run. Unmet
// expectations are reported in ScenarioResult.Errors.
func (r *Runner) Run(s *Scenario) (*ScenarioResult, error) {
	bundle := compiler.NewBundle()
	for _, path := range s.Programs {
		b, err := compiler.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		if err := bundle.Merge(b); err != nil {
			return nil, fmt.Errorf("scenario %s: %s: %w", s.Name, path, err)
		}
	}

	instrs, err := resolveInstructions(s, bundle)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	steps, err := buildSteps(instrs, s.Inputs)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	start, err := resolveStart(s.Start, bundle)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	result := &ScenarioResult{
		Name:         s.Name,
		Mode:         s.Mode,
		Start:        start,
		Steps:        steps,
		FirstFailure: -1,
	}

	opts := []oracle.Option{oracle.WithMode(s.Mode), oracle.WithLogger(r.logger)}
	if s.Start != nil && s.Start.Check {
		opts = append(opts, oracle.WithStartCheck())
	}
	o, err := oracle.NewFromStates(start.CPU1, start.CPU2, opts...)
	var startErr *oracle.StartError
	switch {
	case errors.As(err, &startErr):
		result.StartRejected = startErr.Violations
		result.Verdict = VerdictFail
		r.logger.Info("scenario start rejected", "scenario", s.Name, "violations", len(startErr.Violations))
		result.Errors = evaluateExpect(s.Expect, result)
		return result, nil
	case err != nil:
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	trace, err := o.Run(steps)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	result.Trace = trace
	result.FirstFailure = FirstFailure(trace)
	result.Verdict = VerdictPass
	if result.FirstFailure >= 0 {
		result.Verdict = VerdictFail
	}

	result.Errors = evaluateExpect(s.Expect, result)
	r.logger.Info("scenario completed",
		"scenario", s.Name,
		"mode", s.Mode.String(),
		"verdict", result.Verdict,
		"passed", result.Passed(),
	)
	return result, nil
}

func resolveInstructions(s *Scenario, bundle *compiler.Bundle) ([]ir.Instruction, error) {
	if len(s.Instructions) > 0 {
		return s.Instructions, nil
	}
	prog, ok := bundle.Programs[s.Program]
	if !ok {
		return nil, fmt.Errorf("program %q not declared in %v", s.Program, s.Programs)
	}
	return prog.Instructions, nil
}

func buildSteps(instrs []ir.Instruction, inputs []InputSpec) ([]ir.StepInput, error) {
	if len(inputs) > len(instrs) {
		return nil, fmt.Errorf("%d inputs for %d instructions", len(inputs), len(instrs))
	}
	steps := make([]ir.StepInput, len(instrs))
	for i, instr := range instrs {
		steps[i].Instr = instr
		if i < len(inputs) {
			steps[i].High1 = inputs[i].High1
			steps[i].High2 = inputs[i].High2
			steps[i].Low = inputs[i].Low
		}
	}
	return steps, nil
}

func resolveStart(spec *StartSpec, bundle *compiler.Bundle) (Pair, error) {
	p := ResetPair()
	if spec == nil {
		return p, nil
	}
	var err error
	if p.CPU1, err = resolveState(spec.CPU1, spec.CPU1Ref, bundle); err != nil {
		return p, fmt.Errorf("start.cpu1: %w", err)
	}
	if p.CPU2, err = resolveState(spec.CPU2, spec.CPU2Ref, bundle); err != nil {
		return p, fmt.Errorf("start.cpu2: %w", err)
	}
	return p, nil
}

func resolveState(inline *ir.State, ref string, bundle *compiler.Bundle) (ir.State, error) {
	switch {
	case inline != nil:
		return *inline, nil
	case ref != "":
		s, ok := bundle.States[ref]
		if !ok {
			return ir.State{}, fmt.Errorf("state %q not declared", ref)
		}
		return s, nil
	}
	return engine.Reset(), nil
}
