package oracle

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/ir"
)

// Oracle owns two machine states and advances them in lockstep.
//
// An Oracle is not safe for concurrent use. Calls to RunStep are strictly
// sequential; run independent oracles to parallelize.
type Oracle struct {
	cpu1, cpu2 ir.State
	mode       engine.SkipMode
	clock      *engine.Clock
	steps      int
	checkStart bool
	logger     *slog.Logger
}

// Option configures an Oracle.
type Option func(*Oracle)

// WithMode selects the SkipNext semantics. Default: engine.SkipDisabled.
func WithMode(mode engine.SkipMode) Option {
	return func(o *Oracle) {
		o.mode = mode
	}
}

// WithClock stamps steps from a shared logical clock instead of a private one.
func WithClock(c *engine.Clock) Option {
	return func(o *Oracle) {
		o.clock = c
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(o *Oracle) {
		o.logger = l
	}
}

// WithStartCheck makes NewFromStates reject start pairs that violate the
// inductive invariant.
func WithStartCheck() Option {
	return func(o *Oracle) {
		o.checkStart = true
	}
}

// New creates an oracle with both machines at reset.
func New(opts ...Option) *Oracle {
	o := &Oracle{
		cpu1:   engine.Reset(),
		cpu2:   engine.Reset(),
		clock:  engine.NewClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewFromStates creates an oracle starting from arbitrary states.
//
// Without WithStartCheck any pair is accepted, including pairs that no run
// from reset can reach; such pairs are how the invariant is shown to be
// necessary. With WithStartCheck a pair violating the invariant returns a
// *StartError.
func NewFromStates(cpu1, cpu2 ir.State, opts ...Option) (*Oracle, error) {
	o := New(opts...)
	if !o.mode.Valid() {
		return nil, fmt.Errorf("new oracle: invalid skip mode %s", o.mode)
	}
	if o.checkStart {
		if vs := CheckInvariant(cpu1, cpu2); len(vs) > 0 {
			return nil, &StartError{Violations: vs}
		}
	}
	o.cpu1, o.cpu2 = cpu1, cpu2
	return o, nil
}

// Reset returns both machines to the reset state and restarts step numbering.
func (o *Oracle) Reset() {
	o.cpu1, o.cpu2 = engine.Reset(), engine.Reset()
	o.steps = 0
}

// RunStep advances both machines by one instruction and evaluates every
// predicate on the result.
//
// An operand error aborts the step with both machines unchanged. A failed
// predicate is not an error: it is reported in the StepResult, and the
// machines still advance so a caller may keep observing the divergence.
func (o *Oracle) RunStep(in ir.StepInput) (StepResult, error) {
	next1, err := engine.Step(o.cpu1, in.High1, in.Low, in.Instr, o.mode)
	if err != nil {
		return StepResult{}, fmt.Errorf("step %d: cpu1: %w", o.steps, err)
	}
	next2, err := engine.Step(o.cpu2, in.High2, in.Low, in.Instr, o.mode)
	if err != nil {
		return StepResult{}, fmt.Errorf("step %d: cpu2: %w", o.steps, err)
	}

	o.cpu1, o.cpu2 = next1, next2
	result := newStepResult(o.steps, o.clock.Next(), in, next1, next2)
	o.steps++

	if !result.Pass() {
		o.logger.Warn("lockstep property violated",
			"step", result.Step,
			"instr", in.Instr.String(),
			"violations", len(result.Violations),
			"first", result.Violations[0].String(),
		)
	} else {
		o.logger.Debug("lockstep step",
			"step", result.Step,
			"instr", in.Instr.String(),
			"low1", result.Low1,
			"low2", result.Low2,
		)
	}
	return result, nil
}

// Run executes steps in order and returns every result. It stops at the
// first operand error; property violations do not stop it.
func (o *Oracle) Run(steps []ir.StepInput) ([]StepResult, error) {
	results := make([]StepResult, 0, len(steps))
	for _, in := range steps {
		r, err := o.RunStep(in)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

// States returns snapshots of both machines.
func (o *Oracle) States() (cpu1, cpu2 ir.State) {
	return o.cpu1, o.cpu2
}

// Steps returns the number of committed steps since start or Reset.
func (o *Oracle) Steps() int {
	return o.steps
}

// Mode returns the SkipNext semantics in use.
func (o *Oracle) Mode() engine.SkipMode {
	return o.mode
}
