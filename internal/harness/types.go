package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/oracle"
)

// Verdict is the outcome of a verification run.
type Verdict string

const (
	// VerdictPass means the property was proved: a fixpoint was reached, the
	// invariant was shown inductive, or a literal replay produced no violation.
	VerdictPass Verdict = "pass"

	// VerdictFail means a counterexample was found.
	VerdictFail Verdict = "fail"

	// VerdictInconclusive means the search budget ran out with neither a
	// proof nor a counterexample. It is never a pass.
	VerdictInconclusive Verdict = "inconclusive"
)

// ParseVerdict parses "pass", "fail" or "inconclusive".
func ParseVerdict(s string) (Verdict, error) {
	switch v := Verdict(s); v {
	case VerdictPass, VerdictFail, VerdictInconclusive:
		return v, nil
	}
	return "", fmt.Errorf("unknown verdict %q", s)
}

// Strategy names how input sequences were produced.
type Strategy string

const (
	StrategyExhaustive Strategy = "exhaustive"
	StrategyInductive  Strategy = "inductive"
	StrategyRandom     Strategy = "random"
	StrategyReplay     Strategy = "replay"
)

// Pair is a start configuration for both machines.
type Pair struct {
	CPU1 ir.State `json:"cpu1" yaml:"cpu1"`
	CPU2 ir.State `json:"cpu2" yaml:"cpu2"`
}

// ResetPair returns both machines at reset.
func ResetPair() Pair {
	return Pair{CPU1: engine.Reset(), CPU2: engine.Reset()}
}

// key packs the pair into 2*ir.StateKeyBits bits.
func (p Pair) key() uint32 {
	return p.CPU1.Key() | p.CPU2.Key()<<ir.StateKeyBits
}

func pairFromKey(k uint32) Pair {
	const mask = 1<<ir.StateKeyBits - 1
	return Pair{
		CPU1: ir.StateFromKey(k & mask),
		CPU2: ir.StateFromKey(k >> ir.StateKeyBits),
	}
}

// pairKeySpace is the number of distinct pair keys.
const pairKeySpace = 1 << (2 * ir.StateKeyBits)

// Config controls a verification run. Zero values select defaults.
type Config struct {
	// Mode selects SkipNext semantics.
	Mode engine.SkipMode

	// Horizon bounds the search depth (exhaustive) or sequence length
	// (random). Default: DefaultHorizon.
	Horizon int

	// MaxSteps bounds the total number of lockstep steps across the whole
	// run. 0 means unlimited. Running out yields VerdictInconclusive.
	MaxSteps int64

	// Alphabet is the set of instructions to draw from. Default: Alphabet().
	Alphabet []ir.Instruction

	// Start overrides the reset pair as the exhaustive/random start.
	Start *Pair

	// Seed and Runs drive random search.
	Seed uint64
	Runs int

	// Shrink minimizes random counterexamples.
	Shrink bool

	// Workers bounds inductive parallelism. Default: GOMAXPROCS.
	Workers int

	// Logger receives progress. Default: discard.
	Logger *slog.Logger
}

// DefaultHorizon is the default search depth.
const DefaultHorizon = 20

// DefaultRuns is the default number of random sequences.
const DefaultRuns = 1000

func (c Config) withDefaults() Config {
	if c.Horizon <= 0 {
		c.Horizon = DefaultHorizon
	}
	if len(c.Alphabet) == 0 {
		c.Alphabet = Alphabet()
	}
	if c.Runs <= 0 {
		c.Runs = DefaultRuns
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

func (c Config) start() Pair {
	if c.Start != nil {
		return *c.Start
	}
	return ResetPair()
}

// Report summarizes a verification run.
type Report struct {
	Strategy Strategy `json:"strategy"`
	Mode     string   `json:"mode"`
	Verdict  Verdict  `json:"verdict"`

	// Horizon is the configured depth/length bound.
	Horizon int `json:"horizon"`

	// Depth is the deepest level fully explored (exhaustive only).
	Depth int `json:"depth,omitempty"`

	// StepsRun counts lockstep steps executed.
	StepsRun int64 `json:"steps_run"`

	// StatesExplored counts distinct pair states visited (exhaustive,
	// inductive).
	StatesExplored int `json:"states_explored,omitempty"`

	// Reason explains an inconclusive verdict.
	Reason string `json:"reason,omitempty"`

	// Counterexample is set when Verdict is VerdictFail.
	Counterexample *Counterexample `json:"counterexample,omitempty"`
}

// Counterexample is a literal, replayable failing input sequence.
type Counterexample struct {
	// ID is content-addressed over start, mode and steps.
	ID string `json:"id"`

	Mode  engine.SkipMode `json:"mode"`
	Start Pair            `json:"start"`
	Steps []ir.StepInput  `json:"steps"`

	// Failure is the result of the last step, where the first violation
	// was observed.
	Failure oracle.StepResult `json:"failure"`
}

// NewCounterexample replays steps from start and packages the first failing
// prefix. It returns an error if the sequence does not fail.
func NewCounterexample(mode engine.SkipMode, start Pair, steps []ir.StepInput) (*Counterexample, error) {
	results, err := Replay(start, steps, mode)
	if err != nil {
		return nil, err
	}
	for i, r := range results {
		if r.Pass() {
			continue
		}
		prefix := append([]ir.StepInput(nil), steps[:i+1]...)
		id, err := ir.CounterexampleID(start.CPU1, start.CPU2, mode.String(), prefix)
		if err != nil {
			return nil, err
		}
		return &Counterexample{
			ID:      id,
			Mode:    mode,
			Start:   start,
			Steps:   prefix,
			Failure: r,
		}, nil
	}
	return nil, fmt.Errorf("sequence of %d steps does not violate any predicate", len(steps))
}

// Predicate returns the first violated predicate.
func (c *Counterexample) Predicate() oracle.Predicate {
	if len(c.Failure.Violations) == 0 {
		return ""
	}
	return c.Failure.Violations[0].Predicate
}
