package harness

import (
	"context"
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bitset"

	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/oracle"
)

// edge records how a pair state was first reached.
type edge struct {
	parent uint32
	input  ir.StepInput
}

// Exhaustive explores every pair state reachable from the start pair,
// breadth first, up to cfg.Horizon steps.
//
// Pair states are deduplicated, so a search that empties its frontier
// before the horizon has visited every reachable pair: that is a proof and
// the verdict is VerdictPass. A violation yields VerdictFail with a
// shortest counterexample. Reaching the horizon (or the step budget) with
// states left to expand is VerdictInconclusive.
func Exhaustive(ctx context.Context, cfg Config) (*Report, error) {
	cfg = cfg.withDefaults()
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("exhaustive: invalid skip mode %s", cfg.Mode)
	}
	start := cfg.start()
	if vs := oracle.CheckInvariant(start.CPU1, start.CPU2); len(vs) > 0 {
		return nil, fmt.Errorf("exhaustive: %w", &oracle.StartError{Violations: vs})
	}

	report := &Report{
		Strategy: StrategyExhaustive,
		Mode:     cfg.Mode.String(),
		Horizon:  cfg.Horizon,
	}
	budget := NewBudget(cfg.MaxSteps)

	startKey := start.key()
	visited := bitset.New(pairKeySpace)
	visited.Set(uint(startKey))
	parents := make(map[uint32]edge)
	frontier := []uint32{startKey}

	for depth := 0; depth < cfg.Horizon && len(frontier) > 0; depth++ {
		var next []uint32
		for _, k := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			p := pairFromKey(k)
			for _, instr := range cfg.Alphabet {
				for combo := 0; combo < inputCombos; combo++ {
					in := stepInput(instr, combo)
					n1, err := engine.Step(p.CPU1, in.High1, in.Low, instr, cfg.Mode)
					if err != nil {
						return nil, fmt.Errorf("exhaustive: depth %d: cpu1: %w", depth, err)
					}
					n2, err := engine.Step(p.CPU2, in.High2, in.Low, instr, cfg.Mode)
					if err != nil {
						return nil, fmt.Errorf("exhaustive: depth %d: cpu2: %w", depth, err)
					}
					report.StepsRun++
					if err := budget.Spend(1); err != nil {
						report.Verdict = VerdictInconclusive
						report.Reason = err.Error()
						report.StatesExplored = int(visited.Count())
						return report, nil
					}

					if vs := oracle.Evaluate(n1, n2); len(vs) > 0 {
						steps := append(pathTo(parents, k), in)
						cx, err := NewCounterexample(cfg.Mode, start, steps)
						if err != nil {
							return nil, fmt.Errorf("exhaustive: %w", err)
						}
						report.Verdict = VerdictFail
						report.Depth = depth + 1
						report.StatesExplored = int(visited.Count())
						report.Counterexample = cx
						cfg.Logger.Info("exhaustive search found counterexample",
							"mode", report.Mode,
							"depth", report.Depth,
							"predicate", cx.Predicate(),
						)
						return report, nil
					}

					nk := Pair{CPU1: n1, CPU2: n2}.key()
					if visited.Test(uint(nk)) {
						continue
					}
					visited.Set(uint(nk))
					parents[nk] = edge{parent: k, input: in}
					next = append(next, nk)
				}
			}
		}
		report.Depth = depth + 1
		frontier = next
		cfg.Logger.Debug("exhaustive level done",
			"depth", report.Depth,
			"frontier", len(frontier),
			"visited", visited.Count(),
		)
	}

	report.StatesExplored = int(visited.Count())
	if len(frontier) == 0 {
		report.Verdict = VerdictPass
		cfg.Logger.Info("exhaustive search reached fixpoint",
			"mode", report.Mode,
			"depth", report.Depth,
			"states", report.StatesExplored,
		)
		return report, nil
	}
	report.Verdict = VerdictInconclusive
	report.Reason = fmt.Sprintf("horizon %d reached with %d unexplored states", cfg.Horizon, len(frontier))
	return report, nil
}

// pathTo reconstructs the step sequence leading from the start pair to k.
func pathTo(parents map[uint32]edge, k uint32) []ir.StepInput {
	var steps []ir.StepInput
	for {
		e, ok := parents[k]
		if !ok {
			break
		}
		steps = append(steps, e.input)
		k = e.parent
	}
	slices.Reverse(steps)
	return steps
}
