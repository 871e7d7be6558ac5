package harness

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/roach88/lockstep/internal/ir"
)

// Random runs cfg.Runs seeded random step sequences of cfg.Horizon steps
// from the start pair. Run r draws from a PCG seeded with cfg.Seed+r, so a
// report is reproducible from (Seed, Runs, Horizon, Alphabet, Mode).
//
// Random search can only refute: when no run fails the verdict is
// VerdictInconclusive, never VerdictPass.
func Random(ctx context.Context, cfg Config) (*Report, error) {
	cfg = cfg.withDefaults()
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("random: invalid skip mode %s", cfg.Mode)
	}
	start := cfg.start()
	report := &Report{
		Strategy: StrategyRandom,
		Mode:     cfg.Mode.String(),
		Horizon:  cfg.Horizon,
	}
	budget := NewBudget(cfg.MaxSteps)

	for r := 0; r < cfg.Runs; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		steps := randomSteps(cfg.Seed+uint64(r), cfg.Horizon, cfg.Alphabet)
		results, err := Replay(start, steps, cfg.Mode)
		if err != nil {
			return nil, fmt.Errorf("random: run %d: %w", r, err)
		}

		idx := FirstFailure(results)
		ran := len(results)
		if idx >= 0 {
			ran = idx + 1
		}
		report.StepsRun += int64(ran)
		if err := budget.Spend(int64(ran)); err != nil {
			report.Verdict = VerdictInconclusive
			report.Reason = err.Error()
			return report, nil
		}
		if idx < 0 {
			continue
		}

		failing := steps[:idx+1]
		if cfg.Shrink {
			pred := results[idx].Violations[0].Predicate
			shrunk, err := Shrink(start, failing, cfg.Mode, pred)
			if err != nil {
				return nil, fmt.Errorf("random: run %d: %w", r, err)
			}
			cfg.Logger.Debug("shrunk counterexample",
				"run", r,
				"from", len(failing),
				"to", len(shrunk),
			)
			failing = shrunk
		}
		cx, err := NewCounterexample(cfg.Mode, start, failing)
		if err != nil {
			return nil, fmt.Errorf("random: run %d: %w", r, err)
		}
		report.Verdict = VerdictFail
		report.Counterexample = cx
		cfg.Logger.Info("random search found counterexample",
			"mode", report.Mode,
			"run", r,
			"seed", cfg.Seed+uint64(r),
			"steps", len(cx.Steps),
			"predicate", cx.Predicate(),
		)
		return report, nil
	}

	report.Verdict = VerdictInconclusive
	report.Reason = fmt.Sprintf("no counterexample in %d runs of %d steps", cfg.Runs, cfg.Horizon)
	return report, nil
}

// randomSteps draws n step inputs from alphabet with a PCG seeded by seed.
func randomSteps(seed uint64, n int, alphabet []ir.Instruction) []ir.StepInput {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	steps := make([]ir.StepInput, n)
	for i := range steps {
		instr := alphabet[rng.IntN(len(alphabet))]
		steps[i] = stepInput(instr, rng.IntN(inputCombos))
	}
	return steps
}
