package harness

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/oracle"
)

// inductiveChunk is the number of pair keys one worker task scans.
const inductiveChunk = 1 << 14

// chunkFinding is the first violation found in a chunk, if any.
type chunkFinding struct {
	start   Pair
	input   int   // index into alphabet*inputCombos
	ordinal int64 // 1-based position of start among invariant pairs
}

// Inductive checks that the invariant is inductive: from every pair state
// satisfying low and control equivalence, whether or not it is reachable,
// one step with any instruction and any inputs preserves the invariant and
// noninterference. Reset satisfies the invariant, so a pass here proves the
// property for every reachable pair at every depth.
//
// The key space is split into fixed chunks scanned by cfg.Workers
// goroutines. The reported counterexample is the first violation in key
// order regardless of scheduling. The step budget is charged in key order
// too: the n-th invariant pair costs n*steps-per-pair, so the verdict and
// the reported counts never depend on cfg.Workers.
func Inductive(ctx context.Context, cfg Config) (*Report, error) {
	cfg = cfg.withDefaults()
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("inductive: invalid skip mode %s", cfg.Mode)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	report := &Report{
		Strategy: StrategyInductive,
		Mode:     cfg.Mode.String(),
		Horizon:  1,
	}
	reset := ResetPair()
	if vs := oracle.CheckInvariant(reset.CPU1, reset.CPU2); len(vs) > 0 {
		return nil, fmt.Errorf("inductive: reset violates invariant: %w", &oracle.StartError{Violations: vs})
	}

	perPair := int64(len(cfg.Alphabet) * inputCombos)
	numChunks := pairKeySpace / inductiveChunk

	// maxPairs < 0 means unlimited.
	maxPairs := int64(-1)
	var offsets []int64
	if cfg.MaxSteps > 0 {
		maxPairs = cfg.MaxSteps / perPair
		var err error
		if offsets, err = chunkOffsets(ctx, numChunks, workers); err != nil {
			return nil, fmt.Errorf("inductive: %w", err)
		}
	}

	findings := make([]*chunkFinding, numChunks)
	exhausted := make([]bool, numChunks)

	// lowest chunk index known to hold a violation or to run out of
	// budget; later chunks stop early
	var lowest atomic.Int64
	lowest.Store(int64(numChunks))
	settle := func(c int) {
		for {
			cur := lowest.Load()
			if int64(c) >= cur || lowest.CompareAndSwap(cur, int64(c)) {
				return
			}
		}
	}
	var explored atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for c := 0; c < numChunks; c++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if int64(c) > lowest.Load() {
				return nil
			}
			var ordinal int64
			if offsets != nil {
				ordinal = offsets[c]
			}
			base := uint32(c * inductiveChunk)
			for off := uint32(0); off < inductiveChunk; off++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if int64(c) > lowest.Load() {
					return nil
				}
				p := pairFromKey(base + off)
				if len(oracle.CheckInvariant(p.CPU1, p.CPU2)) > 0 {
					continue
				}
				ordinal++
				if maxPairs >= 0 && ordinal > maxPairs {
					exhausted[c] = true
					settle(c)
					return nil
				}
				explored.Add(1)
				idx, err := firstBadStep(p, cfg)
				if err != nil {
					return err
				}
				if idx >= 0 {
					findings[c] = &chunkFinding{start: p, input: idx, ordinal: ordinal}
					settle(c)
					return nil
				}
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("inductive: %w", err)
	}

	for c, f := range findings {
		if f != nil {
			in := stepInput(cfg.Alphabet[f.input/inputCombos], f.input%inputCombos)
			cx, err := NewCounterexample(cfg.Mode, f.start, []ir.StepInput{in})
			if err != nil {
				return nil, fmt.Errorf("inductive: %w", err)
			}
			report.Verdict = VerdictFail
			report.Counterexample = cx
			report.StatesExplored = int(f.ordinal)
			report.StepsRun = f.ordinal * perPair
			cfg.Logger.Info("invariant is not inductive",
				"mode", report.Mode,
				"predicate", cx.Predicate(),
				"instr", in.Instr.String(),
			)
			return report, nil
		}
		if exhausted[c] {
			report.Verdict = VerdictInconclusive
			report.StatesExplored = int(maxPairs)
			report.StepsRun = maxPairs * perPair
			report.Reason = (&BudgetExceededError{
				Used:  (maxPairs + 1) * perPair,
				Limit: cfg.MaxSteps,
			}).Error()
			return report, nil
		}
	}

	report.Verdict = VerdictPass
	report.StatesExplored = int(explored.Load())
	report.StepsRun = explored.Load() * perPair
	cfg.Logger.Info("invariant is inductive",
		"mode", report.Mode,
		"pairs", report.StatesExplored,
	)
	return report, nil
}

// chunkOffsets returns, per chunk, the number of invariant pairs in all
// earlier chunks.
func chunkOffsets(ctx context.Context, numChunks, workers int) ([]int64, error) {
	counts := make([]int64, numChunks)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for c := 0; c < numChunks; c++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			base := uint32(c * inductiveChunk)
			for off := uint32(0); off < inductiveChunk; off++ {
				p := pairFromKey(base + off)
				if len(oracle.CheckInvariant(p.CPU1, p.CPU2)) == 0 {
					counts[c]++
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	offsets := make([]int64, numChunks)
	var sum int64
	for c, n := range counts {
		offsets[c] = sum
		sum += n
	}
	return offsets, nil
}

// firstBadStep returns the index of the first (instruction, inputs) step
// that breaks a predicate from p, or -1.
func firstBadStep(p Pair, cfg Config) (int, error) {
	for i, instr := range cfg.Alphabet {
		for combo := 0; combo < inputCombos; combo++ {
			in := stepInput(instr, combo)
			n1, err := engine.Step(p.CPU1, in.High1, in.Low, instr, cfg.Mode)
			if err != nil {
				return 0, fmt.Errorf("cpu1: %w", err)
			}
			n2, err := engine.Step(p.CPU2, in.High2, in.Low, instr, cfg.Mode)
			if err != nil {
				return 0, fmt.Errorf("cpu2: %w", err)
			}
			if len(oracle.Evaluate(n1, n2)) > 0 {
				return i*inputCombos + combo, nil
			}
		}
	}
	return -1, nil
}
