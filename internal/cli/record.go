package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/lockstep/internal/harness"
	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/oracle"
	"github.com/roach88/lockstep/internal/store"
)

// recordReport writes report as a run, plus its counterexample if any.
func recordReport(ctx context.Context, st *store.Store, gen store.IDGenerator, report *harness.Report, cfg harness.Config) (store.Run, error) {
	run := store.Run{
		ID:             gen.Generate(),
		Strategy:       string(report.Strategy),
		Mode:           report.Mode,
		Verdict:        string(report.Verdict),
		Horizon:        report.Horizon,
		StepsRun:       report.StepsRun,
		StatesExplored: report.StatesExplored,
		Reason:         report.Reason,
		Config:         runConfig(report.Strategy, cfg),
		EngineVersion:  ir.EngineVersion,
		IRVersion:      ir.IRVersion,
	}
	run, err := st.WriteRun(ctx, run)
	if err != nil {
		return run, fmt.Errorf("record run: %w", err)
	}

	if report.Counterexample != nil {
		if _, _, err := st.WriteCounterexample(ctx, storeCounterexample(run.ID, report.Counterexample)); err != nil {
			return run, fmt.Errorf("record counterexample: %w", err)
		}
	}
	return run, nil
}

// runConfig captures the knobs needed to repeat a run.
func runConfig(strategy harness.Strategy, cfg harness.Config) map[string]any {
	out := map[string]any{
		"alphabet":  len(cfg.Alphabet),
		"max_steps": cfg.MaxSteps,
	}
	switch strategy {
	case harness.StrategyRandom:
		out["seed"] = cfg.Seed
		out["runs"] = cfg.Runs
		out["shrink"] = cfg.Shrink
	case harness.StrategyInductive:
		out["workers"] = cfg.Workers
	}
	return out
}

// storeCounterexample converts a harness counterexample to its stored form.
func storeCounterexample(runID string, cx *harness.Counterexample) store.Counterexample {
	out := store.Counterexample{
		ID:        cx.ID,
		RunID:     runID,
		Mode:      cx.Mode.String(),
		Predicate: string(cx.Predicate()),
		Step:      len(cx.Steps) - 1,
		CPU1:      cx.Start.CPU1,
		CPU2:      cx.Start.CPU2,
		Steps:     cx.Steps,
	}
	if v, ok := cx.Failure.Violation(oracle.PredicateLowEquivalence); ok {
		out.Register = v.Register.String()
	}
	return out
}

// printSteps writes one line per step input.
func printSteps(w io.Writer, indent string, steps []ir.StepInput) {
	for i, s := range steps {
		fmt.Fprintf(w, "%s[%d] %-28s high1=%d high2=%d low=%d\n",
			indent, i, s.Instr, b2i(s.High1), b2i(s.High2), b2i(s.Low))
	}
}

// printTrace writes one line per step result, marking violations.
func printTrace(w io.Writer, indent string, trace []oracle.StepResult) {
	for _, r := range trace {
		status := "ok"
		if !r.Pass() {
			parts := make([]string, len(r.Violations))
			for i, v := range r.Violations {
				parts[i] = v.String()
			}
			status = "✗ " + strings.Join(parts, "; ")
		}
		fmt.Fprintf(w, "%s[%d] %-28s low=%d/%d high=%d/%d  %s\n",
			indent, r.Step, r.Input.Instr,
			b2i(r.Low1), b2i(r.Low2), b2i(r.High1), b2i(r.High2), status)
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
