package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/roach88/lockstep/internal/harness"
	"github.com/roach88/lockstep/internal/store"
)

// CheckOptions holds flags for the check commands.
type CheckOptions struct {
	*RootOptions
	Horizon  int
	MaxSteps int64
	Seed     uint64
	Runs     int
	Workers  int
	Shrink   bool

	// IDGenerator allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator store.IDGenerator
}

// CheckResult is the JSON payload of a check command.
type CheckResult struct {
	Report *harness.Report `json:"report"`
	RunID  string          `json:"run_id,omitempty"`
}

// NewCheckCommand creates the check command and its strategy subcommands.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return newCheckCommand(&CheckOptions{RootOptions: rootOpts})
}

func newCheckCommand(opts *CheckOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Search for noninterference violations",
		Long: `Search for input sequences that break low equivalence, control
equivalence or noninterference.

Strategies:
  exhaustive - breadth-first over every reachable pair state; a fixpoint is a proof
  inductive  - one step from every pair satisfying the invariant; a pass is a proof
  random     - seeded random sequences; can only refute

Exit codes:
  0 - Property proved
  1 - Counterexample found, or search inconclusive
  2 - Command error

Examples:
  lockstep check exhaustive --mode armed --horizon 10
  lockstep check inductive --mode guarded --workers 8
  lockstep check random --seed 42 --runs 5000 --shrink --db ./runs.db`,
	}

	cmd.PersistentFlags().IntVar(&opts.Horizon, "horizon", harness.DefaultHorizon, "search depth or sequence length")
	cmd.PersistentFlags().Int64Var(&opts.MaxSteps, "max-steps", 0, "total step budget (0 = unlimited)")

	cmd.AddCommand(newCheckStrategyCommand(opts, harness.StrategyExhaustive, "Breadth-first search from reset", nil))
	cmd.AddCommand(newCheckStrategyCommand(opts, harness.StrategyInductive, "Check that the invariant is inductive", func(c *cobra.Command) {
		c.Flags().IntVar(&opts.Workers, "workers", 0, "parallel workers (0 = GOMAXPROCS)")
	}))
	cmd.AddCommand(newCheckStrategyCommand(opts, harness.StrategyRandom, "Seeded random sequences", func(c *cobra.Command) {
		c.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed")
		c.Flags().IntVar(&opts.Runs, "runs", harness.DefaultRuns, "number of sequences")
		c.Flags().BoolVar(&opts.Shrink, "shrink", false, "minimize the counterexample")
	}))

	return cmd
}

func newCheckStrategyCommand(opts *CheckOptions, strategy harness.Strategy, short string, flags func(*cobra.Command)) *cobra.Command {
	cmd := &cobra.Command{
		Use:           string(strategy),
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, strategy, cmd)
		},
	}
	if flags != nil {
		flags(cmd)
	}
	return cmd
}

func runCheck(opts *CheckOptions, strategy harness.Strategy, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	mode, err := opts.skipMode()
	if err != nil {
		return err
	}
	cfg := harness.Config{
		Mode:     mode,
		Horizon:  opts.Horizon,
		MaxSteps: opts.MaxSteps,
		Alphabet: harness.Alphabet(),
		Seed:     opts.Seed,
		Runs:     opts.Runs,
		Shrink:   opts.Shrink,
		Workers:  opts.Workers,
		Logger:   opts.logger(cmd.ErrOrStderr()),
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	formatter.VerboseLog("Running %s check (mode=%s)", strategy, mode)

	var report *harness.Report
	switch strategy {
	case harness.StrategyExhaustive:
		report, err = harness.Exhaustive(ctx, cfg)
	case harness.StrategyInductive:
		report, err = harness.Inductive(ctx, cfg)
	case harness.StrategyRandom:
		report, err = harness.Random(ctx, cfg)
	default:
		err = fmt.Errorf("unknown strategy %q", strategy)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("%s check failed", strategy), err)
	}

	result := CheckResult{Report: report}
	if st != nil {
		gen := opts.IDGenerator
		if gen == nil {
			gen = store.UUIDv7Generator{}
		}
		run, err := recordReport(ctx, st, gen, report, cfg)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		result.RunID = run.ID
	}

	if formatter.Format == "json" {
		if err := formatter.Verdict(report.Verdict, verdictMessage(report), result); err != nil {
			return err
		}
	} else {
		outputCheckText(formatter, result)
	}
	return verdictError(report.Verdict, fmt.Sprintf("%s check", strategy))
}

func verdictMessage(r *harness.Report) string {
	switch r.Verdict {
	case harness.VerdictFail:
		return fmt.Sprintf("%s violated", r.Counterexample.Predicate())
	case harness.VerdictInconclusive:
		return r.Reason
	}
	return ""
}

// outputCheckText prints a report for humans.
func outputCheckText(formatter *OutputFormatter, result CheckResult) {
	w := formatter.Writer
	r := result.Report

	mark := "✓"
	if r.Verdict != harness.VerdictPass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s (%s): %s\n", mark, r.Strategy, r.Mode, r.Verdict)
	fmt.Fprintf(w, "  horizon: %d  depth: %d  steps: %d  states: %d\n",
		r.Horizon, r.Depth, r.StepsRun, r.StatesExplored)
	if r.Reason != "" {
		fmt.Fprintf(w, "  reason: %s\n", r.Reason)
	}

	if cx := r.Counterexample; cx != nil {
		fmt.Fprintf(w, "\nCounterexample %s (%d step(s)):\n", shortID(cx.ID), len(cx.Steps))
		fmt.Fprintf(w, "  cpu1: %s\n", cx.Start.CPU1)
		fmt.Fprintf(w, "  cpu2: %s\n", cx.Start.CPU2)
		printSteps(w, "  ", cx.Steps)
		for _, v := range cx.Failure.Violations {
			fmt.Fprintf(w, "  ✗ %s\n", v)
		}
	}

	if result.RunID != "" {
		fmt.Fprintf(w, "\nRecorded run %s\n", result.RunID)
	}
}
