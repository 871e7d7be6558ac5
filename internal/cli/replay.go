package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/harness"
	"github.com/roach88/lockstep/internal/oracle"
	"github.com/roach88/lockstep/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	ID string // counterexample ID or unique prefix
}

// ReplayResult holds a replayed trace.
type ReplayResult struct {
	Source  string              `json:"source"` // scenario path or counterexample ID
	Mode    string              `json:"mode"`
	Start   harness.Pair        `json:"start"`
	Verdict harness.Verdict     `json:"verdict"`
	Trace   []oracle.StepResult `json:"trace"`

	// Reproduced is set for stored counterexamples: the last step shows
	// the recorded predicate again.
	Reproduced *bool `json:"reproduced,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [scenario.yaml]",
		Short: "Replay a scenario or a recorded counterexample",
		Long: `Re-execute a literal step sequence and print every step.

With a scenario file, its instructions and inputs are run in the
scenario's mode. With --id, a counterexample recorded by "check --db" is
loaded and replayed from its stored start pair, in its stored mode.

Exit codes:
  0 - No step violated a predicate
  1 - A predicate was violated (or a counterexample no longer reproduces)
  2 - Command error (file not found, unknown ID, etc.)

Examples:
  lockstep replay scenarios/implicit_flow_armed.yaml
  lockstep replay --db ./runs.db --id 3f2a9c`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case opts.ID != "" && len(args) > 0:
				return NewExitError(ExitCommandError, "give either a scenario file or --id, not both")
			case opts.ID != "":
				return runReplayID(opts, cmd)
			case len(args) == 1:
				return runReplayScenario(opts, args[0], cmd)
			}
			return NewExitError(ExitCommandError, "a scenario file or --id is required")
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "counterexample ID (or unique prefix) to replay from --db")

	return cmd
}

func runReplayScenario(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	runner := harness.NewRunner(harness.WithRunnerLogger(opts.logger(cmd.ErrOrStderr())))
	sr, err := runner.Run(scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	result := ReplayResult{
		Source:  path,
		Mode:    sr.Mode.String(),
		Start:   sr.Start,
		Verdict: sr.Verdict,
		Trace:   sr.Trace,
	}
	if len(sr.StartRejected) > 0 {
		formatter.VerboseLog("start rejected: %v", sr.StartRejected)
	}
	if err := outputReplay(formatter, result); err != nil {
		return err
	}
	return verdictError(result.Verdict, "replay")
}

func runReplayID(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := context.Background()

	st, err := opts.requireStore()
	if err != nil {
		return err
	}
	defer st.Close()

	cx, err := st.FindCounterexample(ctx, opts.ID)
	if err != nil {
		if errors.Is(err, store.ErrAmbiguousID) {
			return WrapExitError(ExitCommandError, fmt.Sprintf("ambiguous counterexample ID %q", opts.ID), err)
		}
		return WrapExitError(ExitCommandError, fmt.Sprintf("counterexample %q not found", opts.ID), err)
	}
	mode, err := engine.ParseSkipMode(cx.Mode)
	if err != nil {
		return WrapExitError(ExitCommandError, "stored counterexample has an unknown mode", err)
	}

	start := harness.Pair{CPU1: cx.CPU1, CPU2: cx.CPU2}
	trace, err := harness.Replay(start, cx.Steps, mode)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to replay counterexample", err)
	}

	result := ReplayResult{
		Source:  cx.ID,
		Mode:    cx.Mode,
		Start:   start,
		Verdict: harness.VerdictPass,
		Trace:   trace,
	}
	first := harness.FirstFailure(trace)
	if first >= 0 {
		result.Verdict = harness.VerdictFail
	}
	reproduced := first == len(trace)-1 && first >= 0 &&
		trace[first].Failed(oracle.Predicate(cx.Predicate))
	result.Reproduced = &reproduced

	if err := outputReplay(formatter, result); err != nil {
		return err
	}
	if !reproduced {
		return NewExitError(ExitFailure, fmt.Sprintf("counterexample %s did not reproduce %s", shortID(cx.ID), cx.Predicate))
	}
	return verdictError(result.Verdict, "replay")
}

// outputReplay prints the replayed trace.
func outputReplay(formatter *OutputFormatter, result ReplayResult) error {
	if formatter.Format == "json" {
		return formatter.Verdict(result.Verdict, fmt.Sprintf("replay of %s", result.Source), result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Replay %s (%s)\n", result.Source, result.Mode)
	fmt.Fprintf(w, "  cpu1: %s\n", result.Start.CPU1)
	fmt.Fprintf(w, "  cpu2: %s\n", result.Start.CPU2)
	printTrace(w, "  ", result.Trace)
	if result.Reproduced != nil {
		fmt.Fprintf(w, "  reproduced: %t\n", *result.Reproduced)
	}
	fmt.Fprintf(w, "Verdict: %s\n", result.Verdict)
	return nil
}
