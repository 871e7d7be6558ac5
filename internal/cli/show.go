package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/lockstep/internal/store"
)

// ShowResult lists recorded runs and their counterexamples.
type ShowResult struct {
	Runs            []store.Run            `json:"runs"`
	Counterexamples []store.Counterexample `json:"counterexamples"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [cx-id]",
		Short: "Show recorded runs and counterexamples",
		Long: `List the runs recorded with --db, or print one counterexample.

A counterexample may be named by a unique ID prefix.

Examples:
  lockstep show --db ./runs.db
  lockstep show --db ./runs.db 3f2a9c`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runShowCounterexample(rootOpts, args[0], cmd)
			}
			return runShowRuns(rootOpts, cmd)
		},
	}
	return cmd
}

func runShowRuns(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := context.Background()

	st, err := opts.requireStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	cxs, err := st.ListCounterexamples(ctx, "")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list counterexamples", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(ShowResult{Runs: runs, Counterexamples: cxs})
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	byRun := make(map[string][]store.Counterexample)
	for _, cx := range cxs {
		byRun[cx.RunID] = append(byRun[cx.RunID], cx)
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %-10s %-8s %-12s steps=%d states=%d\n",
			shortID(r.ID), r.Strategy, r.Mode, r.Verdict, r.StepsRun, r.StatesExplored)
		for _, cx := range byRun[r.ID] {
			fmt.Fprintf(w, "  cx %s  %s", shortID(cx.ID), cx.Predicate)
			if cx.Register != "" {
				fmt.Fprintf(w, " (%s)", cx.Register)
			}
			fmt.Fprintf(w, " after %d step(s)\n", len(cx.Steps))
		}
	}
	return nil
}

func runShowCounterexample(opts *RootOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := context.Background()

	st, err := opts.requireStore()
	if err != nil {
		return err
	}
	defer st.Close()

	cx, err := st.FindCounterexample(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrAmbiguousID) {
			return WrapExitError(ExitCommandError, fmt.Sprintf("ambiguous counterexample ID %q", id), err)
		}
		return WrapExitError(ExitCommandError, fmt.Sprintf("counterexample %q not found", id), err)
	}

	if formatter.Format == "json" {
		return formatter.Success(cx)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Counterexample %s\n", cx.ID)
	fmt.Fprintf(w, "  run:       %s\n", cx.RunID)
	fmt.Fprintf(w, "  mode:      %s\n", cx.Mode)
	fmt.Fprintf(w, "  predicate: %s\n", cx.Predicate)
	if cx.Register != "" {
		fmt.Fprintf(w, "  register:  %s\n", cx.Register)
	}
	fmt.Fprintf(w, "  step:      %d\n", cx.Step)
	fmt.Fprintf(w, "  cpu1:      %s\n", cx.CPU1)
	fmt.Fprintf(w, "  cpu2:      %s\n", cx.CPU2)
	fmt.Fprintln(w, "  steps:")
	printSteps(w, "    ", cx.Steps)
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
