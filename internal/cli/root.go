package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Mode     string // "disabled" | "armed" | "guarded"
	Database string // optional SQLite path
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the lockstep CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lockstep",
		Short: "lockstep - differential noninterference checking",
		Long: `Run two labeled-register machines in lockstep and check that secrets
never reach the low output.

Both machines share the instruction stream and the low input; each has its
own high input. After every step the low-equivalence invariant and
noninterference are checked.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if _, err := engine.ParseSkipMode(opts.Mode); err != nil {
				return WrapExitError(ExitCommandError, "invalid --mode", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Mode, "mode", "disabled", "SkipNext semantics (disabled|armed|guarded)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database for recorded runs")

	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// skipMode parses the --mode flag. An empty flag means disabled.
func (o *RootOptions) skipMode() (engine.SkipMode, error) {
	if o.Mode == "" {
		return engine.SkipDisabled, nil
	}
	mode, err := engine.ParseSkipMode(o.Mode)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, "invalid --mode", err)
	}
	return mode, nil
}

// logger returns a text logger on w when --verbose is set, otherwise a
// logger that discards everything.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	if !o.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// openStore opens --db, creating it if needed. It returns nil when no
// database was given.
func (o *RootOptions) openStore() (*store.Store, error) {
	if o.Database == "" {
		return nil, nil
	}
	st, err := store.Open(o.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// requireStore is openStore for commands that only read recorded runs.
func (o *RootOptions) requireStore() (*store.Store, error) {
	if o.Database == "" {
		return nil, NewExitError(ExitCommandError, "--db is required")
	}
	return o.openStore()
}
