package compiler

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/lockstep/internal/ir"
)

// Bundle holds the named programs and start states declared in CUE.
type Bundle struct {
	Programs map[string]*ir.Program
	States   map[string]ir.State
}

// NewBundle returns an empty bundle.
func NewBundle() *Bundle {
	return &Bundle{
		Programs: make(map[string]*ir.Program),
		States:   make(map[string]ir.State),
	}
}

// CompileBundle compiles every program.<name> and state.<name> under v.
// Other top-level fields are ignored so files may carry helper definitions.
func CompileBundle(v cue.Value) (*Bundle, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	b := NewBundle()

	programsVal := v.LookupPath(cue.ParsePath("program"))
	if programsVal.Exists() {
		iter, err := programsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			prog, err := CompileProgram(iter.Value())
			if err != nil {
				return nil, fmt.Errorf("program.%s: %w", iter.Label(), err)
			}
			b.Programs[prog.Name] = prog
		}
	}

	statesVal := v.LookupPath(cue.ParsePath("state"))
	if statesVal.Exists() {
		iter, err := statesVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			s, err := CompileState(iter.Value())
			if err != nil {
				return nil, fmt.Errorf("state.%s: %w", iter.Label(), err)
			}
			b.States[iter.Label()] = s
		}
	}

	return b, nil
}

// LoadFile compiles a single CUE file into a Bundle.
func LoadFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CUE file: %w", err)
	}
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileBundle(v)
}

// Merge adds other's programs and states to b. Names must be unique across
// files.
func (b *Bundle) Merge(other *Bundle) error {
	for name, p := range other.Programs {
		if _, dup := b.Programs[name]; dup {
			return fmt.Errorf("duplicate program %q", name)
		}
		b.Programs[name] = p
	}
	for name, s := range other.States {
		if _, dup := b.States[name]; dup {
			return fmt.Errorf("duplicate state %q", name)
		}
		b.States[name] = s
	}
	return nil
}

// ProgramNames returns program names in sorted order.
func (b *Bundle) ProgramNames() []string {
	return slices.Sorted(maps.Keys(b.Programs))
}

// StateNames returns state names in sorted order.
func (b *Bundle) StateNames() []string {
	return slices.Sorted(maps.Keys(b.States))
}
