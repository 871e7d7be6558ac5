package compiler

import (
	"cuelang.org/go/cue"

	"github.com/roach88/lockstep/internal/ir"
)

// stateFields maps CUE field names to the mutable register they set.
var stateFields = map[string]ir.Register{
	"output_high": ir.RegOutputHigh,
	"output_low":  ir.RegOutputLow,
	"reg_a":       ir.RegA,
	"reg_b":       ir.RegB,
	"reg_c":       ir.RegC,
}

// CompileState parses a CUE value into a machine State. Omitted registers
// keep their reset value; a value's label defaults to Low.
//
//	state: leaky: {
//		reg_b: {bit: true, label: "Low"}
//	}
func CompileState(v cue.Value) (ir.State, error) {
	s := ir.ResetState()
	if err := v.Err(); err != nil {
		return s, formatCUEError(err)
	}

	iter, err := v.Fields()
	if err != nil {
		return s, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		if name == "skip_pending" {
			b, err := iter.Value().Bool()
			if err != nil {
				return s, formatCUEError(err)
			}
			s.SkipPending = b
			continue
		}
		reg, ok := stateFields[name]
		if !ok {
			return s, &CompileError{
				Field:   name,
				Message: "unknown state field " + name,
				Pos:     iter.Value().Pos(),
			}
		}
		val, err := compileValue(iter.Value())
		if err != nil {
			return s, err
		}
		s, _ = s.With(reg, val)
	}
	return s, nil
}

// compileValue parses {bit: bool, label?: "Low"|"High"}.
func compileValue(v cue.Value) (ir.Value, error) {
	var out ir.Value
	if err := checkFields(v, "value", []string{"bit", "label"}); err != nil {
		return out, err
	}

	bitVal := v.LookupPath(cue.ParsePath("bit"))
	if !bitVal.Exists() {
		return out, &CompileError{
			Field:   "bit",
			Message: "bit is required",
			Pos:     v.Pos(),
		}
	}
	bit, err := bitVal.Bool()
	if err != nil {
		return out, formatCUEError(err)
	}
	out.Bit = bit

	labelVal := v.LookupPath(cue.ParsePath("label"))
	if labelVal.Exists() {
		name, err := labelVal.String()
		if err != nil {
			return out, formatCUEError(err)
		}
		label, err := ir.ParseLabel(name)
		if err != nil {
			return out, &CompileError{Field: "label", Message: err.Error(), Pos: labelVal.Pos()}
		}
		out.Label = label
	}
	return out, nil
}
