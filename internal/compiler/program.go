package compiler

import (
	"fmt"
	"slices"

	"cuelang.org/go/cue"

	"github.com/roach88/lockstep/internal/ir"
)

var instructionFields = []string{"op", "src1", "src2", "dst"}

// CompileProgram parses a CUE value into a Program.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the program struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`program: leak: { instructions: [...] }`)
//	prog, err := CompileProgram(v.LookupPath(cue.ParsePath("program.leak")))
func CompileProgram(v cue.Value) (*ir.Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := checkFields(v, "program", []string{"description", "instructions"}); err != nil {
		return nil, err
	}

	prog := &ir.Program{}

	// Program name comes from the struct label
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		prog.Name = labels[len(labels)-1].String()
	}

	descVal := v.LookupPath(cue.ParsePath("description"))
	if descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		prog.Description = desc
	}

	instrVal := v.LookupPath(cue.ParsePath("instructions"))
	if !instrVal.Exists() {
		return nil, &CompileError{
			Field:   "instructions",
			Message: "instructions are required",
			Pos:     v.Pos(),
		}
	}
	iter, err := instrVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		instr, err := CompileInstruction(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("instructions[%d]: %w", i, err)
		}
		prog.Instructions = append(prog.Instructions, instr)
	}
	if len(prog.Instructions) == 0 {
		return nil, &CompileError{
			Field:   "instructions",
			Message: "at least one instruction is required",
			Pos:     instrVal.Pos(),
		}
	}

	return prog, nil
}

// CompileInstruction parses one {op, src1, src2, dst} struct.
//
// src2 is required for And/Or and rejected otherwise; dst is required for
// every opcode except SkipNext, which rejects it. Register names are
// checked here; whether a destination is writable is left to Validate.
func CompileInstruction(v cue.Value) (ir.Instruction, error) {
	var instr ir.Instruction
	if err := v.Err(); err != nil {
		return instr, formatCUEError(err)
	}
	if err := checkFields(v, "instruction", instructionFields); err != nil {
		return instr, err
	}

	opName, err := requiredString(v, "op")
	if err != nil {
		return instr, err
	}
	op, err := ir.ParseOpcode(opName)
	if err != nil {
		return instr, &CompileError{Field: "op", Message: err.Error(), Pos: v.LookupPath(cue.ParsePath("op")).Pos()}
	}
	instr.Op = op

	if instr.Src1, err = requiredRegister(v, "src1"); err != nil {
		return instr, err
	}

	src2 := v.LookupPath(cue.ParsePath("src2"))
	switch {
	case op.Binary():
		if instr.Src2, err = requiredRegister(v, "src2"); err != nil {
			return instr, err
		}
	case src2.Exists():
		return instr, &CompileError{
			Field:   "src2",
			Message: fmt.Sprintf("%s takes one source operand", op),
			Pos:     src2.Pos(),
		}
	}

	dst := v.LookupPath(cue.ParsePath("dst"))
	switch {
	case op.Writes():
		if instr.Dst, err = requiredRegister(v, "dst"); err != nil {
			return instr, err
		}
	case dst.Exists():
		return instr, &CompileError{
			Field:   "dst",
			Message: fmt.Sprintf("%s does not write a register", op),
			Pos:     dst.Pos(),
		}
	}

	return instr, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func requiredRegister(v cue.Value, field string) (ir.Register, error) {
	name, err := requiredString(v, field)
	if err != nil {
		return 0, err
	}
	r, err := ir.ParseRegister(name)
	if err != nil {
		return 0, &CompileError{
			Field:   field,
			Message: err.Error(),
			Pos:     v.LookupPath(cue.ParsePath(field)).Pos(),
		}
	}
	return r, nil
}

// checkFields rejects struct fields outside allowed, so that typos such as
// "scr1" fail instead of silently defaulting.
func checkFields(v cue.Value, what string, allowed []string) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if !slices.Contains(allowed, iter.Label()) {
			return &CompileError{
				Field:   iter.Label(),
				Message: fmt.Sprintf("unknown %s field %q", what, iter.Label()),
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return nil
}
