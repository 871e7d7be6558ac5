package harness

import "github.com/roach88/lockstep/internal/ir"

// Alphabet enumerates every well-formed instruction exactly once: unary
// writers over all sources and mutable destinations, binary writers over
// all source pairs, and SkipNext over all conditions. Operands an opcode
// does not read are left at their zero value.
func Alphabet() []ir.Instruction {
	var out []ir.Instruction
	for _, op := range ir.Opcodes {
		switch {
		case op == ir.OpSkipNext:
			for _, src := range ir.Registers {
				out = append(out, ir.Instruction{Op: op, Src1: src})
			}
		case op.Binary():
			for _, a := range ir.Registers {
				for _, b := range ir.Registers {
					for _, dst := range ir.MutableRegisters {
						out = append(out, ir.Instruction{Op: op, Src1: a, Src2: b, Dst: dst})
					}
				}
			}
		default:
			for _, src := range ir.Registers {
				for _, dst := range ir.MutableRegisters {
					out = append(out, ir.Instruction{Op: op, Src1: src, Dst: dst})
				}
			}
		}
	}
	return out
}

// inputCombos is the number of (high1, high2, low) assignments per step.
const inputCombos = 8

// stepInput expands combo bits into a StepInput for instr.
func stepInput(instr ir.Instruction, combo int) ir.StepInput {
	return ir.StepInput{
		Instr: instr,
		High1: combo&1 != 0,
		High2: combo&2 != 0,
		Low:   combo&4 != 0,
	}
}
