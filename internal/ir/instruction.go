package ir

import "fmt"

// Instruction is one public, unlabeled machine instruction.
//
// Src2 is read only by binary opcodes (And, Or). Dst is ignored by SkipNext.
type Instruction struct {
	Op   Opcode   `json:"op" yaml:"op"`
	Src1 Register `json:"src1" yaml:"src1"`
	Src2 Register `json:"src2,omitempty" yaml:"src2,omitempty"`
	Dst  Register `json:"dst,omitempty" yaml:"dst,omitempty"`
}

// Copy builds "Copy src -> dst".
func Copy(src, dst Register) Instruction {
	return Instruction{Op: OpCopy, Src1: src, Dst: dst}
}

// Not builds "Not src -> dst".
func Not(src, dst Register) Instruction {
	return Instruction{Op: OpNot, Src1: src, Dst: dst}
}

// And builds "And a b -> dst".
func And(a, b, dst Register) Instruction {
	return Instruction{Op: OpAnd, Src1: a, Src2: b, Dst: dst}
}

// Or builds "Or a b -> dst".
func Or(a, b, dst Register) Instruction {
	return Instruction{Op: OpOr, Src1: a, Src2: b, Dst: dst}
}

// ClassifyInto builds "Classify src -> dst".
func ClassifyInto(src, dst Register) Instruction {
	return Instruction{Op: OpClassify, Src1: src, Dst: dst}
}

// LabelOfInto builds "LabelOf src -> dst".
func LabelOfInto(src, dst Register) Instruction {
	return Instruction{Op: OpLabelOf, Src1: src, Dst: dst}
}

// SkipNext builds "SkipNext cond".
func SkipNext(cond Register) Instruction {
	return Instruction{Op: OpSkipNext, Src1: cond}
}

// String renders the instruction in assembly form, e.g. "And RegA RegB -> OutputLow".
func (in Instruction) String() string {
	switch {
	case in.Op == OpSkipNext:
		return fmt.Sprintf("%s %s", in.Op, in.Src1)
	case in.Op.Binary():
		return fmt.Sprintf("%s %s %s -> %s", in.Op, in.Src1, in.Src2, in.Dst)
	default:
		return fmt.Sprintf("%s %s -> %s", in.Op, in.Src1, in.Dst)
	}
}

// Canonical returns the instruction as a canonical-JSON-ready map.
// Operands an opcode does not read are omitted so that equivalent
// instructions hash identically.
func (in Instruction) Canonical() any {
	m := map[string]any{
		"op":   in.Op.String(),
		"src1": in.Src1.String(),
	}
	if in.Op.Binary() {
		m["src2"] = in.Src2.String()
	}
	if in.Op.Writes() {
		m["dst"] = in.Dst.String()
	}
	return m
}

// StepInput is everything one differential step consumes: the shared
// instruction and low input, plus one high input per instance.
type StepInput struct {
	Instr Instruction `json:"instr" yaml:"instr"`
	High1 bool        `json:"high1" yaml:"high1"`
	High2 bool        `json:"high2" yaml:"high2"`
	Low   bool        `json:"low" yaml:"low"`
}

// Canonical returns the step input as a canonical-JSON-ready map.
func (s StepInput) Canonical() any {
	return map[string]any{
		"instr": s.Instr.Canonical(),
		"high1": s.High1,
		"high2": s.High2,
		"low":   s.Low,
	}
}

// Program is a named, public instruction stream.
type Program struct {
	Name         string        `json:"name" yaml:"name"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
	Instructions []Instruction `json:"instructions" yaml:"instructions"`
}
