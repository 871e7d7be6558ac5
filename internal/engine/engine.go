package engine

import (
	"fmt"

	"github.com/roach88/lockstep/internal/ir"
)

// SkipMode selects how SkipNext arms the hazard flag.
type SkipMode uint8

const (
	// SkipDisabled never arms the hazard. This is the reference behavior.
	SkipDisabled SkipMode = iota

	// SkipArmed arms the hazard from the condition bit. Leaks High
	// conditions into Low state; kept to reproduce the implicit flow.
	SkipArmed

	// SkipGuarded arms the hazard from the condition bit only when the
	// condition is labeled Low.
	SkipGuarded

	numSkipModes
)

var skipModeNames = [numSkipModes]string{
	SkipDisabled: "disabled",
	SkipArmed:    "armed",
	SkipGuarded:  "guarded",
}

// SkipModes lists every mode in declaration order.
var SkipModes = []SkipMode{SkipDisabled, SkipArmed, SkipGuarded}

// Valid reports whether m is a known mode.
func (m SkipMode) Valid() bool {
	return m < numSkipModes
}

func (m SkipMode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("SkipMode(%d)", uint8(m))
	}
	return skipModeNames[m]
}

// MarshalText implements encoding.TextMarshaler.
func (m SkipMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid skip mode %d", uint8(m))
	}
	return []byte(skipModeNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *SkipMode) UnmarshalText(text []byte) error {
	parsed, err := ParseSkipMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseSkipMode parses "disabled", "armed" or "guarded".
func ParseSkipMode(s string) (SkipMode, error) {
	for i, n := range skipModeNames {
		if n == s {
			return SkipMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown skip mode %q (want one of %v)", s, skipModeNames)
}

// Reset returns the reset state regardless of inputs.
func Reset() ir.State {
	return ir.ResetState()
}

// Step executes one instruction against s and returns the next state.
//
// On error the returned state is s, unchanged. Errors are always
// *OperandError and indicate a malformed instruction or mode, never a
// property of the data being processed.
func Step(s ir.State, high, low bool, instr ir.Instruction, mode SkipMode) (ir.State, error) {
	if err := Validate(instr); err != nil {
		return s, err
	}
	if !mode.Valid() {
		return s, newModeError(mode)
	}

	next := s
	next.SkipPending = false
	if s.SkipPending {
		// The pending skip consumes this instruction entirely.
		return next, nil
	}

	src1, err := lookup(s, high, low, instr.Src1)
	if err != nil {
		return s, err
	}

	if instr.Op == ir.OpSkipNext {
		next.SkipPending = arms(mode, src1)
		return next, nil
	}

	var src2 ir.Value
	if instr.Op.Binary() {
		if src2, err = lookup(s, high, low, instr.Src2); err != nil {
			return s, err
		}
	}

	result, err := compute(instr.Op, src1, src2)
	if err != nil {
		return s, err
	}

	next, ok := next.With(instr.Dst, result)
	if !ok {
		return s, newReadOnlyError(instr)
	}
	return next, nil
}

// Validate checks that instr only uses members of the closed enumerations,
// reads Src2 only when meaningful, and writes only mutable registers.
func Validate(instr ir.Instruction) error {
	if !instr.Op.Valid() {
		return newOperandError(instr, "op", fmt.Sprintf("opcode %d outside the instruction set", uint8(instr.Op)))
	}
	if !instr.Src1.Valid() {
		return newOperandError(instr, "src1", fmt.Sprintf("register %d does not exist", uint8(instr.Src1)))
	}
	if instr.Op.Binary() && !instr.Src2.Valid() {
		return newOperandError(instr, "src2", fmt.Sprintf("register %d does not exist", uint8(instr.Src2)))
	}
	if instr.Op.Writes() {
		if !instr.Dst.Valid() {
			return newOperandError(instr, "dst", fmt.Sprintf("register %d does not exist", uint8(instr.Dst)))
		}
		if instr.Dst.ReadOnly() {
			return newReadOnlyError(instr)
		}
	}
	return nil
}

// LowOutput is the externally observable low output of s. A High-labeled
// OutputLow is never exposed: it reads as false.
func LowOutput(s ir.State) bool {
	if s.OutputLow.Label == ir.LabelHigh {
		return false
	}
	return s.OutputLow.Bit
}

// HighOutput is the externally observable high output of s. The high sink
// is not a leak target, so it is exposed as stored.
func HighOutput(s ir.State) bool {
	return s.OutputHigh.Bit
}

// lookup resolves a register name against the ephemeral read-only
// registers and the stored state.
func lookup(s ir.State, high, low bool, r ir.Register) (ir.Value, error) {
	switch r {
	case ir.RegZero:
		return ir.Zero, nil
	case ir.RegInputHigh:
		return ir.High(high), nil
	case ir.RegInputLow:
		return ir.Low(low), nil
	case ir.RegOutputHigh:
		return s.OutputHigh, nil
	case ir.RegOutputLow:
		return s.OutputLow, nil
	case ir.RegA:
		return s.RegA, nil
	case ir.RegB:
		return s.RegB, nil
	case ir.RegC:
		return s.RegC, nil
	}
	return ir.Value{}, &OperandError{
		Code:    ErrCodeInvalidOperand,
		Message: fmt.Sprintf("register %d does not exist", uint8(r)),
	}
}

// compute applies a writing opcode to its operands.
func compute(op ir.Opcode, a, b ir.Value) (ir.Value, error) {
	switch op {
	case ir.OpCopy:
		return a, nil
	case ir.OpNot:
		return ir.Value{Bit: !a.Bit, Label: a.Label}, nil
	case ir.OpAnd:
		return ir.Value{Bit: a.Bit && b.Bit, Label: ir.Join(a.Label, b.Label)}, nil
	case ir.OpOr:
		return ir.Value{Bit: a.Bit || b.Bit, Label: ir.Join(a.Label, b.Label)}, nil
	case ir.OpClassify:
		return ir.Classify(a), nil
	case ir.OpLabelOf:
		return ir.LabelOf(a), nil
	}
	return ir.Value{}, &OperandError{
		Code:    ErrCodeInvalidOperand,
		Message: fmt.Sprintf("opcode %s produces no result", op),
	}
}

// arms decides the next skip flag for a SkipNext with condition cond.
func arms(mode SkipMode, cond ir.Value) bool {
	switch mode {
	case SkipArmed:
		return cond.Bit
	case SkipGuarded:
		return cond.Bit && cond.Label == ir.LabelLow
	default:
		return false
	}
}
