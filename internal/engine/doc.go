// Package engine implements the labeled-register transition function.
//
// Step is a pure function from (state, high input, low input, instruction)
// to the next state. It never mutates its argument, never blocks, and fails
// fast with an *OperandError when an instruction names a register or opcode
// outside the closed enumerations or writes to a read-only register.
//
// # Label propagation
//
//	Copy      result = src1
//	Not       bit = !src1.bit,             label = src1.label
//	And       bit = src1.bit && src2.bit,  label = join(src1, src2)
//	Or        bit = src1.bit || src2.bit,  label = join(src1, src2)
//	Classify  bit = src1.bit,              label = High
//	LabelOf   bit = src1.label == High,    label = Low
//	SkipNext  no write; may arm the skip hazard (see SkipMode)
//
// # Skip hazard
//
// A pending skip suppresses every effect of the next instruction and is then
// cleared. Whether SkipNext arms it is selected by SkipMode. SkipArmed arms
// from the condition bit regardless of its label, which is an implicit flow:
// a High condition decides whether a Low write happens. SkipDisabled never
// arms. SkipGuarded arms only on Low conditions.
//
// # Output exposure
//
// LowOutput is the single enforcement point for the public sink: it reads as
// false whenever the stored OutputLow is labeled High.
package engine
