package ir

import "fmt"

// State is the stored part of one machine: the five mutable registers and
// the skip hazard flag. It is a plain value; copying it snapshots it.
type State struct {
	OutputHigh  Value `json:"output_high" yaml:"output_high"`
	OutputLow   Value `json:"output_low" yaml:"output_low"`
	RegA        Value `json:"reg_a" yaml:"reg_a"`
	RegB        Value `json:"reg_b" yaml:"reg_b"`
	RegC        Value `json:"reg_c" yaml:"reg_c"`
	SkipPending bool  `json:"skip_pending" yaml:"skip_pending"`
}

// StateKeyBits is the width of State.Key: two bits per mutable register
// plus the skip flag.
const StateKeyBits = 2*5 + 1

// ResetState returns the canonical reset state: every mutable register
// {false, Low} and no skip pending.
func ResetState() State {
	return State{}
}

// Get returns the stored value of a mutable register.
// ok is false for read-only or out-of-range registers.
func (s State) Get(r Register) (v Value, ok bool) {
	switch r {
	case RegOutputHigh:
		return s.OutputHigh, true
	case RegOutputLow:
		return s.OutputLow, true
	case RegA:
		return s.RegA, true
	case RegB:
		return s.RegB, true
	case RegC:
		return s.RegC, true
	}
	return Value{}, false
}

// With returns a copy of s with register r set to v.
// ok is false (and s is returned unchanged) for read-only or out-of-range
// registers.
func (s State) With(r Register, v Value) (next State, ok bool) {
	switch r {
	case RegOutputHigh:
		s.OutputHigh = v
	case RegOutputLow:
		s.OutputLow = v
	case RegA:
		s.RegA = v
	case RegB:
		s.RegB = v
	case RegC:
		s.RegC = v
	default:
		return s, false
	}
	return s, true
}

// MustGet is Get for registers known to be mutable.
func (s State) MustGet(r Register) Value {
	v, ok := s.Get(r)
	if !ok {
		panic(fmt.Sprintf("ir: %s is not a stored register", r))
	}
	return v
}

// Key packs s into StateKeyBits bits. Distinct states have distinct keys.
func (s State) Key() uint32 {
	k := s.OutputHigh.bits() |
		s.OutputLow.bits()<<2 |
		s.RegA.bits()<<4 |
		s.RegB.bits()<<6 |
		s.RegC.bits()<<8
	if s.SkipPending {
		k |= 1 << 10
	}
	return k
}

// StateFromKey is the inverse of State.Key.
func StateFromKey(k uint32) State {
	return State{
		OutputHigh:  valueFromBits(k & 3),
		OutputLow:   valueFromBits(k >> 2 & 3),
		RegA:        valueFromBits(k >> 4 & 3),
		RegB:        valueFromBits(k >> 6 & 3),
		RegC:        valueFromBits(k >> 8 & 3),
		SkipPending: k&(1<<10) != 0,
	}
}

// String renders s compactly, e.g. "oh=0/Low ol=1/Low a=0/Low b=0/Low c=1/High skip=false".
func (s State) String() string {
	return fmt.Sprintf("oh=%s ol=%s a=%s b=%s c=%s skip=%t",
		s.OutputHigh, s.OutputLow, s.RegA, s.RegB, s.RegC, s.SkipPending)
}

// Canonical returns s as a canonical-JSON-ready map.
func (s State) Canonical() any {
	return map[string]any{
		"output_high":  s.OutputHigh.Canonical(),
		"output_low":   s.OutputLow.Canonical(),
		"reg_a":        s.RegA.Canonical(),
		"reg_b":        s.RegB.Canonical(),
		"reg_c":        s.RegC.Canonical(),
		"skip_pending": s.SkipPending,
	}
}

// Canonical returns v as a canonical-JSON-ready map.
func (v Value) Canonical() any {
	return map[string]any{
		"bit":   v.Bit,
		"label": v.Label.String(),
	}
}
