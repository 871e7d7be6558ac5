package ir

import "fmt"

// Register names one of the eight machine registers.
//
// Zero, InputHigh and InputLow are read-only: they are rebuilt from the
// channel inputs on every step and are never stored. The remaining five are
// the mutable registers held in State.
type Register uint8

const (
	RegZero Register = iota
	RegInputHigh
	RegInputLow
	RegOutputHigh
	RegOutputLow
	RegA
	RegB
	RegC

	numRegisters
)

var registerNames = [numRegisters]string{
	RegZero:       "Zero",
	RegInputHigh:  "InputHigh",
	RegInputLow:   "InputLow",
	RegOutputHigh: "OutputHigh",
	RegOutputLow:  "OutputLow",
	RegA:          "RegA",
	RegB:          "RegB",
	RegC:          "RegC",
}

// Registers lists all eight registers in declaration order.
var Registers = []Register{
	RegZero, RegInputHigh, RegInputLow,
	RegOutputHigh, RegOutputLow, RegA, RegB, RegC,
}

// MutableRegisters lists the five stored registers in declaration order.
var MutableRegisters = []Register{RegOutputHigh, RegOutputLow, RegA, RegB, RegC}

// Valid reports whether r is inside the closed enumeration.
func (r Register) Valid() bool {
	return r < numRegisters
}

// ReadOnly reports whether r is computed from inputs rather than stored.
func (r Register) ReadOnly() bool {
	return r == RegZero || r == RegInputHigh || r == RegInputLow
}

// Mutable reports whether r is a valid write-back destination.
func (r Register) Mutable() bool {
	return r.Valid() && !r.ReadOnly()
}

func (r Register) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Register(%d)", uint8(r))
	}
	return registerNames[r]
}

// MarshalText implements encoding.TextMarshaler.
func (r Register) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid register %d", uint8(r))
	}
	return []byte(registerNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Register) UnmarshalText(text []byte) error {
	parsed, err := ParseRegister(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRegister maps a register name to its Register.
func ParseRegister(name string) (Register, error) {
	for i, n := range registerNames {
		if n == name {
			return Register(i), nil
		}
	}
	return 0, fmt.Errorf("unknown register %q", name)
}
