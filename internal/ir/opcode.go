package ir

import "fmt"

// Opcode is one of the seven instructions the machine decodes.
type Opcode uint8

const (
	OpCopy Opcode = iota
	OpNot
	OpAnd
	OpOr
	OpClassify
	OpLabelOf
	OpSkipNext

	numOpcodes
)

var opcodeNames = [numOpcodes]string{
	OpCopy:     "Copy",
	OpNot:      "Not",
	OpAnd:      "And",
	OpOr:       "Or",
	OpClassify: "Classify",
	OpLabelOf:  "LabelOf",
	OpSkipNext: "SkipNext",
}

// Opcodes lists every opcode in declaration order.
var Opcodes = []Opcode{OpCopy, OpNot, OpAnd, OpOr, OpClassify, OpLabelOf, OpSkipNext}

// Valid reports whether op is inside the closed enumeration.
func (op Opcode) Valid() bool {
	return op < numOpcodes
}

// Binary reports whether op reads Src2.
func (op Opcode) Binary() bool {
	return op == OpAnd || op == OpOr
}

// Writes reports whether op writes its result to Dst.
func (op Opcode) Writes() bool {
	return op.Valid() && op != OpSkipNext
}

func (op Opcode) String() string {
	if !op.Valid() {
		return fmt.Sprintf("Opcode(%d)", uint8(op))
	}
	return opcodeNames[op]
}

// MarshalText implements encoding.TextMarshaler.
func (op Opcode) MarshalText() ([]byte, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("invalid opcode %d", uint8(op))
	}
	return []byte(opcodeNames[op]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (op *Opcode) UnmarshalText(text []byte) error {
	parsed, err := ParseOpcode(string(text))
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}

// ParseOpcode maps an opcode mnemonic to its Opcode.
func ParseOpcode(name string) (Opcode, error) {
	for i, n := range opcodeNames {
		if n == name {
			return Opcode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown opcode %q", name)
}
