package ir

import "fmt"

// Label is a security classification. The zero value is Low.
type Label uint8

const (
	LabelLow Label = iota
	LabelHigh
)

// Valid reports whether l is one of the two lattice points.
func (l Label) Valid() bool {
	return l == LabelLow || l == LabelHigh
}

// String returns "Low" or "High".
func (l Label) String() string {
	switch l {
	case LabelLow:
		return "Low"
	case LabelHigh:
		return "High"
	default:
		return fmt.Sprintf("Label(%d)", uint8(l))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Label) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid label %d", uint8(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Label) UnmarshalText(text []byte) error {
	parsed, err := ParseLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLabel parses "Low" or "High".
func ParseLabel(s string) (Label, error) {
	switch s {
	case "Low":
		return LabelLow, nil
	case "High":
		return LabelHigh, nil
	}
	return 0, fmt.Errorf("unknown label %q (want Low or High)", s)
}

// Join is the least upper bound of a and b: High if either is High.
func Join(a, b Label) Label {
	if a == LabelHigh || b == LabelHigh {
		return LabelHigh
	}
	return LabelLow
}

// Value is a labeled boolean. Every register holds exactly one Value.
type Value struct {
	Bit   bool  `json:"bit" yaml:"bit"`
	Label Label `json:"label" yaml:"label"`
}

// Zero is the canonical {false, Low} value.
var Zero = Value{}

// Low returns bit labeled Low.
func Low(bit bool) Value {
	return Value{Bit: bit, Label: LabelLow}
}

// High returns bit labeled High.
func High(bit bool) Value {
	return Value{Bit: bit, Label: LabelHigh}
}

// IsHigh reports whether v carries the High label.
func (v Value) IsHigh() bool {
	return v.Label == LabelHigh
}

// Classify raises v to High without changing its bit.
// This is the only operation that changes a label.
func Classify(v Value) Value {
	return Value{Bit: v.Bit, Label: LabelHigh}
}

// LabelOf exposes whether v is classified. The result is always Low: it
// reveals the label, never the bit.
func LabelOf(v Value) Value {
	return Value{Bit: v.Label == LabelHigh, Label: LabelLow}
}

// String renders v as "1/Low", "0/High", etc.
func (v Value) String() string {
	b := 0
	if v.Bit {
		b = 1
	}
	return fmt.Sprintf("%d/%s", b, v.Label)
}

// bits packs v into two bits: bit 0 is the value, bit 1 the label.
func (v Value) bits() uint32 {
	var k uint32
	if v.Bit {
		k |= 1
	}
	if v.Label == LabelHigh {
		k |= 2
	}
	return k
}

func valueFromBits(k uint32) Value {
	v := Value{Bit: k&1 != 0}
	if k&2 != 0 {
		v.Label = LabelHigh
	}
	return v
}
