package oracle

import (
	"fmt"

	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/ir"
)

// Predicate names one of the properties the oracle evaluates.
type Predicate string

const (
	PredicateLowEquivalence     Predicate = "low_equivalence"
	PredicateControlEquivalence Predicate = "control_equivalence"
	PredicateNoninterference    Predicate = "noninterference"
)

// Predicates lists every predicate in evaluation order.
var Predicates = []Predicate{
	PredicateLowEquivalence,
	PredicateControlEquivalence,
	PredicateNoninterference,
}

// Violation describes one failed predicate.
type Violation struct {
	Predicate Predicate `json:"predicate" yaml:"predicate"`

	// Register is the first register that broke low equivalence.
	// Zero (omitted) for the other predicates.
	Register ir.Register `json:"register,omitempty" yaml:"register,omitempty"`

	// Detail is a human-readable account of the two diverging values.
	Detail string `json:"detail" yaml:"detail"`
}

func (v Violation) String() string {
	if v.Predicate == PredicateLowEquivalence {
		return fmt.Sprintf("%s at %s: %s", v.Predicate, v.Register, v.Detail)
	}
	return fmt.Sprintf("%s: %s", v.Predicate, v.Detail)
}

// CheckLowEquivalence reports the first mutable register that is labeled
// Low in either state but differs between them. ok is true when every
// register satisfies the predicate.
func CheckLowEquivalence(a, b ir.State) (reg ir.Register, ok bool) {
	for _, r := range ir.MutableRegisters {
		va, vb := a.MustGet(r), b.MustGet(r)
		if (!va.IsHigh() || !vb.IsHigh()) && va != vb {
			return r, false
		}
	}
	return 0, true
}

// CheckControlEquivalence reports whether both states agree on the skip
// hazard flag.
func CheckControlEquivalence(a, b ir.State) bool {
	return a.SkipPending == b.SkipPending
}

// CheckNoninterference reports whether both states expose the same low
// output.
func CheckNoninterference(a, b ir.State) bool {
	return engine.LowOutput(a) == engine.LowOutput(b)
}

// CheckInvariant evaluates the inductive invariant (low and control
// equivalence) and returns its violations, if any.
func CheckInvariant(a, b ir.State) []Violation {
	var out []Violation
	if r, ok := CheckLowEquivalence(a, b); !ok {
		out = append(out, Violation{
			Predicate: PredicateLowEquivalence,
			Register:  r,
			Detail:    fmt.Sprintf("cpu1=%s cpu2=%s", a.MustGet(r), b.MustGet(r)),
		})
	}
	if !CheckControlEquivalence(a, b) {
		out = append(out, Violation{
			Predicate: PredicateControlEquivalence,
			Detail:    fmt.Sprintf("cpu1 skip=%t cpu2 skip=%t", a.SkipPending, b.SkipPending),
		})
	}
	return out
}

// Evaluate runs every predicate against a pair of post-step states.
func Evaluate(a, b ir.State) []Violation {
	out := CheckInvariant(a, b)
	if !CheckNoninterference(a, b) {
		out = append(out, Violation{
			Predicate: PredicateNoninterference,
			Detail:    fmt.Sprintf("low outputs cpu1=%t cpu2=%t", engine.LowOutput(a), engine.LowOutput(b)),
		})
	}
	return out
}
