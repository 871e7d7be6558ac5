package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/oracle"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string              // Expectation that failed
	Expected string              // Human-readable expected outcome
	Actual   string              // Human-readable actual outcome
	Trace    []oracle.StepResult // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, r := range e.Trace {
			status := "ok"
			if !r.Pass() {
				status = string(r.Violations[0].Predicate)
			}
			fmt.Fprintf(&buf, "  [%d] %-32s low=%t/%t %s\n", r.Step, r.Input.Instr, r.Low1, r.Low2, status)
		}
	}

	return buf.String()
}

// Expectation names used in AssertionError.Type.
const (
	ExpectVerdict       = "verdict"
	ExpectPredicate     = "predicate"
	ExpectStep          = "step"
	ExpectRegister      = "register"
	ExpectStartRejected = "start_rejected"
)

// evaluateExpect checks every expectation and returns all failures.
func evaluateExpect(want ExpectClause, got *ScenarioResult) []error {
	var errs []error

	if err := assertStartRejected(want, got); err != nil {
		errs = append(errs, err)
	}
	if want.StartRejected {
		// Nothing ran; the remaining expectations describe the start check.
		if want.Predicate != "" && len(got.StartRejected) > 0 {
			if err := assertPredicateIn(want.Predicate, got.StartRejected, nil); err != nil {
				errs = append(errs, err)
			}
		}
		return errs
	}

	if want.Verdict != "" && want.Verdict != got.Verdict {
		errs = append(errs, &AssertionError{
			Type:     ExpectVerdict,
			Expected: string(want.Verdict),
			Actual:   string(got.Verdict),
			Trace:    got.Trace,
		})
	}
	if got.FirstFailure < 0 {
		if want.Predicate != "" || want.Step != nil || want.Register != "" {
			errs = append(errs, &AssertionError{
				Type:     ExpectPredicate,
				Expected: "a failing step",
				Actual:   "every step passed",
				Trace:    got.Trace,
			})
		}
		return errs
	}

	failure := got.Trace[got.FirstFailure]
	if want.Step != nil && *want.Step != failure.Step {
		errs = append(errs, &AssertionError{
			Type:     ExpectStep,
			Expected: fmt.Sprintf("first failure at step %d", *want.Step),
			Actual:   fmt.Sprintf("first failure at step %d", failure.Step),
			Trace:    got.Trace,
		})
	}
	if want.Predicate != "" {
		if err := assertPredicateIn(want.Predicate, failure.Violations, got.Trace); err != nil {
			errs = append(errs, err)
		}
	}
	if want.Register != "" {
		if err := assertRegister(want.Register, failure.Violations, got.Trace); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func assertStartRejected(want ExpectClause, got *ScenarioResult) error {
	rejected := len(got.StartRejected) > 0
	if want.StartRejected == rejected {
		return nil
	}
	actual := "start accepted"
	if rejected {
		actual = fmt.Sprintf("start rejected: %s", got.StartRejected[0])
	}
	return &AssertionError{
		Type:     ExpectStartRejected,
		Expected: fmt.Sprintf("start_rejected=%t", want.StartRejected),
		Actual:   actual,
		Trace:    got.Trace,
	}
}

func assertPredicateIn(want oracle.Predicate, vs []oracle.Violation, trace []oracle.StepResult) error {
	for _, v := range vs {
		if v.Predicate == want {
			return nil
		}
	}
	return &AssertionError{
		Type:     ExpectPredicate,
		Expected: string(want),
		Actual:   describeViolations(vs),
		Trace:    trace,
	}
}

func assertRegister(want string, vs []oracle.Violation, trace []oracle.StepResult) error {
	for _, v := range vs {
		if v.Predicate == oracle.PredicateLowEquivalence && v.Register.String() == want {
			return nil
		}
		// noninterference is observed on OutputLow
		if v.Predicate == oracle.PredicateNoninterference && want == ir.RegOutputLow.String() {
			return nil
		}
	}
	return &AssertionError{
		Type:     ExpectRegister,
		Expected: want,
		Actual:   describeViolations(vs),
		Trace:    trace,
	}
}

func describeViolations(vs []oracle.Violation) string {
	if len(vs) == 0 {
		return "no violations"
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}
