package oracle

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidStart is matched (via errors.Is) by a *StartError.
var ErrInvalidStart = errors.New("start states violate the low-equivalence invariant")

// StartError is returned by NewFromStates under WithStartCheck when the
// given pair could never be reached from reset.
type StartError struct {
	Violations []Violation
}

func (e *StartError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%v: %s", ErrInvalidStart, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrInvalidStart) succeed.
func (e *StartError) Is(target error) bool {
	return target == ErrInvalidStart
}

// PropertyViolation reports a failed predicate together with the full
// post-step snapshot. It is a test failure, not a process failure.
type PropertyViolation struct {
	Result StepResult
}

func (e *PropertyViolation) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "property violation at step %d (%s)", e.Result.Step, e.Result.Input.Instr)
	for _, v := range e.Result.Violations {
		fmt.Fprintf(&buf, "\n  %s", v)
	}
	fmt.Fprintf(&buf, "\n  cpu1: %s\n  cpu2: %s", e.Result.CPU1, e.Result.CPU2)
	return buf.String()
}

// IsPropertyViolation returns true if err is (or wraps) a *PropertyViolation.
func IsPropertyViolation(err error) bool {
	var pv *PropertyViolation
	return errors.As(err, &pv)
}
