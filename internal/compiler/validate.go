package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrProgramNameEmpty     = "E101" // program name is required
	ErrProgramEmpty         = "E102" // at least one instruction required
	ErrInvalidInstruction   = "E103" // opcode or operand out of range
	ErrReadOnlyDestination  = "E104" // write to Zero/InputHigh/InputLow
	ErrTrailingSkip         = "E105" // SkipNext as last instruction
	ErrDuplicateProgramName = "E106" // duplicate program name in a set
)

// ValidationError represents a program validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled program against the machine's rules.
// Returns all errors found (does not fail-fast).
func Validate(prog *ir.Program) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(prog.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "program name is required and must be non-empty",
			Code:    ErrProgramNameEmpty,
		})
	}

	if len(prog.Instructions) == 0 {
		errs = append(errs, ValidationError{
			Field:   "instructions",
			Message: "at least one instruction is required",
			Code:    ErrProgramEmpty,
		})
		return errs
	}

	for i, instr := range prog.Instructions {
		field := fmt.Sprintf("instructions[%d]", i)
		err := engine.Validate(instr)
		switch {
		case err == nil:
		case engine.IsReadOnlyDestination(err):
			errs = append(errs, ValidationError{
				Field:   field + ".dst",
				Message: fmt.Sprintf("%s is read-only", instr.Dst),
				Code:    ErrReadOnlyDestination,
			})
		default:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: err.Error(),
				Code:    ErrInvalidInstruction,
			})
		}
	}

	// A trailing SkipNext arms a skip that nothing consumes.
	if last := prog.Instructions[len(prog.Instructions)-1]; last.Op == ir.OpSkipNext {
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("instructions[%d]", len(prog.Instructions)-1),
			Message: "SkipNext as the last instruction has no effect",
			Code:    ErrTrailingSkip,
		})
	}

	return errs
}

// ValidateAll validates every program and also rejects duplicate names.
func ValidateAll(progs []*ir.Program) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for i, p := range progs {
		if seen[p.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("programs[%d].name", i),
				Message: fmt.Sprintf("duplicate program name: %q", p.Name),
				Code:    ErrDuplicateProgramName,
			})
		}
		seen[p.Name] = true
		for _, e := range Validate(p) {
			e.Field = fmt.Sprintf("programs[%d].%s", i, e.Field)
			errs = append(errs, e)
		}
	}
	return errs
}
