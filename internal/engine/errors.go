package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/lockstep/internal/ir"
)

// OperandError reports an instruction the machine refuses to execute.
//
// Operand errors are contract violations by the caller: the instruction
// names a register or opcode outside the closed enumerations, or writes a
// read-only register. They abort the step instead of defaulting silently.
type OperandError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Instr is the rejected instruction.
	Instr ir.Instruction

	// Field names the offending operand ("op", "src1", "src2", "dst").
	Field string
}

// ErrorCode categorizes operand errors.
type ErrorCode string

const (
	// ErrCodeInvalidOperand indicates a register or opcode outside its enumeration.
	ErrCodeInvalidOperand ErrorCode = "INVALID_OPERAND"

	// ErrCodeReadOnlyDestination indicates a write to Zero, InputHigh or InputLow.
	ErrCodeReadOnlyDestination ErrorCode = "READ_ONLY_DESTINATION"

	// ErrCodeInvalidMode indicates an unknown SkipMode.
	ErrCodeInvalidMode ErrorCode = "INVALID_MODE"
)

// Error implements the error interface.
func (e *OperandError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidOperand returns true if err is (or wraps) an *OperandError.
// Every operand error code is a contract violation.
func IsInvalidOperand(err error) bool {
	var oe *OperandError
	return errors.As(err, &oe)
}

// IsReadOnlyDestination returns true if err is an operand error for a write
// to a read-only register.
func IsReadOnlyDestination(err error) bool {
	var oe *OperandError
	if errors.As(err, &oe) {
		return oe.Code == ErrCodeReadOnlyDestination
	}
	return false
}

func newOperandError(instr ir.Instruction, field, msg string) *OperandError {
	return &OperandError{
		Code:    ErrCodeInvalidOperand,
		Message: msg,
		Instr:   instr,
		Field:   field,
	}
}

func newReadOnlyError(instr ir.Instruction) *OperandError {
	return &OperandError{
		Code:    ErrCodeReadOnlyDestination,
		Message: fmt.Sprintf("%s is read-only", instr.Dst),
		Instr:   instr,
		Field:   "dst",
	}
}

func newModeError(mode SkipMode) *OperandError {
	return &OperandError{
		Code:    ErrCodeInvalidMode,
		Message: fmt.Sprintf("skip mode %d is not defined", uint8(mode)),
	}
}
