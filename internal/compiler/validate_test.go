package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lockstep/internal/ir"
)

func TestValidateValid(t *testing.T) {
	prog := &ir.Program{
		Name: "ok",
		Instructions: []ir.Instruction{
			ir.SkipNext(ir.RegInputLow),
			ir.Copy(ir.RegB, ir.RegOutputLow),
		},
	}
	assert.Empty(t, Validate(prog))
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		prog *ir.Program
		code string
	}{
		{
			name: "empty name",
			prog: &ir.Program{Instructions: []ir.Instruction{ir.Copy(ir.RegA, ir.RegB)}},
			code: ErrProgramNameEmpty,
		},
		{
			name: "no instructions",
			prog: &ir.Program{Name: "p"},
			code: ErrProgramEmpty,
		},
		{
			name: "read-only destination",
			prog: &ir.Program{Name: "p", Instructions: []ir.Instruction{ir.Copy(ir.RegA, ir.RegInputLow)}},
			code: ErrReadOnlyDestination,
		},
		{
			name: "unknown opcode",
			prog: &ir.Program{Name: "p", Instructions: []ir.Instruction{{Op: ir.Opcode(42)}}},
			code: ErrInvalidInstruction,
		},
		{
			name: "trailing skip",
			prog: &ir.Program{Name: "p", Instructions: []ir.Instruction{ir.SkipNext(ir.RegA)}},
			code: ErrTrailingSkip,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.prog)
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.code, errs[0].Code)
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	prog := &ir.Program{
		Name: "p",
		Instructions: []ir.Instruction{
			ir.Copy(ir.RegA, ir.RegZero),
			ir.Not(ir.RegA, ir.RegInputHigh),
		},
	}
	errs := Validate(prog)
	require.Len(t, errs, 2)
	assert.Equal(t, "instructions[0].dst", errs[0].Field)
	assert.Equal(t, "instructions[1].dst", errs[1].Field)
}

func TestValidateAllDuplicateNames(t *testing.T) {
	p := &ir.Program{Name: "p", Instructions: []ir.Instruction{ir.Copy(ir.RegA, ir.RegB)}}
	errs := ValidateAll([]*ir.Program{p, p})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateProgramName, errs[0].Code)
	assert.Equal(t, "programs[1].name", errs[0].Field)
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Field: "name", Message: "required", Code: ErrProgramNameEmpty}
	assert.Equal(t, "[E101] name: required", e.Error())
}
