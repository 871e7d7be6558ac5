package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lockstep/internal/ir"
)

func TestCompileProgramBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		program: implicit_flow: {
			description: "skip on a high bit"
			instructions: [
				{op: "SkipNext", src1: "InputHigh"},
				{op: "Not", src1: "Zero", dst: "OutputLow"},
				{op: "Copy", src1: "Zero", dst: "OutputLow"},
			]
		}
	`)
	require.NoError(t, v.Err())

	prog, err := CompileProgram(v.LookupPath(cue.ParsePath("program.implicit_flow")))
	require.NoError(t, err)

	assert.Equal(t, "implicit_flow", prog.Name)
	assert.Equal(t, "skip on a high bit", prog.Description)
	assert.Equal(t, []ir.Instruction{
		ir.SkipNext(ir.RegInputHigh),
		ir.Not(ir.RegZero, ir.RegOutputLow),
		ir.Copy(ir.RegZero, ir.RegOutputLow),
	}, prog.Instructions)
}

func TestCompileInstructionBinary(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`{op: "And", src1: "RegA", src2: "InputLow", dst: "RegC"}`)

	instr, err := CompileInstruction(v)
	require.NoError(t, err)
	assert.Equal(t, ir.And(ir.RegA, ir.RegInputLow, ir.RegC), instr)
}

func TestCompileInstructionErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"missing op", `{src1: "RegA", dst: "RegB"}`, "op"},
		{"unknown op", `{op: "Xor", src1: "RegA", dst: "RegB"}`, "op"},
		{"missing src1", `{op: "Copy", dst: "RegB"}`, "src1"},
		{"unknown register", `{op: "Copy", src1: "RegD", dst: "RegB"}`, "src1"},
		{"binary without src2", `{op: "Or", src1: "RegA", dst: "RegB"}`, "src2"},
		{"unary with src2", `{op: "Not", src1: "RegA", src2: "RegB", dst: "RegC"}`, "src2"},
		{"writer without dst", `{op: "Classify", src1: "RegA"}`, "dst"},
		{"skip with dst", `{op: "SkipNext", src1: "RegA", dst: "RegB"}`, "dst"},
		{"typo field", `{op: "Copy", scr1: "RegA", dst: "RegB"}`, "scr1"},
	}
	ctx := cuecontext.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ctx.CompileString(tt.src)
			require.NoError(t, v.Err())

			_, err := CompileInstruction(v)
			require.Error(t, err)
			var ce *CompileError
			require.True(t, errors.As(err, &ce), "error should be *CompileError: %v", err)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileInstructionWrongType(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`{op: 7, src1: "RegA", dst: "RegB"}`)
	require.NoError(t, v.Err())

	_, err := CompileInstruction(v)
	require.Error(t, err)
}

func TestCompileProgramMissingInstructions(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`program: empty: { description: "nothing" }`)
	require.NoError(t, v.Err())

	_, err := CompileProgram(v.LookupPath(cue.ParsePath("program.empty")))
	require.Error(t, err)
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "instructions", ce.Field)
}

func TestCompileProgramEmptyInstructions(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`program: empty: { instructions: [] }`)
	require.NoError(t, v.Err())

	_, err := CompileProgram(v.LookupPath(cue.ParsePath("program.empty")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one instruction")
}

func TestCompileProgramInstructionIndex(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		program: p: {
			instructions: [
				{op: "Copy", src1: "RegA", dst: "RegB"},
				{op: "Copy", src1: "Nowhere", dst: "RegB"},
			]
		}
	`)
	require.NoError(t, v.Err())

	_, err := CompileProgram(v.LookupPath(cue.ParsePath("program.p")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instructions[1]")
}

func TestCompileState(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		state: s: {
			reg_b: {bit: true, label: "Low"}
			output_high: {bit: true, label: "High"}
			reg_c: {bit: true}
			skip_pending: true
		}
	`)
	require.NoError(t, v.Err())

	s, err := CompileState(v.LookupPath(cue.ParsePath("state.s")))
	require.NoError(t, err)

	want := ir.ResetState()
	want.RegB = ir.Low(true)
	want.OutputHigh = ir.High(true)
	want.RegC = ir.Low(true)
	want.SkipPending = true
	assert.Equal(t, want, s)
}

func TestCompileStateErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"read-only register", `{input_low: {bit: true}}`},
		{"missing bit", `{reg_a: {label: "High"}}`},
		{"bad label", `{reg_a: {bit: true, label: "Secret"}}`},
		{"extra field", `{reg_a: {bit: true, colour: "red"}}`},
		{"non-bool bit", `{reg_a: {bit: 1}}`},
	}
	ctx := cuecontext.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ctx.CompileString(tt.src)
			require.NoError(t, v.Err())

			_, err := CompileState(v)
			require.Error(t, err)
		})
	}
}

func TestCompileBundle(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		program: b: { instructions: [{op: "Copy", src1: "RegB", dst: "OutputLow"}] }
		program: a: { instructions: [{op: "Classify", src1: "InputLow", dst: "RegA"}] }
		state: leaky: { reg_b: {bit: true} }
		helper: 1
	`)
	require.NoError(t, v.Err())

	b, err := CompileBundle(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, b.ProgramNames())
	assert.Equal(t, []string{"leaky"}, b.StateNames())
	assert.Equal(t, ir.Low(true), b.States["leaky"].RegB)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leak.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
program: leak: {
	instructions: [
		{op: "Copy", src1: "RegB", dst: "OutputLow"},
	]
}
`), 0o644))

	b, err := LoadFile(path)
	require.NoError(t, err)
	require.Contains(t, b.Programs, "leak")
	assert.Equal(t, ir.Copy(ir.RegB, ir.RegOutputLow), b.Programs["leak"].Instructions[0])
}

func TestLoadFileSyntaxError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.cue")
	require.NoError(t, os.WriteFile(path, []byte("program: { this is not valid CUE\n"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read CUE file")
}

func TestBundleMergeDuplicate(t *testing.T) {
	a := NewBundle()
	a.Programs["p"] = &ir.Program{Name: "p"}
	b := NewBundle()
	b.Programs["p"] = &ir.Program{Name: "p"}

	err := a.Merge(b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate program")

	c := NewBundle()
	c.States["s"] = ir.ResetState()
	require.NoError(t, a.Merge(c))
	assert.Contains(t, a.States, "s")
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{
		Field:   "dst",
		Message: "dst is required",
	}
	assert.Equal(t, "dst: dst is required", err.Error())
}
