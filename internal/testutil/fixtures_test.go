package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/ir"
)

func TestLeakyPairDiffersOnlyInRegB(t *testing.T) {
	cpu1, cpu2 := LeakyPair()
	assert.NotEqual(t, cpu1.RegB, cpu2.RegB)
	cpu2.RegB = cpu1.RegB
	assert.Equal(t, cpu1, cpu2)
}

func TestSmallAlphabetWellFormed(t *testing.T) {
	seen := make(map[ir.Instruction]bool)
	for _, instr := range SmallAlphabet() {
		assert.NoError(t, engine.Validate(instr), instr.String())
		assert.False(t, seen[instr], "duplicate %s", instr)
		seen[instr] = true
	}
}

func TestImplicitFlowShape(t *testing.T) {
	steps := ImplicitFlow()
	assert.Len(t, steps, 3)
	assert.Equal(t, ir.OpSkipNext, steps[0].Instr.Op)
	for _, s := range steps {
		assert.NotEqual(t, s.High1, s.High2)
		assert.False(t, s.Low)
	}
}

func TestCounterexampleIDMatchesIR(t *testing.T) {
	cpu1, cpu2 := LeakyPair()
	steps := []ir.StepInput{LeakStep()}

	want, err := ir.CounterexampleID(cpu1, cpu2, "disabled", steps)
	assert.NoError(t, err)
	assert.Equal(t, want, CounterexampleID(cpu1, cpu2, "disabled", steps))
}
