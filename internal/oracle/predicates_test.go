package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lockstep/internal/ir"
)

func TestCheckLowEquivalence(t *testing.T) {
	tests := []struct {
		name string
		a, b ir.Value
		ok   bool
	}{
		{"equal low", ir.Low(true), ir.Low(true), true},
		{"different low", ir.Low(true), ir.Low(false), false},
		{"both high different bits", ir.High(true), ir.High(false), true},
		{"low vs high", ir.Low(false), ir.High(false), false},
		{"high vs low", ir.High(true), ir.Low(true), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, r := range ir.MutableRegisters {
				a, _ := ir.ResetState().With(r, tt.a)
				b, _ := ir.ResetState().With(r, tt.b)

				got, ok := CheckLowEquivalence(a, b)
				assert.Equal(t, tt.ok, ok, r.String())
				if !tt.ok {
					assert.Equal(t, r, got)
				}
			}
		})
	}
}

func TestCheckLowEquivalenceReportsFirstRegister(t *testing.T) {
	a := ir.State{RegA: ir.Low(true), RegC: ir.Low(true)}
	b := ir.State{}
	r, ok := CheckLowEquivalence(a, b)
	require.False(t, ok)
	assert.Equal(t, ir.RegA, r)
}

func TestCheckControlEquivalence(t *testing.T) {
	assert.True(t, CheckControlEquivalence(ir.State{}, ir.State{}))
	assert.False(t, CheckControlEquivalence(ir.State{SkipPending: true}, ir.State{}))
}

func TestCheckNoninterferenceUsesSanitizedOutput(t *testing.T) {
	assert.True(t, CheckNoninterference(ir.State{OutputLow: ir.High(true)}, ir.State{OutputLow: ir.High(false)}))
	assert.True(t, CheckNoninterference(ir.State{OutputLow: ir.High(true)}, ir.State{OutputLow: ir.Low(false)}))
	assert.False(t, CheckNoninterference(ir.State{OutputLow: ir.Low(true)}, ir.State{OutputLow: ir.Low(false)}))
}

func TestEvaluateCollectsAllPredicates(t *testing.T) {
	a := ir.State{OutputLow: ir.Low(true), SkipPending: true}
	b := ir.State{}

	vs := Evaluate(a, b)
	require.Len(t, vs, 3)
	assert.Equal(t, PredicateLowEquivalence, vs[0].Predicate)
	assert.Equal(t, ir.RegOutputLow, vs[0].Register)
	assert.Equal(t, PredicateControlEquivalence, vs[1].Predicate)
	assert.Equal(t, PredicateNoninterference, vs[2].Predicate)
	assert.Contains(t, vs[0].String(), "OutputLow")
}
