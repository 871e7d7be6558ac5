package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestResetState(t *testing.T) {
	s := ResetState()
	for _, r := range MutableRegisters {
		assert.Equal(t, Zero, s.MustGet(r), r.String())
	}
	assert.False(t, s.SkipPending)
	assert.Equal(t, uint32(0), s.Key())
}

func TestStateGetWithMutable(t *testing.T) {
	for _, r := range MutableRegisters {
		s, ok := ResetState().With(r, High(true))
		require.True(t, ok, r.String())

		got, ok := s.Get(r)
		require.True(t, ok)
		assert.Equal(t, High(true), got)

		for _, other := range MutableRegisters {
			if other != r {
				assert.Equal(t, Zero, s.MustGet(other), "%s leaked into %s", r, other)
			}
		}
	}
}

func TestStateRejectsReadOnly(t *testing.T) {
	for _, r := range []Register{RegZero, RegInputHigh, RegInputLow, Register(42)} {
		_, ok := ResetState().Get(r)
		assert.False(t, ok, r.String())

		s, ok := ResetState().With(r, High(true))
		assert.False(t, ok, r.String())
		assert.Equal(t, ResetState(), s)
	}
	assert.Panics(t, func() { ResetState().MustGet(RegZero) })
}

func TestStateKeyRoundTrip(t *testing.T) {
	for k := uint32(0); k < 1<<StateKeyBits; k++ {
		s := StateFromKey(k)
		require.Equal(t, k, s.Key(), "key %d", k)
	}
}

func TestStateYAML(t *testing.T) {
	var s State
	err := yaml.Unmarshal([]byte(`
reg_a: {bit: true, label: Low}
reg_c: {bit: true, label: High}
skip_pending: true
`), &s)
	require.NoError(t, err)
	assert.Equal(t, Low(true), s.RegA)
	assert.Equal(t, High(true), s.RegC)
	assert.Equal(t, Zero, s.RegB)
	assert.True(t, s.SkipPending)
}
