package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestJoinIsLogicalOr(t *testing.T) {
	labels := []Label{LabelLow, LabelHigh}
	for _, a := range labels {
		for _, b := range labels {
			want := LabelLow
			if a == LabelHigh || b == LabelHigh {
				want = LabelHigh
			}
			assert.Equal(t, want, Join(a, b), "Join(%s, %s)", a, b)
			assert.Equal(t, Join(a, b), Join(b, a), "join is commutative")
		}
	}
}

func TestClassifyAlwaysHigh(t *testing.T) {
	for _, v := range []Value{Low(false), Low(true), High(false), High(true)} {
		c := Classify(v)
		assert.Equal(t, LabelHigh, c.Label)
		assert.Equal(t, v.Bit, c.Bit)
	}
}

func TestLabelOfIsLowIntrospection(t *testing.T) {
	assert.Equal(t, Low(false), LabelOf(Low(true)))
	assert.Equal(t, Low(false), LabelOf(Low(false)))
	assert.Equal(t, Low(true), LabelOf(High(false)))
	assert.Equal(t, Low(true), LabelOf(High(true)))
}

func TestZeroValue(t *testing.T) {
	assert.Equal(t, Value{Bit: false, Label: LabelLow}, Zero)
	assert.False(t, Zero.IsHigh())
}

func TestLabelText(t *testing.T) {
	data, err := json.Marshal(High(true))
	require.NoError(t, err)
	assert.JSONEq(t, `{"bit":true,"label":"High"}`, string(data))

	var v Value
	require.NoError(t, yaml.Unmarshal([]byte("{bit: false, label: High}"), &v))
	assert.Equal(t, High(false), v)

	err = yaml.Unmarshal([]byte("{bit: true, label: Secret}"), &v)
	require.Error(t, err)

	_, err = Label(7).MarshalText()
	require.Error(t, err)
	assert.Equal(t, "Label(7)", Label(7).String())
}
