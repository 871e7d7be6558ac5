package harness

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/oracle"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
	require.NoError(t, err)
	return s
}

func TestScenariosGolden(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			for _, e := range result.Errors {
				t.Error(e)
			}
			assert.True(t, result.Passed())
		})
	}
}

func TestRunImplicitFlowArmed(t *testing.T) {
	result, err := RunScenario(loadTestScenario(t, "implicit_flow_armed"))
	require.NoError(t, err)

	assert.Equal(t, VerdictFail, result.Verdict)
	assert.Equal(t, 0, result.FirstFailure)
	require.Len(t, result.Trace, 3, "violations do not stop the run")
	assert.False(t, result.Trace[1].Low1)
	assert.True(t, result.Trace[1].Low2)
	assert.True(t, result.Trace[2].Pass())
}

func TestRunStartRejected(t *testing.T) {
	result, err := RunScenario(loadTestScenario(t, "leaky_start_rejected"))
	require.NoError(t, err)

	assert.Equal(t, VerdictFail, result.Verdict)
	assert.Empty(t, result.Trace)
	require.Len(t, result.StartRejected, 1)
	assert.Equal(t, oracle.PredicateLowEquivalence, result.StartRejected[0].Predicate)
	assert.Equal(t, ir.RegB, result.StartRejected[0].Register)
	assert.True(t, result.Passed())
}

func TestRunLeakyStartDirect(t *testing.T) {
	result, err := RunScenario(loadTestScenario(t, "leaky_start_direct"))
	require.NoError(t, err)

	require.Len(t, result.Trace, 1)
	assert.True(t, result.Trace[0].Low1)
	assert.False(t, result.Trace[0].Low2)
	assert.Equal(t, ir.Low(true), result.Start.CPU1.RegB)
	assert.Equal(t, ir.Low(false), result.Start.CPU2.RegB)
	assert.True(t, result.Passed())
}

func TestRunReportsUnmetExpectations(t *testing.T) {
	s := loadTestScenario(t, "implicit_flow_disabled")
	s.Mode = engine.SkipArmed

	result, err := RunScenario(s)
	require.NoError(t, err)
	require.False(t, result.Passed())

	var ae *AssertionError
	require.ErrorAs(t, result.Errors[0], &ae)
	assert.Equal(t, ExpectVerdict, ae.Type)
	assert.Equal(t, "pass", ae.Expected)
	assert.Equal(t, "fail", ae.Actual)
}

func TestRunMissingInputsDefaultFalse(t *testing.T) {
	s := &Scenario{
		Name:         "defaults",
		Instructions: []ir.Instruction{ir.Copy(ir.RegInputHigh, ir.RegA), ir.Copy(ir.RegInputLow, ir.RegB)},
		Inputs:       []InputSpec{{High1: true}},
		Expect:       ExpectClause{Verdict: VerdictPass},
	}
	result, err := RunScenario(s)
	require.NoError(t, err)
	require.Len(t, result.Steps, 2)
	assert.True(t, result.Steps[0].High1)
	assert.Equal(t, ir.StepInput{Instr: s.Instructions[1]}, result.Steps[1])
	assert.True(t, result.Passed())
}

func TestRunTooManyInputs(t *testing.T) {
	s := &Scenario{
		Name:         "extra",
		Instructions: []ir.Instruction{ir.Copy(ir.RegInputLow, ir.RegB)},
		Inputs:       []InputSpec{{}, {}},
		Expect:       ExpectClause{Verdict: VerdictPass},
	}
	_, err := RunScenario(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 inputs for 1 instructions")
}

func TestRunInvalidOperand(t *testing.T) {
	s := &Scenario{
		Name:         "bad",
		Instructions: []ir.Instruction{ir.Copy(ir.RegA, ir.RegZero)},
		Expect:       ExpectClause{Verdict: VerdictPass},
	}
	_, err := RunScenario(s)
	require.Error(t, err)
	assert.True(t, engine.IsInvalidOperand(err))
}

func TestRunUnknownReferences(t *testing.T) {
	s := loadTestScenario(t, "leaky_start_direct")
	s.Program = "missing"
	_, err := RunScenario(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `program "missing"`)

	s = loadTestScenario(t, "leaky_start_direct")
	s.Start.CPU2Ref = "missing"
	_, err = RunScenario(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `state "missing"`)
}

func TestRunnerLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	_, err := NewRunner(WithRunnerLogger(logger)).Run(loadTestScenario(t, "implicit_flow_guarded"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "scenario completed")
	assert.Contains(t, buf.String(), "scenario=implicit_flow_guarded")
}

func TestTraceJSONIsDeterministic(t *testing.T) {
	s := loadTestScenario(t, "implicit_flow_armed")
	a, err := RunScenario(s)
	require.NoError(t, err)
	b, err := RunScenario(s)
	require.NoError(t, err)

	ja, err := TraceJSON(a)
	require.NoError(t, err)
	jb, err := TraceJSON(b)
	require.NoError(t, err)
	assert.Equal(t, ja, jb)
	assert.Contains(t, string(ja), `"predicate":"control_equivalence"`)
}
