package store

import "github.com/roach88/lockstep/internal/ir"

// Run records one verification run and its verdict.
type Run struct {
	ID             string `json:"id"`
	Strategy       string `json:"strategy"`
	Mode           string `json:"mode"`
	Verdict        string `json:"verdict"`
	Horizon        int    `json:"horizon"`
	StepsRun       int64  `json:"steps_run"`
	StatesExplored int    `json:"states_explored"`
	Reason         string `json:"reason,omitempty"`

	// Config is the run's knobs (seed, runs, workers, ...) as canonical
	// JSON, so a run can be repeated.
	Config map[string]any `json:"config"`

	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`

	// Seq is assigned by WriteRun.
	Seq int64 `json:"seq"`
}

// Counterexample is a stored, replayable failing sequence.
type Counterexample struct {
	// ID is ir.CounterexampleID over (CPU1, CPU2, Mode, Steps).
	ID    string `json:"id"`
	RunID string `json:"run_id"`
	Mode  string `json:"mode"`

	// Predicate and Register describe the first violation at the last step.
	Predicate string `json:"predicate"`
	Register  string `json:"register,omitempty"`

	// Step is the 0-based index of the failing step (len(Steps)-1).
	Step int `json:"step"`

	CPU1  ir.State       `json:"cpu1"`
	CPU2  ir.State       `json:"cpu2"`
	Steps []ir.StepInput `json:"steps"`

	// Seq is assigned by WriteCounterexample.
	Seq int64 `json:"seq"`
}
