package ir

// Version constants recorded with stored runs and counterexamples.
const (
	// IRVersion is the counterexample schema version.
	IRVersion = "1"

	// EngineVersion is the transition engine version.
	EngineVersion = "0.1.0"
)
