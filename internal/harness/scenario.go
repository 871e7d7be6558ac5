package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/oracle"
)

// Scenario defines a differential test: a public instruction stream, the
// high and low inputs fed alongside it, and the expected verdict.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Programs lists CUE files declaring programs and start states.
	// Paths are relative to the scenario file location.
	Programs []string `yaml:"programs,omitempty"`

	// Program selects a program from Programs. Exactly one of Program and
	// Instructions must be set.
	Program string `yaml:"program,omitempty"`

	// Instructions is an inline instruction stream.
	Instructions []ir.Instruction `yaml:"instructions,omitempty"`

	// Mode selects SkipNext semantics. Default: disabled.
	Mode engine.SkipMode `yaml:"mode,omitempty"`

	// Start overrides the reset pair.
	Start *StartSpec `yaml:"start,omitempty"`

	// Inputs gives the per-step inputs. Steps without an entry get all
	// inputs false; more inputs than instructions is an error.
	Inputs []InputSpec `yaml:"inputs,omitempty"`

	// Expect is the expected outcome.
	Expect ExpectClause `yaml:"expect"`
}

// StartSpec gives start states inline or by reference to a CUE state.
// A machine with neither starts at reset.
type StartSpec struct {
	CPU1    *ir.State `yaml:"cpu1,omitempty"`
	CPU2    *ir.State `yaml:"cpu2,omitempty"`
	CPU1Ref string    `yaml:"cpu1_ref,omitempty"`
	CPU2Ref string    `yaml:"cpu2_ref,omitempty"`

	// Check rejects a start pair that violates the invariant.
	Check bool `yaml:"check,omitempty"`
}

// InputSpec is one step's inputs.
type InputSpec struct {
	High1 bool `yaml:"high1"`
	High2 bool `yaml:"high2"`
	Low   bool `yaml:"low"`
}

// ExpectClause specifies the expected outcome.
type ExpectClause struct {
	// Verdict is "pass" or "fail".
	Verdict Verdict `yaml:"verdict"`

	// Predicate must be among the violations at the first failing step.
	Predicate oracle.Predicate `yaml:"predicate,omitempty"`

	// Step is the expected 0-based index of the first failing step.
	Step *int `yaml:"step,omitempty"`

	// Register is the expected low-equivalence register.
	Register string `yaml:"register,omitempty"`

	// StartRejected expects the start check to refuse the pair.
	StartRejected bool `yaml:"start_rejected,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file, resolving program
// paths relative to the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "expects:" vs "expect:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, p := range scenario.Programs {
		if !filepath.IsAbs(p) {
			scenario.Programs[i] = filepath.Join(base, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, in lexical order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}
	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Program == "" && len(s.Instructions) == 0:
		return fmt.Errorf("one of program or instructions is required")
	case s.Program != "" && len(s.Instructions) > 0:
		return fmt.Errorf("program and instructions are mutually exclusive")
	case s.Program != "" && len(s.Programs) == 0:
		return fmt.Errorf("program %q needs a programs list", s.Program)
	}

	for _, p := range s.Programs {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("program file not found: %s", p)
		}
	}

	if s.Start != nil {
		if s.Start.CPU1 != nil && s.Start.CPU1Ref != "" {
			return fmt.Errorf("start: cpu1 and cpu1_ref are mutually exclusive")
		}
		if s.Start.CPU2 != nil && s.Start.CPU2Ref != "" {
			return fmt.Errorf("start: cpu2 and cpu2_ref are mutually exclusive")
		}
	}

	switch s.Expect.Verdict {
	case VerdictPass:
		if s.Expect.Predicate != "" || s.Expect.Step != nil || s.Expect.Register != "" {
			return fmt.Errorf("expect: predicate, step and register only apply to fail")
		}
	case VerdictFail:
	case "":
		if !s.Expect.StartRejected {
			return fmt.Errorf("expect.verdict is required")
		}
	default:
		return fmt.Errorf("expect.verdict must be pass or fail, got %q", s.Expect.Verdict)
	}

	if s.Expect.StartRejected && (s.Start == nil || !s.Start.Check) {
		return fmt.Errorf("expect.start_rejected needs start.check")
	}
	if s.Expect.Register != "" {
		if _, err := ir.ParseRegister(s.Expect.Register); err != nil {
			return fmt.Errorf("expect.register: %w", err)
		}
	}
	if s.Expect.Predicate != "" && !validPredicate(s.Expect.Predicate) {
		return fmt.Errorf("expect.predicate: unknown predicate %q", s.Expect.Predicate)
	}
	return nil
}

func validPredicate(p oracle.Predicate) bool {
	for _, q := range oracle.Predicates {
		if p == q {
			return true
		}
	}
	return false
}
