package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/lockstep/internal/ir"
)

// marshalStart converts the start pair to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalStart(cpu1, cpu2 ir.State) (string, error) {
	data, err := ir.MarshalCanonical(map[string]any{
		"cpu1": cpu1.Canonical(),
		"cpu2": cpu2.Canonical(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal start: %w", err)
	}
	return string(data), nil
}

// marshalSteps converts a step sequence to canonical JSON TEXT for storage.
func marshalSteps(steps []ir.StepInput) (string, error) {
	data, err := ir.MarshalCanonical(ir.Steps(steps))
	if err != nil {
		return "", fmt.Errorf("marshal steps: %w", err)
	}
	return string(data), nil
}

// marshalConfig converts run configuration to canonical JSON TEXT.
func marshalConfig(cfg map[string]any) (string, error) {
	if cfg == nil {
		cfg = map[string]any{}
	}
	data, err := ir.MarshalCanonical(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(data), nil
}

// unmarshalStart parses a stored start pair. State, Value and the register
// and label enums decode from the same field names and strings the
// canonical form writes.
func unmarshalStart(data string) (cpu1, cpu2 ir.State, err error) {
	var pair struct {
		CPU1 ir.State `json:"cpu1"`
		CPU2 ir.State `json:"cpu2"`
	}
	if err := json.Unmarshal([]byte(data), &pair); err != nil {
		return cpu1, cpu2, fmt.Errorf("unmarshal start: %w", err)
	}
	return pair.CPU1, pair.CPU2, nil
}

// unmarshalSteps parses a stored step sequence. Operands the canonical form
// omits decode to their zero value.
func unmarshalSteps(data string) ([]ir.StepInput, error) {
	var steps []ir.StepInput
	if err := json.Unmarshal([]byte(data), &steps); err != nil {
		return nil, fmt.Errorf("unmarshal steps: %w", err)
	}
	if steps == nil {
		steps = []ir.StepInput{}
	}
	return steps, nil
}

// unmarshalConfig parses stored run configuration. Numbers decode as
// json.Number so seeds above 2^53 survive.
func unmarshalConfig(data string) (map[string]any, error) {
	var cfg map[string]any
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
