package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows a future algorithm migration.
const (
	DomainCounterexample = "lockstep/counterexample/v1"
	DomainTrace          = "lockstep/trace/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CounterexampleID computes the content-addressed ID of a replayable
// counterexample: the two start states, the skip mode it was found under,
// and the literal step sequence. Replaying the same inputs always yields the
// same ID.
func CounterexampleID(cpu1, cpu2 State, mode string, steps []StepInput) (string, error) {
	obj := map[string]any{
		"cpu1":  cpu1.Canonical(),
		"cpu2":  cpu2.Canonical(),
		"mode":  mode,
		"steps": Steps(steps),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CounterexampleID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCounterexample, canonical), nil
}

// TraceHash fingerprints a canonical trace document, used to compare a
// replay against a stored or golden run.
func TraceHash(trace any) (string, error) {
	canonical, err := MarshalCanonical(trace)
	if err != nil {
		return "", fmt.Errorf("TraceHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}
