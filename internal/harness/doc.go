// Package harness evaluates the lockstep properties over many input
// sequences and reports a verdict.
//
// Four strategies produce sequences:
//
//   - Exhaustive: breadth-first search over deduplicated pair states from
//     the start pair. Emptying the frontier is a proof.
//   - Inductive: one step from every pair satisfying the invariant,
//     reachable or not. A pass is a proof for every depth.
//   - Random: seeded random sequences, optionally shrunk. Can only refute.
//   - Replay: re-execution of a literal sequence.
//
// Verdicts are Pass, Fail or Inconclusive. An exhausted horizon or step
// budget is Inconclusive and never reported as Pass.
//
// Scenarios are YAML files naming a CUE program, start states, per-step
// inputs and the expected outcome. RunScenario runs one; RunWithGolden also
// pins its canonical trace to testdata/golden.
package harness
