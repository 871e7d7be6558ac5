// Package oracle runs two machines in lockstep and judges noninterference.
//
// Both instances share the instruction and low-input streams but receive
// independent high inputs. After every committed step the oracle evaluates:
//
//   - low_equivalence: every mutable register labeled Low in either
//     instance holds the same value and label in both
//   - control_equivalence: both instances agree on the skip hazard flag
//   - noninterference: both instances expose the same low output
//
// The first two form the inductive invariant. Low equivalence alone is not
// inductive once SkipNext can arm: two instances that agree on every Low
// register but disagree on the pending skip diverge on the next write.
//
// Reset is not a step; predicates are evaluated only after RunStep.
package oracle
