// Package ir provides the value model shared by every lockstep package.
//
// It defines the two-point security lattice (Low < High), labeled boolean
// values, the closed register and opcode enumerations, instructions, and the
// machine state snapshot. ir imports nothing internal; all other packages
// import ir.
//
// Key design constraints:
//   - Registers and opcodes are closed enumerations; Valid reports membership
//   - The only label increase is Classify; nothing lowers High back to Low
//   - All JSON and YAML tags use snake_case
//   - Canonical JSON (MarshalCanonical) is the only serialization used for
//     content-addressed identity
package ir
