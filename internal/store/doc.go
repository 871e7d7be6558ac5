// Package store provides SQLite-backed durable storage for verification
// runs and the counterexamples they found.
//
// The store is an append-only log with:
//   - Runs: one record per strategy invocation and its verdict
//   - Counterexamples: replayable failing sequences, keyed by content
//
// # Ordering
//
// Every record carries a seq INTEGER assigned by the store at write time.
// All list queries use ORDER BY seq ASC, id ASC COLLATE BINARY, so output
// does not depend on wall time or insertion races.
//
// # Identity
//
// Run IDs come from an IDGenerator (UUIDv7 in production, fixed in tests).
// Counterexample IDs are content-addressed by ir.CounterexampleID, so the
// same failing sequence found twice is stored once.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
