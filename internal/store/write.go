package store

import (
	"context"
	"database/sql"
	"fmt"
)

// WriteRun inserts a run record and returns it with Seq assigned.
// Seq is one past the highest seq in the table, allocated inside the same
// transaction as the insert.
func (s *Store) WriteRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		return run, fmt.Errorf("write run: id is required")
	}
	configJSON, err := marshalConfig(run.Config)
	if err != nil {
		return run, fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return run, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq, err := nextSeq(ctx, tx, "runs")
	if err != nil {
		return run, fmt.Errorf("write run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, strategy, mode, verdict, horizon, steps_run, states_explored, reason, config, engine_version, ir_version, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Strategy,
		run.Mode,
		run.Verdict,
		run.Horizon,
		run.StepsRun,
		run.StatesExplored,
		run.Reason,
		configJSON,
		run.EngineVersion,
		run.IRVersion,
		seq,
	)
	if err != nil {
		return run, fmt.Errorf("write run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return run, fmt.Errorf("write run: commit: %w", err)
	}

	run.Seq = seq
	return run, nil
}

// WriteCounterexample inserts a counterexample record.
// Returns the stored record and whether a new row was inserted.
//
// Counterexample IDs are content-addressed, so writing the same sequence
// again (from the same or another run) is a no-op that returns the
// existing record and inserted=false.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteCounterexample(ctx context.Context, cx Counterexample) (Counterexample, bool, error) {
	if cx.ID == "" {
		return cx, false, fmt.Errorf("write counterexample: id is required")
	}
	startJSON, err := marshalStart(cx.CPU1, cx.CPU2)
	if err != nil {
		return cx, false, fmt.Errorf("write counterexample: %w", err)
	}
	stepsJSON, err := marshalSteps(cx.Steps)
	if err != nil {
		return cx, false, fmt.Errorf("write counterexample: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cx, false, fmt.Errorf("write counterexample: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq, err := nextSeq(ctx, tx, "counterexamples")
	if err != nil {
		return cx, false, fmt.Errorf("write counterexample: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO counterexamples
		(id, run_id, mode, predicate, register, step, start, steps, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		cx.ID,
		cx.RunID,
		cx.Mode,
		cx.Predicate,
		cx.Register,
		cx.Step,
		startJSON,
		stepsJSON,
		seq,
	)
	if err != nil {
		return cx, false, fmt.Errorf("write counterexample: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return cx, false, fmt.Errorf("write counterexample: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Already stored; return the existing record
		existing, err := scanCounterexampleRow(tx.QueryRowContext(ctx, selectCounterexample+` WHERE id = ?`, cx.ID))
		if err != nil {
			return cx, false, fmt.Errorf("write counterexample: read existing: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return cx, false, fmt.Errorf("write counterexample: commit: %w", err)
		}
		return existing, false, nil
	}

	if err := tx.Commit(); err != nil {
		return cx, false, fmt.Errorf("write counterexample: commit: %w", err)
	}
	cx.Seq = seq
	return cx, true, nil
}

// nextSeq returns one past the highest seq of table.
func nextSeq(ctx context.Context, tx *sql.Tx, table string) (int64, error) {
	var seq int64
	// table is a package constant, never user input
	err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT COALESCE(MAX(seq), 0) + 1 FROM %s", table)).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq, nil
}
