package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const selectRun = `
	SELECT id, strategy, mode, verdict, horizon, steps_run, states_explored, reason, config, engine_version, ir_version, seq
	FROM runs`

const selectCounterexample = `
	SELECT id, run_id, mode, predicate, register, step, start, steps, seq
	FROM counterexamples`

// ErrAmbiguousID is returned when an ID prefix matches more than one record.
var ErrAmbiguousID = errors.New("ambiguous id prefix")

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	return scanRunRow(s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id))
}

// ListRuns returns all runs with deterministic ordering (seq ASC, id ASC).
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, selectRun+`
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRunRow(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadCounterexample retrieves a single counterexample by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadCounterexample(ctx context.Context, id string) (Counterexample, error) {
	return scanCounterexampleRow(s.db.QueryRowContext(ctx, selectCounterexample+` WHERE id = ?`, id))
}

// FindCounterexample resolves an ID prefix to a single counterexample.
// Returns sql.ErrNoRows if nothing matches and ErrAmbiguousID if more than
// one record does.
func (s *Store) FindCounterexample(ctx context.Context, prefix string) (Counterexample, error) {
	if prefix == "" {
		return Counterexample{}, fmt.Errorf("find counterexample: empty id")
	}
	rows, err := s.db.QueryContext(ctx, selectCounterexample+`
		WHERE substr(id, 1, ?) = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
		LIMIT 2
	`, len(prefix), prefix)
	if err != nil {
		return Counterexample{}, fmt.Errorf("find counterexample: %w", err)
	}
	defer rows.Close()

	var found []Counterexample
	for rows.Next() {
		cx, err := scanCounterexampleRow(rows)
		if err != nil {
			return Counterexample{}, err
		}
		found = append(found, cx)
	}
	if err := rows.Err(); err != nil {
		return Counterexample{}, fmt.Errorf("find counterexample: %w", err)
	}

	switch len(found) {
	case 0:
		return Counterexample{}, sql.ErrNoRows
	case 1:
		return found[0], nil
	default:
		return Counterexample{}, fmt.Errorf("%w: %q", ErrAmbiguousID, prefix)
	}
}

// ListCounterexamples returns counterexamples with deterministic ordering
// (seq ASC, id ASC). An empty runID lists every run's counterexamples.
// Returns an empty slice (not nil) if none exist.
func (s *Store) ListCounterexamples(ctx context.Context, runID string) ([]Counterexample, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if runID == "" {
		rows, err = s.db.QueryContext(ctx, selectCounterexample+`
			ORDER BY seq ASC, id COLLATE BINARY ASC
		`)
	} else {
		rows, err = s.db.QueryContext(ctx, selectCounterexample+`
			WHERE run_id = ?
			ORDER BY seq ASC, id COLLATE BINARY ASC
		`, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("query counterexamples: %w", err)
	}
	defer rows.Close()

	out := []Counterexample{}
	for rows.Next() {
		cx, err := scanCounterexampleRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counterexamples: %w", err)
	}
	return out, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunRow(row rowScanner) (Run, error) {
	var run Run
	var configJSON string
	if err := row.Scan(
		&run.ID, &run.Strategy, &run.Mode, &run.Verdict, &run.Horizon,
		&run.StepsRun, &run.StatesExplored, &run.Reason, &configJSON,
		&run.EngineVersion, &run.IRVersion, &run.Seq,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("scan run: %w", err)
	}
	cfg, err := unmarshalConfig(configJSON)
	if err != nil {
		return run, err
	}
	run.Config = cfg
	return run, nil
}

func scanCounterexampleRow(row rowScanner) (Counterexample, error) {
	var cx Counterexample
	var startJSON, stepsJSON string
	if err := row.Scan(
		&cx.ID, &cx.RunID, &cx.Mode, &cx.Predicate, &cx.Register,
		&cx.Step, &startJSON, &stepsJSON, &cx.Seq,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cx, err
		}
		return cx, fmt.Errorf("scan counterexample: %w", err)
	}
	var err error
	if cx.CPU1, cx.CPU2, err = unmarshalStart(startJSON); err != nil {
		return cx, err
	}
	if cx.Steps, err = unmarshalSteps(stepsJSON); err != nil {
		return cx, err
	}
	return cx, nil
}
