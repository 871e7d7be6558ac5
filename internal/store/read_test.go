package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/testutil"
)

func TestListRuns_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	for _, id := range []string{"c", "a", "b"} {
		mustWriteRun(t, s, createTestRun(id))
	}

	runs, err := s.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	if len(ids) != 3 || ids[0] != "c" || ids[1] != "a" || ids[2] != "b" {
		t.Errorf("ids = %v, want [c a b]", ids)
	}
}

func TestListRuns_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if runs == nil {
		t.Error("ListRuns() returned nil, want empty slice")
	}
}

func TestListCounterexamples_FilterByRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustWriteRun(t, s, createTestRun("run-1"))
	mustWriteRun(t, s, createTestRun("run-2"))

	if _, _, err := s.WriteCounterexample(ctx, createTestCounterexample("run-1")); err != nil {
		t.Fatal(err)
	}
	other := createTestCounterexample("run-2")
	other.Steps = append(other.Steps, ir.StepInput{Instr: ir.Copy(ir.RegZero, ir.RegOutputLow)})
	other.ID = testutil.CounterexampleID(other.CPU1, other.CPU2, other.Mode, other.Steps)
	if _, _, err := s.WriteCounterexample(ctx, other); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListCounterexamples(ctx, "")
	if err != nil {
		t.Fatalf("ListCounterexamples() failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}
	if all[0].RunID != "run-1" || all[1].RunID != "run-2" {
		t.Errorf("order = %s, %s; want run-1, run-2", all[0].RunID, all[1].RunID)
	}

	only, err := s.ListCounterexamples(ctx, "run-2")
	if err != nil {
		t.Fatalf("ListCounterexamples(run-2) failed: %v", err)
	}
	if len(only) != 1 || only[0].ID != other.ID {
		t.Errorf("ListCounterexamples(run-2) = %+v", only)
	}

	none, err := s.ListCounterexamples(ctx, "run-3")
	if err != nil {
		t.Fatal(err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("ListCounterexamples(run-3) = %v, want empty slice", none)
	}
}

func TestFindCounterexample_Prefix(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustWriteRun(t, s, createTestRun("run-1"))
	cx := createTestCounterexample("run-1")
	if _, _, err := s.WriteCounterexample(ctx, cx); err != nil {
		t.Fatal(err)
	}

	got, err := s.FindCounterexample(ctx, cx.ID[:8])
	if err != nil {
		t.Fatalf("FindCounterexample() failed: %v", err)
	}
	if got.ID != cx.ID {
		t.Errorf("id = %s, want %s", got.ID, cx.ID)
	}

	if _, err := s.FindCounterexample(ctx, "zzzz"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
	if _, err := s.FindCounterexample(ctx, ""); err == nil {
		t.Error("expected error for empty prefix")
	}
}

func TestFindCounterexample_Ambiguous(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustWriteRun(t, s, createTestRun("run-1"))

	for _, id := range []string{"abc1", "abc2"} {
		cx := createTestCounterexample("run-1")
		cx.ID = id
		if _, _, err := s.WriteCounterexample(ctx, cx); err != nil {
			t.Fatal(err)
		}
	}

	_, err := s.FindCounterexample(ctx, "abc")
	if !errors.Is(err, ErrAmbiguousID) {
		t.Errorf("err = %v, want ErrAmbiguousID", err)
	}
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("run-1", "run-2")
	if got := g.Generate(); got != "run-1" {
		t.Errorf("first = %s", got)
	}
	if got := g.Generate(); got != "run-2" {
		t.Errorf("second = %s", got)
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic when ids are exhausted")
		}
	}()
	g.Generate()
}

func TestUUIDv7Generator(t *testing.T) {
	var g UUIDv7Generator
	a, b := g.Generate(), g.Generate()
	if len(a) != 36 || a == b {
		t.Errorf("ids %q, %q: want distinct 36-char UUIDs", a, b)
	}
}
