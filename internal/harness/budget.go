package harness

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Budget tracks lockstep steps against a run-wide limit.
//
// The horizon bounds a single sequence; the budget bounds the whole run.
// Running out of either without a counterexample is inconclusive.
//
// Thread-safety: Spend may be called from multiple workers.
type Budget struct {
	max  int64 // 0 means unlimited
	used atomic.Int64
}

// NewBudget creates a budget of max steps. max <= 0 is unlimited.
func NewBudget(max int64) *Budget {
	if max < 0 {
		max = 0
	}
	return &Budget{max: max}
}

// Spend records n steps and returns *BudgetExceededError once the total
// exceeds the limit.
func (b *Budget) Spend(n int64) error {
	used := b.used.Add(n)
	if b.max > 0 && used > b.max {
		return &BudgetExceededError{Used: used, Limit: b.max}
	}
	return nil
}

// Used returns the number of steps spent.
func (b *Budget) Used() int64 {
	return b.used.Load()
}

// Limit returns the configured limit, 0 if unlimited.
func (b *Budget) Limit() int64 {
	return b.max
}

// BudgetExceededError is returned when a run exceeds its step budget.
type BudgetExceededError struct {
	Used  int64
	Limit int64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("step budget exhausted: %d steps > %d limit", e.Used, e.Limit)
}

// IsBudgetExceeded returns true if err is (or wraps) a *BudgetExceededError.
func IsBudgetExceeded(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}
