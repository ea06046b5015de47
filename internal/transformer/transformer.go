// Package transformer applies ordered table steps. A Chain runs its steps in
// sequence and records how many rows each one kept, so callers can report
// drops without the steps themselves knowing about metrics or logging.
package transformer

import "elecetl/pkg/records"

// Step is one table operation. Steps may modify t in place and return it, or
// return a new table. A non-nil error stops the chain.
type Step interface {
	Name() string
	Apply(t *records.Table) (*records.Table, error)
}

// StepResult is the row count before and after one step.
type StepResult struct {
	Step    string
	RowsIn  int
	RowsOut int
}

// Dropped is the number of rows the step removed.
func (r StepResult) Dropped() int { return r.RowsIn - r.RowsOut }

// Report lists the results of every step that ran, in order.
type Report []StepResult

// Dropped returns the rows removed by the named step, or 0 if it did not run.
func (r Report) Dropped(step string) int {
	for _, s := range r {
		if s.Step == step {
			return s.Dropped()
		}
	}
	return 0
}

// Chain is an ordered list of steps.
type Chain []Step

// Apply runs every step over t. On error the report covers the steps that
// completed and the step's error is returned as is.
func (c Chain) Apply(t *records.Table) (*records.Table, Report, error) {
	rep := make(Report, 0, len(c))
	out := t
	for _, s := range c {
		in := out.Len()
		next, err := s.Apply(out)
		if err != nil {
			return nil, rep, err
		}
		out = next
		rep = append(rep, StepResult{Step: s.Name(), RowsIn: in, RowsOut: out.Len()})
	}
	return out, rep, nil
}
