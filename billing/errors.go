package billing

import (
	"errors"
	"fmt"
)

// ErrNoRevenueColumn is returned by the analytical path when no column in
// the loaded data matched a revenue-like naming convention. The load
// itself still succeeds; the retrieval path does not need amounts.
var ErrNoRevenueColumn = errors.New("no revenue-like column found")

// SchemaError reports a required column missing from the input. Fatal:
// the load is aborted.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("required column %q is missing", e.Column)
}

// AmbiguousPeriodError reports a billing-period value that could not be
// parsed into a month name and a four-digit year. The row is dropped and
// counted; the load continues.
type AmbiguousPeriodError struct {
	Row   int
	Value string
}

func (e *AmbiguousPeriodError) Error() string {
	return fmt.Sprintf("row %d: unparseable billing period %q", e.Row, e.Value)
}

// DuplicatePeriodError reports two records for the same customer and
// billing period. This violates the temporal-ordering invariant, so the
// load is rejected rather than silently picking one ordering.
type DuplicatePeriodError struct {
	CustomerID string
	Month      string
	Year       int
}

func (e *DuplicatePeriodError) Error() string {
	return fmt.Sprintf("duplicate billing period %s %d for customer %s",
		e.Month, e.Year, e.CustomerID)
}
