package tableio

import (
	"fmt"
	"strings"
)

// InputError reports a malformed input table. It is fatal for the run: no
// output is produced once one is returned.
type InputError struct {
	// Table identifies the input, usually its path.
	Table string
	// Reason describes the problem.
	Reason string
	// Columns lists the missing or unparsable columns, if any.
	Columns []string
	// Row is the 1-based data row of an unparsable cell, or 0.
	Row int
}

func (e *InputError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "input table %q: %s", e.Table, e.Reason)
	if len(e.Columns) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Columns, ", "))
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, " at row %d", e.Row)
	}
	return b.String()
}

func missingColumns(table string, cols []string) *InputError {
	return &InputError{Table: table, Reason: "missing required columns", Columns: cols}
}

func emptyTable(table string) *InputError {
	return &InputError{Table: table, Reason: "table has no rows"}
}

func badCell(table, column string, row int, err error) *InputError {
	return &InputError{
		Table:   table,
		Reason:  fmt.Sprintf("cannot parse value: %v", err),
		Columns: []string{column},
		Row:     row,
	}
}

func badValue(table, column string, row int, reason string) *InputError {
	return &InputError{
		Table:   table,
		Reason:  "invalid value: " + reason,
		Columns: []string{column},
		Row:     row,
	}
}
