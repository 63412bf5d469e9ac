package ingest

import (
	"fmt"
	"strings"

	"github.com/sells-group/chokepoint/internal/model"
)

// MissingFileError reports an input table that could not be found.
type MissingFileError struct {
	Table    model.Table
	Location string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("%s.csv: file not found at %s", e.Table, e.Location)
}

// SchemaError reports required header columns absent from a table. For zones
// Alternative names the column set that would also have been accepted.
type SchemaError struct {
	Table       model.Table
	Missing     []string
	Alternative []string
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("%s.csv: missing required column(s) %s", e.Table, strings.Join(e.Missing, ", "))
	if len(e.Alternative) > 0 {
		msg += fmt.Sprintf(" (or %s)", strings.Join(e.Alternative, ", "))
	}
	return msg
}

// RowError reports a malformed data row in strict mode.
type RowError struct {
	Table model.Table
	Line  int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s.csv: line %d: %v", e.Table, e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
