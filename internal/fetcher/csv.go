package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // comment character (0 = none)
	LazyQuotes bool
	TrimSpace  bool
}

// Row is one parsed CSV record and the input line it started on.
type Row struct {
	Line   int
	Fields []string
}

// StreamCSV reads CSV records from r and sends them to a channel.
// Caller must consume the returned row channel. Errors are sent on the error channel.
// Both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan Row, <-chan error) {
	rowCh := make(chan Row, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1 // field counts are checked against the header by the decoder

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}
			line, _ := reader.FieldPos(0)

			select {
			case rowCh <- Row{Line: line, Fields: record}:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// RowReader adapts the channels returned by StreamCSV to a pull-style reader
// with a Read() ([]string, error) method, as expected by record decoders.
type RowReader struct {
	rows <-chan Row
	errs <-chan error
	line int
	err  error
}

// NewRowReader wraps the channels returned by StreamCSV.
func NewRowReader(rows <-chan Row, errs <-chan error) *RowReader {
	return &RowReader{rows: rows, errs: errs}
}

// Read returns the next record, or io.EOF once the stream is exhausted.
func (r *RowReader) Read() ([]string, error) {
	row, ok := <-r.rows
	if !ok {
		if err := <-r.errs; err != nil {
			r.err = err
			return nil, err
		}
		return nil, io.EOF
	}
	r.line = row.Line
	return row.Fields, nil
}

// Line returns the input line of the record most recently returned by Read.
func (r *RowReader) Line() int {
	return r.line
}

// Err returns the stream error that ended reading, if any.
func (r *RowReader) Err() error {
	return r.err
}

// Drain discards any remaining rows so the producing goroutine can exit.
func (r *RowReader) Drain() {
	for range r.rows {
	}
	for range r.errs {
	}
}
