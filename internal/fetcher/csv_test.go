package fetcher

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRows(t *testing.T, rowCh <-chan Row, errCh <-chan error) ([]Row, error) {
	t.Helper()
	var rows []Row
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}

func TestStreamCSV_Basic(t *testing.T) {
	input := "a,b,c\n1,2,3\n4,5,6\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b", "c"}, rows[0].Fields)
	assert.Equal(t, []string{"1", "2", "3"}, rows[1].Fields)
	assert.Equal(t, []string{"4", "5", "6"}, rows[2].Fields)
	assert.Equal(t, 1, rows[0].Line)
	assert.Equal(t, 3, rows[2].Line)
}

func TestStreamCSV_Delimiter(t *testing.T) {
	input := "a;b\n1;2\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{Delimiter: ';'})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "2"}, rows[1].Fields)
}

func TestStreamCSV_TrimSpace(t *testing.T) {
	input := " a , b \n 1 ,2\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{TrimSpace: true})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rows[0].Fields)
	assert.Equal(t, []string{"1", "2"}, rows[1].Fields)
}

func TestStreamCSV_VariableFieldCount(t *testing.T) {
	input := "a,b,c\n1,2\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[1].Fields, 2)
}

func TestStreamCSV_QuotedGeometry(t *testing.T) {
	input := "link_id,geometry\n1,\"LINESTRING (0 0, 1 1)\"\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, "LINESTRING (0 0, 1 1)", rows[1].Fields[1])
}

func TestStreamCSV_MalformedQuote(t *testing.T) {
	input := "a,b\n1,\"oops\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv: read row")
}

func TestStreamCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rowCh, errCh := StreamCSV(ctx, strings.NewReader("a\n1\n"), CSVOptions{})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRowReader(t *testing.T) {
	input := "a,b\n1,2\n\n3,4\n"
	rr := NewRowReader(StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{}))

	rec, err := rr.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rec)
	assert.Equal(t, 1, rr.Line())

	_, err = rr.Read()
	require.NoError(t, err)
	assert.Equal(t, 2, rr.Line())

	rec, err = rr.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "4"}, rec)
	assert.Equal(t, 4, rr.Line())

	_, err = rr.Read()
	assert.Equal(t, io.EOF, err)
}

func TestRowReader_PropagatesError(t *testing.T) {
	rr := NewRowReader(StreamCSV(context.Background(), strings.NewReader("a\n\"x\n"), CSVOptions{}))
	_, err := rr.Read()
	require.NoError(t, err)
	_, err = rr.Read()
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}
