package ingest

import (
	"context"
	"errors"
	"io"
	"slices"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/chokepoint/internal/fetcher"
	"github.com/sells-group/chokepoint/internal/model"
)

// Options controls how a table is parsed.
type Options struct {
	Delimiter rune
	Encoding  string
	// Strict fails on the first malformed row. Otherwise malformed rows are
	// skipped and counted.
	Strict bool
}

// decoded is the result of reading one table.
type decoded[T any] struct {
	rows    []T
	header  []string
	skipped int
}

// readTable decodes every data row of r into T. checkHeader runs before any
// row is decoded; checkRow may reject a decoded row as malformed.
func readTable[T any](ctx context.Context, table model.Table, r io.Reader, opts Options,
	checkHeader func([]string) error, checkRow func(*T) error,
) (*decoded[T], error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	text, err := fetcher.Decode(r, opts.Encoding)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: %s.csv", table)
	}

	rr := fetcher.NewRowReader(fetcher.StreamCSV(ctx, text, fetcher.CSVOptions{
		Delimiter: opts.Delimiter,
		TrimSpace: true,
	}))
	defer func() {
		cancel()
		rr.Drain()
	}()

	dec, err := csvutil.NewDecoder(rr)
	if err != nil {
		if errors.Is(err, io.EOF) {
			// An empty file has no header at all.
			return nil, checkHeader(nil)
		}
		return nil, eris.Wrapf(err, "ingest: %s.csv: read header", table)
	}

	out := &decoded[T]{header: dec.Header()}
	if err := checkHeader(out.header); err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("table", string(table)))
	for {
		var row T
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err == nil && checkRow != nil {
			err = checkRow(&row)
		}
		if err != nil {
			if rr.Err() != nil {
				return nil, eris.Wrapf(rr.Err(), "ingest: %s.csv", table)
			}
			if opts.Strict {
				return nil, &RowError{Table: table, Line: rr.Line(), Err: err}
			}
			out.skipped++
			log.Debug("skipping malformed row", zap.Int("line", rr.Line()), zap.Error(err))
			continue
		}
		out.rows = append(out.rows, row)
	}

	if out.skipped > 0 {
		log.Warn("skipped malformed rows", zap.Int("skipped", out.skipped), zap.Int("rows", len(out.rows)))
	}
	return out, nil
}

// requireColumns returns a header check for a fixed column set.
func requireColumns(table model.Table) func([]string) error {
	return func(header []string) error {
		if missing := missingColumns(header, model.RequiredColumns[table]); len(missing) > 0 {
			return &SchemaError{Table: table, Missing: missing}
		}
		return nil
	}
}

func missingColumns(header, required []string) []string {
	var missing []string
	for _, col := range required {
		if !slices.Contains(header, col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// ReadLinks decodes link.csv.
func ReadLinks(ctx context.Context, r io.Reader, opts Options) ([]model.Link, error) {
	d, err := readTable[model.Link](ctx, model.TableLinks, r, opts, requireColumns(model.TableLinks), nil)
	if err != nil {
		return nil, err
	}
	return d.rows, nil
}

// ReadNodes decodes node.csv.
func ReadNodes(ctx context.Context, r io.Reader, opts Options) ([]model.Node, error) {
	d, err := readTable[model.Node](ctx, model.TableNodes, r, opts, requireColumns(model.TableNodes), nil)
	if err != nil {
		return nil, err
	}
	return d.rows, nil
}

// ReadDemand decodes demand.csv.
func ReadDemand(ctx context.Context, r io.Reader, opts Options) ([]model.Demand, error) {
	d, err := readTable[model.Demand](ctx, model.TableDemand, r, opts, requireColumns(model.TableDemand), nil)
	if err != nil {
		return nil, err
	}
	return d.rows, nil
}

// ReadPOIs decodes poi.csv.
func ReadPOIs(ctx context.Context, r io.Reader, opts Options) ([]model.POI, error) {
	d, err := readTable[model.POI](ctx, model.TablePOIs, r, opts, requireColumns(model.TablePOIs), nil)
	if err != nil {
		return nil, err
	}
	return d.rows, nil
}

// ReadZones decodes zone.csv. A centroid column takes precedence over the
// bounding box columns. When the file has no zone_id column, zones are
// numbered by row order starting at 1.
func ReadZones(ctx context.Context, r io.Reader, opts Options) ([]model.Zone, model.ZoneSource, error) {
	var source model.ZoneSource
	checkHeader := func(header []string) error {
		if slices.Contains(header, model.ZoneCentroidColumn) {
			source = model.ZoneSourceCentroid
			return nil
		}
		if missing := missingColumns(header, model.ZoneBBoxColumns); len(missing) > 0 {
			return &SchemaError{
				Table:       model.TableZones,
				Missing:     missing,
				Alternative: []string{model.ZoneCentroidColumn},
			}
		}
		source = model.ZoneSourceBBox
		return nil
	}
	checkRow := func(z *model.Zone) error {
		if source == model.ZoneSourceCentroid {
			if z.Centroid == "" {
				return eris.New("empty centroid")
			}
			return nil
		}
		if !z.HasBBox() {
			return eris.New("incomplete bounding box")
		}
		return nil
	}

	d, err := readTable[model.Zone](ctx, model.TableZones, r, opts, checkHeader, checkRow)
	if err != nil {
		return nil, "", err
	}
	if !slices.Contains(d.header, "zone_id") {
		for i := range d.rows {
			d.rows[i].ZoneID = int64(i + 1)
		}
	}
	return d.rows, source, nil
}
