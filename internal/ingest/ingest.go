// Package ingest loads the planning tables from CSV and validates their
// schema before any analysis runs.
package ingest

import (
	"context"
	"errors"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/chokepoint/internal/config"
	"github.com/sells-group/chokepoint/internal/fetcher"
	"github.com/sells-group/chokepoint/internal/model"
)

// Files locates the input tables. Dir is a local directory or a base URL.
type Files struct {
	Dir   string
	Names map[model.Table]string
}

// FilesFromConfig builds Files from the input configuration.
func FilesFromConfig(cfg config.InputConfig) Files {
	return Files{
		Dir: cfg.Dir,
		Names: map[model.Table]string{
			model.TableLinks:  cfg.Links,
			model.TableNodes:  cfg.Nodes,
			model.TableDemand: cfg.Demand,
			model.TableZones:  cfg.Zones,
			model.TablePOIs:   cfg.POIs,
		},
	}
}

// OptionsFromConfig builds parse Options from the input configuration.
func OptionsFromConfig(cfg config.InputConfig) Options {
	return Options{
		Delimiter: cfg.DelimiterRune(),
		Encoding:  cfg.Encoding,
		Strict:    cfg.Strict,
	}
}

// Location returns where the given table is read from.
func (f Files) Location(table model.Table) string {
	name := f.Names[table]
	if name == "" {
		name = string(table) + ".csv"
	}
	return fetcher.Resolve(f.Dir, name)
}

// LoadTables opens and decodes the requested tables concurrently. The first
// failure cancels the remaining reads.
func LoadTables(ctx context.Context, src fetcher.Fetcher, files Files, want []model.Table, opts Options) (*model.Tables, error) {
	var tables model.Tables

	g, gctx := errgroup.WithContext(ctx)
	for _, table := range want {
		g.Go(func() error {
			location := files.Location(table)
			rc, err := src.Open(gctx, location)
			if err != nil {
				if errors.Is(err, fetcher.ErrNotFound) {
					return &MissingFileError{Table: table, Location: location}
				}
				return eris.Wrapf(err, "ingest: open %s", location)
			}
			defer rc.Close() //nolint:errcheck

			n, err := readInto(gctx, &tables, table, rc, opts)
			if err != nil {
				return err
			}
			zap.L().Info("loaded table",
				zap.String("table", string(table)),
				zap.String("location", location),
				zap.Int("rows", n),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &tables, nil
}

// readInto decodes one table into its field of t. Each table writes a
// distinct field so concurrent calls for different tables do not race.
func readInto(ctx context.Context, t *model.Tables, table model.Table, r io.Reader, opts Options) (int, error) {
	var err error
	switch table {
	case model.TableLinks:
		t.Links, err = ReadLinks(ctx, r, opts)
		return len(t.Links), err
	case model.TableNodes:
		t.Nodes, err = ReadNodes(ctx, r, opts)
		return len(t.Nodes), err
	case model.TableDemand:
		t.Demand, err = ReadDemand(ctx, r, opts)
		return len(t.Demand), err
	case model.TableZones:
		t.Zones, t.ZoneSource, err = ReadZones(ctx, r, opts)
		return len(t.Zones), err
	case model.TablePOIs:
		t.POIs, err = ReadPOIs(ctx, r, opts)
		return len(t.POIs), err
	default:
		return 0, eris.Errorf("ingest: unknown table %q", table)
	}
}
