// Package report prints analysis results as console tables or writes them as
// CSV, JSON, YAML or an XLSX workbook.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/chokepoint/internal/model"
)

// Format selects how a report is written.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatXLSX  Format = "xlsx"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatCSV, FormatJSON, FormatYAML, FormatXLSX:
		return f, nil
	default:
		return "", eris.Errorf("report: unknown format %q (want table, csv, json, yaml or xlsx)", s)
	}
}

// OverloadedLinkRow is one line of the overloaded links table.
type OverloadedLinkRow struct {
	LinkID      int64   `csv:"link_id" json:"link_id" yaml:"link_id"`
	FromNodeID  int64   `csv:"from_node_id" json:"from_node_id" yaml:"from_node_id"`
	ToNodeID    int64   `csv:"to_node_id" json:"to_node_id" yaml:"to_node_id"`
	Utilization float64 `csv:"utilization" json:"utilization" yaml:"utilization"`
}

// CriticalNodeRow is one line of the overload critical nodes table.
type CriticalNodeRow struct {
	FromNodeID      int64 `csv:"from_node_id" json:"from_node_id" yaml:"from_node_id"`
	OverloadedCount int   `csv:"overloaded_count" json:"overloaded_count" yaml:"overloaded_count"`
}

// ProximityRow is one line of the critical node overlay table.
type ProximityRow struct {
	NodeID   int64   `csv:"node_id" json:"node_id" yaml:"node_id"`
	Degree   int     `csv:"degree" json:"degree" yaml:"degree"`
	ZoneArea float64 `csv:"zone_area" json:"zone_area" yaml:"zone_area"`
	POICount int     `csv:"poi_count" json:"poi_count" yaml:"poi_count"`
}

// Section is one titled table of a report.
type Section struct {
	Name  string // sheet name and JSON/YAML key
	Title string
	Rows  any // slice of row structs

	encode func(enc *csvutil.Encoder) error
}

func newSection[T any](name, title string, rows []T) Section {
	if rows == nil {
		rows = []T{}
	}
	return Section{
		Name:  name,
		Title: title,
		Rows:  rows,
		encode: func(enc *csvutil.Encoder) error {
			var zero T
			if err := enc.EncodeHeader(zero); err != nil {
				return err
			}
			if len(rows) == 0 {
				return nil
			}
			return enc.Encode(rows)
		},
	}
}

// Report is an ordered list of sections.
type Report struct {
	Sections []Section
}

// Overload builds the report of an overload analysis.
func Overload(res *model.OverloadResult) *Report {
	var links []OverloadedLinkRow
	var nodes []CriticalNodeRow
	if res != nil {
		for _, l := range res.Overloaded {
			links = append(links, OverloadedLinkRow{
				LinkID:      l.LinkID,
				FromNodeID:  l.FromNodeID,
				ToNodeID:    l.ToNodeID,
				Utilization: l.Utilization,
			})
		}
		for _, n := range res.CriticalNodes {
			nodes = append(nodes, CriticalNodeRow{FromNodeID: n.NodeID, OverloadedCount: n.OverloadedCount})
		}
	}
	return &Report{Sections: []Section{
		newSection("overloaded_links", "Overloaded Links (Utilization > 1):", links),
		newSection("critical_nodes", "Critical Nodes (Connected to Multiple Overloaded Links):", nodes),
	}}
}

// Proximity builds the report of a proximity analysis.
func Proximity(res *model.ProximityResult) *Report {
	var rows []ProximityRow
	if res != nil {
		for _, n := range res.Nodes {
			rows = append(rows, ProximityRow{NodeID: n.NodeID, Degree: n.Degree, ZoneArea: n.ZoneArea, POICount: n.POICount})
		}
	}
	return &Report{Sections: []Section{
		newSection("critical_nodes", "Critical Nodes with Zone Area and POI Count:", rows),
	}}
}

// records collects csvutil output as string records.
type records [][]string

func (r *records) Write(rec []string) error {
	*r = append(*r, append([]string(nil), rec...))
	return nil
}

// Records returns the header and rows of s as strings.
func (s Section) Records() ([][]string, error) {
	var out records
	if err := s.encode(csvutil.NewEncoder(&out)); err != nil {
		return nil, eris.Wrapf(err, "report: encode %s", s.Name)
	}
	return out, nil
}

// Write renders r to w in a text format. XLSX needs a file; use Save.
func Write(w io.Writer, r *Report, f Format) error {
	switch f {
	case FormatTable, "":
		return writeTable(w, r)
	case FormatCSV:
		return writeCSV(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(r.document()), "report: encode json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r.document()); err != nil {
			return eris.Wrap(err, "report: encode yaml")
		}
		return eris.Wrap(enc.Close(), "report: close yaml encoder")
	case FormatXLSX:
		return eris.New("report: xlsx output requires an output path")
	default:
		return eris.Errorf("report: unknown format %q", f)
	}
}

func (r *Report) document() map[string]any {
	doc := make(map[string]any, len(r.Sections))
	for _, s := range r.Sections {
		doc[s.Name] = s.Rows
	}
	return doc
}

func writeTable(out io.Writer, r *Report) error {
	for i, s := range r.Sections {
		recs, err := s.Records()
		if err != nil {
			return err
		}
		if i > 0 {
			_, _ = fmt.Fprintln(out)
		}
		_, _ = fmt.Fprintln(out, s.Title)

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for j, rec := range recs {
			_, _ = fmt.Fprintln(w, strings.Join(rec, "\t"))
			if j == 0 {
				dashes := make([]string, len(rec))
				for k, h := range rec {
					dashes[k] = strings.Repeat("-", len(h))
				}
				_, _ = fmt.Fprintln(w, strings.Join(dashes, "\t"))
			}
		}
		if len(recs) <= 1 {
			_, _ = fmt.Fprintln(w, "(none)")
		}
		if err := w.Flush(); err != nil {
			return eris.Wrap(err, "report: flush table")
		}
	}
	return nil
}

// writeCSV writes each section as its own header and rows, separated by a
// blank line.
func writeCSV(out io.Writer, r *Report) error {
	for i, s := range r.Sections {
		if i > 0 {
			if _, err := io.WriteString(out, "\n"); err != nil {
				return eris.Wrap(err, "report: write csv")
			}
		}
		cw := csv.NewWriter(out)
		if err := s.encode(csvutil.NewEncoder(cw)); err != nil {
			return eris.Wrapf(err, "report: encode %s", s.Name)
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return eris.Wrap(err, "report: write csv")
		}
	}
	return nil
}

// Workbook builds an XLSX workbook with one sheet per section.
func Workbook(r *Report) (*xlsx.File, error) {
	f := xlsx.NewFile()
	for _, s := range r.Sections {
		recs, err := s.Records()
		if err != nil {
			return nil, err
		}
		sheet, err := f.AddSheet(s.Name)
		if err != nil {
			return nil, eris.Wrapf(err, "report: add sheet %s", s.Name)
		}
		for i, rec := range recs {
			row := sheet.AddRow()
			for _, v := range rec {
				cell := row.AddCell()
				if i > 0 {
					if n, err := strconv.ParseFloat(v, 64); err == nil {
						cell.SetFloat(n)
						continue
					}
				}
				cell.SetString(v)
			}
		}
	}
	return f, nil
}

// Save writes r to path in format f.
func Save(path string, r *Report, f Format) error {
	if f == FormatXLSX {
		wb, err := Workbook(r)
		if err != nil {
			return err
		}
		return eris.Wrapf(wb.Save(path), "report: save %s", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	if err := Write(file, r, f); err != nil {
		_ = file.Close()
		return err
	}
	return eris.Wrapf(file.Close(), "report: close %s", path)
}

// Emit writes r to path when one is given and to stdout otherwise.
func Emit(stdout io.Writer, r *Report, f Format, path string) error {
	if path != "" {
		return Save(path, r, f)
	}
	return Write(stdout, r, f)
}
