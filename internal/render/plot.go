// Package render draws the road network plot and exports analysis results
// as GeoJSON and shapefiles.
package render

import (
	"image/color"
	"io"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/sells-group/chokepoint/internal/model"
	"github.com/sells-group/chokepoint/internal/overlay"
)

const plotTitle = "Choke Points in Road Network"

var (
	allLinkStyle = draw.LineStyle{
		Color: color.RGBA{R: 211, G: 211, B: 211, A: 255}, // lightgrey
		Width: vg.Points(0.5),
	}
	overloadedStyle = draw.LineStyle{
		Color: color.RGBA{R: 255, A: 255},
		Width: vg.Points(2),
	}
	criticalStyle = draw.GlyphStyle{
		Color:  color.RGBA{B: 255, A: 255},
		Radius: vg.Points(4),
		Shape:  draw.CircleGlyph{},
	}
)

// NetworkPlot is the data drawn by PlotNetwork.
type NetworkPlot struct {
	Links      []model.Link
	Nodes      []model.Node
	Overloaded []model.LinkLoad
	Critical   []model.CriticalNode
}

// LinkGeometry parses a link's WKT into line strings.
func LinkGeometry(l model.Link) (orb.MultiLineString, error) {
	g, err := wkt.Unmarshal(l.Geometry)
	if err != nil {
		return nil, &overlay.GeometryError{Table: model.TableLinks, ID: l.LinkID, Err: err}
	}
	switch g := g.(type) {
	case orb.LineString:
		return orb.MultiLineString{g}, nil
	case orb.MultiLineString:
		return g, nil
	default:
		return nil, &overlay.GeometryError{
			Table: model.TableLinks,
			ID:    l.LinkID,
			Err:   eris.Errorf("expected LINESTRING, got %s", g.GeoJSONType()),
		}
	}
}

func lineXYs(ls orb.LineString) plotter.XYs {
	xys := make(plotter.XYs, len(ls))
	for i, p := range ls {
		xys[i] = plotter.XY{X: p[0], Y: p[1]}
	}
	return xys
}

// PlotNetwork draws all links in light grey, overloaded links in red and
// critical nodes as blue markers, and writes a 12x8 inch PNG to w.
func PlotNetwork(w io.Writer, in NetworkPlot) error {
	p := plot.New()
	p.Title.Text = plotTitle
	p.Legend.Top = true

	overloaded := make(map[int64]bool, len(in.Overloaded))
	for _, l := range in.Overloaded {
		overloaded[l.LinkID] = true
	}

	var highlight []*plotter.Line
	for _, l := range in.Links {
		mls, err := LinkGeometry(l)
		if err != nil {
			return eris.Wrap(err, "render: plot links")
		}
		for _, ls := range mls {
			if len(ls) == 0 {
				continue
			}
			line, err := plotter.NewLine(lineXYs(ls))
			if err != nil {
				return eris.Wrapf(err, "render: link %d", l.LinkID)
			}
			line.LineStyle = allLinkStyle
			p.Add(line)

			if overloaded[l.LinkID] {
				hl, err := plotter.NewLine(lineXYs(ls))
				if err != nil {
					return eris.Wrapf(err, "render: link %d", l.LinkID)
				}
				hl.LineStyle = overloadedStyle
				highlight = append(highlight, hl)
			}
		}
	}
	// Overloaded links are drawn on top of the base network.
	for _, hl := range highlight {
		p.Add(hl)
	}

	coords := make(map[int64]model.Node, len(in.Nodes))
	for _, n := range in.Nodes {
		coords[n.NodeID] = n
	}
	var pts plotter.XYs
	for _, c := range in.Critical {
		if n, ok := coords[c.NodeID]; ok {
			pts = append(pts, plotter.XY{X: n.X, Y: n.Y})
		}
	}
	if len(pts) > 0 {
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return eris.Wrap(err, "render: critical nodes")
		}
		sc.GlyphStyle = criticalStyle
		p.Add(sc)
	}

	p.Legend.Add("All Links", &plotter.Line{LineStyle: allLinkStyle})
	p.Legend.Add("Overloaded Links", &plotter.Line{LineStyle: overloadedStyle})
	p.Legend.Add("Critical Nodes", &plotter.Scatter{GlyphStyle: criticalStyle})

	wt, err := p.WriterTo(12*vg.Inch, 8*vg.Inch, "png")
	if err != nil {
		return eris.Wrap(err, "render: create canvas")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return eris.Wrap(err, "render: write png")
	}
	return nil
}

// SavePlot writes the network plot to a PNG file at path.
func SavePlot(path string, in NetworkPlot) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "render: create %s", path)
	}
	if err := PlotNetwork(f, in); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "render: close %s", path)
}
