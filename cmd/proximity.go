package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/chokepoint/internal/config"
	"github.com/sells-group/chokepoint/internal/model"
	"github.com/sells-group/chokepoint/internal/overlay"
	"github.com/sells-group/chokepoint/internal/render"
	"github.com/sells-group/chokepoint/internal/report"
)

var proximityCmd = &cobra.Command{
	Use:   "proximity",
	Short: "Overlay high-degree nodes on zones and points of interest",
	Long: "Finds nodes with more outgoing links than --degree-threshold, buffers each by --radius " +
		"in node coordinate units, and reports the zone area and POI count inside every buffer.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		f := readOutputFlags(cmd, cfg)
		c := *cfg
		if cmd.Flags().Changed("radius") {
			c.Overlay.BufferRadius, _ = cmd.Flags().GetFloat64("radius")
		}
		if cmd.Flags().Changed("degree-threshold") {
			c.Analysis.CriticalDegree, _ = cmd.Flags().GetInt("degree-threshold")
		}
		if v, _ := cmd.Flags().GetString("shapefile"); v != "" {
			c.Output.Shapefile = v
		}
		if err := c.Validate(); err != nil {
			return err
		}
		return runProximity(cmd.Context(), cmd.OutOrStdout(), &c, f)
	},
}

func init() {
	addInputFlags(proximityCmd)
	proximityCmd.Flags().Float64("radius", 100, "buffer radius in node coordinate units")
	proximityCmd.Flags().Int("degree-threshold", 3, "report nodes with more outgoing links than this")
	proximityCmd.Flags().String("shapefile", "", "write critical-node buffers to a polygon shapefile")
	rootCmd.AddCommand(proximityCmd)
}

// bufferCRS is the CRS the buffers end up in after alignment.
func bufferCRS(ov config.OverlayConfig) string {
	if ov.ZonesCRS != "" {
		return ov.ZonesCRS
	}
	return ov.NodesCRS
}

func runProximity(ctx context.Context, out io.Writer, c *config.Config, f outputFlags) (err error) {
	format, err := f.reportFormat()
	if err != nil {
		return err
	}

	rec, err := startRun(ctx, c.Store, f.save, model.RunKindProximity, f.data)
	if err != nil {
		return err
	}
	var summary model.RunSummary
	defer func() { err = rec.finish(ctx, err, &summary) }()

	tables, err := loadTables(ctx, c, f, model.TableLinks, model.TableNodes, model.TableZones, model.TablePOIs)
	if err != nil {
		return err
	}

	res, err := overlay.AnalyzeProximity(tables, overlay.OptionsFromConfig(c.Overlay, c.Analysis))
	if err != nil {
		return err
	}
	summary = model.RunSummary{
		Links:         len(tables.Links),
		Nodes:         len(tables.Nodes),
		Zones:         len(tables.Zones),
		POIs:          len(tables.POIs),
		CriticalNodes: len(res.Nodes),
	}

	if err := report.Emit(out, report.Proximity(res), format, f.output); err != nil {
		return err
	}

	if c.Output.Shapefile != "" {
		n, err := render.WriteShapefile(c.Output.Shapefile, res)
		if err != nil {
			return err
		}
		zap.L().Info("wrote shapefile", zap.String("path", c.Output.Shapefile), zap.Int("records", n))
	}

	if f.geojson != "" {
		fc := render.ProximityFeatures(res)
		if err := render.SaveGeoJSON(f.geojson, fc); err != nil {
			return err
		}
		zap.L().Info("wrote geojson", zap.String("path", f.geojson), zap.Int("features", len(fc.Features)))
	}

	if rec != nil {
		if _, err := rec.st.SaveProximity(ctx, rec.id(), res.Nodes, bufferCRS(c.Overlay)); err != nil {
			return err
		}
	}
	return nil
}
