package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/chokepoint/internal/config"
	"github.com/sells-group/chokepoint/internal/model"
	"github.com/sells-group/chokepoint/internal/network"
	"github.com/sells-group/chokepoint/internal/render"
	"github.com/sells-group/chokepoint/internal/report"
)

var overloadCmd = &cobra.Command{
	Use:   "overload",
	Short: "Flag overloaded links and the nodes they meet at",
	Long: "Joins aggregated demand onto links, computes utilization as volume over capacity " +
		"(lanes x free_speed x 10), and reports overloaded links and nodes with more than one " +
		"overloaded outgoing link. --strict aborts on the first malformed row.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		f := readOutputFlags(cmd, cfg)
		plotPath, _ := cmd.Flags().GetString("plot")
		if plotPath == "" {
			plotPath = cfg.Output.Plot
		}
		return runOverload(cmd.Context(), cmd.OutOrStdout(), cfg, f, plotPath)
	},
}

func init() {
	addInputFlags(overloadCmd)
	overloadCmd.Flags().Bool("strict", false, "fail on malformed rows and drop links without demand")
	overloadCmd.Flags().String("plot", "", "render the network to a PNG file")
	rootCmd.AddCommand(overloadCmd)
}

func runOverload(ctx context.Context, out io.Writer, c *config.Config, f outputFlags, plotPath string) (err error) {
	format, err := f.reportFormat()
	if err != nil {
		return err
	}

	rec, err := startRun(ctx, c.Store, f.save, model.RunKindOverload, f.data)
	if err != nil {
		return err
	}
	var summary model.RunSummary
	defer func() { err = rec.finish(ctx, err, &summary) }()

	tables, err := loadTables(ctx, c, f, model.TableLinks, model.TableNodes, model.TableDemand)
	if err != nil {
		return err
	}

	res, err := network.AnalyzeOverload(tables, network.OptionsFromConfig(c.Analysis, f.strict))
	if err != nil {
		return err
	}
	summary = model.RunSummary{
		Links:           len(tables.Links),
		Nodes:           len(tables.Nodes),
		DemandRows:      len(tables.Demand),
		LinkLoads:       len(res.Loads),
		OverloadedLinks: len(res.Overloaded),
		CriticalNodes:   len(res.CriticalNodes),
		UnmatchedDemand: res.UnmatchedDemand,
	}

	if err := report.Emit(out, report.Overload(res), format, f.output); err != nil {
		return err
	}

	if plotPath != "" {
		err := render.SavePlot(plotPath, render.NetworkPlot{
			Links:      tables.Links,
			Nodes:      tables.Nodes,
			Overloaded: res.Overloaded,
			Critical:   res.CriticalNodes,
		})
		if err != nil {
			return err
		}
		zap.L().Info("wrote plot", zap.String("path", plotPath))
	}

	if f.geojson != "" {
		fc, err := render.OverloadFeatures(tables.Links, tables.Nodes, res)
		if err != nil {
			return err
		}
		if err := render.SaveGeoJSON(f.geojson, fc); err != nil {
			return err
		}
		zap.L().Info("wrote geojson", zap.String("path", f.geojson), zap.Int("features", len(fc.Features)))
	}

	if rec != nil {
		if _, err := rec.st.SaveLinkLoads(ctx, rec.id(), res.Loads); err != nil {
			return err
		}
		if _, err := rec.st.SaveCriticalNodes(ctx, rec.id(), res.CriticalNodes); err != nil {
			return err
		}
	}
	return nil
}
