package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/chokepoint/internal/config"
	"github.com/sells-group/chokepoint/internal/fetcher"
	"github.com/sells-group/chokepoint/internal/ingest"
	"github.com/sells-group/chokepoint/internal/model"
	"github.com/sells-group/chokepoint/internal/report"
)

// outputFlags are shared by the analysis commands.
type outputFlags struct {
	data    string
	strict  bool
	geojson string
	format  string
	output  string
	save    bool
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("data", "", "input directory or http(s)/ftp base URL (default input.dir)")
	cmd.Flags().String("geojson", "", "write result geometries to a GeoJSON file")
	cmd.Flags().String("format", "", "report format: table, csv, json, yaml, xlsx (default output.format)")
	cmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().Bool("save", false, "record the run in the configured store")
}

// readOutputFlags merges command flags over the loaded configuration.
func readOutputFlags(cmd *cobra.Command, c *config.Config) outputFlags {
	f := outputFlags{
		data:    c.Input.Dir,
		strict:  c.Input.Strict,
		geojson: c.Output.GeoJSON,
		format:  c.Output.Format,
		save:    c.Store.Enabled,
	}
	if v, _ := cmd.Flags().GetString("data"); v != "" {
		f.data = v
	}
	if cmd.Flags().Lookup("strict") != nil && cmd.Flags().Changed("strict") {
		f.strict, _ = cmd.Flags().GetBool("strict")
	}
	if v, _ := cmd.Flags().GetString("geojson"); v != "" {
		f.geojson = v
	}
	if v, _ := cmd.Flags().GetString("format"); v != "" {
		f.format = v
	}
	f.output, _ = cmd.Flags().GetString("output")
	if cmd.Flags().Changed("save") {
		f.save, _ = cmd.Flags().GetBool("save")
	}
	return f
}

func (f outputFlags) reportFormat() (report.Format, error) {
	return report.ParseFormat(f.format)
}

func fetchOptions(c config.FetchConfig) fetcher.Options {
	timeout := time.Duration(c.TimeoutSecs) * time.Second
	return fetcher.Options{
		HTTP: fetcher.HTTPOptions{
			UserAgent:  c.UserAgent,
			Timeout:    timeout,
			MaxRetries: c.MaxRetries,
			RateLimit:  c.RateLimit,
		},
		FTP: fetcher.FTPOptions{Timeout: timeout},
	}
}

// loadTables reads the requested tables from f.data using the configured
// file names, encoding and delimiter.
func loadTables(ctx context.Context, c *config.Config, f outputFlags, want ...model.Table) (*model.Tables, error) {
	in := c.Input
	in.Dir = f.data
	in.Strict = f.strict

	files := ingest.FilesFromConfig(in)
	src := fetcher.NewSource(fetchOptions(c.Fetch))

	zap.L().Info("loading tables", zap.String("source", f.data), zap.Bool("strict", f.strict))
	return ingest.LoadTables(ctx, src, files, want, ingest.OptionsFromConfig(in))
}
