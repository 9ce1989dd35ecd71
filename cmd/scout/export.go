package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"droneops-scout/internal/export"
	"droneops-scout/internal/valuemap"
)

var (
	exportSnapshot   string
	exportLog        string
	exportGeoJSON    string
	exportHeatMap    string
	exportTitle      string
	exportSimplify   float64
	exportDashboards string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a mission snapshot and log",
	Long:  "export writes a GeoJSON map of the trajectory, known cells and targets, a value heat map image, and Grafana dashboards for the mission tables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportGeoJSON == "" && exportHeatMap == "" && exportDashboards == "" {
			return fmt.Errorf("nothing to export: set --geojson, --heatmap or --dashboards")
		}
		var snap *valuemap.Snapshot
		if exportSnapshot != "" {
			s, err := valuemap.LoadSnapshot(exportSnapshot)
			if err != nil {
				return err
			}
			snap = &s
		}
		var l *export.Log
		if exportLog != "" {
			var err error
			if l, err = export.ReadLogFile(exportLog); err != nil {
				return err
			}
		}

		if exportGeoJSON != "" {
			fc, err := export.Collection(snap, l, exportSimplify)
			if err != nil {
				return err
			}
			if err := export.WriteGeoJSON(exportGeoJSON, fc); err != nil {
				return err
			}
			slog.Info("geojson written", "path", exportGeoJSON, "features", len(fc.Features))
		}
		if exportHeatMap != "" {
			if snap == nil {
				return fmt.Errorf("--heatmap needs --snapshot")
			}
			opts := export.HeatMapOptions{Title: exportTitle}
			if l != nil {
				opts.Poses = l.Poses
			}
			if err := export.HeatMap(*snap, exportHeatMap, opts); err != nil {
				return err
			}
			slog.Info("heat map written", "path", exportHeatMap)
		}
		if exportDashboards != "" {
			if err := export.RenderDashboards(exportDashboards); err != nil {
				return err
			}
			slog.Info("dashboards written", "dir", exportDashboards)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportSnapshot, "snapshot", "", "Snapshot JSON saved by run --snapshot-out")
	exportCmd.Flags().StringVar(&exportLog, "log", "", "JSONL mission log written by run --log-file")
	exportCmd.Flags().StringVar(&exportGeoJSON, "geojson", "", "Output path for the GeoJSON feature collection")
	exportCmd.Flags().StringVar(&exportHeatMap, "heatmap", "", "Output path for the value heat map (png, svg or pdf)")
	exportCmd.Flags().StringVar(&exportTitle, "title", "", "Heat map title")
	exportCmd.Flags().Float64Var(&exportSimplify, "simplify", 0, "Douglas-Peucker tolerance for the trajectory in meters")
	exportCmd.Flags().StringVar(&exportDashboards, "dashboards", "", "Directory for rendered Grafana dashboards")
}
