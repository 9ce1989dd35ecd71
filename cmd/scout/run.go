package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"droneops-scout/internal/admin"
	"droneops-scout/internal/config"
	"droneops-scout/internal/grid"
	"droneops-scout/internal/logging"
	"droneops-scout/internal/mission"
	"droneops-scout/internal/script"
	"droneops-scout/internal/target"
	"droneops-scout/internal/valuemap"
)

var (
	runPrintOnly   bool
	runConfigPath  string
	runSchemaPath  string
	runScriptPath  string
	runBuiltIn     string
	runTick        time.Duration
	runLogFile     string
	runServe       string
	runSnapshotIn  string
	runSnapshotOut string
	runNoTargets   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fly a scout mission",
	Long: "run flies a mission over the occupancy grid. Steps come from a script file, a built-in script, " +
		"or autonomous exploration against the simulated targets when neither is given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadMissionConfig(runConfigPath, runSchemaPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("tick") {
			cfg.Mission.Tick = runTick
		}
		s, err := loadScript(runScriptPath, runBuiltIn)
		if err != nil {
			return err
		}

		ws, err := newWriters(cfg, runPrintOnly, runLogFile)
		if err != nil {
			return err
		}
		defer ws.cleanup()
		log := slog.Default()
		if ws.tui {
			log = logging.NewWriter(io.Discard, logLevel)
		}

		g, values, err := missionMaps(cfg, runSnapshotIn)
		if err != nil {
			return err
		}
		opts := []mission.Option{mission.WithGrid(g, values)}
		if !runNoTargets {
			eng := target.NewEngine(cfg.Target, g, cfg.Perception, nil)
			opts = append(opts, mission.WithScorer(eng), mission.WithTargets(eng))
		}
		m, err := mission.New(cfg, ws.Writer, opts...)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		if runServe != "" {
			srv := admin.NewServer(m, log)
			go func() {
				if err := srv.Start(ctx, runServe); err != nil && err != http.ErrServerClosed {
					log.Error("admin server failed", "err", err)
				}
			}()
		}

		runErr := m.Run(ctx, s)
		if runSnapshotOut != "" {
			if err := valuemap.SaveSnapshot(runSnapshotOut, m.Snapshot()); err != nil {
				return fmt.Errorf("save snapshot: %w", err)
			}
			log.Info("snapshot saved", "path", runSnapshotOut)
		}
		if errors.Is(runErr, context.Canceled) {
			log.Info("mission interrupted")
			return nil
		}
		return runErr
	},
}

func loadMissionConfig(path, schema string) (*config.MissionConfig, error) {
	var cfg *config.MissionConfig
	if path == "" {
		cfg = config.Default()
	} else {
		var err error
		if cfg, err = config.Load(path, schema); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadScript(path, builtin string) (*script.Script, error) {
	switch {
	case path != "" && builtin != "":
		return nil, fmt.Errorf("--script and --builtin are mutually exclusive")
	case path != "":
		return script.Load(path)
	case builtin != "":
		s, ok := script.BuiltIn()[builtin]
		if !ok {
			return nil, fmt.Errorf("unknown built-in script %q", builtin)
		}
		return &s, nil
	}
	return nil, nil
}

// missionMaps builds a fresh grid and value map, or restores them from a snapshot file.
func missionMaps(cfg *config.MissionConfig, snapshotPath string) (*grid.Grid, *valuemap.Map, error) {
	if snapshotPath != "" {
		snap, err := valuemap.LoadSnapshot(snapshotPath)
		if err != nil {
			return nil, nil, err
		}
		return valuemap.Restore(snap)
	}
	g, err := grid.New(cfg.Grid.Width, cfg.Grid.Height, cfg.Grid.CellSize, cfg.Grid.OriginX, cfg.Grid.OriginY)
	if err != nil {
		return nil, nil, err
	}
	return g, valuemap.New(g), nil
}

func init() {
	runCmd.Flags().BoolVar(&runPrintOnly, "print-only", false, "Print JSON rows to STDOUT instead of writing to DB or the TUI")
	runCmd.Flags().StringVar(&runConfigPath, "config", "config/mission.yaml", "Path to mission configuration YAML (empty for defaults)")
	runCmd.Flags().StringVar(&runSchemaPath, "schema", "", "Path to CUE schema file (empty for the embedded schema)")
	runCmd.Flags().StringVar(&runScriptPath, "script", "", "Path to a mission script YAML")
	runCmd.Flags().StringVar(&runBuiltIn, "builtin", "", "Name of a built-in script (square, corridor, survey)")
	runCmd.Flags().DurationVar(&runTick, "tick", time.Second, "Step interval (e.g. 500ms, 2s)")
	runCmd.Flags().StringVar(&runLogFile, "log-file", "", "Path to write a replayable JSONL mission log")
	runCmd.Flags().StringVar(&runServe, "serve", "", "Address for the admin HTTP server (e.g. :8080)")
	runCmd.Flags().StringVar(&runSnapshotIn, "snapshot-in", "", "Resume from a saved snapshot")
	runCmd.Flags().StringVar(&runSnapshotOut, "snapshot-out", "", "Save a snapshot of the maps when the mission ends")
	runCmd.Flags().BoolVar(&runNoTargets, "no-targets", false, "Disable the simulated targets and scorer")
}
