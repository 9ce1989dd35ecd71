package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"droneops-scout/internal/logging"
	"droneops-scout/internal/mission"
	"droneops-scout/internal/valuemap"
)

var (
	replayInput       string
	replaySpeed       float64
	replayPrintOnly   bool
	replayConfigPath  string
	replaySnapshotOut string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a mission log",
	Long:  "replay feeds the pose and observation records of a JSONL mission log into a fresh mission, re-emitting its rows to GreptimeDB or STDOUT.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		cfg, err := loadMissionConfig(replayConfigPath, "")
		if err != nil {
			return err
		}
		ws, err := newWriters(cfg, replayPrintOnly, "")
		if err != nil {
			return err
		}
		defer ws.cleanup()

		m, err := mission.New(cfg, ws.Writer)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		log := slog.Default()
		ctx = logging.NewContext(ctx, log)

		n, err := mission.ReplayFile(ctx, replayInput, m, replaySpeed)
		if err != nil {
			return err
		}
		log.Info("replay complete", "records", n, "visited", m.State().Visited)
		if replaySnapshotOut != "" {
			return valuemap.SaveSnapshot(replaySnapshotOut, m.Snapshot())
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to mission log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (0 for no delay)")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print JSON rows to STDOUT instead of writing to DB")
	replayCmd.Flags().StringVar(&replayConfigPath, "config", "config/mission.yaml", "Mission configuration the log was recorded with")
	replayCmd.Flags().StringVar(&replaySnapshotOut, "snapshot-out", "", "Save a snapshot of the replayed maps")
	replayCmd.MarkFlagRequired("input")
}
