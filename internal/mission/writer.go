package mission

import (
	"droneops-scout/internal/grid"
	"droneops-scout/internal/telemetry"
)

// Writer receives the rows produced by mission operations.
type Writer interface {
	WritePose(telemetry.PoseRow) error
	WriteObservation(telemetry.ObservationRow) error
}

// TargetWriter handles simulated target positions.
type TargetWriter interface {
	WriteTargets([]telemetry.TargetRow) error
}

// StateWriter handles per-step map summaries.
type StateWriter interface {
	WriteState(telemetry.MissionStateRow) error
}

// FrameWriter receives a window of the occupancy grid around the vehicle.
type FrameWriter interface {
	WriteFrame(GridFrame) error
}

// GridFrame is a square of cell states centered on the vehicle, rows ordered
// with y ascending.
type GridFrame struct {
	MissionID string         `json:"mission_id"`
	Center    grid.Cell      `json:"center"`
	Radius    int            `json:"radius"`
	Pose      grid.Pose      `json:"pose"`
	Sector    string         `json:"sector"`
	Best      grid.Cell      `json:"best"`
	BestFound bool           `json:"best_found"`
	Cells     [][]grid.State `json:"cells"`
}

// Local returns the state at (x, y) of the frame window, Unknown when outside.
func (f GridFrame) Local(x, y int) grid.State {
	if y < 0 || y >= len(f.Cells) || x < 0 || x >= len(f.Cells[y]) {
		return grid.Unknown
	}
	return f.Cells[y][x]
}

type nopWriter struct{}

func (nopWriter) WritePose(telemetry.PoseRow) error               { return nil }
func (nopWriter) WriteObservation(telemetry.ObservationRow) error { return nil }
