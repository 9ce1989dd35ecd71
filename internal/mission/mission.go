// Package mission drives one vehicle over the occupancy grid: it applies
// commands, fuses observations into the value map and reports every step to
// the configured writers.
package mission

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"droneops-scout/internal/config"
	"droneops-scout/internal/grid"
	"droneops-scout/internal/logging"
	"droneops-scout/internal/perception"
	"droneops-scout/internal/target"
	"droneops-scout/internal/telemetry"
	"droneops-scout/internal/valuemap"
)

var (
	// ErrBatteryLow stops a mission when the vehicle drops below the battery minimum.
	ErrBatteryLow = errors.New("battery below mission minimum")
	// ErrStopped is returned after a stop command.
	ErrStopped = errors.New("mission stopped")
	// ErrNoScorer is returned by scan and explore without a scorer.
	ErrNoScorer = errors.New("no scorer configured")
)

// TargetSource provides simulated targets to report alongside the mission.
type TargetSource interface {
	Targets() []target.Target
	Step()
}

// Mission holds the grid and value map behind a single lock.
type Mission struct {
	mu     sync.Mutex
	id     string
	grid   *grid.Grid
	values *valuemap.Map
	seq    int64

	view          valuemap.View
	limits        perception.Limits
	sceneChangeCm float64
	exploreSteps  int
	tick          time.Duration
	frameRadius   int
	sinceScanCm   float64

	vehicle *telemetry.Vehicle
	scorer  perception.Scorer
	targets TargetSource
	writer  Writer
	now     func() time.Time
}

// Option customizes a Mission.
type Option func(*Mission)

// WithScorer sets the perception source used by Scan and Explore.
func WithScorer(s perception.Scorer) Option { return func(m *Mission) { m.scorer = s } }

// WithTargets reports simulated targets on every step.
func WithTargets(t TargetSource) Option { return func(m *Mission) { m.targets = t } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(m *Mission) { m.now = now } }

// WithGrid uses an existing grid and value map, e.g. from a snapshot.
func WithGrid(g *grid.Grid, v *valuemap.Map) Option {
	return func(m *Mission) { m.grid, m.values = g, v }
}

// New builds a mission from cfg. A nil writer discards all rows.
func New(cfg *config.MissionConfig, w Writer, opts ...Option) (*Mission, error) {
	if w == nil {
		w = nopWriter{}
	}
	m := &Mission{
		id:            cfg.Mission.ID,
		view:          cfg.Perception,
		limits:        cfg.Vehicle.Limits,
		sceneChangeCm: cfg.Vehicle.SceneChangeCm,
		exploreSteps:  cfg.Mission.ExploreSteps,
		tick:          cfg.Mission.Tick,
		frameRadius:   12,
		vehicle:       telemetry.NewVehicle(cfg.Vehicle.BatteryMinPct, cfg.Vehicle.BatteryDrainPct),
		writer:        w,
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(m)
	}
	if m.id == "" {
		m.id = uuid.NewString()
	}
	if m.grid == nil {
		g, err := grid.New(cfg.Grid.Width, cfg.Grid.Height, cfg.Grid.CellSize, cfg.Grid.OriginX, cfg.Grid.OriginY)
		if err != nil {
			return nil, fmt.Errorf("mission grid: %w", err)
		}
		m.grid = g
		m.values = valuemap.New(g)
	}
	return m, nil
}

// ID returns the mission identifier.
func (m *Mission) ID() string { return m.id }

// Grid returns the current mission grid. Its geometry accessors are safe to
// call concurrently; state must be read through the mission. Restore swaps in
// a new grid, so callers should not hold on to the result.
func (m *Mission) Grid() *grid.Grid {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.grid
}

// Vehicle returns the battery model.
func (m *Mission) Vehicle() *telemetry.Vehicle { return m.vehicle }

// Move applies one command: integrate the pose, then rasterize the traversed
// path. Stop returns ErrStopped; moves are refused below the battery minimum.
func (m *Mission) Move(ctx context.Context, cmd perception.Command) (grid.Outcome, error) {
	if cmd.Action == perception.Stop {
		return grid.Outcome{Status: grid.Skipped}, ErrStopped
	}
	if !m.vehicle.CanFly() {
		return grid.Outcome{Status: grid.Skipped}, fmt.Errorf("%s: %w (%.1f%%)", cmd, ErrBatteryLow, m.vehicle.Battery())
	}
	return m.apply(ctx, cmd.String(), cmd.Delta(m.limits)), nil
}

func (m *Mission) apply(ctx context.Context, command string, d grid.Delta) grid.Outcome {
	m.mu.Lock()
	prev := m.grid.Pose()
	next := m.grid.Integrate(d)
	out := grid.Outcome{Status: grid.Skipped}
	if d.X != 0 || d.Y != 0 {
		out = m.grid.Rasterize(prev, next)
	}
	m.seq++
	seq := m.seq
	sector := m.grid.Sector()
	wx, wy := m.grid.PoseToWorld(next)
	dist := math.Hypot(d.X, d.Y)
	m.sinceScanCm += dist
	m.mu.Unlock()

	battery := m.vehicle.Fly(dist)
	logOutcome(ctx, "move", out, "command", command, "x", next.X, "y", next.Y, "sector", sector)

	row := telemetry.PoseRow{
		MissionID: m.id,
		Seq:       seq,
		Command:   command,
		DxCm:      d.X,
		DyCm:      d.Y,
		DyawRad:   d.Yaw,
		X:         next.X,
		Y:         next.Y,
		Yaw:       next.Yaw,
		WorldXM:   wx,
		WorldYM:   wy,
		Sector:    sector,
		Battery:   battery,
		Status:    out.Status.String(),
		Cells:     out.Cells,
		Timestamp: m.now(),
	}
	if err := m.writer.WritePose(row); err != nil {
		logging.FromContext(ctx).Error("write pose failed", "mission_id", m.id, "err", err)
	}
	return out
}

// ObservationResult is what Observe did with one observation.
type ObservationResult struct {
	Fusion    grid.Outcome
	Occupancy grid.Outcome
	Best      grid.Cell
	BestFound bool
}

// Observe fuses an observation at the current pose, classifies the cells in
// view and picks the next best cell.
func (m *Mission) Observe(ctx context.Context, obs perception.Observation) ObservationResult {
	view := m.view
	view.OffsetXCm = obs.OffsetXCm
	view.OffsetYCm = obs.OffsetYCm

	m.mu.Lock()
	pose := m.grid.Pose()
	res := ObservationResult{Fusion: m.values.Update(obs.Score, pose, view)}
	if res.Fusion.Status != grid.Failed || !errors.Is(res.Fusion.Err, valuemap.ErrInvalidScore) {
		res.Occupancy = m.grid.MarkObservation(view.Cone(pose), obs.ObstacleRange)
	}
	res.Best, res.BestFound = m.values.Best(pose, view)
	bestValue := m.values.At(res.Best.X, res.Best.Y).Value
	m.seq++
	seq := m.seq
	m.sinceScanCm = 0
	m.mu.Unlock()

	logOutcome(ctx, "observe", res.Fusion, "score", obs.Score, "cell_x", int(pose.X), "cell_y", int(pose.Y))

	row := telemetry.ObservationRow{
		MissionID:     m.id,
		ObservationID: uuid.NewString(),
		Seq:           seq,
		Score:         obs.Score,
		ObstacleRange: obs.ObstacleRange,
		OffsetXCm:     obs.OffsetXCm,
		OffsetYCm:     obs.OffsetYCm,
		X:             pose.X,
		Y:             pose.Y,
		Yaw:           pose.Yaw,
		Status:        res.Fusion.Status.String(),
		Cells:         res.Fusion.Cells,
		OccupancyCell: res.Occupancy.Cells,
		BestX:         res.Best.X,
		BestY:         res.Best.Y,
		BestFound:     res.BestFound,
		BestValue:     bestValue,
		Timestamp:     m.now(),
	}
	if res.Fusion.Err != nil {
		row.Error = res.Fusion.Err.Error()
	}
	if d, ok := obs.Best(); ok {
		row.TopObject = d.Object
		row.TopScore = d.Score
	}
	if err := m.writer.WriteObservation(row); err != nil {
		logging.FromContext(ctx).Error("write observation failed", "mission_id", m.id, "err", err)
	}
	return res
}

// Scan captures a frame at the current pose, scores it and observes the result.
func (m *Mission) Scan(ctx context.Context) (perception.Observation, ObservationResult, error) {
	if m.scorer == nil {
		return perception.Observation{}, ObservationResult{}, ErrNoScorer
	}
	frame := perception.Frame{Pose: m.Pose(), Battery: m.vehicle.Battery(), Timestamp: m.now()}
	obs, err := m.scorer.Score(ctx, frame)
	if err != nil {
		return obs, ObservationResult{}, fmt.Errorf("score frame: %w", err)
	}
	return obs, m.Observe(ctx, obs), nil
}

// Pose returns the current vehicle pose.
func (m *Mission) Pose() grid.Pose {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.grid.Pose()
}

// PoseInfo describes the vehicle position for status endpoints.
type PoseInfo struct {
	Pose    grid.Pose `json:"pose"`
	Cell    grid.Cell `json:"cell"`
	Sector  string    `json:"sector"`
	WorldXM float64   `json:"world_x_m"`
	WorldYM float64   `json:"world_y_m"`
	Battery float64   `json:"battery_pct"`
	Status  string    `json:"vehicle_status"`
}

// PoseInfo returns the pose with its derived values.
func (m *Mission) PoseInfo() PoseInfo {
	m.mu.Lock()
	p := m.grid.Pose()
	info := PoseInfo{Pose: p, Cell: m.grid.PoseCell(), Sector: m.grid.Sector()}
	info.WorldXM, info.WorldYM = m.grid.PoseToWorld(p)
	m.mu.Unlock()
	info.Battery = m.vehicle.Battery()
	info.Status = m.vehicle.Status()
	return info
}

// Frame returns the grid window of the given radius around the vehicle.
func (m *Mission) Frame(radius int) GridFrame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frameLocked(radius)
}

func (m *Mission) frameLocked(radius int) GridFrame {
	p := m.grid.Pose()
	c := m.grid.PoseCell()
	best, ok := m.values.Best(p, m.view)
	return GridFrame{
		MissionID: m.id,
		Center:    c,
		Radius:    radius,
		Pose:      p,
		Sector:    m.grid.Sector(),
		Best:      best,
		BestFound: ok,
		Cells:     m.grid.Window(c, radius),
	}
}

// Stats summarizes the value map.
func (m *Mission) Stats() valuemap.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values.Stats()
}

// Targets returns the simulated targets, if any.
func (m *Mission) Targets() []target.Target {
	if m.targets == nil {
		return nil
	}
	return m.targets.Targets()
}

// State returns the current map summary row.
func (m *Mission) State() telemetry.MissionStateRow {
	m.mu.Lock()
	st := m.values.Stats()
	row := telemetry.MissionStateRow{
		MissionID:      m.id,
		Visited:        m.grid.Count(grid.Visited),
		Free:           m.grid.Count(grid.Free),
		Obstacles:      m.grid.Count(grid.Obstacle),
		Observed:       st.Observed,
		MeanValue:      st.MeanValue,
		MeanConfidence: st.MeanConfidence,
		MaxValue:       st.MaxValue,
	}
	m.mu.Unlock()
	row.Battery = m.vehicle.Battery()
	row.VehicleStatus = m.vehicle.Status()
	row.Timestamp = m.now()
	return row
}

// Snapshot copies the grid and value map.
func (m *Mission) Snapshot() valuemap.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values.Snapshot()
}

// Restore replaces the grid and value map with a snapshot.
func (m *Mission) Restore(s valuemap.Snapshot) error {
	g, v, err := valuemap.Restore(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.grid, m.values = g, v
	m.mu.Unlock()
	return nil
}

func logOutcome(ctx context.Context, op string, out grid.Outcome, args ...any) {
	log := logging.FromContext(ctx)
	args = append(args, "status", out.Status.String(), "cells", out.Cells)
	switch out.Status {
	case grid.Failed:
		log.Warn(op+" failed", append(args, "err", out.Err)...)
	case grid.Skipped:
		log.Debug(op+" skipped", args...)
	default:
		log.Debug(op, args...)
	}
}
