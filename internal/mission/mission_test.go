package mission

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"droneops-scout/internal/config"
	"droneops-scout/internal/grid"
	"droneops-scout/internal/perception"
)

func TestNewMissionDefaults(t *testing.T) {
	m := newTestMission(t, nil)
	assert.Equal(t, "test-mission", m.ID())
	assert.Equal(t, 200, m.Grid().Size())
	assert.Equal(t, grid.Pose{X: 100, Y: 100}, m.Pose())

	cfg := testConfig()
	cfg.Mission.ID = ""
	m2, err := New(cfg, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, m2.ID())

	cfg.Grid.CellSize = -1
	_, err = New(cfg, nil)
	assert.True(t, errors.Is(err, grid.ErrInvalidCellSize))
}

func TestMoveIntegratesAndRasterizes(t *testing.T) {
	w := &collectWriter{}
	m := newTestMission(t, w)

	out, err := m.Move(context.Background(), perception.Command{Action: perception.MoveForward, Amount: 30})
	require.NoError(t, err)
	assert.Equal(t, grid.Applied, out.Status)
	assert.Equal(t, 4, out.Cells)

	p := m.Pose()
	assert.InDelta(t, 100, p.X, 1e-9)
	assert.InDelta(t, 103, p.Y, 1e-9)
	for y := 100; y <= 103; y++ {
		assert.Equal(t, grid.Visited, m.Frame(5).Cells[y-98][5], "cell y=%d", y)
	}

	require.Len(t, w.poses, 1)
	row := w.poses[0]
	assert.Equal(t, "move_forward 30", row.Command)
	assert.Equal(t, 30.0, row.DyCm)
	assert.Equal(t, "applied", row.Status)
	assert.Equal(t, "N", row.Sector)
	assert.Equal(t, int64(1), row.Seq)
}

func TestMoveClampsAndTurns(t *testing.T) {
	w := &collectWriter{}
	m := newTestMission(t, w)
	ctx := context.Background()

	_, err := m.Move(ctx, perception.Command{Action: perception.TurnCW, Amount: 90})
	require.NoError(t, err)
	out, err := m.Move(ctx, perception.Command{Action: perception.MoveForward, Amount: 5})
	require.NoError(t, err)
	assert.Equal(t, grid.Applied, out.Status)

	assert.Equal(t, 20.0, w.poses[1].DyCm)
	assert.Equal(t, "E", w.poses[1].Sector)
	assert.Equal(t, grid.Skipped.String(), w.poses[0].Status)
}

func TestMoveStopAndBattery(t *testing.T) {
	m := newTestMission(t, nil)
	ctx := context.Background()

	_, err := m.Move(ctx, perception.Command{Action: perception.Stop})
	assert.ErrorIs(t, err, ErrStopped)

	m.Vehicle().SetBattery(10)
	_, err = m.Move(ctx, perception.Command{Action: perception.MoveForward, Amount: 30})
	assert.ErrorIs(t, err, ErrBatteryLow)
	assert.Equal(t, grid.Pose{X: 100, Y: 100}, m.Pose())
}

func TestMoveDrainsBattery(t *testing.T) {
	cfg := testConfig()
	cfg.Vehicle.BatteryDrainPct = 10
	m, err := New(cfg, nil)
	require.NoError(t, err)
	_, err = m.Move(context.Background(), perception.Command{Action: perception.MoveRight, Amount: 100})
	require.NoError(t, err)
	assert.InDelta(t, 90, m.Vehicle().Battery(), 1e-9)
}

func TestObserveFusesAndClassifies(t *testing.T) {
	w := &collectWriter{}
	m := newTestMission(t, w)

	res := m.Observe(context.Background(), perception.Observation{
		Score:         0.73,
		ObstacleRange: 3,
		Detections:    []perception.Detection{{Object: "person", Score: 0.9}},
	})
	assert.Equal(t, grid.Applied, res.Fusion.Status)
	assert.Equal(t, grid.Applied, res.Occupancy.Status)
	assert.True(t, res.BestFound)

	f := m.Frame(4)
	// straight ahead: free until the obstacle at distance 3
	assert.Equal(t, grid.Free, f.Local(4, 5))
	assert.Equal(t, grid.Free, f.Local(4, 6))
	assert.Equal(t, grid.Obstacle, f.Local(4, 7))

	require.Len(t, w.obs, 1)
	row := w.obs[0]
	assert.Equal(t, "applied", row.Status)
	assert.Equal(t, res.Fusion.Cells, row.Cells)
	assert.Equal(t, "person", row.TopObject)
	assert.NotEmpty(t, row.ObservationID)
	assert.Empty(t, row.Error)
}

func TestObserveOutOfGrid(t *testing.T) {
	w := &collectWriter{}
	m := newTestMission(t, w)

	res := m.Observe(context.Background(), perception.Observation{Score: 0.5, OffsetXCm: 5000})
	assert.Equal(t, grid.Failed, res.Fusion.Status)
	require.Len(t, w.obs, 1)
	assert.Equal(t, "failed", w.obs[0].Status)
	assert.Contains(t, w.obs[0].Error, "outside grid")
	assert.Zero(t, m.Stats().Observed)
}

func TestScan(t *testing.T) {
	m := newTestMission(t, nil)
	_, _, err := m.Scan(context.Background())
	assert.ErrorIs(t, err, ErrNoScorer)

	var seen perception.Frame
	scorer := perception.ScorerFunc(func(_ context.Context, f perception.Frame) (perception.Observation, error) {
		seen = f
		return perception.Observation{Score: 0.4}, nil
	})
	m = newTestMission(t, nil, WithScorer(scorer))
	obs, res, err := m.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.4, obs.Score)
	assert.Equal(t, grid.Applied, res.Fusion.Status)
	assert.Equal(t, 100.0, seen.Battery)
	assert.Equal(t, m.Pose(), seen.Pose)

	failing := perception.ScorerFunc(func(context.Context, perception.Frame) (perception.Observation, error) {
		return perception.Observation{}, errors.New("camera offline")
	})
	m = newTestMission(t, nil, WithScorer(failing))
	_, _, err = m.Scan(context.Background())
	assert.ErrorContains(t, err, "camera offline")
}

func TestStateAndPoseInfo(t *testing.T) {
	m := newTestMission(t, nil)
	ctx := context.Background()
	_, err := m.Move(ctx, perception.Command{Action: perception.MoveForward, Amount: 30})
	require.NoError(t, err)
	m.Observe(ctx, perception.Observation{Score: 0.6})

	st := m.State()
	assert.Equal(t, 4, st.Visited)
	assert.Greater(t, st.Observed, 0)
	assert.Equal(t, "ok", st.VehicleStatus)
	assert.InDelta(t, 0.6, st.MaxValue, 1e-9)

	info := m.PoseInfo()
	assert.Equal(t, grid.Cell{X: 100, Y: 103}, info.Cell)
	assert.Equal(t, "N", info.Sector)
	assert.InDelta(t, 0.35, info.WorldYM, 1e-9)
}

func TestSnapshotRestore(t *testing.T) {
	m := newTestMission(t, nil)
	ctx := context.Background()
	_, err := m.Move(ctx, perception.Command{Action: perception.MoveLeft, Amount: 40})
	require.NoError(t, err)
	m.Observe(ctx, perception.Observation{Score: 0.8, ObstacleRange: 2})
	snap := m.Snapshot()

	fresh := newTestMission(t, nil)
	require.NoError(t, fresh.Restore(snap))
	assert.Equal(t, m.Pose(), fresh.Pose())
	assert.Equal(t, m.State().Visited, fresh.State().Visited)
	assert.Equal(t, m.Stats(), fresh.Stats())

	bad := snap
	bad.Size = 3
	assert.Error(t, fresh.Restore(bad))
}

func TestRestoreConcurrentWithGridReads(t *testing.T) {
	m := newTestMission(t, nil)
	snap := m.Snapshot()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			assert.NoError(t, m.Restore(snap))
		}
	}()
	for i := 0; i < 50; i++ {
		assert.Equal(t, 200, m.Grid().Size())
	}
	wg.Wait()
	assert.Equal(t, snap.Pose, m.Grid().Pose())
}

func TestNewWithGrid(t *testing.T) {
	cfg := config.Default()
	m := newTestMission(t, nil)
	m2, err := New(cfg, nil, WithGrid(m.grid, m.values))
	require.NoError(t, err)
	assert.Same(t, m.grid, m2.Grid())
}
